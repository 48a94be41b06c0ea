// Package pkg provides the core libraries for ruleviz rule tree visualization.
//
// # Overview
//
// ruleviz sends rules to a rule service, which evaluates them against data
// and compiles them to abstract syntax trees. The trees are laid out as tidy
// node-link diagrams and drawn. The pkg directory is organized into these
// areas:
//
//  1. [tree] and [layout] - the AST model and the layout engine
//  2. [render] - drawing surfaces and output formats
//  3. [ruleclient] - the rule service client
//  4. [pipeline] and [view] - one submit cycle, from form to HTML
//  5. [cache], [observability], [errors], [httputil] - infrastructure
//
// # Architecture
//
// The data flow of one submit cycle:
//
//	rule + data
//	     ↓
//	[ruleclient] (POST /evaluate and POST /api/create_rule, concurrently)
//	     ↓
//	[tree] (validated AST)
//	     ↓
//	[layout] (positions and edges)
//	     ↓
//	[render/sink] (SVG, PNG, PDF, JSON, text) or [render/nodelink] (DOT)
//	     ↓
//	[view] (results list and diagram, or one error)
//
// # Quick Start
//
// Lay out and draw an AST read from a file:
//
//	import (
//	    "github.com/matzehuels/ruleviz/pkg/layout"
//	    "github.com/matzehuels/ruleviz/pkg/render/sink"
//	    "github.com/matzehuels/ruleviz/pkg/tree"
//	)
//
//	root, _ := tree.ReadFile("rule.json")
//	l, _ := layout.Compute(root, 400, 300)
//	svg := sink.RenderSVG(l)
//
// Run a full cycle against a rule service:
//
//	client, _ := ruleclient.New("http://localhost:5000")
//	runner := pipeline.NewRunner(client, nil, nil, nil)
//	st := runner.Run(ctx, pipeline.Request{Rule: "age > 30", Data: pipeline.SampleData()})
//	view.Render(w, st)
//
// # Error Handling
//
// Every package reports failures as [errors.Error] values carrying a code,
// so callers can tell bad input (INVALID_TREE, INVALID_DIMENSIONS) from
// service failures (RULE_REJECTED, NETWORK_ERROR, TIMEOUT) with [errors.Is].
//
// [tree]: github.com/matzehuels/ruleviz/pkg/tree
// [layout]: github.com/matzehuels/ruleviz/pkg/layout
// [render]: github.com/matzehuels/ruleviz/pkg/render
// [render/sink]: github.com/matzehuels/ruleviz/pkg/render/sink
// [render/nodelink]: github.com/matzehuels/ruleviz/pkg/render/nodelink
// [ruleclient]: github.com/matzehuels/ruleviz/pkg/ruleclient
// [pipeline]: github.com/matzehuels/ruleviz/pkg/pipeline
// [view]: github.com/matzehuels/ruleviz/pkg/view
// [cache]: github.com/matzehuels/ruleviz/pkg/cache
// [observability]: github.com/matzehuels/ruleviz/pkg/observability
// [errors]: github.com/matzehuels/ruleviz/pkg/errors
// [errors.Error]: github.com/matzehuels/ruleviz/pkg/errors.Error
// [errors.Is]: github.com/matzehuels/ruleviz/pkg/errors.Is
// [httputil]: github.com/matzehuels/ruleviz/pkg/httputil
package pkg
