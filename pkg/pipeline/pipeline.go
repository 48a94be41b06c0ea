// Package pipeline runs the rule workflow behind every ruleviz surface.
//
// One submit cycle takes a rule and optional sample data through three
// stages:
//
//  1. Service: evaluate the rule and compile it to an AST, concurrently
//  2. Layout: position the AST nodes with [layout.Compute]
//  3. Render: draw the positioned tree as SVG (and other formats on demand)
//
// The result is a [State]. A failing stage leaves only the error in the
// state: no results and no drawing survive a failure.
//
// # Usage
//
//	runner := pipeline.NewRunner(client, cache, nil, logger)
//	st, err := runner.Submit(ctx, pipeline.Request{Rule: "a > 1 or b == 2"})
//	if errors.Is(err, pipeline.ErrStale) {
//	    return // a newer submit superseded this one
//	}
//	view.Render(w, st)
//
// Stages also run on their own, for example to lay out an AST read from a
// file:
//
//	l, err := runner.Layout(ctx, root, pipeline.Options{})
//	artifacts, err := runner.Render(ctx, l, root, pipeline.Options{Formats: []string{"svg", "png"}})
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ruleviz/pkg/cache"
	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/layout"
	"github.com/matzehuels/ruleviz/pkg/ruleclient"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, TUI, and Server
// =============================================================================

const (
	// DefaultWidth is the default layout width.
	DefaultWidth = 400.0

	// DefaultHeight is the default layout height.
	DefaultHeight = 300.0

	// DefaultMaxDepth is the default number of tree levels accepted.
	DefaultMaxDepth = tree.DefaultMaxDepth

	// DefaultLayoutTTL is how long computed layouts stay cached.
	DefaultLayoutTTL = 7 * 24 * time.Hour
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatText = "text"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatText: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures the layout and render stages.
type Options struct {
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
	MaxDepth int      `json:"max_depth,omitempty"`
	Formats  []string `json:"formats,omitempty"`

	// Detailed adds ids and depths to DOT labels.
	Detailed bool `json:"detailed,omitempty"`

	// Runtime options (not serialized)
	LayoutTTL time.Duration `json:"-"`
	Logger    *log.Logger   `json:"-"`
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.LayoutTTL == 0 {
		o.LayoutTTL = DefaultLayoutTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate applies defaults and checks the options.
func (o *Options) Validate() error {
	o.SetDefaults()
	if o.MaxDepth < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max depth must be positive, got %d", o.MaxDepth)
	}
	return ValidateFormats(o.Formats)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:    o.Width,
		Height:   o.Height,
		MaxDepth: o.MaxDepth,
	}
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: %s)", format, strings.Join(FormatNames(), ", "))
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// FormatNames lists the supported formats in a stable order.
func FormatNames() []string {
	return []string{FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatDOT, FormatText}
}

// =============================================================================
// Request and State
// =============================================================================

// Request is one submission of the rule form.
type Request struct {
	Rule string         `json:"rule"`
	Data map[string]any `json:"data,omitempty"`
}

// Validate checks the rule text and data field names.
func (r Request) Validate() error {
	if err := errors.ValidateRule(r.Rule); err != nil {
		return err
	}
	for name := range r.Data {
		if err := errors.ValidateFieldName(name); err != nil {
			return err
		}
	}
	return nil
}

// State is everything a view needs to draw one submit cycle. When Err is
// set, Results, Layout and SVG are empty.
type State struct {
	Seq     uint64
	Rule    string
	Results []ruleclient.Result
	AST     *tree.Node
	Layout  *layout.Result
	SVG     []byte
	Err     error

	Stats     Stats
	CacheInfo CacheInfo
}

// Failed returns the error-only state for a cycle.
func Failed(seq uint64, rule string, err error) State {
	return State{Seq: seq, Rule: rule, Err: err}
}

// Message returns the text to show for a failed state, or "".
func (s State) Message() string {
	if s.Err == nil {
		return ""
	}
	return errors.UserMessage(s.Err)
}

// Stats contains stage timings of a cycle.
type Stats struct {
	NodeCount   int
	ServiceTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	ASTHit    bool // Whether the AST came from cache
	LayoutHit bool // Whether the layout came from cache
}

func (s Stats) String() string {
	return fmt.Sprintf("%d nodes, service %s, layout %s, render %s",
		s.NodeCount, s.ServiceTime, s.LayoutTime, s.RenderTime)
}
