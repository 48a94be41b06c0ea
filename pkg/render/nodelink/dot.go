package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/ruleviz/pkg/render"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed includes the node id and depth in labels.
	// When false, only the node value is shown.
	Detailed bool
}

// ToDOT converts a rule tree to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
// A nil root produces an empty graph.
func ToDOT(root *tree.Node, opts Options) string {
	var nodes, edges bytes.Buffer

	type frame struct {
		node   *tree.Node
		parent int
		depth  int
	}
	var stack []frame
	if root != nil {
		stack = append(stack, frame{root, -1, 0})
	}
	id := 0
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		label := fmtLabel(f.node, id, f.depth, opts.Detailed)
		fmt.Fprintf(&nodes, "  n%d [%s];\n", id, strings.Join(fmtAttrs(f.node, label), ", "))
		if f.parent >= 0 {
			fmt.Fprintf(&edges, "  n%d -> n%d;\n", f.parent, id)
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], id, f.depth + 1})
		}
		id++
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  ordering=out;\n")
	buf.WriteString("  node [fontname=\"Arial\", fontsize=12, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  edge [arrowhead=none, penwidth=2];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
	buf.Write(nodes.Bytes())
	if edges.Len() > 0 {
		buf.WriteString("\n")
		buf.Write(edges.Bytes())
	}
	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *tree.Node, id, depth int, detailed bool) string {
	if !detailed {
		return n.Value
	}
	return fmt.Sprintf("%s\nid: %d\ndepth: %d", n.Value, id, depth)
}

func fmtAttrs(n *tree.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if n.IsLeaf() {
		attrs = append(attrs, "shape=box", `style="rounded,filled"`, "fillcolor=white")
	} else {
		attrs = append(attrs, "shape=ellipse", "style=filled", "fillcolor=steelblue", "fontcolor=white")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
