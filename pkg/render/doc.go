// Package render draws layout results onto 2D drawing surfaces.
//
// # Overview
//
// A [layout.Result] holds node positions in abstract layout space. This
// package maps those positions to device pixels through a [Viewport] and
// issues draw commands to a [Surface]:
//
//   - [Surface]: the drawing-library boundary (clear, line, circle, text)
//   - [Draw]: clear, then one line per edge, one circle per node, one label per node
//   - [ToPDF] and [ToPNG]: convert SVG output using rsvg-convert
//
// Concrete surfaces and output formats live in the [sink] subpackage. The
// [nodelink] subpackage renders the same tree through Graphviz instead of
// the built-in layout.
//
//	r, _ := layout.Compute(root, 400, 300)
//	svg := sink.RenderSVG(r)
//	png, err := render.ToPNG(svg, 2.0)
//
// Draw is stateless: every call starts with [Surface.Clear], so a surface
// never shows output from two different layouts.
//
// [sink]: github.com/matzehuels/ruleviz/pkg/render/sink
// [nodelink]: github.com/matzehuels/ruleviz/pkg/render/nodelink
package render
