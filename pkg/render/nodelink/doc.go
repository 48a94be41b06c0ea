// Package nodelink renders rule trees through Graphviz.
//
// # Overview
//
// This package is an alternative to the built-in tidy-tree layout: the tree
// is converted to DOT source and Graphviz computes positions. Operators
// (internal nodes) appear as filled ellipses and operands (leaves) as
// rounded boxes.
//
// # Usage
//
//	dot := nodelink.ToDOT(root, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(dot)
//	png, err := nodelink.RenderPNG(dot, 2.0)  // 2x scale
//
// # Options
//
//   - Detailed: node labels also carry the pre-order id and depth
//
// Node identifiers in the DOT output are pre-order indices ("n0" is the
// root), the same numbering as [layout.PositionedNode.ID], and children keep
// their input order left to right.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
//
// [layout.PositionedNode.ID]: github.com/matzehuels/ruleviz/pkg/layout.PositionedNode
package nodelink
