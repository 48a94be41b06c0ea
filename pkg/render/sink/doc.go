// Package sink provides output format renderers for rule tree layouts.
//
// # Overview
//
// A "sink" transforms a computed [layout.Result] into a final output format.
// This package provides renderers for:
//
//   - SVG: node-link diagram drawn through [SVGSurface]
//   - JSON: layout data export for external tools and caching
//   - PDF: print-ready output (requires rsvg-convert)
//   - PNG: raster image output (requires rsvg-convert)
//   - Text: an indented outline for terminals
//
// # SVG Output
//
// [RenderSVG] draws the layout with [render.Draw] onto an [SVGSurface]. The
// default [Style] uses steelblue node circles, 2px black edges and 12px
// Arial labels:
//
//	svg := sink.RenderSVG(r, sink.WithMargin(20))
//
// # PDF and PNG Output
//
// [RenderPDF] and [RenderPNG] render the layout as SVG first, then convert via
// [render.ToPDF] and [render.ToPNG]. These require librsvg to be installed:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
//
// [layout.Result]: github.com/matzehuels/ruleviz/pkg/layout.Result
// [render.Draw]: github.com/matzehuels/ruleviz/pkg/render.Draw
// [render.ToPDF]: github.com/matzehuels/ruleviz/pkg/render.ToPDF
// [render.ToPNG]: github.com/matzehuels/ruleviz/pkg/render.ToPNG
package sink
