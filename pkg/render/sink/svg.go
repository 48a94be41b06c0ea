package sink

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/ruleviz/pkg/layout"
	"github.com/matzehuels/ruleviz/pkg/render"
)

// SVGSurface is a [render.Surface] that accumulates SVG elements.
// Edges, nodes and labels are kept in separate groups so labels always
// paint above circles and circles above lines.
type SVGSurface struct {
	style                Style
	lines, circles, text bytes.Buffer
}

// NewSVGSurface returns an empty surface drawing with style.
func NewSVGSurface(style Style) *SVGSurface {
	return &SVGSurface{style: style}
}

func (s *SVGSurface) Clear() {
	s.lines.Reset()
	s.circles.Reset()
	s.text.Reset()
}

func (s *SVGSurface) Line(x1, y1, x2, y2 float64) {
	fmt.Fprintf(&s.lines, `    <line x1="%s" y1="%s" x2="%s" y2="%s"/>`+"\n", num(x1), num(y1), num(x2), num(y2))
}

func (s *SVGSurface) Circle(cx, cy, r float64) {
	fmt.Fprintf(&s.circles, `    <circle cx="%s" cy="%s" r="%s"/>`+"\n", num(cx), num(cy), num(r))
}

func (s *SVGSurface) Text(x, y float64, label string) {
	fmt.Fprintf(&s.text, `    <text x="%s" y="%s">%s</text>`+"\n", num(x), num(y), escapeXML(label))
}

// Document returns a complete SVG document of the given pixel size.
func (s *SVGSurface) Document(width, height float64) []byte {
	st := s.style
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%.0f" height="%.0f">`+"\n",
		num(width), num(height), width, height)
	if st.Background != "" {
		fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", escapeXML(st.Background))
	}
	fmt.Fprintf(&buf, `  <g class="edges" stroke="%s" stroke-width="%s">`+"\n", escapeXML(st.EdgeStroke), num(st.EdgeWidth))
	buf.Write(s.lines.Bytes())
	buf.WriteString("  </g>\n")
	fmt.Fprintf(&buf, `  <g class="nodes" fill="%s">`+"\n", escapeXML(st.NodeFill))
	buf.Write(s.circles.Bytes())
	buf.WriteString("  </g>\n")
	fmt.Fprintf(&buf, `  <g class="labels" font-family="%s" font-size="%spx" fill="%s">`+"\n",
		escapeXML(st.FontFamily), num(st.FontSize), escapeXML(st.TextFill))
	buf.Write(s.text.Bytes())
	buf.WriteString("  </g>\n")
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	style    Style
	margin   float64
	viewport *render.Viewport
	drawOpts []render.Option
}

// WithStyle sets the visual style.
func WithStyle(s Style) SVGOption { return func(r *svgRenderer) { r.style = s } }

// WithMargin sets the pixel padding around the layout (default [render.DefaultMargin]).
func WithMargin(m float64) SVGOption { return func(r *svgRenderer) { r.margin = m } }

// WithViewport sets an explicit pixel frame, overriding the margin.
func WithViewport(v render.Viewport) SVGOption {
	return func(r *svgRenderer) { r.viewport = &v }
}

// WithDrawOptions passes options through to [render.Draw].
func WithDrawOptions(opts ...render.Option) SVGOption {
	return func(r *svgRenderer) { r.drawOpts = append(r.drawOpts, opts...) }
}

// RenderSVG draws the layout as a standalone SVG document.
func RenderSVG(l layout.Result, opts ...SVGOption) []byte {
	r := svgRenderer{style: DefaultStyle(), margin: render.DefaultMargin}
	for _, opt := range opts {
		opt(&r)
	}

	v := render.ViewportFor(l, r.margin)
	if r.viewport != nil {
		v = *r.viewport
	}

	s := NewSVGSurface(r.style)
	render.Draw(s, l, append([]render.Option{render.WithViewport(v)}, r.drawOpts...)...)
	return s.Document(v.Width, v.Height)
}
