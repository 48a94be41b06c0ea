package render

import (
	"github.com/matzehuels/ruleviz/pkg/layout"
)

const (
	// DefaultRadius is the node circle radius in pixels.
	DefaultRadius = 10.0
	// DefaultLabelDX and DefaultLabelDY offset a label from its node center.
	DefaultLabelDX = 12.0
	DefaultLabelDY = 4.0
	// DefaultMargin is the pixel padding around the layout space.
	DefaultMargin = 40.0
)

// Surface is a 2D drawing target. Coordinates are device pixels.
type Surface interface {
	Clear()
	Line(x1, y1, x2, y2 float64)
	Circle(cx, cy, r float64)
	Text(x, y float64, label string)
}

// Viewport maps layout space into a Width x Height pixel frame, leaving
// Margin pixels free on every side.
type Viewport struct {
	Width, Height float64
	Margin        float64
}

// ViewportFor returns a viewport that keeps layout units as pixels and pads
// the frame by margin on every side.
func ViewportFor(r layout.Result, margin float64) Viewport {
	return Viewport{
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
		Margin: margin,
	}
}

// Map converts a layout-space point of r into pixels.
func (v Viewport) Map(r layout.Result, x, y float64) (float64, float64) {
	sx, sy := 1.0, 1.0
	if r.Width > 0 {
		sx = (v.Width - 2*v.Margin) / r.Width
	}
	if r.Height > 0 {
		sy = (v.Height - 2*v.Margin) / r.Height
	}
	return v.Margin + x*sx, v.Margin + y*sy
}

// Option configures [Draw].
type Option func(*drawer)

type drawer struct {
	viewport  *Viewport
	radius    float64
	dx, dy    float64
	hideLabel bool
}

// WithViewport sets the pixel frame. By default the layout is drawn at
// scale 1 with [DefaultMargin] padding.
func WithViewport(v Viewport) Option { return func(d *drawer) { d.viewport = &v } }

// WithRadius sets the node circle radius.
func WithRadius(r float64) Option { return func(d *drawer) { d.radius = r } }

// WithLabelOffset sets the label position relative to the node center.
func WithLabelOffset(dx, dy float64) Option { return func(d *drawer) { d.dx, d.dy = dx, dy } }

// WithoutLabels suppresses node labels.
func WithoutLabels() Option { return func(d *drawer) { d.hideLabel = true } }

// Draw clears s and draws r onto it: edges first, then node circles, then
// labels, each in document order.
func Draw(s Surface, r layout.Result, opts ...Option) {
	d := drawer{radius: DefaultRadius, dx: DefaultLabelDX, dy: DefaultLabelDY}
	for _, opt := range opts {
		opt(&d)
	}
	v := ViewportFor(r, DefaultMargin)
	if d.viewport != nil {
		v = *d.viewport
	}

	s.Clear()

	px := make([]float64, len(r.Nodes))
	py := make([]float64, len(r.Nodes))
	for i, n := range r.Nodes {
		px[i], py[i] = v.Map(r, n.X, n.Y)
	}

	for _, e := range r.Edges {
		s.Line(px[e.From], py[e.From], px[e.To], py[e.To])
	}
	for i := range r.Nodes {
		s.Circle(px[i], py[i], d.radius)
	}
	if d.hideLabel {
		return
	}
	for i, n := range r.Nodes {
		s.Text(px[i]+d.dx, py[i]+d.dy, n.Value)
	}
}
