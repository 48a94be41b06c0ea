package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/layout"
	"github.com/matzehuels/ruleviz/pkg/observability"
	"github.com/matzehuels/ruleviz/pkg/render/nodelink"
	"github.com/matzehuels/ruleviz/pkg/render/sink"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

// Render generates output artifacts in the requested formats. root is only
// needed for the DOT formats; it may be nil otherwise.
func (r *Runner) Render(ctx context.Context, l layout.Result, root *tree.Node, opts Options) (map[string][]byte, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := r.renderFormat(ctx, l, root, format, opts)
		if err != nil {
			return nil, err
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func (r *Runner) renderFormat(ctx context.Context, l layout.Result, root *tree.Node, format string, opts Options) ([]byte, error) {
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, format)
	start := time.Now()

	data, err := RenderFormat(l, root, format, opts)
	hooks.OnRenderComplete(ctx, format, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	opts.Logger.Debug("rendered", "format", format, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

// RenderFormat renders a single format without hooks.
func RenderFormat(l layout.Result, root *tree.Node, format string, opts Options) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatSVG:
		data = sink.RenderSVG(l)
	case FormatPNG:
		data, err = sink.RenderPNG(l)
	case FormatPDF:
		data, err = sink.RenderPDF(l)
	case FormatJSON:
		data, err = sink.RenderJSON(l)
	case FormatText:
		data = []byte(sink.RenderText(l, sink.WithCoordinates()))
	case FormatDOT:
		if root == nil {
			if len(l.Nodes) == 0 {
				return nil, errors.New(errors.ErrCodeInvalidTree, "DOT output needs a tree")
			}
			root = l.Nodes[0].Node
		}
		data = []byte(nodelink.ToDOT(root, nodelink.Options{Detailed: opts.Detailed}))
	default:
		return nil, ValidateFormat(format)
	}
	if err != nil && errors.GetCode(err) == "" {
		err = errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
	}
	return data, err
}
