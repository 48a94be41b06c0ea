package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/ruleviz/pkg/cache"
	"github.com/matzehuels/ruleviz/pkg/layout"
	"github.com/matzehuels/ruleviz/pkg/observability"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

// Layout positions the nodes of root, using the cache when possible.
func (r *Runner) Layout(ctx context.Context, root *tree.Node, opts Options) (layout.Result, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, root, opts)
	return l, err
}

// LayoutWithCacheInfo is [Runner.Layout] that also reports whether the
// layout came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, root *tree.Node, opts Options) (layout.Result, bool, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.Validate(); err != nil {
		return layout.Result{}, false, err
	}

	hooks := observability.Pipeline()
	start := time.Now()

	// Cyclic input must be rejected before anything walks it.
	if err := tree.Validate(root, opts.MaxDepth); err != nil {
		hooks.OnLayoutComplete(ctx, time.Since(start), err)
		return layout.Result{}, false, err
	}
	hooks.OnLayoutStart(ctx, tree.Count(root))

	var cacheKey string
	if data, err := tree.Marshal(root); err == nil {
		cacheKey = r.Keyer.LayoutKey(cache.Hash(data), opts.LayoutKeyOpts())
	}

	if cacheKey != "" {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached layout.Result
			if err := cached.UnmarshalJSON(data); err == nil {
				hooks.OnLayoutComplete(ctx, time.Since(start), nil)
				return cached, true, nil
			}
			// Unreadable entry, recompute and overwrite it
		}
	}

	l, err := Compute(root, opts)
	hooks.OnLayoutComplete(ctx, time.Since(start), err)
	if err != nil {
		return layout.Result{}, false, err
	}

	if cacheKey != "" {
		if data, err := l.MarshalJSON(); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, data, opts.LayoutTTL); err != nil {
				opts.Logger.Warn("cache write failed", "err", err)
			}
		}
	}

	opts.Logger.Debug("computed layout",
		"nodes", len(l.Nodes),
		"leaves", l.Leaves,
		"depth", l.MaxDepth,
		"duration", time.Since(start))
	return l, false, nil
}

// Compute lays out root with the dimensions and depth bound of opts,
// without caching or hooks.
func Compute(root *tree.Node, opts Options) (layout.Result, error) {
	opts.SetDefaults()
	return layout.Compute(root, opts.Width, opts.Height, layout.WithMaxDepth(opts.MaxDepth))
}
