package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/ruleviz/pkg/cache"
	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/observability"
	"github.com/matzehuels/ruleviz/pkg/ruleclient"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

// Service is the rule service as seen by the pipeline.
// *ruleclient.Client implements it.
type Service interface {
	Evaluate(ctx context.Context, rule string, data map[string]any) ([]ruleclient.Result, error)
	CreateRule(ctx context.Context, rule string) (*tree.Node, error)
}

// cacheReporter is implemented by services that can tell whether an AST
// came from their cache.
type cacheReporter interface {
	CreateRuleWithCacheInfo(ctx context.Context, rule string) (*tree.Node, bool, error)
}

var _ Service = (*ruleclient.Client)(nil)

// Runner executes pipeline stages with caching.
// Both CLI and server use it so that every surface behaves the same.
//
// Apart from the request sequence the Runner keeps no per-cycle state;
// multiple goroutines can safely share one.
type Runner struct {
	Service Service
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger

	// Options are the layout and render settings used by Submit and Run.
	Options Options

	seq Sequencer
}

// NewRunner creates a runner. svc may be nil when only Layout and Render
// are used. A nil cache disables caching and a nil keyer uses the default.
func NewRunner(svc Service, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Service: svc,
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
	}
}

// Submit runs one cycle for req and tags it with a fresh sequence number.
// Failures end up in State.Err. The returned error is [ErrStale] when a
// later Submit was issued before this one finished; the state is then
// empty and must not be shown.
func (r *Runner) Submit(ctx context.Context, req Request) (State, error) {
	seq := r.seq.Next()
	st := r.run(ctx, req, func() bool { return r.seq.IsLatest(seq) })
	st.Seq = seq

	if err := r.seq.Accept(seq); err != nil {
		observability.Pipeline().OnStale(ctx, seq)
		r.Logger.Debug("discarded stale response", "seq", seq, "latest", r.seq.Latest())
		return State{Seq: seq, Rule: req.Rule}, err
	}
	return st, nil
}

// Run runs one cycle for req without sequencing. It suits callers where
// each request has its own response, such as an HTTP handler.
func (r *Runner) Run(ctx context.Context, req Request) State {
	return r.run(ctx, req, nil)
}

func (r *Runner) run(ctx context.Context, req Request, current func() bool) State {
	if err := req.Validate(); err != nil {
		return Failed(0, req.Rule, err)
	}
	if r.Service == nil {
		return Failed(0, req.Rule, errors.New(errors.ErrCodeInternal, "no rule service configured"))
	}
	opts := r.Options
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.Validate(); err != nil {
		return Failed(0, req.Rule, err)
	}

	st := State{Rule: req.Rule}

	// Stage 1: Service
	start := time.Now()
	results, root, astHit, err := r.callService(ctx, req)
	st.Stats.ServiceTime = time.Since(start)
	if err != nil {
		opts.Logger.Debug("rule service failed", "err", err, "duration", st.Stats.ServiceTime)
		return Failed(0, req.Rule, err)
	}
	if current != nil && !current() {
		return Failed(0, req.Rule, ErrStale)
	}
	st.Results = results
	st.AST = root
	st.CacheInfo.ASTHit = astHit

	opts.Logger.Debug("rule service answered",
		"results", len(results),
		"ast_cached", astHit,
		"duration", st.Stats.ServiceTime)

	// Stage 2: Layout
	start = time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, root, opts)
	st.Stats.LayoutTime = time.Since(start)
	if err != nil {
		return Failed(0, req.Rule, err)
	}
	st.Layout = &l
	st.Stats.NodeCount = len(l.Nodes)
	st.CacheInfo.LayoutHit = layoutHit

	// Stage 3: Render
	start = time.Now()
	svg, err := r.renderFormat(ctx, l, root, FormatSVG, opts)
	st.Stats.RenderTime = time.Since(start)
	if err != nil {
		return Failed(0, req.Rule, err)
	}
	st.SVG = svg

	opts.Logger.Debug("cycle complete", "stats", st.Stats)
	return st
}

// callService evaluates and compiles the rule concurrently. The first
// failure cancels the other call and is the one reported.
func (r *Runner) callService(ctx context.Context, req Request) ([]ruleclient.Result, *tree.Node, bool, error) {
	var (
		results []ruleclient.Result
		root    *tree.Node
		astHit  bool
	)
	hooks := observability.Pipeline()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		res, err := r.Service.Evaluate(gctx, req.Rule, req.Data)
		hooks.OnEvaluateComplete(ctx, len(res), time.Since(start), err)
		results = res
		return err
	})
	g.Go(func() error {
		var err error
		root, astHit, err = r.Compile(gctx, req.Rule)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, false, err
	}
	return results, root, astHit, nil
}

// Compile asks the service for the AST of rule and reports whether it was
// served from cache.
func (r *Runner) Compile(ctx context.Context, rule string) (*tree.Node, bool, error) {
	if r.Service == nil {
		return nil, false, errors.New(errors.ErrCodeInternal, "no rule service configured")
	}
	hooks := observability.Pipeline()
	hooks.OnCompileStart(ctx)
	start := time.Now()

	var (
		root *tree.Node
		hit  bool
		err  error
	)
	if cr, ok := r.Service.(cacheReporter); ok {
		root, hit, err = cr.CreateRuleWithCacheInfo(ctx, rule)
	} else {
		root, err = r.Service.CreateRule(ctx, rule)
	}

	nodes := 0
	if err == nil {
		nodes = tree.Count(root)
	}
	hooks.OnCompileComplete(ctx, nodes, time.Since(start), err)
	return root, hit, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
