package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements all hook interfaces by recording Prometheus metrics.
//
//	p := observability.NewPrometheus(prometheus.NewRegistry())
//	p.Install()
//	http.Handle("/metrics", p.Handler())
type Prometheus struct {
	gatherer prometheus.Gatherer

	stages   *prometheus.HistogramVec
	failures *prometheus.CounterVec
	treeSize prometheus.Histogram
	results  prometheus.Histogram
	stale    prometheus.Counter

	cache     *prometheus.CounterVec
	cacheSize *prometheus.HistogramVec

	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	httpError *prometheus.CounterVec
}

// NewPrometheus creates the ruleviz collectors and registers them with reg.
// Registration panics on duplicate collectors.
func NewPrometheus(reg *prometheus.Registry) *Prometheus {
	p := &Prometheus{
		gatherer: reg,
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ruleviz",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ruleviz",
			Name:      "stage_failures_total",
			Help:      "Pipeline stage failures.",
		}, []string{"stage"}),
		treeSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ruleviz",
			Name:      "tree_nodes",
			Help:      "Node count of laid out rule trees.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
		}),
		results: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ruleviz",
			Name:      "evaluation_results",
			Help:      "Number of results per evaluation.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ruleviz",
			Name:      "stale_responses_total",
			Help:      "Cycles discarded because a newer submission was issued.",
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ruleviz",
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes.",
		}, []string{"key_type", "op"}),
		cacheSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ruleviz",
			Name:      "cache_entry_bytes",
			Help:      "Size of cache writes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}, []string{"key_type"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ruleviz",
			Name:      "rule_service_requests_total",
			Help:      "Responses from the rule service by status code.",
		}, []string{"path", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ruleviz",
			Name:      "rule_service_request_duration_seconds",
			Help:      "Latency of rule service requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
		httpError: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ruleviz",
			Name:      "rule_service_errors_total",
			Help:      "Transport failures talking to the rule service.",
		}, []string{"path"}),
	}
	reg.MustRegister(p.stages, p.failures, p.treeSize, p.results, p.stale,
		p.cache, p.cacheSize, p.requests, p.latency, p.httpError)
	return p
}

// Install registers p as the global pipeline, cache and HTTP hooks.
func (p *Prometheus) Install() {
	SetPipelineHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

func (p *Prometheus) observe(stage string, d time.Duration, err error) {
	p.stages.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		p.failures.WithLabelValues(stage).Inc()
	}
}

func (p *Prometheus) OnCompileStart(context.Context) {}

func (p *Prometheus) OnCompileComplete(_ context.Context, nodeCount int, d time.Duration, err error) {
	p.observe("compile", d, err)
}

func (p *Prometheus) OnEvaluateComplete(_ context.Context, resultCount int, d time.Duration, err error) {
	p.observe("evaluate", d, err)
	if err == nil {
		p.results.Observe(float64(resultCount))
	}
}

func (p *Prometheus) OnLayoutStart(_ context.Context, nodeCount int) {
	p.treeSize.Observe(float64(nodeCount))
}

func (p *Prometheus) OnLayoutComplete(_ context.Context, d time.Duration, err error) {
	p.observe("layout", d, err)
}

func (p *Prometheus) OnRenderStart(context.Context, string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	p.observe("render_"+format, d, err)
}

func (p *Prometheus) OnStale(context.Context, uint64) { p.stale.Inc() }

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cache.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cache.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cache.WithLabelValues(keyType, "set").Inc()
	p.cacheSize.WithLabelValues(keyType).Observe(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, _, path string, status int, d time.Duration) {
	p.requests.WithLabelValues(path, strconv.Itoa(status)).Inc()
	p.latency.WithLabelValues(path).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, _, path string, _ error) {
	p.httpError.WithLabelValues(path).Inc()
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
