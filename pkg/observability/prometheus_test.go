package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecordsEvents(t *testing.T) {
	ctx := context.Background()
	p := NewPrometheus(prometheus.NewRegistry())

	p.OnLayoutStart(ctx, 5)
	p.OnLayoutComplete(ctx, 10*time.Millisecond, nil)
	p.OnCompileComplete(ctx, 5, time.Millisecond, errors.New("boom"))
	p.OnStale(ctx, 3)
	p.OnStale(ctx, 4)
	p.OnCacheHit(ctx, "ast")
	p.OnCacheMiss(ctx, "ast")
	p.OnCacheMiss(ctx, "ast")
	p.OnResponse(ctx, "POST", "localhost", "/evaluate", 200, time.Millisecond)
	p.OnError(ctx, "POST", "localhost", "/api/create_rule", errors.New("refused"))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.stale))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.failures.WithLabelValues("compile")))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.failures.WithLabelValues("layout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.cache.WithLabelValues("ast", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.cache.WithLabelValues("ast", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.requests.WithLabelValues("/evaluate", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.httpError.WithLabelValues("/api/create_rule")))
}

func TestPrometheusInstallAndHandler(t *testing.T) {
	t.Cleanup(Reset)

	p := NewPrometheus(prometheus.NewRegistry())
	p.Install()
	require.Same(t, p, Pipeline())
	require.Same(t, p, Cache())
	require.Same(t, p, HTTP())

	Pipeline().OnStale(context.Background(), 1)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "ruleviz_stale_responses_total 1"), string(body))
}
