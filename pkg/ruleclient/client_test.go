package ruleclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/ruleviz/pkg/cache"
	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/tree"
)

// fakeService answers each path with a fixed status and body and records
// the decoded request bodies.
type fakeService struct {
	t      *testing.T
	status int
	bodies map[string]string
	calls  atomic.Int32

	mu       sync.Mutex
	lastReq  map[string]any
	lastHdrs http.Header
}

func (f *fakeService) last() (map[string]any, http.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq, f.lastHdrs
}

func newFake(t *testing.T, bodies map[string]string) (*fakeService, *httptest.Server) {
	return newFakeWithStatus(t, http.StatusOK, bodies)
}

func newFakeWithStatus(t *testing.T, status int, bodies map[string]string) (*fakeService, *httptest.Server) {
	f := &fakeService{t: t, status: status, bodies: bodies}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	if r.Method != http.MethodPost {
		f.t.Errorf("method = %s, want POST", r.Method)
	}
	data, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.lastReq = nil
	_ = json.Unmarshal(data, &f.lastReq)
	f.lastHdrs = r.Header.Clone()
	f.mu.Unlock()

	body, ok := f.bodies[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.status)
	_, _ = io.WriteString(w, body)
}

func newClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	c, err := New(url, opts...)
	require.NoError(t, err)
	return c
}

func TestNewValidatesURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "http://", "not a url"} {
		_, err := New(raw)
		assert.Error(t, err, raw)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), raw)
	}

	c, err := New("http://localhost:5000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", c.BaseURL())
}

func TestEvaluateCanonicalShape(t *testing.T) {
	f, srv := newFake(t, map[string]string{
		"/evaluate": `{"status":"success","results":[
			{"data":{"age":35,"department":"Sales"},"result":true},
			{"data":{"age":25,"department":"Marketing"},"result":false}]}`,
	})
	c := newClient(t, srv.URL)

	results, err := c.Evaluate(context.Background(), "age > 30", map[string]any{"age": 35})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed())
	assert.False(t, results[1].Passed())
	assert.Equal(t, "Marketing", results[1].Data["department"])

	req, hdrs := f.last()
	assert.Equal(t, "age > 30", req["rule"])
	assert.Equal(t, map[string]any{"age": float64(35)}, req["data"])
	assert.Equal(t, "application/json", hdrs.Get("Content-Type"))
	_, err = uuid.Parse(hdrs.Get(HeaderRequestID))
	assert.NoError(t, err, "request id must be a UUID")
}

func TestEvaluateLegacyShape(t *testing.T) {
	_, srv := newFake(t, map[string]string{"/evaluate": `{"status":"success","result":true}`})
	c := newClient(t, srv.URL)

	data := map[string]any{"age": 35, "salary": 60000}
	results, err := c.Evaluate(context.Background(), "age > 30", data)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, data, results[0].Data)
	assert.Equal(t, true, results[0].Result)
}

func TestEvaluateEmptyResults(t *testing.T) {
	_, srv := newFake(t, map[string]string{"/evaluate": `{"status":"success","results":[]}`})
	c := newClient(t, srv.URL)

	results, err := c.Evaluate(context.Background(), "age > 30", nil)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestEvaluateRejected(t *testing.T) {
	_, srv := newFake(t, map[string]string{"/evaluate": `{"status":"error","message":"unexpected token"}`})
	c := newClient(t, srv.URL)

	results, err := c.Evaluate(context.Background(), "age >", nil)
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, errors.ErrCodeRuleRejected))
	assert.Equal(t, "unexpected token", errors.UserMessage(err))
}

func TestRejectionWithErrorStatusKeepsMessage(t *testing.T) {
	_, srv := newFakeWithStatus(t, http.StatusBadRequest,
		map[string]string{"/api/create_rule": `{"status":"error","message":"Invalid attribute: height"}`})
	c := newClient(t, srv.URL)

	_, err := c.CreateRule(context.Background(), "height > 3")
	assert.True(t, errors.Is(err, errors.ErrCodeRuleRejected))
	assert.Equal(t, "Invalid attribute: height", errors.UserMessage(err))
}

func TestTransportFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   errors.Code
	}{
		{"server error", http.StatusInternalServerError, "<html>boom</html>", errors.ErrCodeNetwork},
		{"not found", http.StatusNotFound, "", errors.ErrCodeNetwork},
		{"bad gateway json without status", http.StatusBadGateway, `{}`, errors.ErrCodeNetwork},
		{"ok but not json", http.StatusOK, "<html>", errors.ErrCodeInvalidResponse},
		{"ok without status", http.StatusOK, `{"results":[]}`, errors.ErrCodeInvalidResponse},
		{"ok without result", http.StatusOK, `{"status":"success"}`, errors.ErrCodeInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeWithStatus(t, tt.status, map[string]string{"/evaluate": tt.body})
			c := newClient(t, srv.URL)

			_, err := c.Evaluate(context.Background(), "age > 30", nil)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err), "err: %v", err)
			if tt.code == errors.ErrCodeNetwork {
				assert.Equal(t, errors.MsgTransportFailure, errors.UserMessage(err))
			}
			assert.EqualValues(t, 1, f.calls.Load(), "no retries by default")
		})
	}
}

func TestUnreachableService(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url)
	_, err := c.Evaluate(context.Background(), "age > 30", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeNetwork))
	assert.Equal(t, errors.MsgTransportFailure, errors.UserMessage(err))
}

func TestTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(block) })

	c := newClient(t, srv.URL, WithTimeout(50*time.Millisecond))
	_, err := c.Evaluate(context.Background(), "age > 30", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeTimeout), "err: %v", err)
	assert.Equal(t, errors.MsgTransportFailure, errors.UserMessage(err))
}

func TestRetriesOnlyTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"success","results":[{"data":{},"result":false}]}`)
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, srv.URL, WithRetries(2, time.Millisecond))
	results, err := c.Evaluate(context.Background(), "age > 30", nil)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.EqualValues(t, 3, calls.Load())

	f, srv2 := newFake(t, map[string]string{"/evaluate": `{"status":"error","message":"bad rule"}`})
	c = newClient(t, srv2.URL, WithRetries(5, time.Millisecond))
	_, err = c.Evaluate(context.Background(), "age > 30", nil)
	assert.True(t, errors.Is(err, errors.ErrCodeRuleRejected))
	assert.EqualValues(t, 1, f.calls.Load(), "rejections are not retried")
}

func TestInvalidRuleNotSent(t *testing.T) {
	f, srv := newFake(t, map[string]string{})
	c := newClient(t, srv.URL)

	_, err := c.Evaluate(context.Background(), "   ", nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	_, err = c.CreateRule(context.Background(), "")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	assert.EqualValues(t, 0, f.calls.Load())
}

func TestCreateRuleBinaryAST(t *testing.T) {
	f, srv := newFake(t, map[string]string{
		"/api/create_rule": `{"status":"success","ast":{
			"type":"operator","value":"AND",
			"left":{"type":"operand","value":"age > 30"},
			"right":{"type":"operand","value":"department == 'Sales'"}}}`,
	})
	c := newClient(t, srv.URL, WithHeader("Authorization", "Bearer t"))

	root, err := c.CreateRule(context.Background(), "age > 30 and department == 'Sales'")
	require.NoError(t, err)
	assert.Equal(t, "AND", root.Value)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "age > 30", root.Children[0].Value)
	assert.Equal(t, "department == 'Sales'", root.Children[1].Value)

	req, hdrs := f.last()
	assert.Equal(t, map[string]any{"rule": "age > 30 and department == 'Sales'"}, req)
	assert.Equal(t, "Bearer t", hdrs.Get("Authorization"))
}

func TestCreateRuleStringEncodedAST(t *testing.T) {
	inner, err := json.Marshal(`{"value":"OR","children":[{"value":"a"},{"value":"b"}]}`)
	require.NoError(t, err)
	_, srv := newFake(t, map[string]string{
		"/api/create_rule": `{"status":"success","ast":` + string(inner) + `}`,
	})
	c := newClient(t, srv.URL)

	root, err := c.CreateRule(context.Background(), "a or b")
	require.NoError(t, err)
	assert.Equal(t, 3, tree.Count(root))
}

func TestCreateRuleMissingAST(t *testing.T) {
	for _, body := range []string{`{"status":"success"}`, `{"status":"success","ast":null}`, `{"status":"success","ast":[1]}`} {
		_, srv := newFake(t, map[string]string{"/api/create_rule": body})
		c := newClient(t, srv.URL)

		_, err := c.CreateRule(context.Background(), "age > 30")
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidResponse), "%s: %v", body, err)
	}
}

func TestCreateRuleCaches(t *testing.T) {
	f, srv := newFake(t, map[string]string{
		"/api/create_rule": `{"status":"success","ast":{"value":"age > 30"}}`,
	})
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	c := newClient(t, srv.URL, WithCache(fc, nil, time.Hour))
	ctx := context.Background()

	root, hit, err := c.CreateRuleWithCacheInfo(ctx, "age > 30")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "age > 30", root.Value)

	root, hit, err = c.CreateRuleWithCacheInfo(ctx, " age > 30 ")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "age > 30", root.Value)
	assert.EqualValues(t, 1, f.calls.Load())
}

func TestCreateRuleDoesNotCacheRejections(t *testing.T) {
	f, srv := newFake(t, map[string]string{"/api/create_rule": `{"status":"error","message":"nope"}`})
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	c := newClient(t, srv.URL, WithCache(fc, cache.NewDefaultKeyer(), 0))

	for range 2 {
		_, err := c.CreateRule(context.Background(), "x > 1")
		assert.True(t, errors.Is(err, errors.ErrCodeRuleRejected))
	}
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestCreateRuleDoesNotCacheOverDeepTrees(t *testing.T) {
	chain := strings.Repeat(`{"value":"n","children":[`, tree.DefaultMaxDepth) +
		`{"value":"leaf"}` + strings.Repeat(`]}`, tree.DefaultMaxDepth)
	f, srv := newFake(t, map[string]string{
		"/api/create_rule": `{"status":"success","ast":` + chain + `}`,
	})
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	c := newClient(t, srv.URL, WithCache(fc, nil, time.Hour))
	ctx := context.Background()

	for range 2 {
		root, hit, err := c.CreateRuleWithCacheInfo(ctx, "deep")
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, tree.DefaultMaxDepth+1, tree.Count(root))
	}
	assert.EqualValues(t, 2, f.calls.Load(), "an over-deep tree must be fetched again")
}

func TestEvaluateAlwaysSendsData(t *testing.T) {
	f, srv := newFake(t, map[string]string{"/evaluate": `{"status":"success","results":[]}`})
	c := newClient(t, srv.URL)

	_, err := c.Evaluate(context.Background(), "age > 30", nil)
	require.NoError(t, err)

	req, _ := f.last()
	data, ok := req["data"]
	require.True(t, ok, "request body must carry data")
	assert.Equal(t, map[string]any{}, data)
}

func TestCacheKeysScopedByHost(t *testing.T) {
	c := newClient(t, "http://rules.internal:5000")
	assert.True(t, strings.HasPrefix(c.keyer.ASTKey("x"), "rules.internal:5000:ast:"))
}
