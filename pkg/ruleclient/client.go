package ruleclient

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/ruleviz/pkg/cache"
	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/httputil"
	"github.com/matzehuels/ruleviz/pkg/observability"
)

const (
	// DefaultTimeout bounds a single request to the rule service.
	DefaultTimeout = 10 * time.Second

	// DefaultRetryDelay is the first backoff delay when retries are enabled.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultASTTTL is how long compiled rules stay cached.
	DefaultASTTTL = 24 * time.Hour

	// HeaderRequestID carries a per-request identifier to the service.
	HeaderRequestID = "X-Request-ID"

	// maxBodySize bounds response bodies read from the service.
	maxBodySize = 8 << 20

	pathEvaluate   = "/evaluate"
	pathCreateRule = "/api/create_rule"
)

// Client calls the rule service. It is safe for concurrent use.
type Client struct {
	base       *url.URL
	http       *http.Client
	headers    map[string]string
	retries    int
	retryDelay time.Duration
	cache      cache.Cache
	keyer      cache.Keyer
	astTTL     time.Duration
	logger     *log.Logger
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRetries retries transport failures and 5xx responses up to n more
// times, doubling delay after each attempt. Rejected rules are never retried.
func WithRetries(n int, delay time.Duration) Option {
	return func(c *Client) {
		c.retries = max(n, 0)
		if delay > 0 {
			c.retryDelay = delay
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithCache caches compiled ASTs in ch for ttl. Keys come from keyer;
// a nil keyer scopes the default keys by the service host.
func WithCache(ch cache.Cache, keyer cache.Keyer, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = ch
		c.keyer = keyer
		if ttl > 0 {
			c.astTTL = ttl
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the rule service at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid server URL")
	}

	c := &Client{
		base:       base,
		http:       &http.Client{Timeout: DefaultTimeout},
		headers:    map[string]string{},
		retryDelay: DefaultRetryDelay,
		cache:      cache.NewNullCache(),
		astTTL:     DefaultASTTTL,
		logger:     log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.keyer == nil {
		c.keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), base.Host+":")
	}
	return c, nil
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string { return c.base.String() }

// post sends body as JSON to path and decodes the envelope. Transport and
// status failures are retried according to the client's retry policy.
func (c *Client) post(ctx context.Context, path string, body any) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode request")
	}

	var env *envelope
	err = httputil.Retry(ctx, c.retries+1, c.retryDelay, func() error {
		var err error
		env, err = c.do(ctx, path, payload)
		return err
	})

	err = httputil.Unwrap(err)
	if err != nil && ctx.Err() != nil && errors.GetCode(err) == "" {
		err = transportError(ctx.Err())
	}
	return env, err
}

func (c *Client) do(ctx context.Context, path string, payload []byte) (*envelope, error) {
	endpoint := c.base.JoinPath(path).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	reqID := uuid.NewString()
	req.Header.Set(HeaderRequestID, reqID)

	hooks := observability.HTTP()
	host := c.base.Host
	hooks.OnRequest(ctx, http.MethodPost, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodPost, host, path, err)
		c.logger.Debug("rule service unreachable", "path", path, "request_id", reqID, "err", err)
		return nil, httputil.Retryable(transportError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	elapsed := time.Since(start)
	hooks.OnResponse(ctx, http.MethodPost, host, path, resp.StatusCode, elapsed)
	c.logger.Debug("rule service response",
		"path", path,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration", elapsed)
	if err != nil {
		return nil, httputil.Retryable(transportError(err))
	}

	env, decodeErr := decodeEnvelope(data)
	if decodeErr == nil && env.Status != statusSuccess && env.Message != "" {
		// Rejections keep the service message whatever the HTTP status.
		return nil, errors.New(errors.ErrCodeRuleRejected, "%s", env.Message)
	}
	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	if env.Status != statusSuccess {
		return nil, errors.New(errors.ErrCodeRuleRejected, "rule service returned status %q", env.Status)
	}
	return env, nil
}

func checkStatus(code int) error {
	if code >= 200 && code < 300 {
		return nil
	}
	err := errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("status %d", code), errors.MsgTransportFailure)
	if httputil.RetryableStatus(code) {
		return httputil.Retryable(err)
	}
	return err
}

func transportError(err error) error {
	code := errors.ErrCodeNetwork
	if stderrors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		code = errors.ErrCodeTimeout
	}
	return errors.Wrap(code, err, errors.MsgTransportFailure)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return stderrors.As(err, &t) && t.Timeout()
}
