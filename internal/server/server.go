// Package server serves the ruleviz web page and its JSON API.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/ruleviz/pkg/errors"
	"github.com/matzehuels/ruleviz/pkg/pipeline"
	"github.com/matzehuels/ruleviz/pkg/tree"
	"github.com/matzehuels/ruleviz/pkg/view"
)

const (
	// maxBodySize bounds request bodies.
	maxBodySize = 1 << 20

	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 5 * time.Second

	// requestTimeout bounds a single request, including rule service calls.
	requestTimeout = 30 * time.Second
)

// Server handles the page, the submit form and the layout API.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	metrics http.Handler
	data    string
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics serves h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithSampleData prefills the data field of the page with data.
func WithSampleData(data map[string]any) Option {
	return func(s *Server) { s.data = pipeline.FormatData(data) }
}

// New creates a server running cycles on runner.
func New(runner *pipeline.Runner, opts ...Option) *Server {
	s := &Server{
		runner: runner,
		logger: log.NewWithOptions(io.Discard, log.Options{}),
		data:   pipeline.FormatData(pipeline.SampleData()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/", s.handlePage)
	r.Post("/submit", s.handleSubmit)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)
	})
	return r
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *log.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return Serve(ctx, ln, h, logger)
}

// Serve is [ListenAndServe] on an existing listener.
func Serve(ctx context.Context, ln net.Listener, h http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start))
	})
}

// =============================================================================
// Page
// =============================================================================

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, view.PageData{Data: s.data})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := r.ParseForm(); err != nil {
		s.writeState(w, r, pipeline.Failed(0, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid form")), "")
		return
	}

	rule := r.PostForm.Get("rule")
	dataText := r.PostForm.Get("data")
	data, err := pipeline.ParseDataLines(dataText)
	if err != nil {
		s.writeState(w, r, pipeline.Failed(0, rule, err), dataText)
		return
	}
	if len(data) == 0 {
		data = nil
	}

	st := s.runner.Run(r.Context(), pipeline.Request{Rule: rule, Data: data})
	if st.Err != nil {
		s.logger.Debug("submit failed", "code", errors.GetCode(st.Err), "err", st.Err)
	}
	s.writeState(w, r, st, dataText)
}

// writeState writes the response fragment for fetch-style requests
// (?fragment) and the whole page otherwise.
func (s *Server) writeState(w http.ResponseWriter, r *http.Request, st pipeline.State, dataText string) {
	if r.URL.Query().Has("fragment") {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := view.Render(w, st); err != nil {
			s.logger.Error("render fragment", "err", err)
		}
		return
	}
	s.writePage(w, view.PageData{State: st, Data: dataText})
}

func (s *Server) writePage(w http.ResponseWriter, d view.PageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.Page(w, d); err != nil {
		s.logger.Error("render page", "err", err)
	}
}

// =============================================================================
// API
// =============================================================================

// errorResponse mirrors the rule service error envelope.
type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	root, opts, err := s.decodeTree(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	l, err := s.runner.Layout(r.Context(), root, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := l.WriteJSON(w); err != nil {
		s.logger.Error("write layout", "err", err)
	}
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	root, opts, err := s.decodeTree(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}
	opts.Detailed = r.URL.Query().Has("detailed")

	l, err := s.runner.Layout(r.Context(), root, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	artifacts, err := s.runner.Render(r.Context(), l, root, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	_, _ = w.Write(artifacts[format])
}

// decodeTree reads an AST body and layout options from the query.
func (s *Server) decodeTree(w http.ResponseWriter, r *http.Request) (*tree.Node, pipeline.Options, error) {
	opts := s.runner.Options
	q := r.URL.Query()
	for name, dst := range map[string]*float64{"width": &opts.Width, "height": &opts.Height} {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
				return nil, opts, errors.New(errors.ErrCodeInvalidDimensions, "%s must be a positive number, got %q", name, v)
			}
			*dst = f
		}
	}
	if v := q.Get("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, opts, errors.New(errors.ErrCodeInvalidInput, "max_depth must be a positive integer, got %q", v)
		}
		opts.MaxDepth = n
	}

	root, err := tree.Decode(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, opts, err
	}
	return root, opts, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.IsCallerError(err) {
		status = http.StatusBadRequest
	} else {
		s.logger.Error("request failed", "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Status:  "error",
		Code:    string(errors.GetCode(err)),
		Message: errors.UserMessage(err),
	})
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatPDF:
		return "application/pdf"
	case pipeline.FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}
