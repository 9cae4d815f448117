// Package server exposes the schedule compiler over HTTP.
//
// # Endpoints
//
//	GET  /healthz          liveness probe, returns "OK"
//	GET  /version          build information as JSON
//	POST /v1/compile       compile a document, returns the resolved instructions as JSON
//	POST /v1/timeline      compile a document, returns an SVG timeline
//	POST /v1/tree          compile a document, returns the layout tree as DOT or SVG (?format=svg)
//
// Request bodies are schedule documents. The decoder is chosen by Content-Type:
// application/json (default), application/yaml or application/hcl. Query
// parameters root_duration and quantize override the document's options.
//
// Errors are returned as {"code": ..., "message": ...}. Invalid documents and
// layout overflow map to 4xx responses; everything else is a 500.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kahojyun/pulsegen/internal/config"
	"github.com/kahojyun/pulsegen/pkg/buildinfo"
	"github.com/kahojyun/pulsegen/pkg/channel"
	"github.com/kahojyun/pulsegen/pkg/errors"
	pio "github.com/kahojyun/pulsegen/pkg/io"
	"github.com/kahojyun/pulsegen/pkg/observability"
	"github.com/kahojyun/pulsegen/pkg/pipeline"
	"github.com/kahojyun/pulsegen/pkg/render"
	"github.com/kahojyun/pulsegen/pkg/render/timeline"
	"github.com/kahojyun/pulsegen/pkg/render/tree"
)

// Server serves the compile API.
type Server struct {
	cfg      config.ServerConfig
	opts     pipeline.Options
	channels []channel.Info
	unit     render.TimeUnit
	width    float64
	runner   *pipeline.Runner
	logger   *log.Logger
	router   chi.Router
}

// New builds a server from the application configuration. channels is the
// default channel table for documents that carry none; it may be nil.
func New(cfg *config.Config, channels []channel.Info, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	unit, err := render.ParseTimeUnit(cfg.Render.Unit)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg.Server,
		opts:     cfg.PipelineOptions(),
		channels: channels,
		unit:     unit,
		width:    cfg.Render.Width,
		runner:   pipeline.NewRunner(logger),
		logger:   logger,
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Post("/compile", s.handleCompile)
		r.Post("/timeline", s.handleTimeline)
		r.Post("/tree", s.handleTree)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("compile API listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down compile API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// =============================================================================
// Middleware
// =============================================================================

func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		start := time.Now()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Debug("http request",
			"method", r.Method, "path", r.URL.Path, "status", status,
			"elapsed", elapsed, "request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	res, ok := s.compile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pio.NewResultJSON(res))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	res, ok := s.compile(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(timeline.RenderSVG(res, timeline.WithUnit(s.unit), timeline.WithWidth(s.width)))
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	res, ok := s.compile(w, r)
	if !ok {
		return
	}
	dot := tree.ToDOT(res.Layout, tree.Options{
		Detailed: r.URL.Query().Get("detailed") == "true",
		Channels: res.Channels,
		Unit:     s.unit,
	})
	switch r.URL.Query().Get("format") {
	case "", "dot":
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		fmt.Fprint(w, dot)
	case "svg":
		svg, err := tree.RenderSVG(r.Context(), dot)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write(svg)
	default:
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown tree format %q (want dot or svg)", r.URL.Query().Get("format")))
	}
}

// compile decodes the request body and runs the pipeline. On failure it writes
// the error response and returns false.
func (s *Server) compile(w http.ResponseWriter, r *http.Request) (*pipeline.Result, bool) {
	format, err := bodyFormat(r.Header.Get("Content-Type"))
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	doc, err := pio.Read(r.Body, format, "request."+string(format))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Code: string(errors.ErrCodeInvalidInput), Message: "request body too large"})
			return nil, false
		}
		s.writeError(w, err)
		return nil, false
	}
	if len(doc.Channels) == 0 {
		doc.Channels = s.channels
	}
	req, err := doc.Request()
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	opts, err := s.options(doc, r)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	res, err := s.runner.Compile(r.Context(), req, opts)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	w.Header().Set("X-Compilation-ID", res.ID)
	return res, true
}

func (s *Server) options(doc *pio.Document, r *http.Request) (pipeline.Options, error) {
	opts := doc.Options.Apply(s.opts)
	q := r.URL.Query()
	if v := q.Get("root_duration"); v != "" {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidInput, err, "root_duration")
		}
		opts.RootDuration = d
	}
	if v := q.Get("quantize"); v != "" {
		opts.Quantize = v
	}
	return opts, nil
}

func bodyFormat(contentType string) (pio.Format, error) {
	if contentType == "" {
		return pio.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "content type")
	}
	switch mt {
	case "application/json":
		return pio.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return pio.FormatYAML, nil
	case "application/hcl", "text/hcl":
		return pio.FormatHCL, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported content type %q", mt)
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrCodeLayoutOverflow):
		status = http.StatusUnprocessableEntity
	case errors.IsClientError(err):
		status = http.StatusBadRequest
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status >= 500 {
		s.logger.Error("compile failed", "err", err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Code: string(code), Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
