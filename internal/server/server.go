// Package server exposes the layout engine over HTTP.
//
//	POST /v1/layout   scenario (YAML or JSON) in, replay result out
//	GET  /healthz     liveness and build info
//	GET  /metrics     Prometheus metrics
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/insetkit/pkg/buildinfo"
	"github.com/matzehuels/insetkit/pkg/cache"
	"github.com/matzehuels/insetkit/pkg/config"
	"github.com/matzehuels/insetkit/pkg/errors"
	"github.com/matzehuels/insetkit/pkg/layout"
	"github.com/matzehuels/insetkit/pkg/observability"
	"github.com/matzehuels/insetkit/pkg/scenario"
	"github.com/matzehuels/insetkit/pkg/sink"
)

const (
	// MaxBodyBytes bounds the size of a scenario upload.
	MaxBodyBytes = 4 << 20

	// LayoutCacheTTL is how long a rendered layout response is reused.
	LayoutCacheTTL = 10 * time.Minute
)

// Server serves layout requests with one configuration.
type Server struct {
	cfg      config.Config
	logger   *log.Logger
	gatherer prometheus.Gatherer
	layouts  *cache.Loader
}

// New creates a server. Metrics are served from gatherer; a nil gatherer
// disables /metrics. Layout responses are cached in memory for up to
// cfg.Server.CacheEntries requests; zero disables caching.
func New(cfg config.Config, logger *log.Logger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = log.Default()
	}
	var c cache.Cache = cache.NewNullCache()
	if cfg.Server.CacheEntries > 0 {
		c = cache.NewMemoryCache(cfg.Server.CacheEntries)
	}
	return &Server{cfg: cfg, logger: logger, gatherer: gatherer, layouts: cache.NewLoader(c, LayoutCacheTTL)}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/layout", s.handleLayout)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// observe reports every request to the HTTP hooks and the debug log.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("Request", "method", r.Method, "route", route, "status", status, "took", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Current()})
}

// handleLayout replays the uploaded scenario. The mode query parameter
// overrides the configured positioning mode; format=svg returns the final
// snapshot as SVG instead of the JSON result. Identical requests are served
// from the layout cache.
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	mode := r.URL.Query().Get("mode")
	if mode != "" {
		if err := layout.ValidateMode(mode); err != nil {
			writeError(w, errors.Wrap(errors.ErrCodeInvalidMode, err, "mode"))
			return
		}
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = sink.FormatJSON
	}
	if err := sink.ValidateFormats([]string{format}); err != nil {
		writeError(w, err)
		return
	}

	key := cache.Key("layout", mode, format, body)
	data, hit, err := s.layouts.Load(r.Context(), key, func() ([]byte, error) {
		return s.layout(r.Context(), body, mode, format)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if format == sink.FormatSVG {
		w.Header().Set("Content-Type", "image/svg+xml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	if hit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	_, _ = w.Write(data)
}

// layout replays a scenario body and renders the response payload.
func (s *Server) layout(ctx context.Context, body []byte, mode, format string) ([]byte, error) {
	sc, err := scenario.Read(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	opts := s.cfg.Options(s.logger)
	if mode != "" {
		opts.Mode = mode
	}
	res, err := scenario.Replay(ctx, sc, opts)
	if err != nil {
		return nil, err
	}
	if format == sink.FormatSVG {
		return sink.RenderSVG(res.Final, sink.WithLabels()), nil
	}
	data, err := json.Marshal(res)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode result")
	}
	return append(data, '\n'), nil
}

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidScenario, errors.ErrCodeInvalidMode, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidID, errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeTrackNotFound:
		status = http.StatusUnprocessableEntity
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, status, errorBody{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
