// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/okian/scores/internal/adapters/repository"
	service "github.com/okian/scores/internal/app"
	"github.com/okian/scores/internal/domain/csvparse"
	"github.com/okian/scores/internal/domain/model"
	"github.com/okian/scores/pkg/logger"
	"github.com/okian/scores/pkg/metrics"
)

const defaultMaxBodyBytes = 10 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Upload(ctx context.Context, content string) ([]model.Score, error)
	Preview(ctx context.Context, content string) csvparse.Report
	AddScore(ctx context.Context, sc model.Score) (model.Score, error)

	All(ctx context.Context) ([]model.Score, error)
	Top(ctx context.Context) ([]model.Score, error)
	Find(ctx context.Context, firstName, secondName string) (model.Score, error)

	Submit(ctx context.Context, source, content string) (service.JobStatus, bool, error)
	Job(ctx context.Context, id string) (service.JobStatus, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps         Dependencies
	stats        StatsProvider
	maxBodyBytes int64
	logger       logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger used for request errors.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, stats StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:         deps,
		stats:        stats,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(handleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.handleStats, "stats"))
	r.Handle("/metrics", metricsHandler())

	r.Route("/api/scores", func(r chi.Router) {
		r.Get("/all", MetricsMiddleware(s.handleAll, "scores_all"))
		r.Get("/top", MetricsMiddleware(s.handleTop, "scores_top"))
		r.Post("/", MetricsMiddleware(s.handleAdd, "scores_add"))
		r.Post("/upload", MetricsMiddleware(s.handleUpload, "scores_upload"))
		r.Post("/preview", MetricsMiddleware(s.handlePreview, "scores_preview"))
		r.Post("/imports", MetricsMiddleware(s.handleSubmit, "imports_submit"))
		r.Get("/imports/{id}", MetricsMiddleware(s.handleJob, "imports_get"))
		r.Get("/{firstName}/{secondName}", MetricsMiddleware(s.handleFind, "scores_find"))
	})
}

// Handler returns a fresh chi router with every route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Line    int    `json:"line,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// respondError maps domain error kinds to HTTP statuses. Parse failures keep
// their kind, line and raw text so clients can point at the offending row.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var pe *csvparse.ParseError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "invalid_csv",
			Message: pe.Error(),
			Kind:    pe.Kind.String(),
			Line:    pe.Line,
			Raw:     pe.Raw,
		})
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err)
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrEmptyBody), errors.Is(err, ErrUnsupportedCSV):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrInvalidScore):
		writeError(w, http.StatusBadRequest, "invalid_score", err)
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err))
		metrics.RecordErrorByComponent("http", "internal_error")
		writeError(w, http.StatusInternalServerError, "internal_error", errors.New("internal error"))
	}
}
