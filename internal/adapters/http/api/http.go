// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/grafixr/site/internal/adapters/media"
	"github.com/grafixr/site/internal/app"
	"github.com/grafixr/site/internal/domain/model"
	"github.com/grafixr/site/pkg/logger"
	"github.com/grafixr/site/pkg/metrics"
)

const (
	defaultInquiriesPerMinute = 5
	defaultInquiryBurst       = 3
	maxJSONBody               = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, main string, subs []string) (model.Category, error)
	UpdateSubCategories(ctx context.Context, id string, subs []string) (model.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListItems(ctx context.Context, q model.ItemQuery) ([]model.PortfolioItem, error)
	GetItem(ctx context.Context, id string) (model.PortfolioItem, error)
	CreateItem(ctx context.Context, d model.ItemDraft, uploads []media.Upload) (model.PortfolioItem, error)
	DeleteItem(ctx context.Context, id string) error

	SubmitInquiry(ctx context.Context, d model.InquiryDraft) (model.Inquiry, error)
	ListInquiries(ctx context.Context) ([]model.Inquiry, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) (app.Stats, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps       Dependencies
	stats      StatsProvider
	log        logger.Logger
	clock      clockwork.Clock
	adminToken string
	origins    []string
	limiter    *RateLimiter
	perMinute  int
	burst      int
}

// Option configures a Server.
type Option func(*Server)

// WithAdminToken protects /api/admin routes. Empty leaves them open.
func WithAdminToken(token string) Option {
	return func(s *Server) { s.adminToken = token }
}

// WithAllowedOrigins sets the CORS origins for /api routes.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = append([]string(nil), origins...) }
}

// WithInquiryLimit shapes the per-client inquiry rate limit.
func WithInquiryLimit(perMinute, burst int) Option {
	return func(s *Server) {
		if perMinute > 0 {
			s.perMinute = perMinute
		}
		if burst > 0 {
			s.burst = burst
		}
	}
}

// WithRateLimiter shares a limiter, e.g. with the site contact form.
func WithRateLimiter(l *RateLimiter) Option {
	return func(s *Server) {
		if l != nil {
			s.limiter = l
		}
	}
}

// WithClock sets the clock used by the inquiry limiter.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, stats StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:      deps,
		stats:     stats,
		clock:     clockwork.NewRealClock(),
		perMinute: defaultInquiriesPerMinute,
		burst:     defaultInquiryBurst,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("api")
	}
	if s.limiter == nil {
		s.limiter = NewRateLimiter(s.perMinute, s.burst, s.clock)
	}
	return s
}

// Register attaches all API, health and metrics routes to r.
func (s *Server) Register(r chi.Router) {
	r.With(MetricsMiddleware).Get("/healthz", s.handleHealth)
	r.With(MetricsMiddleware).Get("/stats", s.handleStats)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(CORS(s.origins))
		r.Use(MetricsMiddleware)
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "no such endpoint", Code: CodeNotFound})
		})

		r.Get("/portfolio", s.handleListItems)
		r.Get("/portfolio/{id}", s.handleGetItem)
		r.Get("/categories", s.handleListCategories)
		r.Post("/inquiries", s.handleSubmitInquiry)

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin(s.adminToken))

			r.Get("/categories", s.handleListCategories)
			r.Post("/categories", s.handleCreateCategory)
			r.Put("/categories/{id}", s.handleUpdateCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Get("/list", s.handleAdminList)
			r.Post("/upload", s.handleUpload)
			r.Delete("/delete/{id}", s.handleDeleteItem)

			r.Get("/inquiries", s.handleListInquiries)
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// orEmpty keeps empty lists encoded as [] rather than null.
func orEmpty[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func writeError(w http.ResponseWriter, err error) {
	status, resp := newErrorResponse(err)
	writeJSON(w, status, resp)
}

// fail writes err and logs it when it is not a client error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, _ := statusOf(err)
	if status >= statusInternalError {
		metrics.RecordErrorByComponent("api", op)
		s.log.Error(r.Context(), "request failed",
			logger.String("op", op),
			logger.String("path", r.URL.Path),
			logger.Error(err))
	}
	writeError(w, err)
}

// decodeJSON reads a single JSON object from the body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body", ErrBadRequest)
	}
	return nil
}
