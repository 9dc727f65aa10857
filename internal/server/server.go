package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/schedsim/internal/config"
	"github.com/me/schedsim/internal/driver"
	"github.com/me/schedsim/internal/store"
)

// Server is the schedsim REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     store.Store
	drivers   *driver.Manager
	runCtx    context.Context // lifetime context for background run loops
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithRunContext sets the context governing background run loops. Cancelling
// it stops every live driver. Defaults to context.Background().
func WithRunContext(ctx context.Context) Option {
	return func(s *Server) {
		s.runCtx = ctx
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, st store.Store, drivers *driver.Manager, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		drivers:   drivers,
		runCtx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", s.handleHealth)

		r.Route("/scenarios", func(r chi.Router) {
			r.Post("/", s.handleCreateScenario)
			r.Get("/", s.handleListScenarios)
			r.Get("/{id}", s.handleGetScenario)
			r.Delete("/{id}", s.handleDeleteScenario)
		})

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", s.handleCreateRun)
			r.Get("/", s.handleListRuns)
			r.Get("/{id}", s.handleGetRun)
			r.Put("/{id}/pause", s.handlePauseRun)
			r.Put("/{id}/resume", s.handleResumeRun)
			r.Put("/{id}/reset", s.handleResetRun)
			r.Put("/{id}/cancel", s.handleCancelRun)
		})

		r.Get("/sse/runs/{id}", s.handleSSERun)
	})
}
