package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nahidhasan98/checklist-notifier/internal/config"
	"github.com/nahidhasan98/checklist-notifier/internal/handlers"
	"github.com/nahidhasan98/checklist-notifier/internal/logger"
	"github.com/nahidhasan98/checklist-notifier/internal/middleware"
)

// Server represents the HTTP server
type Server struct {
	cfg        *config.Config
	httpServer *http.Server
	handler    *handlers.Handler
	middleware *middleware.Middleware
	log        *logger.Logger
}

// New creates a new HTTP server
func New(cfg *config.Config, handler *handlers.Handler, log *logger.Logger) *Server {
	mw := middleware.New(log, cfg.Server.RateLimit)
	mw.SetAPIKeys(cfg.Security.APIKeys)
	if len(cfg.Security.APIKeys) == 0 {
		log.Warn("No API keys configured, /classify will reject every request")
	}

	return &Server{
		cfg:        cfg,
		handler:    handler,
		middleware: mw,
		log:        log,
	}
}

// Router builds the route tree with the middleware chain applied
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.middleware.Recovery)
	r.Use(s.middleware.Logging)
	r.Use(s.middleware.Security)
	r.Use(s.middleware.RateLimit)

	r.Get("/health", s.handler.HealthCheck)

	r.Route("/webhook", func(r chi.Router) {
		r.Post("/github", s.handler.GitHubWebhook)
		r.Post("/gitea", s.handler.GiteaWebhook)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.middleware.APIKeyAuth)
		r.Post("/classify", s.handler.Classify)
	})

	return r
}

// Start starts the HTTP server in the background. Listen failures are
// reported on errc.
func (s *Server) Start(errc chan<- error) {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Address(),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.log.Infof("HTTP server listening on %s", s.cfg.Server.Address())

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server shutdown complete")
	return nil
}
