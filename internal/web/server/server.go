package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/workflowai/console/internal/api"
	"github.com/workflowai/console/internal/auth"
	"github.com/workflowai/console/internal/config"
	"github.com/workflowai/console/internal/metrics"
	"github.com/workflowai/console/internal/session"
	"github.com/workflowai/console/internal/web/handlers"
	"github.com/workflowai/console/internal/web/middleware"
	"github.com/workflowai/console/internal/web/static"
	"github.com/workflowai/console/internal/web/views"
)

type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    session.Store
	sessions *session.Manager
	views    *views.Engine
	metrics  *metrics.Metrics
	http     *http.Server
	handler  http.Handler
	janitor  *session.Janitor
	google   *auth.Google
}

// NewStore opens the session store the config names.
func NewStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "bolt":
		return session.NewBoltStore(cfg.Session.Path)
	default:
		return session.NewMemoryStore(), nil
	}
}

func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	viewEngine, err := views.New()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize views: %w", err)
	}

	m := metrics.New()
	m.SetSessionCounter(func() int {
		n, err := store.Count()
		if err != nil {
			return 0
		}
		return n
	})

	apiClient := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	apiClient.Observe = m.ObserveAPIRequest

	var google *auth.Google
	if cfg.Auth.Google.Enabled {
		google, err = auth.NewGoogle(context.Background(), &cfg.Auth.Google)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to initialize Google login: %w", err)
		}
		logger.Info("Google login initialized", "issuer", cfg.Auth.Google.IssuerURL)
	}

	sessions := session.NewManager(store, apiClient, cfg.Session.TTL, cfg.Server.TLS.Enabled, logger)

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		sessions: sessions,
		views:    viewEngine,
		metrics:  m,
		janitor:  session.NewJanitor(store, cfg.Session.CleanupInterval, logger),
		google:   google,
	}

	s.handler = s.routes(apiClient)
	s.http = &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the full route tree. Exposed so tests can drive the server
// without binding a socket.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes(apiClient *api.Client) http.Handler {
	h := handlers.New(apiClient, s.sessions, s.google, s.views, s.logger)

	r := chi.NewRouter()

	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Logger(s.logger))
	r.Use(s.metrics.Middleware)
	r.Use(middleware.MethodOverride)

	// Public routes
	r.Get("/health", h.Health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", static.Handler()))

	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/signup", h.SignupPage)
	r.Post("/signup", h.Signup)
	r.Get("/auth/google/login", h.GoogleLogin)
	r.Get("/auth/google/callback", h.GoogleCallback)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(s.sessions, s.logger))

		r.Get("/", h.Home)
		r.Get("/dashboard", h.Dashboard)
		r.Post("/logout", h.Logout)

		r.Get("/builder", h.Builder)
		r.Post("/workflows", h.WorkflowCreate)
		r.Put("/workflows/{id}", h.WorkflowUpdate)
		r.Put("/workflows/{id}/toggle", h.WorkflowToggle)
		r.Delete("/workflows/{id}", h.WorkflowDelete)

		r.Get("/templates", h.Templates)
		r.Post("/templates/{id}/use", h.UseTemplate)

		r.Get("/logs", h.Logs)

		r.Get("/settings", h.Settings)
		r.Post("/settings/password", h.PasswordChange)
	})

	return r
}

func (s *Server) Run(ctx context.Context) error {
	s.janitor.Start()

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting console server", "addr", s.cfg.Server.ListenAddr)
		if s.cfg.Server.TLS.Enabled {
			errCh <- s.http.ListenAndServeTLS(s.cfg.Server.TLS.CertFile, s.cfg.Server.TLS.KeyFile)
		} else {
			errCh <- s.http.ListenAndServe()
		}
	}()

	select {
	case err := <-errCh:
		s.janitor.Stop()
		s.store.Close()
		return err
	case <-ctx.Done():
		s.janitor.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", "error", err)
		}
		s.store.Close()
		return nil
	}
}
