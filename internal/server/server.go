package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/docexport/internal/api/v1"
	"github.com/gosuda/docexport/internal/api/ws"
	"github.com/gosuda/docexport/internal/config"
	"github.com/gosuda/docexport/internal/domain"
	"github.com/gosuda/docexport/internal/server/middleware"
)

// Deps are the collaborators the HTTP layer needs. Invocations, Counter and
// Subscriber are optional; the routes that need them degrade when nil.
type Deps struct {
	Exporter    v1.WordExporter
	Invocations domain.InvocationRepository
	Counter     v1.CallCounter
	Subscriber  ws.Subscriber
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes wired. ctx bounds background work
// owned by middleware (rate-limiter cleanup).
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	authEnabled := cfg.AuthEnabled()

	router.Route("/api/v1", func(r chi.Router) {
		// Word entry points are never throttled: they answer 501 and nothing else.
		r.Use(chimw.Maybe(middleware.RateLimitByIP(ctx, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst), throttled))
		r.Use(middleware.Auth(cfg.JWT.Secret))
		r.Use(chimw.Maybe(middleware.RateLimit(ctx, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst), throttled))

		// Word entry points and the feature catalog, open to every client.
		r.Group(func(r chi.Router) {
			api := humachi.New(r, apiConfig("docexport API"))
			registerAPIRoutes(api, deps)
		})

		// Audit log, admin only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(authEnabled, middleware.RoleAdmin))
			auditConfig := apiConfig("docexport Audit API")
			auditConfig.OpenAPIPath = "/audit/openapi"
			auditConfig.DocsPath = "/audit/docs"
			auditConfig.SchemasPath = "/audit/schemas"
			api := humachi.New(r, auditConfig)
			registerAuditRoutes(api, deps)
		})
	})

	// Live stream of rejected calls; only available with Redis.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		r.Use(middleware.RequireRole(authEnabled, middleware.RoleAdmin))
		if deps.Subscriber != nil {
			registerWSRoutes(r, ws.NewHub(deps.Subscriber))
		} else {
			r.Get("/features/{feature}", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotImplemented)
			})
		}
	})

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	log.Info().
		Bool("auth", authEnabled).
		Bool("audit_log", deps.Invocations != nil).
		Bool("live_stream", deps.Subscriber != nil).
		Msg("routes registered")

	return s
}

var wordRoutes = map[string]struct{}{
	"/api/v1/exports/word":   {},
	"/api/v1/documents/word": {},
}

func throttled(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return true
	}
	_, word := wordRoutes[r.URL.Path]
	return !word
}

func apiConfig(title string) huma.Config {
	c := huma.DefaultConfig(title, "1.0.0")
	c.Servers = []*huma.Server{
		{URL: "/api/v1"},
	}
	return c
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
