// Package server exposes a session over HTTP so a browser frontend can drive it.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/manuelmanso/etfoptimizer/internal/metrics"
	"github.com/manuelmanso/etfoptimizer/internal/session"
)

// Config holds server configuration
type Config struct {
	Log            zerolog.Logger
	Session        *session.Session
	Port           int
	DevMode        bool
	AllowedOrigins []string
	Heartbeat      time.Duration // event stream keep-alive period; default 30s
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	session   *session.Session
	origins   []string
	heartbeat time.Duration
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 30 * time.Second
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		session:   cfg.Session,
		origins:   cfg.AllowedOrigins,
		heartbeat: cfg.Heartbeat,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the event streams stay open indefinitely.
		IdleTimeout: 60 * time.Second,
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(metrics.Middleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5, "application/json"))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/events/stream", NewEventsStreamHandler(s.session.Events().Bus(), s.heartbeat, s.log).ServeHTTP)
		r.Get("/events/ws", NewEventsSocketHandler(s.session.Events().Bus(), s.origins, s.log).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/catalog", s.handleCatalog)

			r.Route("/session", func(r chi.Router) {
				r.Get("/", s.handleView)
				r.Get("/fields", s.handleFields)
				r.Put("/parameters/{name}", s.handleSetParameter)
				r.Put("/filters/{name}", s.handleSetFilter)
				r.Get("/isin-list", s.handleGetIsinList)
				r.Post("/isin-list", s.handleUploadIsinList)
				r.Post("/reset", s.handleReset)
				r.Post("/submit", s.handleSubmit)
				r.Post("/dismiss", s.handleDismiss)
				r.Post("/export", s.handleExport)

				r.Route("/result", func(r chi.Router) {
					r.Get("/rows", s.handleRows)
					r.Get("/portfolio.json", s.handleExportDocument)
					r.Get("/EfficientFrontier.png", s.handlePlot)
				})
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
