// Package server provides the HTTP server and routing for signalboard.
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

	"github.com/aristath/signalboard/internal/config"
	"github.com/aristath/signalboard/internal/database"
	cataloghandlers "github.com/aristath/signalboard/internal/modules/catalog/handlers"
	chartshandlers "github.com/aristath/signalboard/internal/modules/charts/handlers"
	performancehandlers "github.com/aristath/signalboard/internal/modules/performance/handlers"
	simulationhandlers "github.com/aristath/signalboard/internal/modules/simulation/handlers"
)

// Config holds server configuration
type Config struct {
	Log         zerolog.Logger
	Config      *config.Config
	SignalsDB   *database.DB
	ClientDB    *database.DB
	Catalog     *cataloghandlers.Handler
	Performance *performancehandlers.Handler
	Simulation  *simulationhandlers.Handler
	Charts      *chartshandlers.Handler
	System      *SystemHandlers
}

// Server is the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	signalsDB      *database.DB
	clientDB       *database.DB
	catalog        *cataloghandlers.Handler
	performance    *performancehandlers.Handler
	simulation     *simulationhandlers.Handler
	charts         *chartshandlers.Handler
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		signalsDB:      cfg.SignalsDB,
		clientDB:       cfg.ClientDB,
		catalog:        cfg.Catalog,
		performance:    cfg.Performance,
		simulation:     cfg.Simulation,
		charts:         cfg.Charts,
		systemHandlers: cfg.System,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		s.catalog.RegisterRoutes(r)
		s.performance.RegisterRoutes(r)
		s.simulation.RegisterRoutes(r)
		s.charts.RegisterRoutes(r)
		s.systemHandlers.RegisterRoutes(r)
	})
}

// Router returns the configured router, used by tests to serve
// requests without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server, blocking until it stops
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
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

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
