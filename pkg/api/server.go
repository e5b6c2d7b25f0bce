// Package api serves the wayfinder over HTTP: node and edge administration,
// route queries for kiosks and mobile clients, GraphQL, health and metrics.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-wayfinder/pkg/api/middleware"
	"github.com/dd0wney/cluso-wayfinder/pkg/logging"
)

// NewServer creates a new API server
func NewServer(cfg Config, opts Options) (*Server, error) {
	if opts.Store == nil || opts.Mutations == nil || opts.Pathfinder == nil {
		return nil, errors.New("api: store, mutation service and pathfinder are required")
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{
		cfg:        cfg,
		store:      opts.Store,
		mutations:  opts.Mutations,
		pathfinder: opts.Pathfinder,
		health:     opts.Health,
		graphql:    opts.GraphQL,
		metrics:    opts.Metrics,
		logger:     logger.With(logging.Component("api")),
		version:    version,
		startTime:  time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Graph administration
	mux.HandleFunc("/nodes", s.handleNodes)
	mux.HandleFunc("/nodes/", s.handleNode) // /nodes/{id}
	mux.HandleFunc("/edges", s.handleEdges)
	mux.HandleFunc("/edges/", s.handleEdge) // /edges/{id}

	// Route planning
	mux.HandleFunc("/path", s.handlePath)
	mux.HandleFunc("/path/nearest", s.handleNearest)
	mux.HandleFunc("/components", s.handleComponents)

	// Operations
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/admin/checkpoint", s.handleCheckpoint)
	mux.HandleFunc("/admin/import", s.handleImport)

	if s.graphql != nil {
		mux.Handle("/graphql", s.graphql)
	}
	if s.health != nil {
		mux.HandleFunc("/health", s.health.HTTPHandler())
		mux.HandleFunc("/health/live", s.health.LivenessHandler())
		mux.HandleFunc("/health/ready", s.health.ReadinessHandler())
	}
	if s.metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	}
	return mux
}

// Handler returns the routes wrapped in the middleware chain. Metrics sits
// innermost so it sees the route pattern the mux matched.
func (s *Server) Handler() http.Handler {
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = s.cfg.CORSOrigins

	var recorder middleware.MetricsRecorder
	if s.metrics != nil {
		recorder = s.metrics
	}

	return middleware.Chain(s.routes(),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.PanicRecovery(s.logger),
		middleware.CORS(cors),
		middleware.SecurityHeaders(),
		middleware.BodySizeLimit(s.cfg.MaxBodyBytes),
		middleware.Metrics(recorder),
	)
}

// Start listens on the configured address and blocks until the server stops.
// It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", logging.String("addr", s.cfg.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones, bounded by
// the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
