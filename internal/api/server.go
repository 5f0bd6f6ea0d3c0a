package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/newthinker/strata/internal/analysis"
	handlerapi "github.com/newthinker/strata/internal/api/handler/api"
	"github.com/newthinker/strata/internal/api/job"
	"github.com/newthinker/strata/internal/api/middleware"
	"github.com/newthinker/strata/internal/backtest"
	"github.com/newthinker/strata/internal/metrics"
)

const healthPath = "/api/health"

// Server represents the HTTP server for STRATA
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// Dependencies holds the services the handlers use.
type Dependencies struct {
	Analyzer   *analysis.Analyzer
	Strategies handlerapi.StrategyLister
	Jobs       *job.Store
	Metrics    *metrics.Registry // nil disables the metrics endpoint and middleware
	Defaults   backtest.Params
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Analyzer == nil || deps.Strategies == nil {
		return nil, fmt.Errorf("analyzer and strategies are required")
	}
	if deps.Jobs == nil {
		deps.Jobs = job.NewStore(100, time.Hour)
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(cfg, deps)

	var handler http.Handler = mux
	handler = middleware.APIKeyAuth(cfg.APIKey, healthPath, cfg.MetricsPath)(handler)
	if deps.Metrics != nil {
		handler = metrics.HTTPMiddleware(deps.Metrics)(handler)
	}
	handler = metrics.LoggingMiddleware(logger)(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	analysisHandler := handlerapi.NewAnalysisHandler(deps.Analyzer, deps.Strategies, deps.Defaults)
	strategyHandler := handlerapi.NewStrategyHandler(deps.Strategies)
	batchHandler := handlerapi.NewBatchHandler(deps.Jobs, deps.Analyzer, deps.Strategies, deps.Defaults, s.logger)

	s.mux.HandleFunc("POST /api/v1/analyze", analysisHandler.Analyze)
	s.mux.HandleFunc("POST /api/v1/backtest", analysisHandler.Backtest)
	s.mux.HandleFunc("GET /api/v1/strategies", strategyHandler.List)
	s.mux.HandleFunc("GET /api/v1/strategies/{name}", strategyHandler.Get)
	s.mux.HandleFunc("POST /api/v1/batch", batchHandler.Create)
	s.mux.HandleFunc("GET /api/v1/jobs/{id}", batchHandler.GetStatus)
	s.mux.HandleFunc("GET "+healthPath, s.handleHealth)

	if deps.Metrics != nil {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the server's root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
