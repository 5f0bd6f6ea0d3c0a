package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/strata/internal/api"
	"github.com/newthinker/strata/internal/api/job"
	"github.com/newthinker/strata/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the STRATA HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Logger().Sync()

	log := a.Logger()
	cfg := a.Config()

	if cfg.Server.APIKey == "" {
		log.Warn("no API key configured, the API is open")
	}
	log.Info("starting STRATA server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int("strategies", len(a.Strategies().List())),
		zap.Bool("archive", a.Reports() != nil),
	)

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = a.Metrics()
	}

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: cfg.Metrics.Path,
	}, api.Dependencies{
		Analyzer:   a.Analyzer(),
		Strategies: a.Strategies(),
		Jobs:       job.NewStore(100, time.Hour),
		Metrics:    reg,
		Defaults:   cfg.Backtest.Params(),
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down STRATA server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(ctx)
}
