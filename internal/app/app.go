package app

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/newthinker/strata/internal/analysis"
	"github.com/newthinker/strata/internal/backtest"
	"github.com/newthinker/strata/internal/config"
	"github.com/newthinker/strata/internal/core"
	"github.com/newthinker/strata/internal/metrics"
	"github.com/newthinker/strata/internal/storage/archive"
	"github.com/newthinker/strata/internal/strategy"
)

// App wires the strategy registry, analyzer, metrics and report archive from a
// validated config.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	strategies *strategy.Registry
	metrics    *metrics.Registry
	analyzer   *analysis.Analyzer
	reports    *archive.Reports
}

// New creates a new App instance. Strategy documents from cfg.Strategies.Dir are
// registered next to the presets.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = config.Defaults()
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		strategies: strategy.NewRegistryWithPresets(logger),
		metrics:    metrics.NewRegistry(),
		analyzer:   analysis.New(analysis.Config{Workers: cfg.Analysis.Workers}, logger),
	}
	a.analyzer.SetMetrics(a.metrics)

	if dir := cfg.Strategies.Dir; dir != "" {
		n, err := a.strategies.LoadDir(dir)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded strategy documents", zap.String("dir", dir), zap.Int("count", n))
	}

	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("opening archive: %w", err)
		}
		a.reports = archive.NewReports(store, logger)
		a.analyzer.SetArchive(a.reports)
	}

	return a, nil
}

// Config returns the configuration the app was built from
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the app logger
func (a *App) Logger() *zap.Logger { return a.logger }

// Strategies returns the strategy registry
func (a *App) Strategies() *strategy.Registry { return a.strategies }

// Metrics returns the metrics registry
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Analyzer returns the analyzer
func (a *App) Analyzer() *analysis.Analyzer { return a.analyzer }

// Reports returns the report archive, or nil when archiving is disabled.
func (a *App) Reports() *archive.Reports { return a.reports }

// BacktestDefaults returns the configured simulation parameters.
func (a *App) BacktestDefaults() backtest.Params {
	return a.cfg.Backtest.Params()
}

// ResolveStrategy treats ref as a strategy document path when such a file
// exists, and as a registered strategy name otherwise.
func (a *App) ResolveStrategy(ref string) (*strategy.Definition, error) {
	if _, err := os.Stat(ref); err == nil {
		return strategy.LoadFile(ref)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("checking strategy file: %w", err)
	}
	def, ok := a.strategies.Get(ref)
	if !ok {
		return nil, core.Errorf(core.ErrNotFound, "strategy %q is neither registered nor a file", ref)
	}
	return def, nil
}

// GetStats returns a summary of the wired components.
func (a *App) GetStats() map[string]any {
	return map[string]any{
		"strategies":      len(a.strategies.List()),
		"workers":         a.cfg.Analysis.Workers,
		"archive_enabled": a.reports != nil,
		"archive_type":    a.cfg.Archive.Type,
	}
}
