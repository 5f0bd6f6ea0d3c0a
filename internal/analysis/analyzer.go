package analysis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/newthinker/strata/internal/backtest"
	"github.com/newthinker/strata/internal/core"
	"github.com/newthinker/strata/internal/metrics"
	"github.com/newthinker/strata/internal/strategy"
)

const (
	ModeAnalyze  = "analyze"
	ModeBacktest = "backtest"
)

// Config holds analyzer configuration
type Config struct {
	Workers int `mapstructure:"workers"`
}

// DefaultConfig returns default analyzer configuration
func DefaultConfig() Config {
	return Config{Workers: 4}
}

// ReportSink persists finished backtest reports.
type ReportSink interface {
	Save(ctx context.Context, strategy, runID string, at time.Time, v any) (string, error)
}

// Task is one strategy evaluation. A nil Backtest runs indicators and signals only.
type Task struct {
	Symbol   string
	Strategy *strategy.Definition
	Prices   core.Series
	Backtest *backtest.Params
}

func (t Task) strategyName() string {
	if t.Strategy == nil {
		return ""
	}
	return t.Strategy.Name
}

// Analyzer wraps the pipeline with logging, metrics and report archiving.
type Analyzer struct {
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Registry
	sink    ReportSink
	now     func() time.Time
}

// New creates a new analyzer
func New(cfg Config, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Analyzer{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetMetrics sets the metrics registry
func (a *Analyzer) SetMetrics(reg *metrics.Registry) {
	a.metrics = reg
}

// SetArchive sets where backtest reports are written
func (a *Analyzer) SetArchive(sink ReportSink) {
	a.sink = sink
}

// Analyze computes indicators and signals for one strategy and price series.
func (a *Analyzer) Analyze(ctx context.Context, def *strategy.Definition, prices core.Series, symbol string) (*Report, error) {
	return a.Run(ctx, Task{Symbol: symbol, Strategy: def, Prices: prices})
}

// Backtest runs the full pipeline including the portfolio simulation.
func (a *Analyzer) Backtest(ctx context.Context, def *strategy.Definition, prices core.Series, symbol string, params backtest.Params) (*Report, error) {
	return a.Run(ctx, Task{Symbol: symbol, Strategy: def, Prices: prices, Backtest: &params})
}

// Run executes a single task.
func (a *Analyzer) Run(ctx context.Context, task Task) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := ModeAnalyze
	if task.Backtest != nil {
		mode = ModeBacktest
	}
	log := a.logger.With(
		zap.String("strategy", task.strategyName()),
		zap.String("symbol", task.Symbol),
		zap.String("mode", mode),
	)

	start := time.Now()
	var (
		out *Outcome
		err error
	)
	if task.Backtest != nil {
		out, err = EvaluateBacktest(task.Strategy, task.Prices, *task.Backtest)
	} else {
		out, err = Evaluate(task.Strategy, task.Prices)
	}
	duration := time.Since(start)

	if err != nil {
		a.recordAnalysis(task.strategyName(), mode, "error", duration)
		log.Warn("analysis failed", zap.String("kind", string(core.KindOf(err))), zap.Error(err))
		return nil, err
	}
	a.recordAnalysis(task.strategyName(), mode, "ok", duration)

	report := BuildReport(uuid.NewString(), task.Symbol, a.now(), out)
	a.recordSignals(report)

	fields := []zap.Field{
		zap.Int("bars", report.Bars),
		zap.Int("entries", len(report.Signals.Entries)),
		zap.Int("exits", len(report.Signals.Exits)),
		zap.Duration("duration", duration),
	}
	if bt := report.Backtest; bt != nil {
		fields = append(fields,
			zap.Int("trades", bt.Performance.TotalTrades),
			zap.Float64("total_return", bt.Performance.TotalReturn),
		)
		a.archive(ctx, log, report)
	}
	log.Info("analysis complete", fields...)

	return report, nil
}

// archive writes a backtest report. Failures are logged and do not fail the run.
func (a *Analyzer) archive(ctx context.Context, log *zap.Logger, report *Report) {
	if a.sink == nil {
		return
	}
	p, err := a.sink.Save(ctx, report.Strategy, report.RunID, report.GeneratedAt, report)
	if err != nil {
		log.Warn("archiving report failed", zap.String("run_id", report.RunID), zap.Error(err))
		a.recordArchive("error")
		return
	}
	report.ArchivePath = p
	a.recordArchive("ok")
}

// BatchResult is the outcome of one batch task, at the task's position.
type BatchResult struct {
	Index    int
	Symbol   string
	Strategy string
	Report   *Report
	Err      error
}

// RunBatch runs independent tasks on a bounded worker pool. Results keep task
// order. Once ctx is done no further tasks are scheduled; unscheduled tasks
// report ctx.Err().
func (a *Analyzer) RunBatch(ctx context.Context, tasks []Task) []BatchResult {
	return a.RunBatchFunc(ctx, tasks, nil)
}

// RunBatchFunc is RunBatch with a callback invoked from the worker as each
// scheduled task finishes. done may be called concurrently.
func (a *Analyzer) RunBatchFunc(ctx context.Context, tasks []Task, done func(BatchResult)) []BatchResult {
	results := make([]BatchResult, len(tasks))
	for i, t := range tasks {
		results[i] = BatchResult{Index: i, Symbol: t.Symbol, Strategy: t.strategyName()}
	}

	workers := min(a.cfg.Workers, len(tasks))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				a.batchTaskStarted()
				report, err := a.Run(ctx, tasks[i])
				a.batchTaskDone()
				results[i].Report = report
				results[i].Err = err
				if done != nil {
					done(results[i])
				}
			}
		}()
	}

	scheduled := 0
schedule:
	for i := range tasks {
		select {
		case <-ctx.Done():
			break schedule
		case jobs <- i:
			scheduled++
		}
	}
	close(jobs)
	wg.Wait()

	for i := scheduled; i < len(tasks); i++ {
		results[i].Err = ctx.Err()
	}

	a.logger.Info("batch complete",
		zap.Int("tasks", len(tasks)),
		zap.Int("scheduled", scheduled),
		zap.Int("workers", workers),
	)
	return results
}

func (a *Analyzer) recordAnalysis(strategy, mode, status string, d time.Duration) {
	if a.metrics != nil {
		a.metrics.RecordAnalysis(strategy, mode, status, d.Seconds())
	}
}

func (a *Analyzer) recordSignals(r *Report) {
	if a.metrics == nil {
		return
	}
	a.metrics.RecordSignals(string(core.SignalEntry), len(r.Signals.Entries))
	a.metrics.RecordSignals(string(core.SignalExit), len(r.Signals.Exits))
	if r.Backtest != nil {
		a.metrics.RecordTrades(r.Backtest.Performance.TotalTrades)
	}
}

func (a *Analyzer) recordArchive(status string) {
	if a.metrics != nil {
		a.metrics.RecordArchive(status)
	}
}

func (a *Analyzer) batchTaskStarted() {
	if a.metrics != nil {
		a.metrics.BatchTaskStarted()
	}
}

func (a *Analyzer) batchTaskDone() {
	if a.metrics != nil {
		a.metrics.BatchTaskDone()
	}
}
