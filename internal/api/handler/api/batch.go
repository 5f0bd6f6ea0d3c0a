// internal/api/handler/api/batch.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/strata/internal/analysis"
	"github.com/newthinker/strata/internal/api/job"
	"github.com/newthinker/strata/internal/api/response"
	"github.com/newthinker/strata/internal/backtest"
	"github.com/newthinker/strata/internal/core"
)

const (
	batchTimeout = 5 * time.Minute
	maxBatchRuns = 256
	jobTypeBatch = "batch"
)

// BatchRequest is the body of a batch request. Backtest applies to every run
// that does not set its own.
type BatchRequest struct {
	Runs     []RunRequest    `json:"runs"`
	Backtest *BacktestParams `json:"backtest,omitempty"`
	Analyze  bool            `json:"analyze_only,omitempty"`
}

// BatchItem is one run's outcome inside a finished batch job.
type BatchItem struct {
	Index    int                   `json:"index"`
	Symbol   string                `json:"symbol,omitempty"`
	Strategy string                `json:"strategy"`
	Report   *analysis.Report      `json:"report,omitempty"`
	Error    *response.ErrorDetail `json:"error,omitempty"`
}

// BatchHandler runs many analyses as one asynchronous job.
type BatchHandler struct {
	jobs       *job.Store
	analyzer   *analysis.Analyzer
	strategies StrategyResolver
	defaults   backtest.Params
	logger     *zap.Logger
}

// NewBatchHandler creates a new batch handler.
func NewBatchHandler(
	jobs *job.Store,
	analyzer *analysis.Analyzer,
	strategies StrategyResolver,
	defaults backtest.Params,
	logger *zap.Logger,
) *BatchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchHandler{
		jobs:       jobs,
		analyzer:   analyzer,
		strategies: strategies,
		defaults:   defaults,
		logger:     logger,
	}
}

// Create validates every run up front and starts the batch in the background.
func (h *BatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decode(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}
	if len(req.Runs) == 0 {
		response.Fail(w, core.Errorf(core.ErrConfigMissing, "runs must not be empty"))
		return
	}
	if len(req.Runs) > maxBatchRuns {
		response.Fail(w, core.Errorf(core.ErrConfigInvalid, "at most %d runs per batch, got %d", maxBatchRuns, len(req.Runs)))
		return
	}

	tasks, err := h.tasks(req)
	if err != nil {
		response.Fail(w, err)
		return
	}

	j := h.jobs.Create(jobTypeBatch, len(tasks))

	// Copy values before starting goroutine to avoid race
	jobID := j.ID
	status := j.Status

	go h.run(jobID, tasks)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
		"total":  len(tasks),
	})
}

func (h *BatchHandler) tasks(req BatchRequest) ([]analysis.Task, error) {
	tasks := make([]analysis.Task, 0, len(req.Runs))
	for i, run := range req.Runs {
		def, prices, err := run.resolve(h.strategies)
		if err != nil {
			return nil, core.Prefix(err, fmt.Sprintf("run %d", i))
		}
		task := analysis.Task{Symbol: run.Symbol, Strategy: def, Prices: prices}
		if !req.Analyze {
			overrides := run.Backtest
			if overrides == nil {
				overrides = req.Backtest
			}
			params, err := overrides.merge(h.defaults)
			if err != nil {
				return nil, core.Prefix(err, fmt.Sprintf("run %d", i))
			}
			task.Backtest = &params
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// run executes the batch and records the outcome on the job.
func (h *BatchHandler) run(jobID string, tasks []analysis.Task) {
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()
	results := h.analyzer.RunBatchFunc(ctx, tasks, func(analysis.BatchResult) {
		h.taskDone(jobID)
	})

	items := make([]BatchItem, len(results))
	failed := 0
	for i, res := range results {
		items[i] = BatchItem{
			Index:    res.Index,
			Symbol:   res.Symbol,
			Strategy: res.Strategy,
			Report:   res.Report,
		}
		if res.Err != nil {
			failed++
			detail := response.Detail(res.Err)
			items[i].Error = &detail
		}
	}

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Result = items
		if ctx.Err() != nil {
			j.Status = job.StatusFailed
			j.Error = core.WrapError(core.ErrTimeout, ctx.Err())
			return
		}
		j.Status = job.StatusComplete
	})

	h.logger.Info("batch job finished",
		zap.String("job_id", jobID),
		zap.Int("runs", len(results)),
		zap.Int("failed", failed),
	)
}

// taskDone advances the job's progress by one finished run.
func (h *BatchHandler) taskDone(jobID string) {
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Completed++
	})
}

// GetStatus returns the state of a batch job.
func (h *BatchHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, j)
}
