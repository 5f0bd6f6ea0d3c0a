// internal/api/handler/api/analysis.go
package api

import (
	"net/http"

	"github.com/newthinker/strata/internal/analysis"
	"github.com/newthinker/strata/internal/api/response"
	"github.com/newthinker/strata/internal/backtest"
)

// AnalysisHandler runs the pipeline synchronously for one price series.
type AnalysisHandler struct {
	analyzer   *analysis.Analyzer
	strategies StrategyResolver
	defaults   backtest.Params
}

// NewAnalysisHandler creates a new analysis handler. defaults fill any backtest
// parameter a request leaves out.
func NewAnalysisHandler(analyzer *analysis.Analyzer, strategies StrategyResolver, defaults backtest.Params) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer:   analyzer,
		strategies: strategies,
		defaults:   defaults,
	}
}

// Analyze computes indicators and signals.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := decode(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	def, prices, err := req.resolve(h.strategies)
	if err != nil {
		response.Fail(w, err)
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), def, prices, req.Symbol)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}

// Backtest runs the pipeline and the portfolio simulation.
func (h *AnalysisHandler) Backtest(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := decode(w, r, &req); err != nil {
		response.Fail(w, err)
		return
	}

	params, err := req.Backtest.merge(h.defaults)
	if err != nil {
		response.Fail(w, err)
		return
	}

	def, prices, err := req.resolve(h.strategies)
	if err != nil {
		response.Fail(w, err)
		return
	}

	report, err := h.analyzer.Backtest(r.Context(), def, prices, req.Symbol, params)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, report)
}
