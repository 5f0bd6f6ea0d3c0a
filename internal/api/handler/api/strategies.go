// internal/api/handler/api/strategies.go
package api

import (
	"net/http"

	"github.com/newthinker/strata/internal/api/response"
	"github.com/newthinker/strata/internal/core"
	"github.com/newthinker/strata/internal/strategy"
)

// StrategyLister lists and resolves registered strategies.
type StrategyLister interface {
	StrategyResolver
	List() []*strategy.Definition
}

// StrategySummary is the list view of a registered strategy.
type StrategySummary struct {
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Indicators     int    `json:"indicators"`
	CrossoverRules int    `json:"crossover_rules"`
	ThresholdRules int    `json:"threshold_rules"`
}

// StrategyHandler serves the strategy registry.
type StrategyHandler struct {
	strategies StrategyLister
}

// NewStrategyHandler creates a new strategy handler.
func NewStrategyHandler(strategies StrategyLister) *StrategyHandler {
	return &StrategyHandler{strategies: strategies}
}

// List returns every registered strategy, sorted by name.
func (h *StrategyHandler) List(w http.ResponseWriter, r *http.Request) {
	defs := h.strategies.List()
	out := make([]StrategySummary, 0, len(defs))
	for _, d := range defs {
		out = append(out, StrategySummary{
			Name:           d.Name,
			Description:    d.Description,
			Indicators:     len(d.Indicators),
			CrossoverRules: len(d.CrossoverRules),
			ThresholdRules: len(d.ThresholdRules),
		})
	}
	response.JSON(w, http.StatusOK, out)
}

// Get returns one strategy in document form.
func (h *StrategyHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	def, ok := h.strategies.Get(name)
	if !ok {
		response.Fail(w, core.Errorf(core.ErrNotFound, "strategy %q", name))
		return
	}
	response.JSON(w, http.StatusOK, def.ToRaw())
}
