// internal/api/handler/api/request.go
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/newthinker/strata/internal/backtest"
	"github.com/newthinker/strata/internal/core"
	"github.com/newthinker/strata/internal/strategy"
)

// maxBodyBytes bounds request bodies. Price series dominate their size.
const maxBodyBytes = 16 << 20

// BacktestParams overrides the server's backtest defaults field by field.
type BacktestParams struct {
	InitialCash    *float64 `json:"initial_cash,omitempty"`
	Commission     *float64 `json:"commission,omitempty"`
	PeriodsPerYear *float64 `json:"periods_per_year,omitempty"`
}

// RunRequest is the body of analyze and backtest requests. Strategy is either
// the name of a registered strategy or an inline strategy document.
type RunRequest struct {
	Strategy json.RawMessage   `json:"strategy"`
	Symbol   string            `json:"symbol,omitempty"`
	Prices   []core.PricePoint `json:"prices"`
	Backtest *BacktestParams   `json:"backtest,omitempty"`
}

// StrategyResolver looks up registered strategies by name.
type StrategyResolver interface {
	Get(name string) (*strategy.Definition, bool)
}

// decode reads a JSON body into v. Unknown fields are rejected.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("decoding body: %w", err))
	}
	return nil
}

// resolveStrategy accepts a strategy name or an inline document.
func resolveStrategy(strategies StrategyResolver, raw json.RawMessage) (*strategy.Definition, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, core.Errorf(core.ErrConfigMissing, "strategy is required")
	}

	if raw[0] == '"' {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, err)
		}
		def, ok := strategies.Get(name)
		if !ok {
			return nil, core.Errorf(core.ErrNotFound, "strategy %q", name)
		}
		return def, nil
	}

	return strategy.ParseJSON(raw)
}

func (req RunRequest) resolve(strategies StrategyResolver) (*strategy.Definition, core.Series, error) {
	def, err := resolveStrategy(strategies, req.Strategy)
	if err != nil {
		return nil, core.Series{}, err
	}
	prices, err := core.NewPriceSeries(req.Prices)
	if err != nil {
		return nil, core.Series{}, err
	}
	return def, prices, nil
}

// merge applies the overrides to defaults and checks the user-facing bounds.
func (p *BacktestParams) merge(defaults backtest.Params) (backtest.Params, error) {
	params := defaults
	if p != nil {
		if p.InitialCash != nil {
			params.InitialCash = *p.InitialCash
		}
		if p.Commission != nil {
			params.Commission = *p.Commission
		}
		if p.PeriodsPerYear != nil {
			params.PeriodsPerYear = *p.PeriodsPerYear
		}
	}
	if err := params.ValidateBounds(); err != nil {
		return backtest.Params{}, err
	}
	return params, nil
}
