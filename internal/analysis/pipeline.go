// Package analysis runs strategy definitions over price series: indicators,
// then signals, then optionally a backtest.
package analysis

import (
	"github.com/newthinker/strata/internal/backtest"
	"github.com/newthinker/strata/internal/core"
	"github.com/newthinker/strata/internal/indicator"
	"github.com/newthinker/strata/internal/signal"
	"github.com/newthinker/strata/internal/strategy"
)

// Outcome is the output of one pipeline run. Backtest is nil for analyze-only runs.
type Outcome struct {
	Strategy   *strategy.Definition
	Prices     core.Series
	Indicators map[string]*indicator.Calculated
	Signals    *signal.Set
	Backtest   *backtest.Result
}

// Evaluate computes indicators and signals. It is a pure function of its inputs.
func Evaluate(def *strategy.Definition, prices core.Series) (*Outcome, error) {
	if def == nil {
		return nil, core.Errorf(core.ErrStrategyInvalid, "no strategy definition")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	indicators, err := indicator.Calculate(prices, def.Indicators)
	if err != nil {
		return nil, err
	}

	set, err := signal.Evaluate(def, indicators, prices.Index)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Strategy:   def,
		Prices:     prices,
		Indicators: indicators,
		Signals:    set,
	}, nil
}

// EvaluateBacktest runs Evaluate and simulates the combined signals.
func EvaluateBacktest(def *strategy.Definition, prices core.Series, params backtest.Params) (*Outcome, error) {
	out, err := Evaluate(def, prices)
	if err != nil {
		return nil, err
	}

	result, err := backtest.Simulate(prices, out.Signals.Entry, out.Signals.Exit, params)
	if err != nil {
		return nil, err
	}
	out.Backtest = result
	return out, nil
}
