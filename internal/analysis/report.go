package analysis

import (
	"math"
	"time"

	"github.com/newthinker/strata/internal/backtest"
	"github.com/newthinker/strata/internal/core"
	"github.com/newthinker/strata/internal/indicator"
	"github.com/newthinker/strata/internal/strategy"
)

// Point is one defined value of a series
type Point struct {
	Time  time.Time `json:"timestamp"`
	Value float64   `json:"value"`
}

// IndicatorReport is an indicator series with warm-up NaNs dropped.
type IndicatorReport struct {
	Name       string             `json:"name"`
	Type       strategy.Kind      `json:"type"`
	Params     map[string]any     `json:"params"`
	Points     []Point            `json:"points"`
	Components map[string][]Point `json:"components,omitempty"`
}

// RuleReport lists the bars where one rule fired.
type RuleReport struct {
	Name       string             `json:"name"`
	Kind       string             `json:"kind"`
	SignalType core.SignalType    `json:"signal_type"`
	Count      int                `json:"count"`
	Events     []core.SignalEvent `json:"events"`
}

// SignalsReport holds per-rule and combined signal events.
type SignalsReport struct {
	Rules   []RuleReport       `json:"rules"`
	Entries []core.SignalEvent `json:"entries"`
	Exits   []core.SignalEvent `json:"exits"`
}

// Performance is the headline backtest summary
type Performance struct {
	TotalReturn float64 `json:"total_return"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	MaxDrawdown float64 `json:"max_drawdown"`
	WinRate     float64 `json:"win_rate"`
	TotalTrades int     `json:"total_trades"`
	FinalValue  float64 `json:"final_value"`
}

// BacktestReport is the simulated account history
type BacktestReport struct {
	Params       backtest.Params    `json:"params"`
	Performance  Performance        `json:"performance"`
	Trades       []backtest.Trade   `json:"trades"`
	OpenPosition *backtest.Position `json:"open_position,omitempty"`
	Equity       []Point            `json:"equity"`
}

// Report is the serializable form of a run.
type Report struct {
	RunID       string            `json:"run_id"`
	Strategy    string            `json:"strategy"`
	Symbol      string            `json:"symbol,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Start       time.Time         `json:"start"`
	End         time.Time         `json:"end"`
	Bars        int               `json:"bars"`
	Indicators  []IndicatorReport `json:"indicators"`
	Signals     SignalsReport     `json:"signals"`
	Backtest    *BacktestReport   `json:"backtest,omitempty"`
	ArchivePath string            `json:"archive_path,omitempty"`
}

// BuildReport shapes an outcome for JSON output. Indicators follow declaration order.
func BuildReport(runID, symbol string, at time.Time, out *Outcome) *Report {
	prices := out.Prices
	r := &Report{
		RunID:       runID,
		Strategy:    out.Strategy.Name,
		Symbol:      symbol,
		GeneratedAt: at.UTC(),
		Bars:        prices.Len(),
	}
	if n := prices.Len(); n > 0 {
		r.Start = prices.Index[0]
		r.End = prices.Index[n-1]
	}

	for _, def := range out.Strategy.Indicators {
		if c, ok := out.Indicators[def.Name]; ok {
			r.Indicators = append(r.Indicators, indicatorReport(c))
		}
	}

	if set := out.Signals; set != nil {
		for _, rule := range set.Rules {
			rr := RuleReport{
				Name:       rule.Name,
				Kind:       string(rule.Kind),
				SignalType: rule.SignalType,
				Events:     nonNil(rule.Events(prices)),
			}
			rr.Count = len(rr.Events)
			r.Signals.Rules = append(r.Signals.Rules, rr)
		}
		r.Signals.Entries = nonNil(set.EntryEvents(prices))
		r.Signals.Exits = nonNil(set.ExitEvents(prices))
	}

	if bt := out.Backtest; bt != nil {
		trades := bt.Trades
		if trades == nil {
			trades = []backtest.Trade{}
		}
		r.Backtest = &BacktestReport{
			Params: bt.Params,
			Performance: Performance{
				TotalReturn: bt.Stats.TotalReturn,
				SharpeRatio: bt.Stats.SharpeRatio,
				MaxDrawdown: bt.Stats.MaxDrawdown,
				WinRate:     bt.Stats.WinRate,
				TotalTrades: bt.Stats.TotalTrades,
				FinalValue:  bt.Stats.FinalValue,
			},
			Trades:       trades,
			OpenPosition: bt.OpenPosition,
			Equity:       points(bt.Index, bt.Equity),
		}
	}

	return r
}

func indicatorReport(c *indicator.Calculated) IndicatorReport {
	ir := IndicatorReport{
		Name:   c.Name,
		Type:   c.Kind,
		Params: c.Params,
		Points: points(c.Index, c.Values),
	}
	if len(c.Components) > 0 {
		ir.Components = make(map[string][]Point, len(c.Components))
		for name, values := range c.Components {
			ir.Components[name] = points(c.Index, values)
		}
	}
	return ir
}

// points pairs values with timestamps, skipping NaN and infinities.
func points(index []time.Time, values []float64) []Point {
	out := make([]Point, 0, len(values))
	for i, v := range values {
		if i >= len(index) || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, Point{Time: index[i], Value: v})
	}
	return out
}

func nonNil(events []core.SignalEvent) []core.SignalEvent {
	if events == nil {
		return []core.SignalEvent{}
	}
	return events
}
