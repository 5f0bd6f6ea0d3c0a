package strategy

import (
	"fmt"

	"github.com/newthinker/strata/internal/core"
)

// EMACrossover enters when the fast EMA crosses above the slow EMA and exits on the
// opposite cross.
func EMACrossover(fastPeriod, slowPeriod int) (*Definition, error) {
	return New(
		"ema_crossover",
		fmt.Sprintf("EMA crossover strategy (%d/%d)", fastPeriod, slowPeriod),
		[]IndicatorDefinition{
			{Name: "ema_fast", Params: EMA{Window: fastPeriod}},
			{Name: "ema_slow", Params: EMA{Window: slowPeriod}},
		},
		[]CrossoverRule{
			{Name: "ema_entry", FastIndicator: "ema_fast", SlowIndicator: "ema_slow", Direction: Above, SignalType: core.SignalEntry},
			{Name: "ema_exit", FastIndicator: "ema_fast", SlowIndicator: "ema_slow", Direction: Below, SignalType: core.SignalExit},
		},
		nil,
	)
}

// RSIMeanReversion buys oversold and sells overbought RSI levels.
func RSIMeanReversion(period int, oversold, overbought float64) (*Definition, error) {
	return New(
		"rsi_mean_reversion",
		fmt.Sprintf("RSI mean reversion strategy (period=%d)", period),
		[]IndicatorDefinition{
			{Name: "rsi", Params: RSI{Window: period}},
		},
		nil,
		[]ThresholdRule{
			{Name: "rsi_entry", Indicator: "rsi", Threshold: oversold, Condition: Below, SignalType: core.SignalEntry},
			{Name: "rsi_exit", Indicator: "rsi", Threshold: overbought, Condition: Above, SignalType: core.SignalExit},
		},
	)
}

// MACDSignalCross trades the MACD line crossing its own signal line.
func MACDSignalCross(fast, slow, signal int) (*Definition, error) {
	return New(
		"macd_signal_cross",
		fmt.Sprintf("MACD/signal line crossover (%d/%d/%d)", fast, slow, signal),
		[]IndicatorDefinition{
			{Name: "macd", Params: MACD{Fast: fast, Slow: slow, Signal: signal}},
		},
		[]CrossoverRule{
			{Name: "macd_entry", FastIndicator: "macd.macd", SlowIndicator: "macd.signal", Direction: Above, SignalType: core.SignalEntry},
			{Name: "macd_exit", FastIndicator: "macd.macd", SlowIndicator: "macd.signal", Direction: Below, SignalType: core.SignalExit},
		},
		nil,
	)
}

// Presets returns the built-in strategies with their default parameters.
func Presets() []*Definition {
	return []*Definition{
		must(EMACrossover(DefaultFast, DefaultSlow)),
		must(RSIMeanReversion(DefaultRSI, 30, 70)),
		must(MACDSignalCross(DefaultFast, DefaultSlow, DefaultSignal)),
	}
}

func must(d *Definition, err error) *Definition {
	if err != nil {
		panic(err)
	}
	return d
}
