package strategy

import (
	"fmt"
	"strings"

	"github.com/newthinker/strata/internal/core"
)

// Kind identifies an indicator family
type Kind string

const (
	KindEMA  Kind = "EMA"
	KindSMA  Kind = "SMA"
	KindRSI  Kind = "RSI"
	KindMACD Kind = "MACD"
)

// Window bounds per indicator family.
const (
	MinWindow       = 2
	MaxMAWindow     = 200
	MaxRSIWindow    = 100
	MaxMACDFast     = 50
	MaxMACDSlow     = 100
	MaxMACDSignal   = 50
	DefaultMAWindow = 20
	DefaultRSI      = 14
	DefaultFast     = 12
	DefaultSlow     = 26
	DefaultSignal   = 9
)

// MACD output components that rules may reference as "<name>.<component>".
const (
	ComponentMACD      = "macd"
	ComponentSignal    = "signal"
	ComponentHistogram = "histogram"
)

// Params is the closed set of indicator parameterisations. Only the types in this
// package implement it.
type Params interface {
	Kind() Kind
	// Map returns the parameters keyed by their document names.
	Map() map[string]any
	validate() error
}

// EMA is an exponential moving average over Window bars.
type EMA struct{ Window int }

// SMA is a simple moving average over Window bars.
type SMA struct{ Window int }

// RSI is Wilder's relative strength index over Window bars.
type RSI struct{ Window int }

// MACD is the moving average convergence/divergence indicator.
type MACD struct {
	Fast   int
	Slow   int
	Signal int
}

func (EMA) Kind() Kind  { return KindEMA }
func (SMA) Kind() Kind  { return KindSMA }
func (RSI) Kind() Kind  { return KindRSI }
func (MACD) Kind() Kind { return KindMACD }

func (p EMA) Map() map[string]any { return map[string]any{"window": p.Window} }
func (p SMA) Map() map[string]any { return map[string]any{"window": p.Window} }
func (p RSI) Map() map[string]any { return map[string]any{"window": p.Window} }
func (p MACD) Map() map[string]any {
	return map[string]any{"fast": p.Fast, "slow": p.Slow, "signal": p.Signal}
}

func (p EMA) validate() error { return checkBound("window", p.Window, MinWindow, MaxMAWindow) }
func (p SMA) validate() error { return checkBound("window", p.Window, MinWindow, MaxMAWindow) }
func (p RSI) validate() error { return checkBound("window", p.Window, MinWindow, MaxRSIWindow) }

func (p MACD) validate() error {
	if err := checkBound("fast", p.Fast, MinWindow, MaxMACDFast); err != nil {
		return err
	}
	if err := checkBound("slow", p.Slow, MinWindow, MaxMACDSlow); err != nil {
		return err
	}
	if err := checkBound("signal", p.Signal, MinWindow, MaxMACDSignal); err != nil {
		return err
	}
	if p.Slow <= p.Fast {
		return fmt.Errorf("slow period (%d) must be greater than fast period (%d)", p.Slow, p.Fast)
	}
	return nil
}

func checkBound(field string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%s must be between %d and %d, got %d", field, lo, hi, v)
	}
	return nil
}

// IndicatorDefinition names one parameterised indicator
type IndicatorDefinition struct {
	Name   string
	Params Params
}

// Kind returns the indicator family, or "" when Params is unset.
func (d IndicatorDefinition) Kind() Kind {
	if d.Params == nil {
		return ""
	}
	return d.Params.Kind()
}

// Direction is the side a crossover or threshold test looks at
type Direction string

const (
	Above Direction = "above"
	Below Direction = "below"
)

// CrossoverRule fires on the bar where FastIndicator crosses SlowIndicator.
type CrossoverRule struct {
	Name          string
	FastIndicator string
	SlowIndicator string
	Direction     Direction
	SignalType    core.SignalType
}

// ThresholdRule fires on every bar where Indicator is beyond Threshold.
type ThresholdRule struct {
	Name       string
	Indicator  string
	Threshold  float64
	Condition  Direction
	SignalType core.SignalType
}

// Definition is a complete, declarative trading strategy
type Definition struct {
	Name           string
	Description    string
	Indicators     []IndicatorDefinition
	CrossoverRules []CrossoverRule
	ThresholdRules []ThresholdRule
}

// Indicator looks up an indicator definition by name
func (d *Definition) Indicator(name string) (IndicatorDefinition, bool) {
	for _, ind := range d.Indicators {
		if ind.Name == name {
			return ind, true
		}
	}
	return IndicatorDefinition{}, false
}

// HasRules reports whether the strategy declares any rule.
func (d *Definition) HasRules() bool {
	return len(d.CrossoverRules)+len(d.ThresholdRules) > 0
}

// SplitRef splits an indicator reference "name" or "name.component".
func SplitRef(ref string) (name, component string) {
	name, component, _ = strings.Cut(ref, ".")
	return name, component
}
