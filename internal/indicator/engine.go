package indicator

import (
	"fmt"
	"time"

	"github.com/newthinker/strata/internal/core"
	"github.com/newthinker/strata/internal/strategy"
)

// Calculated is one indicator evaluated over a price series. Values is the
// series rules see by default; for MACD it is the MACD line and Components holds
// all three lines.
type Calculated struct {
	Name       string
	Kind       strategy.Kind
	Params     map[string]any
	Index      []time.Time
	Values     []float64
	Components map[string][]float64
}

// Component returns the named component series, or Values for "".
func (c *Calculated) Component(name string) ([]float64, bool) {
	if name == "" {
		return c.Values, true
	}
	v, ok := c.Components[name]
	return v, ok
}

// Calculate evaluates every definition over prices. Any failure aborts the whole
// call; partial results are never returned.
func Calculate(prices core.Series, defs []strategy.IndicatorDefinition) (map[string]*Calculated, error) {
	if err := prices.Validate(); err != nil {
		return nil, err
	}

	results := make(map[string]*Calculated, len(defs))
	for _, def := range defs {
		c, err := calculate(prices, def)
		if err != nil {
			return nil, err
		}
		results[def.Name] = c
	}
	return results, nil
}

func calculate(prices core.Series, def strategy.IndicatorDefinition) (*Calculated, error) {
	c := &Calculated{
		Name:  def.Name,
		Index: prices.Index,
	}

	switch p := def.Params.(type) {
	case strategy.SMA:
		c.Values = SMA(prices.Values, p.Window)
	case strategy.EMA:
		c.Values = EMA(prices.Values, p.Window)
	case strategy.RSI:
		c.Values = RSI(prices.Values, p.Window)
	case strategy.MACD:
		m := MACD(prices.Values, p.Fast, p.Slow, p.Signal)
		c.Values = m.MACD
		c.Components = map[string][]float64{
			strategy.ComponentMACD:      m.MACD,
			strategy.ComponentSignal:    m.Signal,
			strategy.ComponentHistogram: m.Histogram,
		}
	default:
		return nil, core.WrapError(core.ErrUnsupportedIndicator,
			fmt.Errorf("indicator %q: unsupported parameters %T", def.Name, def.Params))
	}

	c.Kind = def.Params.Kind()
	c.Params = def.Params.Map()
	return c, nil
}

// Lookup resolves a rule reference ("name" or "name.component") against
// calculated indicators.
func Lookup(results map[string]*Calculated, ref string) ([]float64, error) {
	name, component := strategy.SplitRef(ref)
	c, ok := results[name]
	if !ok {
		return nil, core.Errorf(core.ErrStrategyInvalid, "unknown indicator %q", name)
	}
	v, ok := c.Component(component)
	if !ok {
		return nil, core.Errorf(core.ErrStrategyInvalid, "indicator %q has no component %q", name, component)
	}
	return v, nil
}
