package strategy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/newthinker/strata/internal/core"
	"gopkg.in/yaml.v3"
)

// RawIndicator is an indicator entry as written in a strategy document. Parameters
// may be nested under Params or given as top-level convenience fields; nested
// values win.
type RawIndicator struct {
	Name         string         `json:"name" yaml:"name"`
	Type         string         `json:"type,omitempty" yaml:"type,omitempty"`
	Kind         string         `json:"kind,omitempty" yaml:"kind,omitempty"`
	Params       map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
	Period       *int           `json:"period,omitempty" yaml:"period,omitempty"`
	Window       *int           `json:"window,omitempty" yaml:"window,omitempty"`
	Fast         *int           `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow         *int           `json:"slow,omitempty" yaml:"slow,omitempty"`
	Signal       *int           `json:"signal,omitempty" yaml:"signal,omitempty"`
	FastPeriod   *int           `json:"fast_period,omitempty" yaml:"fast_period,omitempty"`
	SlowPeriod   *int           `json:"slow_period,omitempty" yaml:"slow_period,omitempty"`
	SignalPeriod *int           `json:"signal_period,omitempty" yaml:"signal_period,omitempty"`
}

// RawCrossoverRule is a crossover rule as written in a strategy document
type RawCrossoverRule struct {
	Name          string `json:"name" yaml:"name"`
	FastIndicator string `json:"fast_indicator" yaml:"fast_indicator"`
	SlowIndicator string `json:"slow_indicator" yaml:"slow_indicator"`
	Direction     string `json:"direction" yaml:"direction"`
	SignalType    string `json:"signal_type" yaml:"signal_type"`
}

// RawThresholdRule is a threshold rule as written in a strategy document
type RawThresholdRule struct {
	Name       string   `json:"name" yaml:"name"`
	Indicator  string   `json:"indicator" yaml:"indicator"`
	Threshold  *float64 `json:"threshold" yaml:"threshold"`
	Condition  string   `json:"condition" yaml:"condition"`
	SignalType string   `json:"signal_type" yaml:"signal_type"`
}

// RawDefinition is the document form of a strategy (JSON or YAML).
type RawDefinition struct {
	Name           string             `json:"name" yaml:"name"`
	Description    string             `json:"description,omitempty" yaml:"description,omitempty"`
	Indicators     []RawIndicator     `json:"indicators" yaml:"indicators"`
	CrossoverRules []RawCrossoverRule `json:"crossover_rules,omitempty" yaml:"crossover_rules,omitempty"`
	ThresholdRules []RawThresholdRule `json:"threshold_rules,omitempty" yaml:"threshold_rules,omitempty"`
}

// Normalize converts a raw document into a validated canonical Definition.
func Normalize(raw RawDefinition) (*Definition, error) {
	indicators := make([]IndicatorDefinition, 0, len(raw.Indicators))
	for _, ri := range raw.Indicators {
		params, err := ri.params()
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, IndicatorDefinition{Name: ri.Name, Params: params})
	}

	var crossover []CrossoverRule
	for _, rr := range raw.CrossoverRules {
		st, err := ParseSignalType(rr.SignalType)
		if err != nil {
			return nil, invalid("rule %q: %v", rr.Name, err)
		}
		dir, err := ParseDirection(rr.Direction)
		if err != nil {
			return nil, invalid("rule %q: %v", rr.Name, err)
		}
		crossover = append(crossover, CrossoverRule{
			Name:          rr.Name,
			FastIndicator: rr.FastIndicator,
			SlowIndicator: rr.SlowIndicator,
			Direction:     dir,
			SignalType:    st,
		})
	}

	var threshold []ThresholdRule
	for _, rr := range raw.ThresholdRules {
		st, err := ParseSignalType(rr.SignalType)
		if err != nil {
			return nil, invalid("rule %q: %v", rr.Name, err)
		}
		cond, err := ParseDirection(rr.Condition)
		if err != nil {
			return nil, invalid("rule %q: %v", rr.Name, err)
		}
		if rr.Threshold == nil {
			return nil, invalid("rule %q: threshold is required", rr.Name)
		}
		threshold = append(threshold, ThresholdRule{
			Name:       rr.Name,
			Indicator:  rr.Indicator,
			Threshold:  *rr.Threshold,
			Condition:  cond,
			SignalType: st,
		})
	}

	return New(raw.Name, raw.Description, indicators, crossover, threshold)
}

// params merges the convenience fields under the nested map and resolves the
// canonical parameter struct for the indicator kind.
func (ri RawIndicator) params() (Params, error) {
	typ := ri.Type
	if typ == "" {
		typ = ri.Kind
	}
	kind, err := ParseKind(typ)
	if err != nil {
		return nil, core.WrapError(core.ErrUnsupportedIndicator,
			fmt.Errorf("indicator %q: %w", ri.Name, err))
	}

	merged := make(map[string]any, len(ri.Params)+8)
	for k, v := range ri.Params {
		merged[k] = v
	}
	for key, v := range map[string]*int{
		"period":        ri.Period,
		"window":        ri.Window,
		"fast":          ri.Fast,
		"slow":          ri.Slow,
		"signal":        ri.Signal,
		"fast_period":   ri.FastPeriod,
		"slow_period":   ri.SlowPeriod,
		"signal_period": ri.SignalPeriod,
	} {
		if v == nil {
			continue
		}
		if _, ok := merged[key]; !ok {
			merged[key] = *v
		}
	}

	pick := func(def int, keys ...string) (int, error) {
		for _, k := range keys {
			v, ok := merged[k]
			if !ok || v == nil {
				continue
			}
			n, err := toInt(v)
			if err != nil {
				return 0, invalid("indicator %q: parameter %s: %v", ri.Name, k, err)
			}
			return n, nil
		}
		return def, nil
	}

	switch kind {
	case KindEMA, KindSMA, KindRSI:
		def := DefaultMAWindow
		if kind == KindRSI {
			def = DefaultRSI
		}
		w, err := pick(def, "window", "period")
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindEMA:
			return EMA{Window: w}, nil
		case KindSMA:
			return SMA{Window: w}, nil
		default:
			return RSI{Window: w}, nil
		}
	default:
		fast, err := pick(DefaultFast, "fast", "fast_period")
		if err != nil {
			return nil, err
		}
		slow, err := pick(DefaultSlow, "slow", "slow_period")
		if err != nil {
			return nil, err
		}
		signal, err := pick(DefaultSignal, "signal", "signal_period")
		if err != nil {
			return nil, err
		}
		return MACD{Fast: fast, Slow: slow, Signal: signal}, nil
	}
}

// toInt accepts the number shapes produced by the JSON and YAML decoders.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("expected an integer, got %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %s", n)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

// ParseKind maps a case-insensitive indicator type name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindEMA, KindSMA, KindRSI, KindMACD:
		return k, nil
	}
	return "", fmt.Errorf("unsupported indicator type %q", s)
}

// ParseSignalType accepts entry/exit and the trading aliases buy/long and sell/short.
func ParseSignalType(s string) (core.SignalType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entry", "buy", "long":
		return core.SignalEntry, nil
	case "exit", "sell", "short":
		return core.SignalExit, nil
	}
	return "", fmt.Errorf("unknown signal type %q", s)
}

// ParseDirection maps "above"/"below" (any case) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Above, Below:
		return d, nil
	}
	return "", fmt.Errorf("direction must be %q or %q, got %q", Above, Below, s)
}

// ParseJSON decodes and normalizes a JSON strategy document.
func ParseJSON(data []byte) (*Definition, error) {
	var raw RawDefinition
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, core.WrapError(core.ErrStrategyInvalid, fmt.Errorf("decoding JSON: %w", err))
	}
	return Normalize(raw)
}

// ParseYAML decodes and normalizes a YAML strategy document.
func ParseYAML(data []byte) (*Definition, error) {
	var raw RawDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, core.WrapError(core.ErrStrategyInvalid, fmt.Errorf("decoding YAML: %w", err))
	}
	return Normalize(raw)
}

// LoadFile reads a strategy document, choosing the decoder by file extension.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strategy file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ToRaw converts a canonical definition back to its document form.
func (d *Definition) ToRaw() RawDefinition {
	raw := RawDefinition{
		Name:        d.Name,
		Description: d.Description,
	}
	for _, ind := range d.Indicators {
		ri := RawIndicator{Name: ind.Name}
		if ind.Params != nil {
			ri.Type = string(ind.Params.Kind())
			ri.Params = ind.Params.Map()
		}
		raw.Indicators = append(raw.Indicators, ri)
	}
	for _, r := range d.CrossoverRules {
		raw.CrossoverRules = append(raw.CrossoverRules, RawCrossoverRule{
			Name:          r.Name,
			FastIndicator: r.FastIndicator,
			SlowIndicator: r.SlowIndicator,
			Direction:     string(r.Direction),
			SignalType:    string(r.SignalType),
		})
	}
	for _, r := range d.ThresholdRules {
		thr := r.Threshold
		raw.ThresholdRules = append(raw.ThresholdRules, RawThresholdRule{
			Name:       r.Name,
			Indicator:  r.Indicator,
			Threshold:  &thr,
			Condition:  string(r.Condition),
			SignalType: string(r.SignalType),
		})
	}
	return raw
}
