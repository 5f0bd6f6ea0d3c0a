package signal

import (
	"time"

	"github.com/newthinker/strata/internal/core"
	"github.com/newthinker/strata/internal/indicator"
	"github.com/newthinker/strata/internal/strategy"
)

// RuleKind tells crossover and threshold rule outputs apart
type RuleKind string

const (
	RuleCrossover RuleKind = "crossover"
	RuleThreshold RuleKind = "threshold"
)

// RuleSignal is the boolean output of one rule, aligned to the price index
type RuleSignal struct {
	Name       string
	Kind       RuleKind
	SignalType core.SignalType
	Values     []bool
}

// Set holds every rule output plus the combined entry and exit series.
type Set struct {
	Index []time.Time
	Rules []RuleSignal
	Entry []bool
	Exit  []bool
}

// Rule returns the output of the named rule
func (s *Set) Rule(name string) ([]bool, bool) {
	for _, r := range s.Rules {
		if r.Name == name {
			return r.Values, true
		}
	}
	return nil, false
}

// Evaluate runs every rule of def against the calculated indicators, in
// declaration order (crossover rules first), and combines the results.
func Evaluate(def *strategy.Definition, indicators map[string]*indicator.Calculated, index []time.Time) (*Set, error) {
	n := len(index)
	set := &Set{Index: index}

	for _, r := range def.CrossoverRules {
		fast, err := lookup(indicators, r.FastIndicator, n)
		if err != nil {
			return nil, err
		}
		slow, err := lookup(indicators, r.SlowIndicator, n)
		if err != nil {
			return nil, err
		}
		set.Rules = append(set.Rules, RuleSignal{
			Name:       r.Name,
			Kind:       RuleCrossover,
			SignalType: r.SignalType,
			Values:     Crossover(fast, slow, r.Direction),
		})
	}

	for _, r := range def.ThresholdRules {
		values, err := lookup(indicators, r.Indicator, n)
		if err != nil {
			return nil, err
		}
		set.Rules = append(set.Rules, RuleSignal{
			Name:       r.Name,
			Kind:       RuleThreshold,
			SignalType: r.SignalType,
			Values:     Threshold(values, r.Threshold, r.Condition),
		})
	}

	set.Entry, set.Exit = Combine(n, set.Rules)
	return set, nil
}

func lookup(indicators map[string]*indicator.Calculated, ref string, n int) ([]float64, error) {
	v, err := indicator.Lookup(indicators, ref)
	if err != nil {
		return nil, err
	}
	if len(v) != n {
		return nil, core.Errorf(core.ErrInvalidPriceSeries,
			"indicator %q has %d values, price index has %d", ref, len(v), n)
	}
	return v, nil
}

// Combine merges rule outputs: entry is the AND of all entry rules, exit is the
// OR of all exit rules. With no rules of a type the combined series is all false.
func Combine(n int, rules []RuleSignal) (entry, exit []bool) {
	entry = make([]bool, n)
	exit = make([]bool, n)

	hasEntry := false
	for _, r := range rules {
		if r.SignalType == core.SignalEntry {
			hasEntry = true
			break
		}
	}
	if hasEntry {
		for t := range entry {
			entry[t] = true
		}
	}

	for _, r := range rules {
		switch r.SignalType {
		case core.SignalEntry:
			for t := 0; t < n; t++ {
				entry[t] = entry[t] && t < len(r.Values) && r.Values[t]
			}
		case core.SignalExit:
			for t := 0; t < n && t < len(r.Values); t++ {
				exit[t] = exit[t] || r.Values[t]
			}
		}
	}
	return entry, exit
}
