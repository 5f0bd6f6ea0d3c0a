package strategy

import (
	"fmt"
	"regexp"

	"github.com/newthinker/strata/internal/core"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 500
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// New builds a Definition and validates it once.
func New(name, description string, indicators []IndicatorDefinition, crossover []CrossoverRule, threshold []ThresholdRule) (*Definition, error) {
	def := &Definition{
		Name:           name,
		Description:    description,
		Indicators:     indicators,
		CrossoverRules: crossover,
		ThresholdRules: threshold,
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return def, nil
}

// Validate checks every structural invariant of the definition. It never looks at
// price data.
func (d *Definition) Validate() error {
	if d.Name == "" || len(d.Name) > maxNameLength {
		return invalid("strategy name must be 1-%d characters", maxNameLength)
	}
	if len(d.Description) > maxDescriptionLength {
		return invalid("description exceeds %d characters", maxDescriptionLength)
	}
	if len(d.Indicators) == 0 {
		return invalid("at least one indicator is required")
	}

	kinds := make(map[string]Kind, len(d.Indicators))
	for _, ind := range d.Indicators {
		if !identifierPattern.MatchString(ind.Name) {
			return invalid("indicator name %q must start with a letter and contain only letters, digits or underscores", ind.Name)
		}
		if _, dup := kinds[ind.Name]; dup {
			return invalid("indicator names must be unique: %q declared twice", ind.Name)
		}
		if ind.Params == nil {
			return invalid("indicator %q has no parameters", ind.Name)
		}
		if err := ind.Params.validate(); err != nil {
			return invalid("indicator %q (%s): %v", ind.Name, ind.Params.Kind(), err)
		}
		kinds[ind.Name] = ind.Params.Kind()
	}

	ruleNames := make(map[string]struct{})
	checkRule := func(name string, st core.SignalType) error {
		if !identifierPattern.MatchString(name) {
			return invalid("rule name %q must start with a letter and contain only letters, digits or underscores", name)
		}
		if _, dup := ruleNames[name]; dup {
			return invalid("rule names must be unique: %q declared twice", name)
		}
		ruleNames[name] = struct{}{}
		if st != core.SignalEntry && st != core.SignalExit {
			return invalid("rule %q: unknown signal type %q", name, st)
		}
		return nil
	}

	for _, r := range d.CrossoverRules {
		if err := checkRule(r.Name, r.SignalType); err != nil {
			return err
		}
		if err := checkDirection(r.Name, r.Direction); err != nil {
			return err
		}
		if err := checkRef(kinds, r.Name, r.FastIndicator); err != nil {
			return err
		}
		if err := checkRef(kinds, r.Name, r.SlowIndicator); err != nil {
			return err
		}
	}
	for _, r := range d.ThresholdRules {
		if err := checkRule(r.Name, r.SignalType); err != nil {
			return err
		}
		if err := checkDirection(r.Name, r.Condition); err != nil {
			return err
		}
		if err := checkRef(kinds, r.Name, r.Indicator); err != nil {
			return err
		}
	}
	return nil
}

func checkDirection(rule string, d Direction) error {
	if d != Above && d != Below {
		return invalid("rule %q: direction must be %q or %q, got %q", rule, Above, Below, d)
	}
	return nil
}

func checkRef(kinds map[string]Kind, rule, ref string) error {
	name, component := SplitRef(ref)
	kind, ok := kinds[name]
	if !ok {
		return invalid("rule %q references unknown indicator %q", rule, name)
	}
	if component == "" {
		return nil
	}
	if kind != KindMACD {
		return invalid("rule %q: indicator %q (%s) has no component %q", rule, name, kind, component)
	}
	switch component {
	case ComponentMACD, ComponentSignal, ComponentHistogram:
		return nil
	}
	return invalid("rule %q: unknown MACD component %q (want %s, %s or %s)",
		rule, component, ComponentMACD, ComponentSignal, ComponentHistogram)
}

func invalid(format string, args ...any) error {
	return core.WrapError(core.ErrStrategyInvalid, fmt.Errorf(format, args...))
}
