package signal

import "github.com/newthinker/strata/internal/core"

// CombinedRuleName labels events taken from the combined entry/exit series.
const CombinedRuleName = "combined"

// Events lists the fired bars of every rule, rule by rule in declaration order.
func (s *Set) Events(prices core.Series) []core.SignalEvent {
	var events []core.SignalEvent
	for _, r := range s.Rules {
		events = append(events, r.Events(prices)...)
	}
	return events
}

// Events lists the bars where this rule fired.
func (r RuleSignal) Events(prices core.Series) []core.SignalEvent {
	return fired(r.Values, r.Name, r.SignalType, prices)
}

// EntryEvents lists the bars where the combined entry signal is true
func (s *Set) EntryEvents(prices core.Series) []core.SignalEvent {
	return fired(s.Entry, CombinedRuleName, core.SignalEntry, prices)
}

// ExitEvents lists the bars where the combined exit signal is true
func (s *Set) ExitEvents(prices core.Series) []core.SignalEvent {
	return fired(s.Exit, CombinedRuleName, core.SignalExit, prices)
}

func fired(values []bool, rule string, st core.SignalType, prices core.Series) []core.SignalEvent {
	var events []core.SignalEvent
	for t, on := range values {
		if !on || t >= prices.Len() {
			continue
		}
		events = append(events, core.SignalEvent{
			Time:       prices.Index[t],
			RuleName:   rule,
			SignalType: st,
			Price:      prices.Values[t],
		})
	}
	return events
}
