// Package signal turns calculated indicators into boolean trading signals.
package signal

import "github.com/newthinker/strata/internal/strategy"

// Crossover marks the bars where fast crosses slow in the given direction.
//
//	above: fast[t] > slow[t] && fast[t-1] <= slow[t-1]
//	below: fast[t] < slow[t] && fast[t-1] >= slow[t-1]
//
// The first bar has no predecessor and is always false. Any comparison involving
// NaN is false.
func Crossover(fast, slow []float64, dir strategy.Direction) []bool {
	n := min(len(fast), len(slow))
	out := make([]bool, n)
	for t := 1; t < n; t++ {
		switch dir {
		case strategy.Above:
			out[t] = fast[t] > slow[t] && fast[t-1] <= slow[t-1]
		case strategy.Below:
			out[t] = fast[t] < slow[t] && fast[t-1] >= slow[t-1]
		}
	}
	return out
}

// Threshold marks every bar whose value is beyond threshold. It is a level test,
// not an edge test.
func Threshold(values []float64, threshold float64, cond strategy.Direction) []bool {
	out := make([]bool, len(values))
	for t, v := range values {
		switch cond {
		case strategy.Above:
			out[t] = v > threshold
		case strategy.Below:
			out[t] = v < threshold
		}
	}
	return out
}
