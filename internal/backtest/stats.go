package backtest

import (
	"math"
	"sort"
	"time"
)

// CalculateStats computes performance statistics from an equity curve and the
// trades closed along it.
func CalculateStats(initialCash float64, equity []float64, trades []Trade, periodsPerYear float64) Stats {
	stats := Stats{
		TotalTrades: len(trades),
		FinalValue:  initialCash,
	}
	if len(equity) > 0 {
		stats.FinalValue = equity[len(equity)-1]
	}
	if initialCash > 0 {
		stats.TotalReturn = stats.FinalValue/initialCash - 1
	}

	for _, t := range trades {
		if t.IsWin() {
			stats.WinningTrades++
		} else {
			stats.LosingTrades++
		}
	}
	if len(trades) > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(len(trades))
	}

	stats.MaxDrawdown = calculateMaxDrawdown(equity)
	stats.SharpeRatio = calculateSharpeRatio(equityReturns(equity), periodsPerYear)
	return stats
}

// equityReturns converts an equity curve into per-bar simple returns.
// Bars following a non-positive value are skipped.
func equityReturns(equity []float64) []float64 {
	var returns []float64
	for i := 1; i < len(equity); i++ {
		if equity[i-1] <= 0 {
			continue
		}
		returns = append(returns, equity[i]/equity[i-1]-1)
	}
	return returns
}

// calculateMaxDrawdown finds the largest peak-to-trough decline
func calculateMaxDrawdown(equity []float64) float64 {
	var maxDD float64
	var peak float64

	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// calculateSharpeRatio computes risk-adjusted return
// Assumes risk-free rate of 0
func calculateSharpeRatio(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 || periodsPerYear <= 0 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))

	if stdDev == 0 || math.IsNaN(stdDev) {
		return 0
	}

	return mean / stdDev * math.Sqrt(periodsPerYear)
}

// InferPeriodsPerYear estimates how many bars make up a year from the median
// spacing of the index.
func InferPeriodsPerYear(index []time.Time) float64 {
	const tradingDays = 252.0
	if len(index) < 2 {
		return tradingDays
	}

	gaps := make([]time.Duration, 0, len(index)-1)
	for i := 1; i < len(index); i++ {
		gaps = append(gaps, index[i].Sub(index[i-1]))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	spacing := gaps[len(gaps)/2]

	const day = 24 * time.Hour
	switch {
	case spacing >= 28*day:
		return 12
	case spacing >= 5*day:
		return 52
	case spacing >= 20*time.Hour:
		return tradingDays
	case spacing <= 0:
		return tradingDays
	default:
		session := 6.5 * float64(time.Hour)
		return tradingDays * session / float64(spacing)
	}
}
