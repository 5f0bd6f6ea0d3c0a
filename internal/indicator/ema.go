package indicator

import "math"

// EMA calculates Exponential Moving Average with smoothing factor 2/(period+1).
// The first value is the SMA of the first period points, counted from the first
// non-NaN input; everything before it is NaN. Leading NaNs are skipped so EMA can
// run over series that themselves have a warm-up (MACD's signal line).
func EMA(values []float64, period int) []float64 {
	result := nanSlice(len(values))
	if period <= 0 {
		return result
	}

	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	if len(values)-start < period {
		return result
	}

	multiplier := 2.0 / float64(period+1)

	// Start with SMA as first EMA value
	var sum float64
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	result[start+period-1] = ema

	for i := start + period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		result[i] = ema
	}

	return result
}
