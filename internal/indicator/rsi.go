package indicator

import "math"

// RSI calculates Wilder's Relative Strength Index.
//
// The first average gain/loss is the simple mean of the first period price
// changes; later averages use Wilder smoothing:
//
//	avg = (avg*(period-1) + change) / period
//
// The first period values are NaN. Output is bounded to [0, 100].
func RSI(prices []float64, period int) []float64 {
	result := nanSlice(len(prices))
	if period <= 0 || len(prices) <= period {
		return result
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := change(prices[i-1], prices[i])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	result[period] = rsiValue(avgGain, avgLoss)

	w := float64(period)
	for i := period + 1; i < len(prices); i++ {
		gain, loss := change(prices[i-1], prices[i])
		avgGain = (avgGain*(w-1) + gain) / w
		avgLoss = (avgLoss*(w-1) + loss) / w
		result[i] = rsiValue(avgGain, avgLoss)
	}

	return result
}

// change splits a price move into its gain and loss parts. NaN moves yield NaN
// for both.
func change(prev, curr float64) (gain, loss float64) {
	d := curr - prev
	if math.IsNaN(d) {
		return d, d
	}
	if d > 0 {
		return d, 0
	}
	return 0, -d
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			// No movement at all
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	v := 100 - 100/(1+rs)
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
