package indicator

import "math"

// SMA calculates Simple Moving Average.
// Returns a slice aligned to prices: the first period-1 values are NaN, and any
// window containing a NaN yields NaN.
func SMA(prices []float64, period int) []float64 {
	result := nanSlice(len(prices))
	if period <= 0 || len(prices) < period {
		return result
	}

	var sum float64
	nans := 0
	for i, p := range prices {
		if math.IsNaN(p) {
			nans++
		} else {
			sum += p
		}

		if i >= period {
			old := prices[i-period]
			if math.IsNaN(old) {
				nans--
			} else {
				sum -= old
			}
		}

		if i >= period-1 && nans == 0 {
			result[i] = sum / float64(period)
		}
	}

	return result
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
