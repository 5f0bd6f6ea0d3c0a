package indicator

// MACDResult holds the three MACD lines, each aligned to the input prices
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD calculates the MACD line (EMA(fast) - EMA(slow)), its signal line
// (EMA(signal) of the MACD line) and the histogram (MACD - signal).
func MACD(prices []float64, fast, slow, signal int) MACDResult {
	fastEMA := EMA(prices, fast)
	slowEMA := EMA(prices, slow)

	line := make([]float64, len(prices))
	for i := range prices {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	signalLine := EMA(line, signal)

	hist := make([]float64, len(prices))
	for i := range prices {
		hist[i] = line[i] - signalLine[i]
	}

	return MACDResult{
		MACD:      line,
		Signal:    signalLine,
		Histogram: hist,
	}
}
