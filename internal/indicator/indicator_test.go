package indicator

import (
	"math"
	"math/rand"
	"testing"
)

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	sma := SMA(prices, 3)

	// SMA(3) for [10,11,12,13,14,15]:
	// [2] = (10+11+12)/3 = 11
	// [3] = (11+12+13)/3 = 12
	// [4] = (12+13+14)/3 = 13
	// [5] = (13+14+15)/3 = 14
	expected := []float64{math.NaN(), math.NaN(), 11, 12, 13, 14}

	if len(sma) != len(prices) {
		t.Fatalf("expected %d values, got %d", len(prices), len(sma))
	}
	for i, v := range expected {
		if !sameFloat(sma[i], v) {
			t.Errorf("sma[%d] = %f, want %f", i, sma[i], v)
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	sma := SMA([]float64{10, 11}, 5)

	if len(sma) != 2 {
		t.Fatalf("expected aligned output of 2 values, got %d", len(sma))
	}
	for i, v := range sma {
		if !math.IsNaN(v) {
			t.Errorf("sma[%d] = %f, want NaN", i, v)
		}
	}
}

func TestSMA_NaNInWindow(t *testing.T) {
	prices := []float64{1, 2, math.NaN(), 4, 5, 6, 7}
	sma := SMA(prices, 2)

	expected := []float64{math.NaN(), 1.5, math.NaN(), math.NaN(), 4.5, 5.5, 6.5}
	for i, v := range expected {
		if !sameFloat(sma[i], v) {
			t.Errorf("sma[%d] = %f, want %f", i, sma[i], v)
		}
	}
}

func TestEMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}
	ema := EMA(prices, 3)

	if len(ema) != len(prices) {
		t.Fatalf("expected %d values, got %d", len(prices), len(ema))
	}
	if !math.IsNaN(ema[0]) || !math.IsNaN(ema[1]) {
		t.Error("warm-up values should be NaN")
	}

	// First EMA = SMA = 11
	if ema[2] != 11 {
		t.Errorf("first EMA should equal SMA, got %f", ema[2])
	}
	// alpha = 0.5: (13-11)*0.5 + 11 = 12
	if !almostEqual(ema[3], 12, 1e-12) {
		t.Errorf("ema[3] = %f, want 12", ema[3])
	}

	for i := 3; i < len(ema); i++ {
		if ema[i] <= ema[i-1] {
			t.Errorf("EMA should be increasing, ema[%d]=%f <= ema[%d]=%f", i, ema[i], i-1, ema[i-1])
		}
	}
}

func TestEMA_LeadingNaN(t *testing.T) {
	values := []float64{math.NaN(), math.NaN(), 2, 4, 6, 8}
	ema := EMA(values, 2)

	// Seed is SMA of the first two valid values: (2+4)/2 = 3 at index 3
	for i := 0; i < 3; i++ {
		if !math.IsNaN(ema[i]) {
			t.Errorf("ema[%d] = %f, want NaN", i, ema[i])
		}
	}
	if ema[3] != 3 {
		t.Errorf("ema[3] = %f, want 3", ema[3])
	}
	// alpha = 2/3: (6-3)*2/3 + 3 = 5
	if !almostEqual(ema[4], 5, 1e-12) {
		t.Errorf("ema[4] = %f, want 5", ema[4])
	}
}

func TestEMA_NotEnoughData(t *testing.T) {
	ema := EMA([]float64{10, 11}, 5)
	for i, v := range ema {
		if !math.IsNaN(v) {
			t.Errorf("ema[%d] = %f, want NaN", i, v)
		}
	}
}

func TestRSI_KnownValues(t *testing.T) {
	// changes: +1, -1, +1, -1
	prices := []float64{1, 2, 1, 2, 1}
	rsi := RSI(prices, 2)

	// [2]: avgGain 0.5, avgLoss 0.5 -> 50
	// [3]: avgGain 0.75, avgLoss 0.25 -> RS 3 -> 75
	// [4]: avgGain 0.375, avgLoss 0.625 -> RS 0.6 -> 37.5
	expected := []float64{math.NaN(), math.NaN(), 50, 75, 37.5}
	for i, v := range expected {
		if !sameFloat(rsi[i], v) && !almostEqual(rsi[i], v, 1e-9) {
			t.Errorf("rsi[%d] = %f, want %f", i, rsi[i], v)
		}
	}
}

func TestRSI_Extremes(t *testing.T) {
	rising := []float64{1, 2, 3, 4, 5, 6}
	for i, v := range RSI(rising, 3)[3:] {
		if v != 100 {
			t.Errorf("rising rsi[%d] = %f, want 100", i+3, v)
		}
	}

	falling := []float64{6, 5, 4, 3, 2, 1}
	for i, v := range RSI(falling, 3)[3:] {
		if v != 0 {
			t.Errorf("falling rsi[%d] = %f, want 0", i+3, v)
		}
	}

	flat := []float64{5, 5, 5, 5, 5}
	for i, v := range RSI(flat, 2)[2:] {
		if v != 50 {
			t.Errorf("flat rsi[%d] = %f, want 50", i+2, v)
		}
	}
}

func TestRSI_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	prices := make([]float64, 500)
	price := 100.0
	for i := range prices {
		price *= 1 + (rng.Float64()-0.5)*0.08
		prices[i] = price
	}

	for _, period := range []int{2, 5, 14, 50} {
		rsi := RSI(prices, period)
		if len(rsi) != len(prices) {
			t.Fatalf("period %d: expected %d values, got %d", period, len(prices), len(rsi))
		}
		for i, v := range rsi {
			if i < period {
				if !math.IsNaN(v) {
					t.Errorf("period %d: rsi[%d] = %f, want NaN during warm-up", period, i, v)
				}
				continue
			}
			if math.IsNaN(v) || v < 0 || v > 100 {
				t.Errorf("period %d: rsi[%d] = %f out of [0,100]", period, i, v)
			}
		}
	}
}

func TestMACD_Lines(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + math.Sin(float64(i)/5)*10
	}

	m := MACD(prices, 3, 6, 4)

	// MACD line is defined once the slow EMA is: index 5
	for i := 0; i < 5; i++ {
		if !math.IsNaN(m.MACD[i]) {
			t.Errorf("macd[%d] should be NaN", i)
		}
	}
	if math.IsNaN(m.MACD[5]) {
		t.Error("macd[5] should be defined")
	}

	// Signal line needs 4 MACD values: index 5+3 = 8
	if !math.IsNaN(m.Signal[7]) || math.IsNaN(m.Signal[8]) {
		t.Errorf("signal warm-up wrong: signal[7]=%f signal[8]=%f", m.Signal[7], m.Signal[8])
	}

	fast := EMA(prices, 3)
	slow := EMA(prices, 6)
	for i := 8; i < len(prices); i++ {
		if !almostEqual(m.MACD[i], fast[i]-slow[i], 1e-12) {
			t.Errorf("macd[%d] = %f, want %f", i, m.MACD[i], fast[i]-slow[i])
		}
		if !almostEqual(m.Histogram[i], m.MACD[i]-m.Signal[i], 1e-12) {
			t.Errorf("histogram[%d] mismatch", i)
		}
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

// sameFloat treats two NaNs as equal.
func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return a == b
}
