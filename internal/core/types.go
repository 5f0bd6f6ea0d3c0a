package core

import (
	"math"
	"time"
)

// MinSeriesLength is the shortest price series the pipeline accepts.
const MinSeriesLength = 2

// PricePoint is a single close price at a timestamp
type PricePoint struct {
	Time  time.Time `json:"timestamp"`
	Close float64   `json:"close"`
}

// Series is a numeric time series. Index and Values always have the same length.
type Series struct {
	Index  []time.Time
	Values []float64
}

// NewPriceSeries validates points and copies them into a Series
func NewPriceSeries(points []PricePoint) (Series, error) {
	s := Series{
		Index:  make([]time.Time, len(points)),
		Values: make([]float64, len(points)),
	}
	for i, p := range points {
		s.Index[i] = p.Time
		s.Values[i] = p.Close
	}
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

// Validate checks the series is long enough and strictly ascending in time.
func (s Series) Validate() error {
	if len(s.Index) != len(s.Values) {
		return Errorf(ErrInvalidPriceSeries, "index has %d timestamps but %d values", len(s.Index), len(s.Values))
	}
	if len(s.Index) < MinSeriesLength {
		return Errorf(ErrInvalidPriceSeries, "need at least %d points, got %d", MinSeriesLength, len(s.Index))
	}
	for i, v := range s.Values {
		if math.IsInf(v, 0) {
			return Errorf(ErrInvalidPriceSeries, "close at position %d is not finite (%v)", i, v)
		}
	}
	for i := 1; i < len(s.Index); i++ {
		if !s.Index[i].After(s.Index[i-1]) {
			return Errorf(ErrInvalidPriceSeries, "timestamps not strictly increasing at position %d (%s after %s)",
				i, s.Index[i].Format(time.RFC3339), s.Index[i-1].Format(time.RFC3339))
		}
	}
	return nil
}

// Len returns the number of points
func (s Series) Len() int {
	return len(s.Values)
}

// Points converts the series back to price points
func (s Series) Points() []PricePoint {
	points := make([]PricePoint, len(s.Values))
	for i := range s.Values {
		points[i] = PricePoint{Time: s.Index[i], Close: s.Values[i]}
	}
	return points
}

// IsValidPrice reports whether v can be traded at: finite and positive.
func IsValidPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

// SignalType marks a rule or event as opening or closing a position
type SignalType string

const (
	SignalEntry SignalType = "entry"
	SignalExit  SignalType = "exit"
)

// SignalEvent is a fired (true) signal at a single timestamp
type SignalEvent struct {
	Time       time.Time  `json:"timestamp"`
	RuleName   string     `json:"rule_name"`
	SignalType SignalType `json:"signal_type"`
	Price      float64    `json:"price"`
}
