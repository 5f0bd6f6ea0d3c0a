package pricedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/newthinker/strata/internal/core"
)

// jsonPoint accepts the timestamp as a string or as unix seconds/milliseconds.
type jsonPoint struct {
	Symbol    string          `json:"symbol,omitempty"`
	Timestamp json.RawMessage `json:"timestamp"`
	Date      json.RawMessage `json:"date,omitempty"`
	Close     *float64        `json:"close"`
}

type jsonDocument struct {
	Symbol string      `json:"symbol,omitempty"`
	Prices []jsonPoint `json:"prices"`
}

func readJSONFile(path string) ([]row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseJSON(data)
}

// ReadJSON parses either a bare array of {timestamp, close} objects or an
// object with a "prices" array.
func ReadJSON(r io.Reader) ([]core.PricePoint, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	rows, err := parseJSON(data)
	if err != nil {
		return nil, err
	}
	return filter(rows, ""), nil
}

func parseJSON(data []byte) ([]row, error) {
	var doc jsonDocument
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &doc.Prices); err != nil {
			return nil, fmt.Errorf("decoding price array: %w", err)
		}
	} else if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding price document: %w", err)
	}

	rows := make([]row, 0, len(doc.Prices))
	for i, p := range doc.Prices {
		raw := p.Timestamp
		if len(raw) == 0 {
			raw = p.Date
		}
		ts, err := jsonTime(raw)
		if err != nil {
			return nil, fmt.Errorf("price %d: %w", i, err)
		}
		if p.Close == nil {
			return nil, fmt.Errorf("price %d: missing close", i)
		}
		symbol := p.Symbol
		if symbol == "" {
			symbol = doc.Symbol
		}
		rows = append(rows, row{symbol: symbol, point: core.PricePoint{Time: ts, Close: *p.Close}})
	}
	return rows, nil
}

func jsonTime(raw json.RawMessage) (t time.Time, err error) {
	if len(raw) == 0 {
		return t, fmt.Errorf("missing timestamp")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseTime(s)
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return unixTime(n), nil
	}
	return t, fmt.Errorf("unrecognized timestamp %s", raw)
}
