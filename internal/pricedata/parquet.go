package pricedata

import (
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/newthinker/strata/internal/core"
)

// BarRecord is the Parquet schema for price bars. Only Timestamp and Close
// are required by the loader.
type BarRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
}

func readParquetFile(path string) ([]row, error) {
	records, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return nil, err
	}

	rows := make([]row, len(records))
	for i, rec := range records {
		rows[i] = row{
			symbol: rec.Symbol,
			point: core.PricePoint{
				Time:  time.UnixMilli(rec.Timestamp).UTC(),
				Close: rec.Close,
			},
		}
	}
	return rows, nil
}

// WriteParquet stores points as close-only bar records for symbol.
func WriteParquet(path, symbol string, points []core.PricePoint) error {
	records := make([]BarRecord, len(points))
	for i, p := range points {
		records[i] = BarRecord{
			Symbol:    symbol,
			Timestamp: p.Time.UnixMilli(),
			Close:     p.Close,
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}
