// Package pricedata loads closing-price series from CSV, JSON and Parquet files.
package pricedata

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/newthinker/strata/internal/core"
)

// Format names a supported file format
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// DetectFormat picks the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".parquet", ".pq":
		return FormatParquet, nil
	default:
		return "", core.Errorf(core.ErrInvalidPriceSeries, "unsupported price file %q", path)
	}
}

// row is one parsed record before symbol filtering
type row struct {
	symbol string
	point  core.PricePoint
}

// LoadFile reads a price file. When symbol is set, rows carrying a different
// symbol are dropped; files without a symbol column are taken as is. Points are
// returned in ascending time order.
func LoadFile(path, symbol string) ([]core.PricePoint, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	var rows []row
	switch format {
	case FormatCSV:
		rows, err = readCSVFile(path)
	case FormatJSON:
		rows, err = readJSONFile(path)
	case FormatParquet:
		rows, err = readParquetFile(path)
	}
	if err != nil {
		return nil, core.WrapError(core.ErrInvalidPriceSeries, fmt.Errorf("%s: %w", path, err))
	}

	points := filter(rows, symbol)
	if len(points) == 0 {
		return nil, core.Errorf(core.ErrNoData, "%s: no prices for symbol %q", path, symbol)
	}
	return points, nil
}

// Load reads a price file and builds a validated series from it.
func Load(path, symbol string) (core.Series, error) {
	points, err := LoadFile(path, symbol)
	if err != nil {
		return core.Series{}, err
	}
	return core.NewPriceSeries(points)
}

func filter(rows []row, symbol string) []core.PricePoint {
	points := make([]core.PricePoint, 0, len(rows))
	for _, r := range rows {
		if symbol != "" && r.symbol != "" && !strings.EqualFold(r.symbol, symbol) {
			continue
		}
		points = append(points, r.point)
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	return points
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"20060102",
}

// parseTime accepts the common date layouts plus unix seconds or milliseconds.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	var n int64
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && fmt.Sprint(n) == s {
		return unixTime(n), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// unixTime treats values past year 2286 in seconds as milliseconds.
func unixTime(n int64) time.Time {
	if n > 1e10 || n < -1e10 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
