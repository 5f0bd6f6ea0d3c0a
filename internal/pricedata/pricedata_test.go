package pricedata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/strata/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.csv":     FormatCSV,
		"b.JSON":    FormatJSON,
		"c.parquet": FormatParquet,
		"dir/d.pq":  FormatParquet,
	}
	for path, want := range tests {
		got, err := DetectFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := DetectFormat("prices.xlsx")
	assert.True(t, errors.Is(err, core.ErrInvalidPriceSeries))
}

func TestReadCSV(t *testing.T) {
	input := "Date,Open,Close\n2024-01-03,1,102.5\n2024-01-02,1,101\n"

	points, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, points, 2)

	// Sorted ascending
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), points[0].Time)
	assert.Equal(t, 101.0, points[0].Close)
	assert.Equal(t, 102.5, points[1].Close)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"no close":      "timestamp,open\n2024-01-01,1\n",
		"bad timestamp": "timestamp,close\nyesterday,1\n",
		"bad close":     "timestamp,close\n2024-01-01,abc\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestReadJSON(t *testing.T) {
	array := `[{"timestamp":"2024-01-01T00:00:00Z","close":10},{"timestamp":1704153600,"close":11}]`
	points, err := ReadJSON(strings.NewReader(array))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), points[1].Time)

	doc := `{"symbol":"AAPL","prices":[{"date":"2024-01-01","close":10}]}`
	points, err = ReadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 10.0, points[0].Close)

	_, err = ReadJSON(strings.NewReader(`[{"timestamp":"2024-01-01"}]`))
	assert.Error(t, err, "close is required")
}

func TestLoadFile_SymbolFilter(t *testing.T) {
	path := writeFile(t, "multi.csv",
		"symbol,timestamp,close\nAAPL,2024-01-01,10\nMSFT,2024-01-01,20\naapl,2024-01-02,11\n")

	points, err := LoadFile(path, "AAPL")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 10.0, points[0].Close)
	assert.Equal(t, 11.0, points[1].Close)

	_, err = LoadFile(path, "TSLA")
	assert.True(t, errors.Is(err, core.ErrNoData))

	all, err := LoadFile(path, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLoad_ValidatesSeries(t *testing.T) {
	path := writeFile(t, "prices.csv", "timestamp,close\n2024-01-01,10\n2024-01-02,11\n2024-01-03,12\n")

	series, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 3, series.Len())

	dup := writeFile(t, "dup.csv", "timestamp,close\n2024-01-01,10\n2024-01-01,11\n")
	_, err = Load(dup, "")
	assert.True(t, errors.Is(err, core.ErrInvalidPriceSeries))

	short := writeFile(t, "short.json", `[{"timestamp":"2024-01-01","close":10}]`)
	_, err = Load(short, "")
	assert.True(t, errors.Is(err, core.ErrInvalidPriceSeries))
}

func TestLoad_RejectsInfiniteClose(t *testing.T) {
	for _, v := range []string{"Inf", "+Inf", "-Inf"} {
		t.Run(v, func(t *testing.T) {
			path := writeFile(t, "prices.csv",
				"date,close\n2024-01-01,10\n2024-01-02,11\n2024-01-03,"+v+"\n2024-01-04,12\n")

			points, err := ReadCSV(strings.NewReader("date,close\n2024-01-01,10\n2024-01-02," + v + "\n"))
			require.NoError(t, err, "the reader parses the value, the series rejects it")
			require.Len(t, points, 2)

			_, err = Load(path, "")
			assert.True(t, errors.Is(err, core.ErrInvalidPriceSeries))
			assert.Equal(t, core.KindData, core.KindOf(err))
		})
	}
}

func TestParquetRoundTrip(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	points := []core.PricePoint{
		{Time: base, Close: 100},
		{Time: base.AddDate(0, 0, 1), Close: 101.5},
		{Time: base.AddDate(0, 0, 2), Close: 99.25},
	}
	path := filepath.Join(t.TempDir(), "nested", "bars.parquet")

	require.NoError(t, WriteParquet(path, "SPY", points))

	got, err := LoadFile(path, "SPY")
	require.NoError(t, err)
	assert.Equal(t, points, got)

	_, err = LoadFile(path, "QQQ")
	assert.True(t, errors.Is(err, core.ErrNoData))
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{"2024-01-02", "2024/01/02", "20240102", "2024-01-02T00:00:00Z", "1704153600", "1704153600000"} {
		got, err := parseTime(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), "%s -> %s", s, got)
	}
}
