package pricedata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/newthinker/strata/internal/core"
)

var (
	timeColumns   = []string{"timestamp", "date", "datetime", "time"}
	closeColumns  = []string{"close", "adj_close", "adj close", "price"}
	symbolColumns = []string{"symbol", "ticker"}
)

func readCSVFile(path string) ([]row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readCSV(f)
}

// ReadCSV parses a headered CSV with a timestamp column and a close column.
func ReadCSV(r io.Reader) ([]core.PricePoint, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return filter(rows, ""), nil
}

func readCSV(r io.Reader) ([]row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv")
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	timeCol := column(header, timeColumns)
	closeCol := column(header, closeColumns)
	symbolCol := column(header, symbolColumns)
	if timeCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("csv header needs a timestamp and a close column, got %v", header)
	}

	var rows []row
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts, err := parseTime(rec[timeCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(rec[closeCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: close %q: %w", line, rec[closeCol], err)
		}

		next := row{point: core.PricePoint{Time: ts, Close: closePrice}}
		if symbolCol >= 0 {
			next.symbol = strings.TrimSpace(rec[symbolCol])
		}
		rows = append(rows, next)
	}
	return rows, nil
}

// column returns the index of the first header matching one of names.
func column(header []string, names []string) int {
	for _, name := range names {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
	}
	return -1
}
