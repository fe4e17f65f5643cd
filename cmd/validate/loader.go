package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-validation/internal/types"
)

// timestampLayouts are the accepted timestamp formats, tried in order.
var timestampLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// LoadPriceCSV reads a price series from a CSV file with the header
// timestamp,open,high,low,close,volume.
func LoadPriceCSV(path string) (types.PriceSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read price file: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("price file %s has no data rows", path)
	}

	bars := make(types.PriceSeries, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) < 6 {
			return nil, fmt.Errorf("price row %d has %d columns, want 6", i+2, len(record))
		}

		ts, err := parseTimestamp(record[0])
		if err != nil {
			return nil, fmt.Errorf("price row %d: %w", i+2, err)
		}

		values := make([]float64, 5)
		for j := 0; j < 5; j++ {
			values[j], err = strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("price row %d column %d: %w", i+2, j+2, err)
			}
		}

		bars = append(bars, types.PriceBar{
			Timestamp: ts,
			Open:      values[0],
			High:      values[1],
			Low:       values[2],
			Close:     values[3],
			Volume:    values[4],
		})
	}

	return bars, nil
}

// LoadSignalCSV reads a signal series from a CSV file with the header
// timestamp,action,strength.
func LoadSignalCSV(path string) (types.SignalSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open signal file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read signal file: %w", err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("signal file %s has no data rows", path)
	}

	signals := make(types.SignalSeries, 0, len(records)-1)

	for i, record := range records[1:] {
		if len(record) < 3 {
			return nil, fmt.Errorf("signal row %d has %d columns, want 3", i+2, len(record))
		}

		ts, err := parseTimestamp(record[0])
		if err != nil {
			return nil, fmt.Errorf("signal row %d: %w", i+2, err)
		}

		strength, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("signal row %d strength: %w", i+2, err)
		}

		signals = append(signals, types.Signal{
			Timestamp: ts,
			Action:    types.SignalAction(record[1]),
			Strength:  strength,
		})
	}

	return signals, nil
}

// signalFuncFromSeries adapts precomputed signals into the per-slice signal
// function walk-forward expects: each slice receives the signals falling
// inside its time range.
func signalFuncFromSeries(signals types.SignalSeries) func(types.PriceSeries) (types.SignalSeries, error) {
	return func(prices types.PriceSeries) (types.SignalSeries, error) {
		if len(prices) == 0 {
			return nil, nil
		}

		first := prices[0].Timestamp
		last := prices[len(prices)-1].Timestamp

		subset := make(types.SignalSeries, 0, len(signals))

		for _, signal := range signals {
			if !signal.Timestamp.Before(first) && !signal.Timestamp.After(last) {
				subset = append(subset, signal)
			}
		}

		return subset, nil
	}
}
