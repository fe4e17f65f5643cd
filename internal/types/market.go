package types

import (
	"time"

	"github.com/rxtech-lab/argo-validation/pkg/errors"
)

// PriceBar is a single OHLCV observation. Bars are owned by the caller and
// read-only inside the simulation.
type PriceBar struct {
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Open      float64   `yaml:"open" json:"open" csv:"open"`
	High      float64   `yaml:"high" json:"high" csv:"high"`
	Low       float64   `yaml:"low" json:"low" csv:"low"`
	Close     float64   `yaml:"close" json:"close" csv:"close"`
	Volume    float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// PriceSeries is an ordered series of price bars with strictly increasing
// timestamps.
type PriceSeries []PriceBar

// Validate fails fast on malformed input: empty series, non-positive prices,
// negative volume, duplicate or non-increasing timestamps.
func (s PriceSeries) Validate() error {
	if len(s) == 0 {
		return errors.New(errors.ErrCodeEmptySeries, "price series is empty")
	}

	for i, bar := range s {
		if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
			return errors.Newf(errors.ErrCodeInvalidPrice,
				"bar %d at %s has non-positive price (o=%f h=%f l=%f c=%f)",
				i, bar.Timestamp.Format(time.RFC3339), bar.Open, bar.High, bar.Low, bar.Close)
		}

		if bar.Volume < 0 {
			return errors.Newf(errors.ErrCodeInvalidVolume,
				"bar %d at %s has negative volume %f", i, bar.Timestamp.Format(time.RFC3339), bar.Volume)
		}

		if i == 0 {
			continue
		}

		prev := s[i-1].Timestamp
		if bar.Timestamp.Equal(prev) {
			return errors.Newf(errors.ErrCodeDuplicateTimestamp,
				"bar %d duplicates timestamp %s", i, bar.Timestamp.Format(time.RFC3339))
		}

		if bar.Timestamp.Before(prev) {
			return errors.Newf(errors.ErrCodeNonMonotonicSeries,
				"bar %d at %s is earlier than its predecessor %s",
				i, bar.Timestamp.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
	}

	return nil
}

// Closes returns the close prices of the series.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, bar := range s {
		closes[i] = bar.Close
	}

	return closes
}

// CloseReturns returns bar-over-bar close returns (length len(s)-1).
func (s PriceSeries) CloseReturns() []float64 {
	if len(s) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		returns = append(returns, s[i].Close/s[i-1].Close-1)
	}

	return returns
}

type SignalAction string

const (
	// SignalActionBuy requests opening a long position.
	SignalActionBuy SignalAction = "buy"
	// SignalActionSell requests closing the open long position.
	SignalActionSell SignalAction = "sell"
	// SignalActionHold requests no action.
	SignalActionHold SignalAction = "hold"
)

// Signal is a single strategy decision aligned to a price bar. Strength is
// informational only and does not affect the cost model.
type Signal struct {
	Timestamp time.Time    `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Action    SignalAction `yaml:"action" json:"action" csv:"action"`
	Strength  float64      `yaml:"strength" json:"strength" csv:"strength"`
}

// SignalSeries is a series of signals produced by an external strategy.
type SignalSeries []Signal

// AlignTo maps the signal series onto the price index, returning one action
// per bar with SignalActionHold for bars without a signal. It fails when a
// signal carries an unknown action, a strength outside [0,1], or a timestamp
// that does not exist in the price index.
func (ss SignalSeries) AlignTo(prices PriceSeries) ([]SignalAction, error) {
	index := make(map[int64]int, len(prices))
	for i, bar := range prices {
		index[bar.Timestamp.UnixNano()] = i
	}

	actions := make([]SignalAction, len(prices))
	for i := range actions {
		actions[i] = SignalActionHold
	}

	for i, sig := range ss {
		switch sig.Action {
		case SignalActionBuy, SignalActionSell, SignalActionHold:
		default:
			return nil, errors.Newf(errors.ErrCodeInvalidSignal,
				"signal %d has unknown action %q", i, sig.Action)
		}

		if sig.Strength < 0 || sig.Strength > 1 {
			return nil, errors.Newf(errors.ErrCodeInvalidSignal,
				"signal %d has strength %f outside [0,1]", i, sig.Strength)
		}

		barIdx, ok := index[sig.Timestamp.UnixNano()]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeSignalNotAligned,
				"signal %d at %s has no matching price bar", i, sig.Timestamp.Format(time.RFC3339))
		}

		actions[barIdx] = sig.Action
	}

	return actions, nil
}
