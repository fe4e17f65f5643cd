package types

import (
	"time"
)

// Position represents the single open long position. Quantity is lot-aligned
// by the simulator; at most one position exists at a time.
type Position struct {
	Quantity   int64     `yaml:"quantity" json:"quantity"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price"`
	EntryTime  time.Time `yaml:"entry_time" json:"entry_time"`
}

// EntryValue returns the capital committed at entry, excluding fees.
func (p Position) EntryValue() float64 {
	return float64(p.Quantity) * p.EntryPrice
}

// ExitReason states why a position was closed.
type ExitReason string

const (
	// ExitReasonSignal is a close driven by a sell signal.
	ExitReasonSignal ExitReason = "signal"
	// ExitReasonStopLoss is a close driven by the stop-loss threshold.
	ExitReasonStopLoss ExitReason = "stop_loss"
	// ExitReasonTakeProfit is a close driven by the take-profit threshold.
	ExitReasonTakeProfit ExitReason = "take_profit"
	// ExitReasonEndOfData is the forced liquidation at the final bar.
	ExitReasonEndOfData ExitReason = "end_of_data"
)

// Trade is one completed round trip. Trades are immutable once appended to
// the ledger.
type Trade struct {
	EntryTime  time.Time  `yaml:"entry_time" json:"entry_time" csv:"entry_time"`
	ExitTime   time.Time  `yaml:"exit_time" json:"exit_time" csv:"exit_time"`
	EntryPrice float64    `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	ExitPrice  float64    `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	Quantity   int64      `yaml:"quantity" json:"quantity" csv:"quantity"`
	// PnL is the realized profit after all commissions and taxes.
	PnL float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
	// PnLPct is PnL relative to the capital committed at entry.
	PnLPct float64 `yaml:"pnl_pct" json:"pnl_pct" csv:"pnl_pct"`
	// Commission is the combined entry and exit commission.
	Commission float64 `yaml:"commission" json:"commission" csv:"commission"`
	// StampTax is the sell-side stamp tax.
	StampTax float64 `yaml:"stamp_tax" json:"stamp_tax" csv:"stamp_tax"`
	// SlippageCost is the execution-price deviation from the quoted closes.
	SlippageCost float64 `yaml:"slippage_cost" json:"slippage_cost" csv:"slippage_cost"`
	// HoldingBars is the number of bars the position was held.
	HoldingBars int        `yaml:"holding_bars" json:"holding_bars" csv:"holding_bars"`
	ExitReason  ExitReason `yaml:"exit_reason" json:"exit_reason" csv:"exit_reason"`
}

// EquityCurvePoint is the mark-to-market account value at one bar.
// Equity == Cash + Quantity*MarkPrice holds for every point.
type EquityCurvePoint struct {
	Timestamp time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Equity    float64   `yaml:"equity" json:"equity" csv:"equity"`
	Cash      float64   `yaml:"cash" json:"cash" csv:"cash"`
	Quantity  int64     `yaml:"quantity" json:"quantity" csv:"quantity"`
	MarkPrice float64   `yaml:"mark_price" json:"mark_price" csv:"mark_price"`
}

// DailyReturns derives bar-over-bar equity returns from an equity curve
// (length len(curve)-1).
func DailyReturns(curve []EquityCurvePoint) []float64 {
	if len(curve) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(curve)-1)

	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			returns = append(returns, 0)

			continue
		}

		returns = append(returns, curve[i].Equity/prev-1)
	}

	return returns
}
