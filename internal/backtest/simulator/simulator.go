// Package simulator implements the bar-by-bar trade simulator. The capital
// available at bar i+1 depends on the execution outcome at bar i, so the loop
// is inherently sequential and must not be parallelized.
package simulator

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-validation/internal/logger"
	"github.com/rxtech-lab/argo-validation/internal/types"
	"github.com/rxtech-lab/argo-validation/internal/utils"
)

// state is the position state of the simulator's finite-state machine.
type state int

const (
	stateFlat state = iota
	stateLong
)

// Result is the raw output of one simulation run: the trade ledger, the
// equity curve (one point per input bar) and the final mark-to-market equity.
type Result struct {
	Trades      []types.Trade
	EquityCurve []types.EquityCurvePoint
	FinalEquity float64
}

// Simulator replays a signal stream against a price stream under the
// configured cost model. It holds no state between runs.
type Simulator struct {
	config BacktestConfig
	log    *logger.Logger
}

// NewSimulator validates the config and creates a simulator.
func NewSimulator(config BacktestConfig, log *logger.Logger) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Simulator{config: config, log: log}, nil
}

// openPosition tracks the entry-side bookkeeping needed to realize a trade.
type openPosition struct {
	position        types.Position
	entryValue      decimal.Decimal
	entryCommission decimal.Decimal
	entrySlippage   decimal.Decimal
	entryBar        int
}

// Run executes the state machine over the aligned series. Input validation
// failures abort before any bar is processed; a run never produces a partial
// result.
//
// Per-bar evaluation order is fixed: exit conditions on an open position are
// checked first (sell signal, then stop-loss, then take-profit, all against
// the current close), then an entry is attempted when flat, then the equity
// point is recorded. Stop-loss and take-profit therefore apply on the bar
// whose close breaches the threshold, never retroactively, and the signal
// series is never modified.
func (s *Simulator) Run(prices types.PriceSeries, signals types.SignalSeries) (*Result, error) {
	if err := prices.Validate(); err != nil {
		return nil, err
	}

	actions, err := signals.AlignTo(prices)
	if err != nil {
		return nil, err
	}

	cash := decimal.NewFromFloat(s.config.InitialCapital)

	var open *openPosition

	result := &Result{
		Trades:      []types.Trade{},
		EquityCurve: make([]types.EquityCurvePoint, 0, len(prices)),
	}

	for i, bar := range prices {
		if open != nil {
			if reason, triggered := s.exitReason(actions[i], bar.Close, open); triggered {
				cash = s.closePosition(result, open, cash, bar, i, reason, true)
				open = nil
			}
		} else if actions[i] == types.SignalActionBuy && i < len(prices)-1 {
			// An entry on the final bar would liquidate in the same bar;
			// a trade's exit must be strictly after its entry.
			cash, open = s.openPosition(cash, bar, i)
		}

		quantity := int64(0)
		if open != nil {
			quantity = open.position.Quantity
		}

		equity := cash.InexactFloat64() + float64(quantity)*bar.Close
		result.EquityCurve = append(result.EquityCurve, types.EquityCurvePoint{
			Timestamp: bar.Timestamp,
			Equity:    equity,
			Cash:      cash.InexactFloat64(),
			Quantity:  quantity,
			MarkPrice: bar.Close,
		})
	}

	// Forced liquidation: terminal state must be flat. The last close is used
	// as-is, without slippage.
	if open != nil {
		last := len(prices) - 1
		cash = s.closePosition(result, open, cash, prices[last], last, types.ExitReasonEndOfData, false)
		open = nil

		point := &result.EquityCurve[last]
		point.Equity = cash.InexactFloat64()
		point.Cash = point.Equity
		point.Quantity = 0
	}

	result.FinalEquity = cash.InexactFloat64()

	s.log.Debug("Simulation complete",
		zap.Int("bars", len(prices)),
		zap.Int("trades", len(result.Trades)),
		zap.Float64("final_equity", result.FinalEquity),
	)

	return result, nil
}

// exitReason evaluates the exit conditions in their fixed order.
func (s *Simulator) exitReason(action types.SignalAction, close float64, open *openPosition) (types.ExitReason, bool) {
	if action == types.SignalActionSell {
		return types.ExitReasonSignal, true
	}

	unrealized := close/open.position.EntryPrice - 1

	if s.config.StopLossPct.IsSome() && unrealized <= -s.config.StopLossPct.Unwrap() {
		return types.ExitReasonStopLoss, true
	}

	if s.config.TakeProfitPct.IsSome() && unrealized >= s.config.TakeProfitPct.Unwrap() {
		return types.ExitReasonTakeProfit, true
	}

	return "", false
}

// openPosition attempts an entry at the bar close plus slippage. The entry is
// skipped when lot alignment leaves zero shares or the total cost including
// commission exceeds available cash.
func (s *Simulator) openPosition(cash decimal.Decimal, bar types.PriceBar, barIdx int) (decimal.Decimal, *openPosition) {
	entryPrice := bar.Close * (1 + s.config.SlippageRate)

	shares := utils.MaxAffordableShares(cash.InexactFloat64(), entryPrice, s.config.MaxPositionSize, s.config.LotSize)
	if shares <= 0 {
		s.log.Debug("Buy signal skipped: insufficient capital for one lot",
			zap.Int("bar", barIdx),
			zap.Float64("entry_price", entryPrice),
		)

		return cash, nil
	}

	quantity := decimal.NewFromInt(shares)
	entryValue := quantity.Mul(decimal.NewFromFloat(entryPrice))
	commission := decimal.Max(
		entryValue.Mul(decimal.NewFromFloat(s.config.CommissionRate)),
		decimal.NewFromFloat(s.config.MinCommission),
	)

	total := entryValue.Add(commission)
	if total.GreaterThan(cash) {
		s.log.Debug("Buy signal skipped: cost exceeds cash",
			zap.Int("bar", barIdx),
			zap.String("cost", total.String()),
			zap.String("cash", cash.String()),
		)

		return cash, nil
	}

	slippage := quantity.Mul(decimal.NewFromFloat(bar.Close * s.config.SlippageRate))

	return cash.Sub(total), &openPosition{
		position: types.Position{
			Quantity:   shares,
			EntryPrice: entryPrice,
			EntryTime:  bar.Timestamp,
		},
		entryValue:      entryValue,
		entryCommission: commission,
		entrySlippage:   slippage,
		entryBar:        barIdx,
	}
}

// closePosition realizes the open position at the bar close, applying
// slippage unless this is the end-of-data liquidation, and appends the trade.
func (s *Simulator) closePosition(result *Result, open *openPosition, cash decimal.Decimal,
	bar types.PriceBar, barIdx int, reason types.ExitReason, applySlippage bool,
) decimal.Decimal {
	exitPrice := bar.Close
	if applySlippage {
		exitPrice = bar.Close * (1 - s.config.SlippageRate)
	}

	quantity := decimal.NewFromInt(open.position.Quantity)
	exitValue := quantity.Mul(decimal.NewFromFloat(exitPrice))
	commission := decimal.Max(
		exitValue.Mul(decimal.NewFromFloat(s.config.CommissionRate)),
		decimal.NewFromFloat(s.config.MinCommission),
	)
	stampTax := exitValue.Mul(decimal.NewFromFloat(s.config.StampTaxRate))

	cash = cash.Add(exitValue).Sub(commission).Sub(stampTax)

	exitSlippage := decimal.Zero
	if applySlippage {
		exitSlippage = quantity.Mul(decimal.NewFromFloat(bar.Close * s.config.SlippageRate))
	}

	pnl := exitValue.Sub(open.entryValue).Sub(open.entryCommission).Sub(commission).Sub(stampTax)

	pnlPct := 0.0
	if !open.entryValue.IsZero() {
		pnlPct = pnl.Div(open.entryValue).InexactFloat64()
	}

	trade := types.Trade{
		EntryTime:    open.position.EntryTime,
		ExitTime:     bar.Timestamp,
		EntryPrice:   open.position.EntryPrice,
		ExitPrice:    exitPrice,
		Quantity:     open.position.Quantity,
		PnL:          pnl.InexactFloat64(),
		PnLPct:       pnlPct,
		Commission:   open.entryCommission.Add(commission).InexactFloat64(),
		StampTax:     stampTax.InexactFloat64(),
		SlippageCost: open.entrySlippage.Add(exitSlippage).InexactFloat64(),
		HoldingBars:  barIdx - open.entryBar,
		ExitReason:   reason,
	}

	result.Trades = append(result.Trades, trade)

	s.log.Debug("Position closed",
		zap.Int("bar", barIdx),
		zap.String("reason", string(reason)),
		zap.Float64("pnl", trade.PnL),
	)

	return cash
}
