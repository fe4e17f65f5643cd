package simulator

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-validation/internal/types"
	"github.com/rxtech-lab/argo-validation/pkg/errors"
)

type SimulatorTestSuite struct {
	suite.Suite
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorTestSuite))
}

func (suite *SimulatorTestSuite) newSimulator(config BacktestConfig) *Simulator {
	sim, err := NewSimulator(config, nil)
	suite.Require().NoError(err)

	return sim
}

func barsFromCloses(closes []float64) types.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make(types.PriceSeries, len(closes))

	for i, c := range closes {
		bars[i] = types.PriceBar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.005,
			Low:       c * 0.995,
			Close:     c,
			Volume:    10000,
		}
	}

	return bars
}

func buyAt(bars types.PriceSeries, i int) types.Signal {
	return types.Signal{Timestamp: bars[i].Timestamp, Action: types.SignalActionBuy, Strength: 1}
}

func sellAt(bars types.PriceSeries, i int) types.Signal {
	return types.Signal{Timestamp: bars[i].Timestamp, Action: types.SignalActionSell, Strength: 1}
}

func (suite *SimulatorTestSuite) TestInvalidConfigRejected() {
	config := DefaultConfig()
	config.MaxPositionSize = 1.5

	_, err := NewSimulator(config, nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *SimulatorTestSuite) TestStopLossRangeChecked() {
	config := DefaultConfig()
	config.StopLossPct = optional.Some(1.2)

	_, err := NewSimulator(config, nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *SimulatorTestSuite) TestMalformedPricesFailFast() {
	sim := suite.newSimulator(DefaultConfig())

	bars := barsFromCloses([]float64{100, 101})
	bars[1].Timestamp = bars[0].Timestamp

	_, err := sim.Run(bars, nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDuplicateTimestamp))
}

func (suite *SimulatorTestSuite) TestMisalignedSignalFailFast() {
	sim := suite.newSimulator(DefaultConfig())
	bars := barsFromCloses([]float64{100, 101})

	signals := types.SignalSeries{{
		Timestamp: bars[1].Timestamp.Add(time.Minute),
		Action:    types.SignalActionBuy,
		Strength:  1,
	}}

	_, err := sim.Run(bars, signals)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSignalNotAligned))
}

func (suite *SimulatorTestSuite) TestEquityIdentityHoldsEveryBar() {
	config := DefaultConfig()
	config.StopLossPct = optional.Some(0.05)
	config.TakeProfitPct = optional.Some(0.10)
	sim := suite.newSimulator(config)

	closes := []float64{100, 102, 99, 97, 103, 108, 111, 105, 100, 104}
	bars := barsFromCloses(closes)
	signals := types.SignalSeries{buyAt(bars, 0), sellAt(bars, 4), buyAt(bars, 5)}

	result, err := sim.Run(bars, signals)
	suite.NoError(err)
	suite.Len(result.EquityCurve, len(bars))

	for i, point := range result.EquityCurve {
		suite.InDelta(point.Equity, point.Cash+float64(point.Quantity)*point.MarkPrice, 1e-6,
			"equity identity violated at bar %d", i)
	}
}

func (suite *SimulatorTestSuite) TestPnlReconcilesWithFinalEquity() {
	config := DefaultConfig()
	sim := suite.newSimulator(config)

	closes := []float64{100, 105, 103, 110, 95, 99, 108, 112}
	bars := barsFromCloses(closes)
	signals := types.SignalSeries{buyAt(bars, 0), sellAt(bars, 3), buyAt(bars, 4), sellAt(bars, 6)}

	result, err := sim.Run(bars, signals)
	suite.NoError(err)
	suite.Len(result.Trades, 2)

	totalPnl := 0.0
	for _, trade := range result.Trades {
		totalPnl += trade.PnL
	}

	suite.InDelta(result.FinalEquity-config.InitialCapital, totalPnl, 1e-6)
}

func (suite *SimulatorTestSuite) TestSingleTradeClosedForm() {
	config := BacktestConfig{
		InitialCapital:  1000000,
		CommissionRate:  0.0003,
		MinCommission:   5.0,
		SlippageRate:    0.0001,
		StampTaxRate:    0.001,
		MaxPositionSize: 1.0,
		LotSize:         100,
	}
	sim := suite.newSimulator(config)

	// Monotonic rise from 100 to 200 over 50 bars.
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 + float64(i)*100.0/49.0
	}
	closes[49] = 200

	bars := barsFromCloses(closes)
	signals := types.SignalSeries{buyAt(bars, 0), sellAt(bars, 49)}

	result, err := sim.Run(bars, signals)
	suite.NoError(err)
	suite.Require().Len(result.Trades, 1)

	trade := result.Trades[0]
	suite.Equal(types.ExitReasonSignal, trade.ExitReason)
	suite.Equal(49, trade.HoldingBars)

	// Replicate the exact cost model.
	entryPrice := 100 * (1 + config.SlippageRate)
	shares := int64(1000000/entryPrice) / 100 * 100
	suite.Equal(shares, trade.Quantity)

	entryValue := float64(shares) * entryPrice
	entryCommission := entryValue * config.CommissionRate
	exitPrice := 200 * (1 - config.SlippageRate)
	exitValue := float64(shares) * exitPrice
	exitCommission := exitValue * config.CommissionRate
	stampTax := exitValue * config.StampTaxRate
	expectedPnl := exitValue - entryValue - entryCommission - exitCommission - stampTax

	suite.InDelta(expectedPnl, trade.PnL, 1e-6)

	// Coarse closed-form check: per-share gross return net of proportional
	// costs, within 0.01% of the realized per-share return.
	closedForm := (200*(1-config.SlippageRate)*(1-config.CommissionRate-config.StampTaxRate) -
		100*(1+config.SlippageRate)*(1+config.CommissionRate)) / 100
	suite.InDelta(closedForm, trade.PnL/(float64(shares)*100), 1e-4)
}

func (suite *SimulatorTestSuite) TestStopLossTriggersOnBreachBar() {
	config := DefaultConfig()
	config.StopLossPct = optional.Some(0.05)
	sim := suite.newSimulator(config)

	closes := []float64{100, 98, 94, 93, 95}
	bars := barsFromCloses(closes)
	signals := types.SignalSeries{buyAt(bars, 0)}

	result, err := sim.Run(bars, signals)
	suite.NoError(err)
	suite.Require().Len(result.Trades, 1)

	trade := result.Trades[0]
	suite.Equal(types.ExitReasonStopLoss, trade.ExitReason)
	// Entry at 100*(1+slippage); 94 breaches the 5% stop, 98 does not.
	suite.Equal(bars[2].Timestamp, trade.ExitTime)
	suite.Negative(trade.PnL)
}

func (suite *SimulatorTestSuite) TestTakeProfitTriggersOnBreachBar() {
	config := DefaultConfig()
	config.TakeProfitPct = optional.Some(0.10)
	sim := suite.newSimulator(config)

	closes := []float64{100, 104, 109, 111, 115}
	bars := barsFromCloses(closes)
	signals := types.SignalSeries{buyAt(bars, 0)}

	result, err := sim.Run(bars, signals)
	suite.NoError(err)
	suite.Require().Len(result.Trades, 1)

	trade := result.Trades[0]
	suite.Equal(types.ExitReasonTakeProfit, trade.ExitReason)
	suite.Equal(bars[3].Timestamp, trade.ExitTime)
	suite.Positive(trade.PnL)
}

func (suite *SimulatorTestSuite) TestSellSignalTakesPrecedenceOverStops() {
	config := DefaultConfig()
	config.StopLossPct = optional.Some(0.05)
	sim := suite.newSimulator(config)

	closes := []float64{100, 90, 95}
	bars := barsFromCloses(closes)
	signals := types.SignalSeries{buyAt(bars, 0), sellAt(bars, 1)}

	result, err := sim.Run(bars, signals)
	suite.NoError(err)
	suite.Require().Len(result.Trades, 1)
	suite.Equal(types.ExitReasonSignal, result.Trades[0].ExitReason)
}

func (suite *SimulatorTestSuite) TestForcedLiquidationAtLastBar() {
	config := DefaultConfig()
	sim := suite.newSimulator(config)

	closes := []float64{100, 102, 104}
	bars := barsFromCloses(closes)
	signals := types.SignalSeries{buyAt(bars, 0)}

	result, err := sim.Run(bars, signals)
	suite.NoError(err)
	suite.Require().Len(result.Trades, 1)

	trade := result.Trades[0]
	suite.Equal(types.ExitReasonEndOfData, trade.ExitReason)
	// No slippage on the forced close.
	suite.Equal(104.0, trade.ExitPrice)

	last := result.EquityCurve[len(result.EquityCurve)-1]
	suite.Equal(int64(0), last.Quantity)
	suite.InDelta(result.FinalEquity, last.Equity, 1e-9)
}

func (suite *SimulatorTestSuite) TestBuySkippedWhenBelowOneLot() {
	config := DefaultConfig()
	config.InitialCapital = 5000
	sim := suite.newSimulator(config)

	closes := []float64{100, 101, 102}
	bars := barsFromCloses(closes)
	signals := types.SignalSeries{buyAt(bars, 0)}

	result, err := sim.Run(bars, signals)
	suite.NoError(err)
	suite.Empty(result.Trades)
	suite.InDelta(5000, result.FinalEquity, 1e-9)
}

func (suite *SimulatorTestSuite) TestBuyOnFinalBarIgnored() {
	sim := suite.newSimulator(DefaultConfig())

	closes := []float64{100, 101, 102}
	bars := barsFromCloses(closes)
	signals := types.SignalSeries{buyAt(bars, 2)}

	result, err := sim.Run(bars, signals)
	suite.NoError(err)
	suite.Empty(result.Trades)
}

func (suite *SimulatorTestSuite) TestLotAlignment() {
	config := DefaultConfig()
	config.InitialCapital = 55000
	config.SlippageRate = 0
	config.CommissionRate = 0
	config.MinCommission = 0
	config.StampTaxRate = 0
	sim := suite.newSimulator(config)

	closes := []float64{100, 100, 100}
	bars := barsFromCloses(closes)
	signals := types.SignalSeries{buyAt(bars, 0), sellAt(bars, 2)}

	result, err := sim.Run(bars, signals)
	suite.NoError(err)
	suite.Require().Len(result.Trades, 1)
	// 550 raw shares align down to 500.
	suite.Equal(int64(500), result.Trades[0].Quantity)
}

func (suite *SimulatorTestSuite) TestDeterminism() {
	config := DefaultConfig()
	config.StopLossPct = optional.Some(0.03)
	sim := suite.newSimulator(config)

	closes := []float64{100, 103, 101, 96, 99, 105, 102, 108}
	bars := barsFromCloses(closes)
	signals := types.SignalSeries{buyAt(bars, 0), buyAt(bars, 4), sellAt(bars, 7)}

	first, err := sim.Run(bars, signals)
	suite.NoError(err)

	second, err := sim.Run(bars, signals)
	suite.NoError(err)

	suite.Equal(first, second)
}
