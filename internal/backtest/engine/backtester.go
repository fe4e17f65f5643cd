// Package engine orchestrates a single backtest: it runs the trade simulator,
// feeds its output through the performance and risk metrics, and assembles
// the final report.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-validation/internal/backtest/metrics"
	"github.com/rxtech-lab/argo-validation/internal/backtest/simulator"
	"github.com/rxtech-lab/argo-validation/internal/logger"
	"github.com/rxtech-lab/argo-validation/internal/types"
	"github.com/rxtech-lab/argo-validation/pkg/errors"
)

// Lifecycle callback types for backtest phases.
// All callbacks with an error return can abort execution by returning one.

// OnRunStartCallback is called once before the simulation starts.
// runID is the unique identifier generated for this run.
type OnRunStartCallback func(runID string, totalBars int) error

// OnRunEndCallback is called after the report has been assembled.
type OnRunEndCallback func(runID string, report *types.BacktestReport)

// LifecycleCallbacks holds the lifecycle callbacks for a backtest run.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart *OnRunStartCallback
	OnRunEnd   *OnRunEndCallback
}

// Backtester runs backtests under a fixed configuration. It is stateless
// across calls except for logging.
type Backtester struct {
	config    simulator.BacktestConfig
	sim       *simulator.Simulator
	log       *logger.Logger
	callbacks LifecycleCallbacks
}

// NewBacktester validates the config and creates a Backtester.
func NewBacktester(config simulator.BacktestConfig, log *logger.Logger) (*Backtester, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	sim, err := simulator.NewSimulator(config, log)
	if err != nil {
		return nil, err
	}

	return &Backtester{config: config, sim: sim, log: log}, nil
}

// SetCallbacks registers lifecycle callbacks for subsequent runs.
func (b *Backtester) SetCallbacks(callbacks LifecycleCallbacks) {
	b.callbacks = callbacks
}

// Run executes one full backtest. The optional benchmark is a daily return
// series; when its length does not match the run's daily returns, the
// benchmark-relative statistics are reported as zero and a warning is logged.
func (b *Backtester) Run(ctx context.Context, prices types.PriceSeries, signals types.SignalSeries,
	benchmark optional.Option[[]float64],
) (*types.BacktestReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSimulationFailed, "backtest canceled", err)
	}

	runID := uuid.New().String()

	if b.callbacks.OnRunStart != nil {
		if err := (*b.callbacks.OnRunStart)(runID, len(prices)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeSimulationFailed, "run aborted by callback", err)
		}
	}

	result, err := b.sim.Run(prices, signals)
	if err != nil {
		return nil, err
	}

	dailyReturns := types.DailyReturns(result.EquityCurve)

	if benchmark.IsSome() && len(benchmark.Unwrap()) != len(dailyReturns) {
		b.log.Warn("Benchmark series does not align with daily returns; relative stats will be zero",
			zap.Int("benchmark_len", len(benchmark.Unwrap())),
			zap.Int("returns_len", len(dailyReturns)),
		)
	}

	performance := metrics.Performance(metrics.PerformanceInput{
		EquityCurve:      result.EquityCurve,
		DailyReturns:     dailyReturns,
		Trades:           result.Trades,
		InitialCapital:   b.config.InitialCapital,
		FinalEquity:      result.FinalEquity,
		RiskFreeRate:     b.config.RiskFreeRate,
		BuyAndHoldReturn: buyAndHoldReturn(prices),
		Benchmark:        benchmark,
	})

	risk := metrics.Risk(metrics.RiskInput{
		EquityCurve:      result.EquityCurve,
		DailyReturns:     dailyReturns,
		Trades:           result.Trades,
		RiskFreeRate:     b.config.RiskFreeRate,
		TotalReturn:      performance.TotalReturn,
		AnnualizedReturn: performance.AnnualizedReturn,
		MaxDrawdown:      performance.MaxDrawdown,
		AverageWin:       performance.AverageWin,
		AverageLoss:      performance.AverageLoss,
	})

	report := &types.BacktestReport{
		ID:             runID,
		Timestamp:      time.Now().UTC(),
		InitialCapital: b.config.InitialCapital,
		FinalEquity:    result.FinalEquity,
		Trades:         result.Trades,
		EquityCurve:    result.EquityCurve,
		DailyReturns:   dailyReturns,
		Performance:    performance,
		Risk:           risk,
	}

	b.log.Info("Backtest complete",
		zap.String("run_id", runID),
		zap.Float64("total_return", performance.TotalReturn),
		zap.Float64("sharpe", performance.SharpeRatio),
		zap.Int("trades", performance.NumberOfTrades),
	)

	if b.callbacks.OnRunEnd != nil {
		(*b.callbacks.OnRunEnd)(runID, report)
	}

	return report, nil
}

// buyAndHoldReturn is the close-to-close return of holding the instrument for
// the whole period.
func buyAndHoldReturn(prices types.PriceSeries) float64 {
	if len(prices) < 2 || prices[0].Close <= 0 {
		return 0
	}

	return prices[len(prices)-1].Close/prices[0].Close - 1
}
