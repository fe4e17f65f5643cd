// Package walkforward implements rolling and expanding out-of-sample
// validation. Each window re-generates signals on its test slice and runs a
// full backtest on it; windows are independent and evaluated concurrently.
package walkforward

import (
	"context"
	"sort"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rxtech-lab/argo-validation/internal/backtest/engine"
	"github.com/rxtech-lab/argo-validation/internal/logger"
	"github.com/rxtech-lab/argo-validation/internal/stat"
	"github.com/rxtech-lab/argo-validation/internal/types"
	"github.com/rxtech-lab/argo-validation/pkg/errors"
)

// SignalFunc generates signals for a price slice. Walk-forward calls it once
// per window on the test slice.
type SignalFunc func(prices types.PriceSeries) (types.SignalSeries, error)

// Window is one train/test split over the input series, expressed as
// half-open index ranges.
type Window struct {
	Index      int `yaml:"index" json:"index"`
	TrainStart int `yaml:"train_start" json:"train_start"`
	TrainEnd   int `yaml:"train_end" json:"train_end"`
	TestStart  int `yaml:"test_start" json:"test_start"`
	TestEnd    int `yaml:"test_end" json:"test_end"`
}

// WindowResult is the backtest outcome of one successful window.
type WindowResult struct {
	Window Window                `yaml:"window" json:"window"`
	Report *types.BacktestReport `yaml:"report" json:"report"`
}

// WindowFailure records a window whose evaluation failed. Failed windows are
// excluded from aggregation but reported so callers can judge partial-result
// validity.
type WindowFailure struct {
	Index int    `yaml:"index" json:"index"`
	Error string `yaml:"error" json:"error"`
}

// Report aggregates the per-window out-of-sample results.
type Report struct {
	Windows           []WindowResult  `yaml:"windows" json:"windows"`
	FailedWindows     []WindowFailure `yaml:"failed_windows" json:"failed_windows"`
	NumWindows        int             `yaml:"num_windows" json:"num_windows"`
	SuccessfulWindows int             `yaml:"successful_windows" json:"successful_windows"`

	TotalReturn stat.Summary `yaml:"total_return" json:"total_return"`
	SharpeRatio stat.Summary `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	MaxDrawdown stat.Summary `yaml:"max_drawdown" json:"max_drawdown"`
	WinRate     stat.Summary `yaml:"win_rate" json:"win_rate"`

	// RobustnessScore is the fraction of successful windows with a positive
	// total return.
	RobustnessScore float64 `yaml:"robustness_score" json:"robustness_score"`
	// ConsistencyScore is 1/(1+std(total_return)) over successful windows.
	ConsistencyScore float64 `yaml:"consistency_score" json:"consistency_score"`
}

// Analyzer runs walk-forward analyses under a fixed configuration.
type Analyzer struct {
	config Config
	log    *logger.Logger
}

// NewAnalyzer validates the config and creates an Analyzer.
func NewAnalyzer(config Config, log *logger.Logger) (*Analyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Analyzer{config: config, log: log}, nil
}

// GenerateWindows produces the train/test splits for a series of n bars.
// Window starts advance by StepSize until the test range reaches the end of
// the series. For 200 bars with a 100/50/25 rolling setup this yields two
// windows, at starts 0 and 25.
func (a *Analyzer) GenerateWindows(n int) ([]Window, error) {
	required := a.config.InitialTrainWindow + a.config.TestWindow
	if n < required {
		return nil, errors.NewInsufficientDataError(required, n,
			"series shorter than one train+test window")
	}

	var windows []Window

	index := 0

	for start := 0; ; start += a.config.StepSize {
		trainEnd := start + a.config.InitialTrainWindow
		if a.config.ExpandingWindow && trainEnd > n {
			trainEnd = n
		}

		testEnd := trainEnd + a.config.TestWindow
		if testEnd >= n {
			break
		}

		trainStart := start
		if a.config.ExpandingWindow {
			trainStart = 0
		}

		if a.config.MaxTrainWindow > 0 && trainEnd-trainStart > a.config.MaxTrainWindow {
			trainStart = trainEnd - a.config.MaxTrainWindow
		}

		if a.config.MinTrainWindow > 0 && trainEnd-trainStart < a.config.MinTrainWindow {
			continue
		}

		windows = append(windows, Window{
			Index:      index,
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  trainEnd,
			TestEnd:    testEnd,
		})
		index++
	}

	if len(windows) == 0 {
		return nil, errors.New(errors.ErrCodeNoWindowsProduced,
			"window generation produced no usable windows")
	}

	return windows, nil
}

// windowOutcome is the message a worker sends back for one window.
type windowOutcome struct {
	index  int
	window Window
	report *types.BacktestReport
	err    error
}

// Run evaluates every window's test slice out-of-sample. A single window's
// failure is recorded and excluded from aggregation; only an all-windows
// failure is an error.
func (a *Analyzer) Run(ctx context.Context, prices types.PriceSeries, signalFn SignalFunc) (*Report, error) {
	if signalFn == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "signal function is nil")
	}

	if err := prices.Validate(); err != nil {
		return nil, err
	}

	windows, err := a.GenerateWindows(len(prices))
	if err != nil {
		return nil, err
	}

	a.log.Info("Walk-forward analysis started",
		zap.Int("bars", len(prices)),
		zap.Int("windows", len(windows)),
		zap.Bool("expanding", a.config.ExpandingWindow),
	)

	outcomes := make(chan windowOutcome, len(windows))

	group, groupCtx := errgroup.WithContext(ctx)
	if a.config.MaxConcurrency > 0 {
		group.SetLimit(a.config.MaxConcurrency)
	}

	for _, window := range windows {
		group.Go(func() error {
			outcomes <- a.evaluateWindow(groupCtx, prices, window, signalFn)

			return nil
		})
	}

	// Workers never return errors; failures travel through the channel.
	_ = group.Wait()
	close(outcomes)

	collected := make([]windowOutcome, 0, len(windows))
	for outcome := range outcomes {
		collected = append(collected, outcome)
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })

	return a.aggregate(collected)
}

// evaluateWindow regenerates signals on the test slice and backtests it.
func (a *Analyzer) evaluateWindow(ctx context.Context, prices types.PriceSeries, window Window, signalFn SignalFunc) windowOutcome {
	testSlice := prices[window.TestStart:window.TestEnd]

	signals, err := signalFn(testSlice)
	if err != nil {
		return windowOutcome{
			index:  window.Index,
			window: window,
			err:    errors.Wrapf(errors.ErrCodeSignalFuncFailed, err, "signal generation failed for window %d", window.Index),
		}
	}

	backtester, err := engine.NewBacktester(a.config.Backtest, a.log)
	if err != nil {
		return windowOutcome{index: window.Index, window: window, err: err}
	}

	report, err := backtester.Run(ctx, testSlice, signals, optional.None[[]float64]())
	if err != nil {
		return windowOutcome{
			index:  window.Index,
			window: window,
			err:    errors.Wrapf(errors.ErrCodeWindowFailed, err, "backtest failed for window %d", window.Index),
		}
	}

	return windowOutcome{index: window.Index, window: window, report: report}
}

func (a *Analyzer) aggregate(outcomes []windowOutcome) (*Report, error) {
	report := &Report{
		Windows:       []WindowResult{},
		FailedWindows: []WindowFailure{},
		NumWindows:    len(outcomes),
	}

	var totalReturns, sharpes, drawdowns, winRates []float64

	for _, outcome := range outcomes {
		if outcome.err != nil {
			a.log.Warn("Walk-forward window failed",
				zap.Int("window", outcome.index),
				zap.Error(outcome.err),
			)

			report.FailedWindows = append(report.FailedWindows, WindowFailure{
				Index: outcome.index,
				Error: outcome.err.Error(),
			})

			continue
		}

		report.Windows = append(report.Windows, WindowResult{
			Window: outcome.window,
			Report: outcome.report,
		})

		perf := outcome.report.Performance
		totalReturns = append(totalReturns, perf.TotalReturn)
		sharpes = append(sharpes, perf.SharpeRatio)
		drawdowns = append(drawdowns, perf.MaxDrawdown)
		winRates = append(winRates, perf.WinRate)
	}

	report.SuccessfulWindows = len(report.Windows)
	if report.SuccessfulWindows == 0 {
		return nil, errors.New(errors.ErrCodeAllWindowsFailed, "all walk-forward windows failed")
	}

	report.TotalReturn = stat.Describe(totalReturns)
	report.SharpeRatio = stat.Describe(sharpes)
	report.MaxDrawdown = stat.Describe(drawdowns)
	report.WinRate = stat.Describe(winRates)

	positive := 0
	for _, r := range totalReturns {
		if r > 0 {
			positive++
		}
	}

	report.RobustnessScore = float64(positive) / float64(len(totalReturns))
	report.ConsistencyScore = 1 / (1 + report.TotalReturn.Std)

	a.log.Info("Walk-forward analysis complete",
		zap.Int("successful", report.SuccessfulWindows),
		zap.Int("failed", len(report.FailedWindows)),
		zap.Float64("mean_return", report.TotalReturn.Mean),
		zap.Float64("robustness", report.RobustnessScore),
	)

	return report, nil
}
