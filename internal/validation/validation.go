// Package validation is the top-level facade: it chains the base backtest,
// the optional walk-forward and Monte Carlo stages, the significance test and
// the overfitting assessment into one report.
package validation

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/rxtech-lab/argo-validation/internal/backtest/engine"
	"github.com/rxtech-lab/argo-validation/internal/backtest/metrics"
	"github.com/rxtech-lab/argo-validation/internal/logger"
	"github.com/rxtech-lab/argo-validation/internal/stat"
	"github.com/rxtech-lab/argo-validation/internal/types"
	"github.com/rxtech-lab/argo-validation/internal/validation/montecarlo"
	"github.com/rxtech-lab/argo-validation/internal/validation/walkforward"
	"github.com/rxtech-lab/argo-validation/pkg/errors"
)

// Engine orchestrates the full validation pipeline.
type Engine struct {
	config Config
	log    *logger.Logger
}

// NewEngine creates an uninitialized Engine. Call Initialize before Run.
func NewEngine() *Engine {
	return &Engine{}
}

// NewEngineWithConfig creates an Engine from an already-built config.
func NewEngineWithConfig(config Config, log *logger.Logger) (*Engine, error) {
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{config: config, log: log}, nil
}

// Initialize parses the YAML configuration and sets up logging.
func (e *Engine) Initialize(config string) error {
	if err := yaml.Unmarshal([]byte(config), &e.config); err != nil {
		return errors.Wrap(errors.ErrCodeValidationConfig, "failed to parse validation config", err)
	}

	e.config.applyDefaults()

	if err := e.config.Validate(); err != nil {
		return err
	}

	var loggerError error

	e.log, loggerError = logger.NewLogger()
	if loggerError != nil {
		return loggerError
	}

	e.log.Debug("Validation engine initialized",
		zap.Bool("walk_forward", e.config.WalkForward != nil),
		zap.Bool("monte_carlo", e.config.MonteCarlo != nil),
	)

	return nil
}

// GetConfigSchema returns the JSON schema of the engine configuration.
func (e *Engine) GetConfigSchema() (string, error) {
	return e.config.GenerateSchemaJSON()
}

// Run executes the pipeline: base backtest, then the enabled stages, then the
// statistical assessment.
func (e *Engine) Run(ctx context.Context, prices types.PriceSeries, signalFn walkforward.SignalFunc) (*Report, error) {
	if signalFn == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "signal function is nil")
	}

	if e.log == nil {
		e.log = logger.NewNopLogger()
	}

	report := &Report{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
	}

	signals, err := signalFn(prices)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSignalFuncFailed, "signal generation failed for base backtest", err)
	}

	backtester, err := engine.NewBacktester(e.config.Backtest, e.log)
	if err != nil {
		return nil, err
	}

	report.Backtest, err = backtester.Run(ctx, prices, signals, optional.None[[]float64]())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidationFailed, "base backtest failed", err)
	}

	if e.config.WalkForward != nil {
		analyzer, err := walkforward.NewAnalyzer(*e.config.WalkForward, e.log)
		if err != nil {
			return nil, err
		}

		report.WalkForward, err = analyzer.Run(ctx, prices, signalFn)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeValidationFailed, "walk-forward stage failed", err)
		}

		report.Tests = e.significanceTest(report.WalkForward)
	}

	if e.config.MonteCarlo != nil {
		simulator, err := montecarlo.NewSimulator(*e.config.MonteCarlo, e.log)
		if err != nil {
			return nil, err
		}

		report.MonteCarlo, err = simulator.Run(ctx, report.Backtest.DailyReturns, e.syntheticBacktest)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeValidationFailed, "monte carlo stage failed", err)
		}
	}

	report.Assessment = e.assess(report)

	e.log.Info("Validation complete",
		zap.String("run_id", report.ID),
		zap.Float64("base_return", report.Backtest.Performance.TotalReturn),
		zap.Bool("overfit", report.Assessment.Overfit),
		zap.Bool("high_variance", report.Assessment.HighVariance),
	)

	return report, nil
}

// significanceTest runs a two-tailed one-sample t-test of the per-window
// total returns against zero.
func (e *Engine) significanceTest(wf *walkforward.Report) *StatisticalTests {
	windowReturns := make([]float64, 0, len(wf.Windows))
	for _, window := range wf.Windows {
		windowReturns = append(windowReturns, window.Report.Performance.TotalReturn)
	}

	result := stat.TTestOneSample(windowReturns, 0)

	return &StatisticalTests{
		TStatistic:       result.TStatistic,
		PValue:           result.PValue,
		DegreesOfFreedom: result.DegreesOfFreedom,
		Significant:      result.PValue < e.config.SignificanceLevel,
	}
}

// syntheticBacktest turns a resampled return series into a report by
// compounding the returns into an equity curve and recomputing the metrics.
// Monte Carlo resamples returns rather than prices, so there are no trades to
// replay.
func (e *Engine) syntheticBacktest(returns []float64) (*types.BacktestReport, error) {
	initial := e.config.Backtest.InitialCapital

	curve := make([]types.EquityCurvePoint, len(returns)+1)
	curve[0] = types.EquityCurvePoint{Equity: initial, Cash: initial}

	equity := initial
	for i, r := range returns {
		equity *= 1 + r
		curve[i+1] = types.EquityCurvePoint{Equity: equity, Cash: equity}
	}

	performance := metrics.Performance(metrics.PerformanceInput{
		EquityCurve:    curve,
		DailyReturns:   returns,
		InitialCapital: initial,
		FinalEquity:    equity,
		RiskFreeRate:   e.config.Backtest.RiskFreeRate,
	})

	risk := metrics.Risk(metrics.RiskInput{
		EquityCurve:      curve,
		DailyReturns:     returns,
		RiskFreeRate:     e.config.Backtest.RiskFreeRate,
		TotalReturn:      performance.TotalReturn,
		AnnualizedReturn: performance.AnnualizedReturn,
		MaxDrawdown:      performance.MaxDrawdown,
	})

	return &types.BacktestReport{
		InitialCapital: initial,
		FinalEquity:    equity,
		DailyReturns:   returns,
		EquityCurve:    curve,
		Performance:    performance,
		Risk:           risk,
	}, nil
}

// assess combines the stage outputs into the overfitting verdict.
func (e *Engine) assess(report *Report) OverfittingAssessment {
	assessment := OverfittingAssessment{}

	baseReturn := report.Backtest.Performance.TotalReturn

	if report.WalkForward != nil {
		wfMean := report.WalkForward.TotalReturn.Mean

		if wfMean == 0 {
			assessment.OverfittingRatio = math.Inf(1)
		} else {
			assessment.OverfittingRatio = baseReturn / wfMean
		}

		assessment.Overfit = assessment.OverfittingRatio > e.config.OverfittingThreshold
	}

	if report.MonteCarlo != nil {
		mean := report.MonteCarlo.TotalReturn.Summary.Mean
		std := report.MonteCarlo.TotalReturn.Summary.Std

		switch {
		case mean != 0:
			assessment.CoefficientOfVariation = std / math.Abs(mean)
		case std != 0:
			assessment.CoefficientOfVariation = math.Inf(1)
		}

		assessment.HighVariance = assessment.CoefficientOfVariation > e.config.HighVarianceThreshold

		assessment.InDistribution = baseReturn >= report.MonteCarlo.TotalReturn.P5 &&
			baseReturn <= report.MonteCarlo.TotalReturn.P95
	}

	return assessment
}
