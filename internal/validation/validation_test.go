package validation

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-validation/internal/stat"
	"github.com/rxtech-lab/argo-validation/internal/types"
	"github.com/rxtech-lab/argo-validation/internal/validation/montecarlo"
	"github.com/rxtech-lab/argo-validation/internal/validation/walkforward"
	"github.com/rxtech-lab/argo-validation/pkg/errors"
)

type ValidationTestSuite struct {
	suite.Suite
}

func TestValidationSuite(t *testing.T) {
	suite.Run(t, new(ValidationTestSuite))
}

func oscillatingBars(n int) types.PriceSeries {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make(types.PriceSeries, n)

	for i := range bars {
		price := 100 + 0.05*float64(i) + 8*math.Sin(float64(i)/7)
		bars[i] = types.PriceBar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price,
			Volume:    2000,
		}
	}

	return bars
}

func buyFirstSellLast(prices types.PriceSeries) (types.SignalSeries, error) {
	if len(prices) < 2 {
		return nil, nil
	}

	return types.SignalSeries{
		{Timestamp: prices[0].Timestamp, Action: types.SignalActionBuy, Strength: 1},
		{Timestamp: prices[len(prices)-1].Timestamp, Action: types.SignalActionSell, Strength: 1},
	}, nil
}

func fastConfig() Config {
	config := DefaultConfig()
	config.MonteCarlo.NumSimulations = 200
	config.MonteCarlo.ParallelWorkers = 4

	return config
}

func (suite *ValidationTestSuite) TestInitializeFromYAML() {
	engine := NewEngine()

	err := engine.Initialize(`
backtest:
  initial_capital: 100000
  commission_rate: 0.0003
  min_commission: 5.0
  max_position_size: 1.0
  lot_size: 100
walk_forward:
  initial_train_window: 100
  test_window: 50
  step_size: 25
  max_concurrency: 2
monte_carlo:
  num_simulations: 100
  random_seed: 42
  parallel_workers: 2
`)
	suite.Require().NoError(err)

	suite.NotNil(engine.config.WalkForward)
	suite.NotNil(engine.config.MonteCarlo)
	suite.Equal(DefaultSignificanceLevel, engine.config.SignificanceLevel)
	suite.Equal(DefaultOverfittingThreshold, engine.config.OverfittingThreshold)

	// Walk-forward inherits the base cost model.
	suite.Equal(100000.0, engine.config.WalkForward.Backtest.InitialCapital)
}

func (suite *ValidationTestSuite) TestInitializeRejectsBadConfig() {
	engine := NewEngine()

	err := engine.Initialize(`
backtest:
  initial_capital: -5
  max_position_size: 1.0
  lot_size: 100
`)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ValidationTestSuite) TestRunFullPipeline() {
	engine, err := NewEngineWithConfig(fastConfig(), nil)
	suite.Require().NoError(err)

	report, err := engine.Run(context.Background(), oscillatingBars(200), buyFirstSellLast)
	suite.Require().NoError(err)

	suite.NotEmpty(report.ID)
	suite.NotNil(report.Backtest)
	suite.Require().NotNil(report.WalkForward)
	suite.Require().NotNil(report.MonteCarlo)
	suite.Require().NotNil(report.Tests)

	suite.Equal(2, report.WalkForward.NumWindows)
	suite.Equal(report.WalkForward.SuccessfulWindows-1, report.Tests.DegreesOfFreedom)
	suite.Equal(200, report.MonteCarlo.NumSimulations)
	suite.InDelta(1.0, report.MonteCarlo.SuccessRate, 1e-12)

	suite.False(math.IsNaN(report.Assessment.OverfittingRatio))
	suite.False(math.IsNaN(report.Assessment.CoefficientOfVariation))
}

func (suite *ValidationTestSuite) TestRunWithStagesDisabled() {
	config := fastConfig()
	config.WalkForward = nil
	config.MonteCarlo = nil

	engine, err := NewEngineWithConfig(config, nil)
	suite.Require().NoError(err)

	report, err := engine.Run(context.Background(), oscillatingBars(200), buyFirstSellLast)
	suite.Require().NoError(err)

	suite.NotNil(report.Backtest)
	suite.Nil(report.WalkForward)
	suite.Nil(report.MonteCarlo)
	suite.Nil(report.Tests)
	suite.Zero(report.Assessment.OverfittingRatio)
}

func (suite *ValidationTestSuite) TestAssessFlagsOverfitting() {
	engine, err := NewEngineWithConfig(fastConfig(), nil)
	suite.Require().NoError(err)

	report := &Report{
		Backtest: &types.BacktestReport{
			Performance: types.PerformanceStats{TotalReturn: 0.50},
		},
		WalkForward: &walkforward.Report{
			TotalReturn: stat.Summary{Mean: 0.10},
		},
	}

	assessment := engine.assess(report)
	suite.InDelta(5.0, assessment.OverfittingRatio, 1e-9)
	suite.True(assessment.Overfit)
}

func (suite *ValidationTestSuite) TestAssessZeroDenominatorIsInfinite() {
	engine, err := NewEngineWithConfig(fastConfig(), nil)
	suite.Require().NoError(err)

	report := &Report{
		Backtest: &types.BacktestReport{
			Performance: types.PerformanceStats{TotalReturn: 0.10},
		},
		WalkForward: &walkforward.Report{},
	}

	assessment := engine.assess(report)
	suite.True(math.IsInf(assessment.OverfittingRatio, 1))
	suite.True(assessment.Overfit)
}

func (suite *ValidationTestSuite) TestAssessHighVarianceAndDistribution() {
	engine, err := NewEngineWithConfig(fastConfig(), nil)
	suite.Require().NoError(err)

	mc := &montecarlo.Report{}
	mc.TotalReturn.Summary = stat.Summary{Mean: 0.05, Std: 0.20}
	mc.TotalReturn.P5 = -0.10
	mc.TotalReturn.P95 = 0.30

	report := &Report{
		Backtest: &types.BacktestReport{
			Performance: types.PerformanceStats{TotalReturn: 0.10},
		},
		MonteCarlo: mc,
	}

	assessment := engine.assess(report)
	suite.InDelta(4.0, assessment.CoefficientOfVariation, 1e-9)
	suite.True(assessment.HighVariance)
	suite.True(assessment.InDistribution)

	report.Backtest.Performance.TotalReturn = 0.50
	assessment = engine.assess(report)
	suite.False(assessment.InDistribution)
}

func (suite *ValidationTestSuite) TestSignificanceTest() {
	engine, err := NewEngineWithConfig(fastConfig(), nil)
	suite.Require().NoError(err)

	wf := &walkforward.Report{}
	for _, r := range []float64{0.04, 0.05, 0.06, 0.05, 0.04, 0.06} {
		wf.Windows = append(wf.Windows, walkforward.WindowResult{
			Report: &types.BacktestReport{
				Performance: types.PerformanceStats{TotalReturn: r},
			},
		})
	}

	tests := engine.significanceTest(wf)
	suite.Equal(5, tests.DegreesOfFreedom)
	suite.Positive(tests.TStatistic)
	suite.Less(tests.PValue, 0.05)
	suite.True(tests.Significant)
}

func (suite *ValidationTestSuite) TestRenderReportIsDeterministic() {
	engine, err := NewEngineWithConfig(fastConfig(), nil)
	suite.Require().NoError(err)

	report, err := engine.Run(context.Background(), oscillatingBars(200), buyFirstSellLast)
	suite.Require().NoError(err)

	first := RenderReport(report)
	second := RenderReport(report)

	suite.Equal(first, second)
	suite.Contains(first, "STRATEGY VALIDATION REPORT")
	suite.Contains(first, "--- Walk-Forward ---")
	suite.Contains(first, "--- Monte Carlo ---")
	suite.Contains(first, "--- Assessment ---")
}

func (suite *ValidationTestSuite) TestWriteAndReadReport() {
	engine, err := NewEngineWithConfig(fastConfig(), nil)
	suite.Require().NoError(err)

	report, err := engine.Run(context.Background(), oscillatingBars(200), buyFirstSellLast)
	suite.Require().NoError(err)

	path := filepath.Join(suite.T().TempDir(), "validation.yaml")
	suite.Require().NoError(WriteReport(path, report))

	loaded, err := ReadReport(path)
	suite.Require().NoError(err)
	suite.Equal(report.ID, loaded.ID)
	suite.InDelta(report.Backtest.Performance.TotalReturn, loaded.Backtest.Performance.TotalReturn, 1e-9)
}

func (suite *ValidationTestSuite) TestGetConfigSchema() {
	engine, err := NewEngineWithConfig(fastConfig(), nil)
	suite.Require().NoError(err)

	schema, err := engine.GetConfigSchema()
	suite.Require().NoError(err)
	suite.Contains(schema, "walk_forward")
	suite.Contains(schema, "monte_carlo")
	suite.Contains(schema, "overfitting_threshold")
}
