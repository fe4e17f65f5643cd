// Package montecarlo implements bootstrap resampling of a historical daily
// return series. Each sample draws with replacement from the input, runs the
// caller-supplied simulation on the resample, and the batch aggregates the
// resulting outcome distribution.
package montecarlo

import (
	"context"
	"math/rand"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rxtech-lab/argo-validation/internal/logger"
	"github.com/rxtech-lab/argo-validation/internal/stat"
	"github.com/rxtech-lab/argo-validation/internal/types"
	"github.com/rxtech-lab/argo-validation/pkg/errors"
)

// MinObservations is the minimum number of return observations required for
// bootstrapping to be statistically meaningful.
const MinObservations = 30

// sampleSeedStride separates the per-sample RNG streams derived from the
// global seed.
const sampleSeedStride = 1_000_003

// SimulateFunc runs the caller's simulation on one resampled return series.
type SimulateFunc func(returns []float64) (*types.BacktestReport, error)

// SampleFailure records a sample whose simulation failed. Failed samples are
// excluded from the distribution but reported so callers can judge
// partial-result validity.
type SampleFailure struct {
	SampleID int    `yaml:"sample_id" json:"sample_id"`
	Error    string `yaml:"error" json:"error"`
}

// Distribution describes one metric's outcome distribution across samples.
type Distribution struct {
	Summary stat.Summary `yaml:"summary" json:"summary"`

	P5  float64 `yaml:"p5" json:"p5"`
	P25 float64 `yaml:"p25" json:"p25"`
	P50 float64 `yaml:"p50" json:"p50"`
	P75 float64 `yaml:"p75" json:"p75"`
	P95 float64 `yaml:"p95" json:"p95"`
}

func describeDistribution(values []float64) Distribution {
	return Distribution{
		Summary: stat.Describe(values),
		P5:      stat.Quantile(values, 0.05),
		P25:     stat.Quantile(values, 0.25),
		P50:     stat.Quantile(values, 0.50),
		P75:     stat.Quantile(values, 0.75),
		P95:     stat.Quantile(values, 0.95),
	}
}

// Report aggregates the batch outcome.
type Report struct {
	NumSimulations        int             `yaml:"num_simulations" json:"num_simulations"`
	SuccessfulSimulations int             `yaml:"successful_simulations" json:"successful_simulations"`
	SuccessRate           float64         `yaml:"success_rate" json:"success_rate"`
	Failures              []SampleFailure `yaml:"failures" json:"failures"`

	TotalReturn Distribution `yaml:"total_return" json:"total_return"`
	SharpeRatio Distribution `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	MaxDrawdown Distribution `yaml:"max_drawdown" json:"max_drawdown"`
	WinRate     Distribution `yaml:"win_rate" json:"win_rate"`

	// VaR95 is the 5th percentile of the total-return distribution; CVaR95 is
	// the mean of the returns at or below it.
	VaR95  float64 `yaml:"var_95" json:"var_95"`
	CVaR95 float64 `yaml:"cvar_95" json:"cvar_95"`

	ProbPositiveReturn  float64 `yaml:"prob_positive_return" json:"prob_positive_return"`
	ProbSharpeAboveOne  float64 `yaml:"prob_sharpe_above_one" json:"prob_sharpe_above_one"`
	ProbDrawdownBelow20 float64 `yaml:"prob_drawdown_below_20" json:"prob_drawdown_below_20"`
}

// Simulator runs Monte Carlo batches under a fixed configuration.
type Simulator struct {
	config Config
	log    *logger.Logger
}

// NewSimulator validates the config and creates a Simulator.
func NewSimulator(config Config, log *logger.Logger) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Simulator{config: config, log: log}, nil
}

// sampleOutcome is the message a worker sends back for one sample.
type sampleOutcome struct {
	sampleID int
	report   *types.BacktestReport
	err      error
}

// Run executes the batch. Samples are independent: each draws its indices
// from its own RNG stream seeded from (RandomSeed, sampleID), so the batch is
// reproducible regardless of scheduling. A single sample's failure is
// recorded and excluded; only an all-samples failure is an error. On context
// cancellation outstanding samples are recorded as failed and the completed
// ones are aggregated best-effort.
func (s *Simulator) Run(ctx context.Context, returns []float64, simulateFn SimulateFunc) (*Report, error) {
	if simulateFn == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "simulate function is nil")
	}

	if len(returns) < MinObservations {
		return nil, errors.NewInsufficientDataError(MinObservations, len(returns),
			"too few return observations for bootstrapping")
	}

	sampleSize := s.config.BootstrapSampleSize
	if sampleSize == 0 {
		sampleSize = len(returns)
	}

	s.log.Info("Monte Carlo batch started",
		zap.Int("simulations", s.config.NumSimulations),
		zap.Int("sample_size", sampleSize),
		zap.Int64("seed", s.config.RandomSeed),
	)

	outcomes := make(chan sampleOutcome, s.config.NumSimulations)

	group, groupCtx := errgroup.WithContext(ctx)
	if s.config.ParallelWorkers > 0 {
		group.SetLimit(s.config.ParallelWorkers)
	}

	for sampleID := 0; sampleID < s.config.NumSimulations; sampleID++ {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				outcomes <- sampleOutcome{
					sampleID: sampleID,
					err:      errors.Wrapf(errors.ErrCodeSampleFailed, err, "sample %d abandoned", sampleID),
				}

				return nil
			}

			resample := s.resample(returns, sampleSize, sampleID)

			report, err := simulateFn(resample)
			if err != nil {
				outcomes <- sampleOutcome{
					sampleID: sampleID,
					err:      errors.Wrapf(errors.ErrCodeSampleFailed, err, "sample %d failed", sampleID),
				}

				return nil
			}

			outcomes <- sampleOutcome{sampleID: sampleID, report: report}

			return nil
		})
	}

	// Workers never return errors; failures travel through the channel.
	_ = group.Wait()
	close(outcomes)

	collected := make([]sampleOutcome, 0, s.config.NumSimulations)
	for outcome := range outcomes {
		collected = append(collected, outcome)
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].sampleID < collected[j].sampleID })

	return s.aggregate(collected)
}

// resample draws sampleSize indices with replacement using the sample's own
// RNG stream.
func (s *Simulator) resample(returns []float64, sampleSize int, sampleID int) []float64 {
	rng := rand.New(rand.NewSource(s.config.RandomSeed + int64(sampleID+1)*sampleSeedStride))

	resample := make([]float64, sampleSize)
	for i := range resample {
		resample[i] = returns[rng.Intn(len(returns))]
	}

	return resample
}

func (s *Simulator) aggregate(outcomes []sampleOutcome) (*Report, error) {
	report := &Report{
		NumSimulations: len(outcomes),
		Failures:       []SampleFailure{},
	}

	var totalReturns, sharpes, drawdowns, winRates []float64

	for _, outcome := range outcomes {
		if outcome.err != nil {
			s.log.Warn("Monte Carlo sample failed",
				zap.Int("sample", outcome.sampleID),
				zap.Error(outcome.err),
			)

			report.Failures = append(report.Failures, SampleFailure{
				SampleID: outcome.sampleID,
				Error:    outcome.err.Error(),
			})

			continue
		}

		perf := outcome.report.Performance
		totalReturns = append(totalReturns, perf.TotalReturn)
		sharpes = append(sharpes, perf.SharpeRatio)
		drawdowns = append(drawdowns, perf.MaxDrawdown)
		winRates = append(winRates, perf.WinRate)
	}

	report.SuccessfulSimulations = len(totalReturns)
	if report.SuccessfulSimulations == 0 {
		return nil, errors.New(errors.ErrCodeAllSamplesFailed, "all monte carlo samples failed")
	}

	report.SuccessRate = float64(report.SuccessfulSimulations) / float64(report.NumSimulations)

	report.TotalReturn = describeDistribution(totalReturns)
	report.SharpeRatio = describeDistribution(sharpes)
	report.MaxDrawdown = describeDistribution(drawdowns)
	report.WinRate = describeDistribution(winRates)

	report.VaR95 = report.TotalReturn.P5
	report.CVaR95 = tailMean(totalReturns, report.VaR95)

	report.ProbPositiveReturn = fractionAbove(totalReturns, 0)
	report.ProbSharpeAboveOne = fractionAbove(sharpes, 1)
	report.ProbDrawdownBelow20 = fractionBelow(drawdowns, 0.20)

	s.log.Info("Monte Carlo batch complete",
		zap.Int("successful", report.SuccessfulSimulations),
		zap.Int("failed", len(report.Failures)),
		zap.Float64("mean_return", report.TotalReturn.Summary.Mean),
		zap.Float64("var_95", report.VaR95),
	)

	return report, nil
}

// tailMean is the mean of values at or below the threshold.
func tailMean(values []float64, threshold float64) float64 {
	tail := make([]float64, 0, len(values))

	for _, v := range values {
		if v <= threshold {
			tail = append(tail, v)
		}
	}

	return stat.Mean(tail)
}

func fractionAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}

	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}

	return float64(count) / float64(len(values))
}

func fractionBelow(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}

	count := 0
	for _, v := range values {
		if v < threshold {
			count++
		}
	}

	return float64(count) / float64(len(values))
}
