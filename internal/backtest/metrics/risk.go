package metrics

import (
	"math"

	"github.com/rxtech-lab/argo-validation/internal/stat"
	"github.com/rxtech-lab/argo-validation/internal/types"
)

// RiskInput bundles the simulation output and the already-computed
// performance figures the downside statistics depend on.
type RiskInput struct {
	EquityCurve  []types.EquityCurvePoint
	DailyReturns []float64
	Trades       []types.Trade
	RiskFreeRate float64

	TotalReturn      float64
	AnnualizedReturn float64
	MaxDrawdown      float64
	AverageWin       float64
	AverageLoss      float64
}

// Risk computes the downside and tail statistics.
func Risk(in RiskInput) types.RiskStats {
	stats := types.RiskStats{
		DownsideDeviation: DownsideDeviation(in.DailyReturns, 0),
		Skewness:          stat.Skewness(in.DailyReturns),
		Kurtosis:          stat.Kurtosis(in.DailyReturns),
		TailRatio:         tailRatio(in.DailyReturns),
		OmegaRatio:        OmegaRatio(in.DailyReturns, 0),
	}

	drawdowns := DrawdownSeries(in.EquityCurve)
	stats.UlcerIndex = ulcerIndex(drawdowns)
	stats.PainIndex = stat.Mean(drawdowns)
	stats.BurkeRatio = burkeRatio(in.AnnualizedReturn, in.RiskFreeRate, drawdowns)

	if in.MaxDrawdown > 0 {
		stats.RecoveryFactor = in.TotalReturn / in.MaxDrawdown
	}

	stats.MaxConsecutiveLosses, stats.MaxConsecutiveLossAmount = maxLossStreak(in.Trades)

	if in.AverageLoss != 0 {
		stats.PayoffRatio = in.AverageWin / math.Abs(in.AverageLoss)
	}

	return stats
}

// DownsideDeviation is the annualized root-mean-square of returns below the
// target.
func DownsideDeviation(dailyReturns []float64, target float64) float64 {
	if len(dailyReturns) == 0 {
		return 0
	}

	sum := 0.0
	for _, r := range dailyReturns {
		if r < target {
			diff := r - target
			sum += diff * diff
		}
	}

	return math.Sqrt(sum/float64(len(dailyReturns))) * math.Sqrt(TradingDaysPerYear)
}

// OmegaRatio is the sum of gains over the target divided by the sum of losses
// under it. Returns 0 when there are no losses.
func OmegaRatio(dailyReturns []float64, target float64) float64 {
	gains := 0.0
	losses := 0.0

	for _, r := range dailyReturns {
		if r > target {
			gains += r - target
		} else {
			losses += target - r
		}
	}

	if losses == 0 {
		return 0
	}

	return gains / losses
}

// ulcerIndex is the root-mean-square of the drawdown series.
func ulcerIndex(drawdowns []float64) float64 {
	if len(drawdowns) == 0 {
		return 0
	}

	sum := 0.0
	for _, dd := range drawdowns {
		sum += dd * dd
	}

	return math.Sqrt(sum / float64(len(drawdowns)))
}

// burkeRatio is the annualized excess return over the square root of the sum
// of squared drawdowns.
func burkeRatio(annualizedReturn float64, riskFreeRate float64, drawdowns []float64) float64 {
	sum := 0.0
	for _, dd := range drawdowns {
		sum += dd * dd
	}

	if sum == 0 {
		return 0
	}

	return (annualizedReturn - riskFreeRate) / math.Sqrt(sum)
}

// tailRatio is |P95/P5| of the daily return distribution. Returns 0 when the
// 5th percentile is 0.
func tailRatio(dailyReturns []float64) float64 {
	p5 := stat.Quantile(dailyReturns, 0.05)
	if p5 == 0 {
		return 0
	}

	return math.Abs(stat.Quantile(dailyReturns, 0.95) / p5)
}

// maxLossStreak returns the longest run of consecutive losing trades and the
// cumulative loss of that run. On equal streak lengths the larger loss wins.
func maxLossStreak(trades []types.Trade) (int, float64) {
	longest := 0
	longestAmount := 0.0
	current := 0
	currentAmount := 0.0

	for _, trade := range trades {
		if trade.PnL < 0 {
			current++
			currentAmount += trade.PnL

			if current > longest || (current == longest && currentAmount < longestAmount) {
				longest = current
				longestAmount = currentAmount
			}
		} else {
			current = 0
			currentAmount = 0
		}
	}

	return longest, longestAmount
}
