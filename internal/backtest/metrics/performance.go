// Package metrics computes performance and risk statistics from simulation
// output. Every function is pure; ratios with a zero denominator return 0
// instead of NaN or Inf.
package metrics

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-validation/internal/stat"
	"github.com/rxtech-lab/argo-validation/internal/types"
)

// TradingDaysPerYear is the annualization basis for daily-bar series.
const TradingDaysPerYear = 252

// PerformanceInput bundles the simulation output a performance computation
// needs. Benchmark is an optional daily return series aligned to DailyReturns.
type PerformanceInput struct {
	EquityCurve      []types.EquityCurvePoint
	DailyReturns     []float64
	Trades           []types.Trade
	InitialCapital   float64
	FinalEquity      float64
	RiskFreeRate     float64
	BuyAndHoldReturn float64
	Benchmark        optional.Option[[]float64]
}

// Performance computes the full set of return, ratio and trade statistics.
func Performance(in PerformanceInput) types.PerformanceStats {
	stats := types.PerformanceStats{
		BuyAndHoldReturn: in.BuyAndHoldReturn,
	}

	if in.InitialCapital > 0 {
		stats.TotalReturn = (in.FinalEquity - in.InitialCapital) / in.InitialCapital
	}

	nDays := len(in.DailyReturns)
	if nDays > 0 && 1+stats.TotalReturn > 0 {
		stats.AnnualizedReturn = math.Pow(1+stats.TotalReturn, TradingDaysPerYear/float64(nDays)) - 1
	}

	stats.SharpeRatio = SharpeRatio(in.DailyReturns, in.RiskFreeRate)
	stats.SortinoRatio = SortinoRatio(in.DailyReturns, in.RiskFreeRate)
	stats.Volatility = stat.Std(in.DailyReturns) * math.Sqrt(TradingDaysPerYear)

	drawdowns := DrawdownSeries(in.EquityCurve)
	stats.MaxDrawdown = stat.Max(drawdowns)
	stats.MaxDrawdownDuration = maxDrawdownDuration(drawdowns)

	if stats.MaxDrawdown > 0 {
		stats.CalmarRatio = stats.AnnualizedReturn / stats.MaxDrawdown
	}

	stats.VaR95, stats.CVaR95 = VaR(in.DailyReturns, 0.95)

	if in.Benchmark.IsSome() {
		stats.Alpha, stats.Beta, stats.InformationRatio = benchmarkStats(in.DailyReturns, in.Benchmark.Unwrap())
	}

	fillTradeStats(&stats, in.Trades)

	return stats
}

// SharpeRatio is the annualized mean over std of daily excess returns.
// Returns 0 when the standard deviation is 0.
func SharpeRatio(dailyReturns []float64, riskFreeRate float64) float64 {
	excess := excessReturns(dailyReturns, riskFreeRate)

	std := stat.Std(excess)
	if std == 0 {
		return 0
	}

	return stat.Mean(excess) / std * math.Sqrt(TradingDaysPerYear)
}

// SortinoRatio is the Sharpe variant whose denominator is the std of only the
// negative excess returns. Returns 0 when there are no negative excess
// returns or their std is 0.
func SortinoRatio(dailyReturns []float64, riskFreeRate float64) float64 {
	excess := excessReturns(dailyReturns, riskFreeRate)

	negatives := make([]float64, 0, len(excess))
	for _, r := range excess {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}

	std := stat.Std(negatives)
	if std == 0 {
		return 0
	}

	return stat.Mean(excess) / std * math.Sqrt(TradingDaysPerYear)
}

// DrawdownSeries returns, for every equity point, the fractional decline from
// the running equity peak.
func DrawdownSeries(curve []types.EquityCurvePoint) []float64 {
	drawdowns := make([]float64, len(curve))

	peak := math.Inf(-1)
	for i, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}

		if peak > 0 {
			drawdowns[i] = 1 - point.Equity/peak
		}
	}

	return drawdowns
}

// VaR returns the Value-at-Risk at the given confidence level together with
// the conditional VaR (mean of returns at or below the VaR threshold).
func VaR(dailyReturns []float64, confidence float64) (varQ float64, cvarQ float64) {
	if len(dailyReturns) == 0 {
		return 0, 0
	}

	varQ = stat.Quantile(dailyReturns, 1-confidence)

	tail := make([]float64, 0, len(dailyReturns))
	for _, r := range dailyReturns {
		if r <= varQ {
			tail = append(tail, r)
		}
	}

	return varQ, stat.Mean(tail)
}

func excessReturns(dailyReturns []float64, riskFreeRate float64) []float64 {
	dailyRiskFree := riskFreeRate / TradingDaysPerYear

	excess := make([]float64, len(dailyReturns))
	for i, r := range dailyReturns {
		excess[i] = r - dailyRiskFree
	}

	return excess
}

// maxDrawdownDuration is the longest consecutive run of in-drawdown days.
func maxDrawdownDuration(drawdowns []float64) int {
	longest := 0
	current := 0

	for _, dd := range drawdowns {
		if dd > 0 {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}

	return longest
}

// benchmarkStats computes OLS-style alpha and beta plus the information ratio
// against an aligned benchmark return series. All three are 0 when the series
// lengths differ or the benchmark variance is 0.
func benchmarkStats(dailyReturns []float64, benchmark []float64) (alpha float64, beta float64, infoRatio float64) {
	n := len(dailyReturns)
	if n == 0 || n != len(benchmark) {
		return 0, 0, 0
	}

	meanReturns := stat.Mean(dailyReturns)
	meanBenchmark := stat.Mean(benchmark)

	covariance := 0.0
	variance := 0.0

	for i := range dailyReturns {
		dr := dailyReturns[i] - meanReturns
		db := benchmark[i] - meanBenchmark
		covariance += dr * db
		variance += db * db
	}

	if variance == 0 {
		return 0, 0, 0
	}

	beta = covariance / variance
	alpha = (meanReturns - beta*meanBenchmark) * TradingDaysPerYear

	active := make([]float64, n)
	for i := range dailyReturns {
		active[i] = dailyReturns[i] - benchmark[i]
	}

	if std := stat.Std(active); std > 0 {
		infoRatio = stat.Mean(active) / std * math.Sqrt(TradingDaysPerYear)
	}

	return alpha, beta, infoRatio
}

// fillTradeStats fills the per-trade statistics. AverageLoss and MaximumLoss
// are kept signed (negative); ratios use their magnitudes.
func fillTradeStats(stats *types.PerformanceStats, trades []types.Trade) {
	stats.NumberOfTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	var wins, losses []float64

	for _, trade := range trades {
		stats.TotalFees += trade.Commission + trade.StampTax

		if trade.PnL > 0 {
			wins = append(wins, trade.PnL)
		} else {
			losses = append(losses, trade.PnL)
		}
	}

	stats.NumberOfWinningTrades = len(wins)
	stats.NumberOfLosingTrades = len(losses)
	stats.WinRate = float64(len(wins)) / float64(len(trades))
	stats.AverageWin = stat.Mean(wins)
	stats.AverageLoss = stat.Mean(losses)
	stats.MaximumProfit = stat.Max(wins)
	stats.MaximumLoss = stat.Min(losses)

	sumWins := stats.AverageWin * float64(len(wins))
	sumLosses := math.Abs(stats.AverageLoss) * float64(len(losses))

	if sumLosses > 0 {
		stats.ProfitFactor = sumWins / sumLosses
	}

	lossRate := 1 - stats.WinRate
	stats.Expectancy = stats.WinRate*stats.AverageWin - lossRate*math.Abs(stats.AverageLoss)

	stats.HoldingTime = holdingTime(trades)
}

func holdingTime(trades []types.Trade) types.TradeHoldingTime {
	if len(trades) == 0 {
		return types.TradeHoldingTime{}
	}

	minBars := trades[0].HoldingBars
	maxBars := trades[0].HoldingBars
	total := 0

	for _, trade := range trades {
		if trade.HoldingBars < minBars {
			minBars = trade.HoldingBars
		}

		if trade.HoldingBars > maxBars {
			maxBars = trade.HoldingBars
		}

		total += trade.HoldingBars
	}

	return types.TradeHoldingTime{
		Min: minBars,
		Max: maxBars,
		Avg: total / len(trades),
	}
}
