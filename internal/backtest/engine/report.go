package engine

import (
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-validation/internal/types"
)

const reportDivider = "============================================================"

// RenderReport formats a report as a deterministic multi-section text
// summary. The same report always renders to the same string.
func RenderReport(report *types.BacktestReport) string {
	var sb strings.Builder

	sb.WriteString(reportDivider + "\n")
	sb.WriteString("BACKTEST REPORT\n")
	sb.WriteString(reportDivider + "\n")
	fmt.Fprintf(&sb, "Run ID:              %s\n", report.ID)
	fmt.Fprintf(&sb, "Initial Capital:     %.2f\n", report.InitialCapital)
	fmt.Fprintf(&sb, "Final Equity:        %.2f\n", report.FinalEquity)

	perf := report.Performance

	sb.WriteString("\n--- Returns ---\n")
	fmt.Fprintf(&sb, "Total Return:        %.2f%%\n", perf.TotalReturn*100)
	fmt.Fprintf(&sb, "Annualized Return:   %.2f%%\n", perf.AnnualizedReturn*100)
	fmt.Fprintf(&sb, "Buy & Hold Return:   %.2f%%\n", perf.BuyAndHoldReturn*100)
	fmt.Fprintf(&sb, "Volatility:          %.2f%%\n", perf.Volatility*100)

	sb.WriteString("\n--- Ratios ---\n")
	fmt.Fprintf(&sb, "Sharpe Ratio:        %.4f\n", perf.SharpeRatio)
	fmt.Fprintf(&sb, "Sortino Ratio:       %.4f\n", perf.SortinoRatio)
	fmt.Fprintf(&sb, "Calmar Ratio:        %.4f\n", perf.CalmarRatio)
	fmt.Fprintf(&sb, "Information Ratio:   %.4f\n", perf.InformationRatio)
	fmt.Fprintf(&sb, "Alpha:               %.4f\n", perf.Alpha)
	fmt.Fprintf(&sb, "Beta:                %.4f\n", perf.Beta)

	sb.WriteString("\n--- Drawdown & Tail ---\n")
	fmt.Fprintf(&sb, "Max Drawdown:        %.2f%%\n", perf.MaxDrawdown*100)
	fmt.Fprintf(&sb, "Drawdown Duration:   %d bars\n", perf.MaxDrawdownDuration)
	fmt.Fprintf(&sb, "VaR 95%%:             %.4f\n", perf.VaR95)
	fmt.Fprintf(&sb, "CVaR 95%%:            %.4f\n", perf.CVaR95)

	risk := report.Risk

	sb.WriteString("\n--- Risk ---\n")
	fmt.Fprintf(&sb, "Downside Deviation:  %.4f\n", risk.DownsideDeviation)
	fmt.Fprintf(&sb, "Ulcer Index:         %.4f\n", risk.UlcerIndex)
	fmt.Fprintf(&sb, "Pain Index:          %.4f\n", risk.PainIndex)
	fmt.Fprintf(&sb, "Skewness:            %.4f\n", risk.Skewness)
	fmt.Fprintf(&sb, "Kurtosis:            %.4f\n", risk.Kurtosis)
	fmt.Fprintf(&sb, "Tail Ratio:          %.4f\n", risk.TailRatio)
	fmt.Fprintf(&sb, "Omega Ratio:         %.4f\n", risk.OmegaRatio)
	fmt.Fprintf(&sb, "Burke Ratio:         %.4f\n", risk.BurkeRatio)
	fmt.Fprintf(&sb, "Recovery Factor:     %.4f\n", risk.RecoveryFactor)

	sb.WriteString("\n--- Trades ---\n")
	fmt.Fprintf(&sb, "Number of Trades:    %d\n", perf.NumberOfTrades)
	fmt.Fprintf(&sb, "Winning / Losing:    %d / %d\n", perf.NumberOfWinningTrades, perf.NumberOfLosingTrades)
	fmt.Fprintf(&sb, "Win Rate:            %.2f%%\n", perf.WinRate*100)
	fmt.Fprintf(&sb, "Average Win:         %.2f\n", perf.AverageWin)
	fmt.Fprintf(&sb, "Average Loss:        %.2f\n", perf.AverageLoss)
	fmt.Fprintf(&sb, "Profit Factor:       %.4f\n", perf.ProfitFactor)
	fmt.Fprintf(&sb, "Expectancy:          %.2f\n", perf.Expectancy)
	fmt.Fprintf(&sb, "Payoff Ratio:        %.4f\n", risk.PayoffRatio)
	fmt.Fprintf(&sb, "Max Loss Streak:     %d (%.2f)\n", risk.MaxConsecutiveLosses, risk.MaxConsecutiveLossAmount)
	fmt.Fprintf(&sb, "Total Fees:          %.2f\n", perf.TotalFees)
	fmt.Fprintf(&sb, "Holding Time (bars): min %d / avg %d / max %d\n",
		perf.HoldingTime.Min, perf.HoldingTime.Avg, perf.HoldingTime.Max)
	sb.WriteString(reportDivider + "\n")

	return sb.String()
}
