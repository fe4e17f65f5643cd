package validation

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-validation/internal/types"
	"github.com/rxtech-lab/argo-validation/internal/validation/montecarlo"
	"github.com/rxtech-lab/argo-validation/internal/validation/walkforward"
)

// StatisticalTests holds the significance test of the walk-forward window
// returns.
type StatisticalTests struct {
	TStatistic       float64 `yaml:"t_statistic" json:"t_statistic"`
	PValue           float64 `yaml:"p_value" json:"p_value"`
	DegreesOfFreedom int     `yaml:"degrees_of_freedom" json:"degrees_of_freedom"`
	Significant      bool    `yaml:"significant" json:"significant"`
}

// OverfittingAssessment is the combined verdict of the validation stages.
type OverfittingAssessment struct {
	// OverfittingRatio is in-sample return over out-of-sample mean return.
	OverfittingRatio float64 `yaml:"overfitting_ratio" json:"overfitting_ratio"`
	Overfit          bool    `yaml:"overfit" json:"overfit"`

	// CoefficientOfVariation is std/|mean| of the Monte Carlo return
	// distribution.
	CoefficientOfVariation float64 `yaml:"coefficient_of_variation" json:"coefficient_of_variation"`
	HighVariance           bool    `yaml:"high_variance" json:"high_variance"`

	// InDistribution reports whether the base backtest return falls inside
	// the Monte Carlo 5th-95th percentile band.
	InDistribution bool `yaml:"in_distribution" json:"in_distribution"`
}

// Report is the full validation output. WalkForward, MonteCarlo and Tests are
// nil when their stage was disabled.
type Report struct {
	ID        string    `yaml:"id" json:"id"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`

	Backtest    *types.BacktestReport `yaml:"backtest" json:"backtest"`
	WalkForward *walkforward.Report   `yaml:"walk_forward" json:"walk_forward,omitempty"`
	MonteCarlo  *montecarlo.Report    `yaml:"monte_carlo" json:"monte_carlo,omitempty"`
	Tests       *StatisticalTests     `yaml:"tests" json:"tests,omitempty"`

	Assessment OverfittingAssessment `yaml:"assessment" json:"assessment"`
}

const reportDivider = "============================================================"

// RenderReport formats a validation report as a deterministic multi-section
// text summary.
func RenderReport(report *Report) string {
	var sb strings.Builder

	sb.WriteString(reportDivider + "\n")
	sb.WriteString("STRATEGY VALIDATION REPORT\n")
	sb.WriteString(reportDivider + "\n")
	fmt.Fprintf(&sb, "Run ID:              %s\n", report.ID)

	perf := report.Backtest.Performance

	sb.WriteString("\n--- Base Backtest ---\n")
	fmt.Fprintf(&sb, "Total Return:        %.2f%%\n", perf.TotalReturn*100)
	fmt.Fprintf(&sb, "Sharpe Ratio:        %.4f\n", perf.SharpeRatio)
	fmt.Fprintf(&sb, "Max Drawdown:        %.2f%%\n", perf.MaxDrawdown*100)
	fmt.Fprintf(&sb, "Win Rate:            %.2f%%\n", perf.WinRate*100)
	fmt.Fprintf(&sb, "Number of Trades:    %d\n", perf.NumberOfTrades)

	if wf := report.WalkForward; wf != nil {
		sb.WriteString("\n--- Walk-Forward ---\n")
		fmt.Fprintf(&sb, "Windows:             %d (%d failed)\n", wf.NumWindows, len(wf.FailedWindows))
		fmt.Fprintf(&sb, "Mean Return:         %.2f%% (std %.2f%%)\n", wf.TotalReturn.Mean*100, wf.TotalReturn.Std*100)
		fmt.Fprintf(&sb, "Mean Sharpe:         %.4f\n", wf.SharpeRatio.Mean)
		fmt.Fprintf(&sb, "Robustness Score:    %.4f\n", wf.RobustnessScore)
		fmt.Fprintf(&sb, "Consistency Score:   %.4f\n", wf.ConsistencyScore)
	}

	if mc := report.MonteCarlo; mc != nil {
		sb.WriteString("\n--- Monte Carlo ---\n")
		fmt.Fprintf(&sb, "Simulations:         %d (%.2f%% successful)\n", mc.NumSimulations, mc.SuccessRate*100)
		fmt.Fprintf(&sb, "Return P5 / P50 / P95: %.2f%% / %.2f%% / %.2f%%\n",
			mc.TotalReturn.P5*100, mc.TotalReturn.P50*100, mc.TotalReturn.P95*100)
		fmt.Fprintf(&sb, "VaR 95%%:             %.4f\n", mc.VaR95)
		fmt.Fprintf(&sb, "CVaR 95%%:            %.4f\n", mc.CVaR95)
		fmt.Fprintf(&sb, "P(return > 0):       %.4f\n", mc.ProbPositiveReturn)
		fmt.Fprintf(&sb, "P(sharpe > 1):       %.4f\n", mc.ProbSharpeAboveOne)
		fmt.Fprintf(&sb, "P(drawdown < 20%%):   %.4f\n", mc.ProbDrawdownBelow20)
	}

	if tests := report.Tests; tests != nil {
		sb.WriteString("\n--- Significance ---\n")
		fmt.Fprintf(&sb, "t-statistic:         %.4f (df=%d)\n", tests.TStatistic, tests.DegreesOfFreedom)
		fmt.Fprintf(&sb, "p-value:             %.4f\n", tests.PValue)
		fmt.Fprintf(&sb, "Significant:         %s\n", yesNo(tests.Significant))
	}

	assessment := report.Assessment

	sb.WriteString("\n--- Assessment ---\n")

	if report.WalkForward != nil {
		fmt.Fprintf(&sb, "Overfitting Ratio:   %.4f\n", assessment.OverfittingRatio)
		fmt.Fprintf(&sb, "Overfit:             %s\n", yesNo(assessment.Overfit))
	}

	if report.MonteCarlo != nil {
		fmt.Fprintf(&sb, "Coef. of Variation:  %.4f\n", assessment.CoefficientOfVariation)
		fmt.Fprintf(&sb, "High Variance:       %s\n", yesNo(assessment.HighVariance))
		fmt.Fprintf(&sb, "In Distribution:     %s\n", yesNo(assessment.InDistribution))
	}

	sb.WriteString(reportDivider + "\n")

	return sb.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}

	return "no"
}

// WriteReport persists a validation report as YAML.
func WriteReport(path string, report *Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal validation report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write validation report to file: %w", err)
	}

	return nil
}

// ReadReport reads a YAML report written by WriteReport.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read validation report file: %w", err)
	}

	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal validation report: %w", err)
	}

	return &report, nil
}
