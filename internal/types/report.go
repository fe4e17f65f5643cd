package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TradeHoldingTime summarizes holding periods across trades, in bars.
type TradeHoldingTime struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
	Avg int `yaml:"avg" json:"avg"`
}

// PerformanceStats holds the return, ratio and trade statistics of a single
// backtest. Ratios with zero denominators are reported as 0 rather than
// NaN or Inf.
type PerformanceStats struct {
	TotalReturn         float64 `yaml:"total_return" json:"total_return"`
	AnnualizedReturn    float64 `yaml:"annualized_return" json:"annualized_return"`
	SharpeRatio         float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	SortinoRatio        float64 `yaml:"sortino_ratio" json:"sortino_ratio"`
	MaxDrawdown         float64 `yaml:"max_drawdown" json:"max_drawdown"`
	MaxDrawdownDuration int     `yaml:"max_drawdown_duration" json:"max_drawdown_duration"`
	CalmarRatio         float64 `yaml:"calmar_ratio" json:"calmar_ratio"`
	Volatility          float64 `yaml:"volatility" json:"volatility"`
	VaR95               float64 `yaml:"var_95" json:"var_95"`
	CVaR95              float64 `yaml:"cvar_95" json:"cvar_95"`

	// Benchmark-relative statistics; zero when no benchmark was supplied
	// or the series could not be aligned.
	Alpha            float64 `yaml:"alpha" json:"alpha"`
	Beta             float64 `yaml:"beta" json:"beta"`
	InformationRatio float64 `yaml:"information_ratio" json:"information_ratio"`

	NumberOfTrades        int     `yaml:"number_of_trades" json:"number_of_trades"`
	NumberOfWinningTrades int     `yaml:"number_of_winning_trades" json:"number_of_winning_trades"`
	NumberOfLosingTrades  int     `yaml:"number_of_losing_trades" json:"number_of_losing_trades"`
	WinRate               float64 `yaml:"win_rate" json:"win_rate"`
	AverageWin            float64 `yaml:"average_win" json:"average_win"`
	AverageLoss           float64 `yaml:"average_loss" json:"average_loss"`
	ProfitFactor          float64 `yaml:"profit_factor" json:"profit_factor"`
	Expectancy            float64 `yaml:"expectancy" json:"expectancy"`
	MaximumProfit         float64 `yaml:"maximum_profit" json:"maximum_profit"`
	MaximumLoss           float64 `yaml:"maximum_loss" json:"maximum_loss"`

	TotalFees        float64          `yaml:"total_fees" json:"total_fees"`
	BuyAndHoldReturn float64          `yaml:"buy_and_hold_return" json:"buy_and_hold_return"`
	HoldingTime      TradeHoldingTime `yaml:"holding_time" json:"holding_time"`
}

// RiskStats holds the downside and tail statistics of a single backtest.
type RiskStats struct {
	DownsideDeviation        float64 `yaml:"downside_deviation" json:"downside_deviation"`
	UlcerIndex               float64 `yaml:"ulcer_index" json:"ulcer_index"`
	PainIndex                float64 `yaml:"pain_index" json:"pain_index"`
	Skewness                 float64 `yaml:"skewness" json:"skewness"`
	Kurtosis                 float64 `yaml:"kurtosis" json:"kurtosis"`
	TailRatio                float64 `yaml:"tail_ratio" json:"tail_ratio"`
	OmegaRatio               float64 `yaml:"omega_ratio" json:"omega_ratio"`
	BurkeRatio               float64 `yaml:"burke_ratio" json:"burke_ratio"`
	RecoveryFactor           float64 `yaml:"recovery_factor" json:"recovery_factor"`
	MaxConsecutiveLosses     int     `yaml:"max_consecutive_losses" json:"max_consecutive_losses"`
	MaxConsecutiveLossAmount float64 `yaml:"max_consecutive_loss_amount" json:"max_consecutive_loss_amount"`
	PayoffRatio              float64 `yaml:"payoff_ratio" json:"payoff_ratio"`
}

// BacktestReport is the immutable result of one orchestrated backtest run.
type BacktestReport struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`

	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	FinalEquity    float64 `yaml:"final_equity" json:"final_equity"`

	Trades       []Trade            `yaml:"trades" json:"trades"`
	EquityCurve  []EquityCurvePoint `yaml:"equity_curve" json:"equity_curve"`
	DailyReturns []float64          `yaml:"daily_returns" json:"daily_returns"`

	Performance PerformanceStats `yaml:"performance" json:"performance"`
	Risk        RiskStats        `yaml:"risk" json:"risk"`
}

// WriteBacktestReport persists a report as YAML. The core never writes
// results on its own; this helper is for callers that do.
func WriteBacktestReport(path string, report *BacktestReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest report to file: %w", err)
	}

	return nil
}

// ReadBacktestReport reads a YAML report written by WriteBacktestReport.
func ReadBacktestReport(path string) (*BacktestReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backtest report file: %w", err)
	}

	var report BacktestReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backtest report: %w", err)
	}

	return &report, nil
}
