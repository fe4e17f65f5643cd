package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ReportTestSuite struct {
	suite.Suite
	tempDir string
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func (suite *ReportTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "report_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *ReportTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *ReportTestSuite) TestWriteReadBacktestReport() {
	report := &BacktestReport{
		ID:             "run_1",
		Timestamp:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		InitialCapital: 100000,
		FinalEquity:    112500,
		Performance: PerformanceStats{
			TotalReturn:           0.125,
			SharpeRatio:           1.4,
			MaxDrawdown:           0.08,
			NumberOfTrades:        24,
			NumberOfWinningTrades: 15,
			NumberOfLosingTrades:  9,
			WinRate:               0.625,
			TotalFees:             320.5,
			HoldingTime:           TradeHoldingTime{Min: 2, Max: 30, Avg: 11},
		},
		Risk: RiskStats{
			UlcerIndex:           0.03,
			MaxConsecutiveLosses: 3,
		},
	}

	path := filepath.Join(suite.tempDir, "report.yaml")
	suite.NoError(WriteBacktestReport(path, report))

	read, err := ReadBacktestReport(path)
	suite.NoError(err)
	suite.Equal(report.ID, read.ID)
	suite.Equal(report.InitialCapital, read.InitialCapital)
	suite.Equal(report.FinalEquity, read.FinalEquity)
	suite.Equal(report.Performance, read.Performance)
	suite.Equal(report.Risk, read.Risk)
}

func (suite *ReportTestSuite) TestReadMissingFile() {
	_, err := ReadBacktestReport(filepath.Join(suite.tempDir, "missing.yaml"))
	suite.Error(err)
}

func (suite *ReportTestSuite) TestDailyReturns() {
	curve := []EquityCurvePoint{
		{Equity: 100},
		{Equity: 110},
		{Equity: 99},
	}

	returns := DailyReturns(curve)
	suite.Len(returns, 2)
	suite.InDelta(0.10, returns[0], 1e-12)
	suite.InDelta(-0.10, returns[1], 1e-12)

	suite.Nil(DailyReturns(curve[:1]))
}
