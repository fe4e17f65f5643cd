package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-validation/internal/types"
)

type LoaderTestSuite struct {
	suite.Suite
}

func TestLoaderSuite(t *testing.T) {
	suite.Run(t, new(LoaderTestSuite))
}

func (suite *LoaderTestSuite) writeFile(name string, content string) string {
	path := filepath.Join(suite.T().TempDir(), name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *LoaderTestSuite) TestLoadPriceCSV() {
	path := suite.writeFile("prices.csv", `timestamp,open,high,low,close,volume
2024-01-02,100,101,99,100.5,10000
2024-01-03,100.5,102,100,101.5,12000
`)

	prices, err := LoadPriceCSV(path)
	suite.Require().NoError(err)
	suite.Require().Len(prices, 2)

	suite.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), prices[0].Timestamp)
	suite.Equal(100.5, prices[0].Close)
	suite.Equal(12000.0, prices[1].Volume)
	suite.NoError(prices.Validate())
}

func (suite *LoaderTestSuite) TestLoadPriceCSVRejectsMalformedRow() {
	path := suite.writeFile("prices.csv", `timestamp,open,high,low,close,volume
2024-01-02,100,101,99,not-a-number,10000
`)

	_, err := LoadPriceCSV(path)
	suite.Error(err)
}

func (suite *LoaderTestSuite) TestLoadSignalCSV() {
	path := suite.writeFile("signals.csv", `timestamp,action,strength
2024-01-02,buy,1.0
2024-01-03,sell,0.8
`)

	signals, err := LoadSignalCSV(path)
	suite.Require().NoError(err)
	suite.Require().Len(signals, 2)

	suite.Equal(types.SignalActionBuy, signals[0].Action)
	suite.Equal(types.SignalActionSell, signals[1].Action)
	suite.Equal(0.8, signals[1].Strength)
}

func (suite *LoaderTestSuite) TestSignalFuncFiltersToSliceRange() {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	bars := make(types.PriceSeries, 10)
	for i := range bars {
		bars[i] = types.PriceBar{Timestamp: start.AddDate(0, 0, i), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1}
	}

	signals := types.SignalSeries{
		{Timestamp: bars[0].Timestamp, Action: types.SignalActionBuy, Strength: 1},
		{Timestamp: bars[5].Timestamp, Action: types.SignalActionSell, Strength: 1},
		{Timestamp: bars[9].Timestamp, Action: types.SignalActionBuy, Strength: 1},
	}

	signalFn := signalFuncFromSeries(signals)

	subset, err := signalFn(bars[3:8])
	suite.Require().NoError(err)
	suite.Require().Len(subset, 1)
	suite.Equal(bars[5].Timestamp, subset[0].Timestamp)
}
