package simulator

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) TestDefaultConfigIsValid() {
	config := DefaultConfig()
	suite.NoError(config.Validate())
	suite.False(config.StopLossPct.IsSome())
	suite.False(config.TakeProfitPct.IsSome())
}

func (suite *ConfigTestSuite) TestValidate() {
	tests := []struct {
		name    string
		mutate  func(*BacktestConfig)
		wantErr bool
	}{
		{name: "Defaults", mutate: func(c *BacktestConfig) {}, wantErr: false},
		{name: "Zero capital", mutate: func(c *BacktestConfig) { c.InitialCapital = 0 }, wantErr: true},
		{name: "Negative commission", mutate: func(c *BacktestConfig) { c.CommissionRate = -0.01 }, wantErr: true},
		{name: "Commission at one", mutate: func(c *BacktestConfig) { c.CommissionRate = 1.0 }, wantErr: true},
		{name: "Position size above one", mutate: func(c *BacktestConfig) { c.MaxPositionSize = 1.01 }, wantErr: true},
		{name: "Zero lot size", mutate: func(c *BacktestConfig) { c.LotSize = 0 }, wantErr: true},
		{name: "Negative stamp tax", mutate: func(c *BacktestConfig) { c.StampTaxRate = -0.001 }, wantErr: true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := DefaultConfig()
			tc.mutate(&config)

			err := config.Validate()
			if tc.wantErr {
				suite.Assert().Error(err)
			} else {
				suite.Assert().NoError(err)
			}
		})
	}
}

func (suite *ConfigTestSuite) TestUnmarshalYAML() {
	raw := `
initial_capital: 200000
commission_rate: 0.0005
min_commission: 1.0
slippage_rate: 0.0002
stamp_tax_rate: 0.001
max_position_size: 0.8
risk_free_rate: 0.02
lot_size: 100
stop_loss_pct: 0.05
`

	var config BacktestConfig
	suite.Require().NoError(yaml.Unmarshal([]byte(raw), &config))

	suite.Equal(200000.0, config.InitialCapital)
	suite.Equal(0.8, config.MaxPositionSize)
	suite.True(config.StopLossPct.IsSome())
	suite.Equal(0.05, config.StopLossPct.Unwrap())
	suite.False(config.TakeProfitPct.IsSome())
	suite.NoError(config.Validate())
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	config := DefaultConfig()

	schemaJSON, err := config.GenerateSchemaJSON()
	suite.NoError(err)
	suite.Contains(schemaJSON, "initial_capital")
	suite.Contains(schemaJSON, "stop_loss_pct")
	suite.Contains(schemaJSON, "http://json-schema.org/draft-07/schema#")
}
