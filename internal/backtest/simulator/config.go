package simulator

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-validation/pkg/errors"
)

// BacktestConfig holds the cost model and position-sizing parameters of a
// simulation run.
type BacktestConfig struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" validate:"required,gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the backtest,minimum=0"`
	// CommissionRate is the proportional commission charged on both sides.
	CommissionRate float64 `yaml:"commission_rate" json:"commission_rate" validate:"gte=0,lt=1" jsonschema:"title=Commission Rate,description=Proportional commission charged per execution"`
	// MinCommission is the per-execution commission floor.
	MinCommission float64 `yaml:"min_commission" json:"min_commission" validate:"gte=0" jsonschema:"title=Minimum Commission,description=Commission floor per execution"`
	// SlippageRate models execution-price deviation from the quoted close.
	SlippageRate float64 `yaml:"slippage_rate" json:"slippage_rate" validate:"gte=0,lt=1" jsonschema:"title=Slippage Rate,description=Assumed execution price deviation from the close"`
	// StampTaxRate is charged on the sell side only.
	StampTaxRate float64 `yaml:"stamp_tax_rate" json:"stamp_tax_rate" validate:"gte=0,lt=1" jsonschema:"title=Stamp Tax Rate,description=Sell-side stamp tax rate"`
	// MaxPositionSize is the fraction of cash committed per entry, in (0,1].
	MaxPositionSize float64 `yaml:"max_position_size" json:"max_position_size" validate:"required,gt=0,lte=1" jsonschema:"title=Max Position Size,description=Fraction of cash committed per entry,minimum=0,maximum=1"`
	// RiskFreeRate is the annual risk-free rate used for excess returns.
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate" validate:"gte=0,lt=1" jsonschema:"title=Risk Free Rate,description=Annual risk-free rate used by Sharpe and Sortino"`
	// LotSize is the minimum tradable share increment.
	LotSize int64 `yaml:"lot_size" json:"lot_size" validate:"required,gt=0" jsonschema:"title=Lot Size,description=Minimum tradable share increment,minimum=1"`
	// StopLossPct closes the position when the unrealized loss reaches the
	// given fraction. None disables the stop.
	StopLossPct optional.Option[float64] `yaml:"stop_loss_pct" json:"stop_loss_pct" jsonschema:"title=Stop Loss,description=Optional unrealized loss fraction that forces an exit"`
	// TakeProfitPct closes the position when the unrealized gain reaches the
	// given fraction. None disables the target.
	TakeProfitPct optional.Option[float64] `yaml:"take_profit_pct" json:"take_profit_pct" jsonschema:"title=Take Profit,description=Optional unrealized gain fraction that forces an exit"`
}

// DefaultConfig returns a BacktestConfig with the standard cost model:
// 3 bps commission with a 5.0 floor, 1 bp slippage, 10 bps sell-side stamp
// tax, full capital allocation and 100-share lots.
func DefaultConfig() BacktestConfig {
	return BacktestConfig{
		InitialCapital:  100000,
		CommissionRate:  0.0003,
		MinCommission:   5.0,
		SlippageRate:    0.0001,
		StampTaxRate:    0.001,
		MaxPositionSize: 1.0,
		RiskFreeRate:    0.0,
		LotSize:         100,
		StopLossPct:     optional.None[float64](),
		TakeProfitPct:   optional.None[float64](),
	}
}

// Validate checks all range constraints at construction time.
func (c *BacktestConfig) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	if c.StopLossPct.IsSome() {
		v := c.StopLossPct.Unwrap()
		if v <= 0 || v >= 1 {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"stop_loss_pct must be in (0,1), got %f", v)
		}
	}

	if c.TakeProfitPct.IsSome() {
		v := c.TakeProfitPct.Unwrap()
		if v <= 0 {
			return errors.Newf(errors.ErrCodeInvalidConfiguration,
				"take_profit_pct must be positive, got %f", v)
		}
	}

	return nil
}

// UnmarshalYAML implements custom unmarshaling for BacktestConfig so that
// absent stop-loss/take-profit keys map onto None.
func (c *BacktestConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type Config struct {
		InitialCapital  float64  `yaml:"initial_capital"`
		CommissionRate  float64  `yaml:"commission_rate"`
		MinCommission   float64  `yaml:"min_commission"`
		SlippageRate    float64  `yaml:"slippage_rate"`
		StampTaxRate    float64  `yaml:"stamp_tax_rate"`
		MaxPositionSize float64  `yaml:"max_position_size"`
		RiskFreeRate    float64  `yaml:"risk_free_rate"`
		LotSize         int64    `yaml:"lot_size"`
		StopLossPct     *float64 `yaml:"stop_loss_pct"`
		TakeProfitPct   *float64 `yaml:"take_profit_pct"`
	}

	var config Config
	if err := unmarshal(&config); err != nil {
		return err
	}

	c.InitialCapital = config.InitialCapital
	c.CommissionRate = config.CommissionRate
	c.MinCommission = config.MinCommission
	c.SlippageRate = config.SlippageRate
	c.StampTaxRate = config.StampTaxRate
	c.MaxPositionSize = config.MaxPositionSize
	c.RiskFreeRate = config.RiskFreeRate
	c.LotSize = config.LotSize

	if config.StopLossPct != nil {
		c.StopLossPct = optional.Some(*config.StopLossPct)
	} else {
		c.StopLossPct = optional.None[float64]()
	}

	if config.TakeProfitPct != nil {
		c.TakeProfitPct = optional.Some(*config.TakeProfitPct)
	} else {
		c.TakeProfitPct = optional.None[float64]()
	}

	return nil
}

// GenerateSchema generates a JSON schema for the BacktestConfig.
func (c *BacktestConfig) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if strings.Contains(t.String(), "optional.Option[float64]") {
				return &jsonschema.Schema{
					Type: "number",
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-config"
	schema.Description = "Configuration schema for the trade simulator"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestConfig.
func (c *BacktestConfig) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
