package validation

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"

	"github.com/rxtech-lab/argo-validation/internal/backtest/simulator"
	"github.com/rxtech-lab/argo-validation/internal/validation/montecarlo"
	"github.com/rxtech-lab/argo-validation/internal/validation/walkforward"
	"github.com/rxtech-lab/argo-validation/pkg/errors"
)

// Default thresholds for the overfitting assessment.
const (
	DefaultSignificanceLevel     = 0.05
	DefaultOverfittingThreshold  = 2.0
	DefaultHighVarianceThreshold = 1.0
)

// Config is the top-level validation configuration. The WalkForward and
// MonteCarlo sections are optional; a nil section disables that stage.
type Config struct {
	// Backtest is the cost model for the base backtest. Walk-forward windows
	// inherit it.
	Backtest simulator.BacktestConfig `yaml:"backtest" json:"backtest" jsonschema:"title=Backtest,description=Cost model for the base backtest"`

	WalkForward *walkforward.Config `yaml:"walk_forward" json:"walk_forward,omitempty" jsonschema:"title=Walk Forward,description=Optional walk-forward stage"`
	MonteCarlo  *montecarlo.Config  `yaml:"monte_carlo" json:"monte_carlo,omitempty" jsonschema:"title=Monte Carlo,description=Optional Monte Carlo stage"`

	// SignificanceLevel is the p-value below which the walk-forward mean
	// return is considered significantly different from zero.
	SignificanceLevel float64 `yaml:"significance_level" json:"significance_level" validate:"gt=0,lt=1" jsonschema:"title=Significance Level,description=P-value threshold for the t-test"`
	// OverfittingThreshold flags the strategy as overfit when
	// base_return / walk_forward_mean_return exceeds it.
	OverfittingThreshold float64 `yaml:"overfitting_threshold" json:"overfitting_threshold" validate:"gt=0" jsonschema:"title=Overfitting Threshold,description=Flag threshold for the in-sample to out-of-sample return ratio"`
	// HighVarianceThreshold flags the Monte Carlo return distribution as high
	// variance when its coefficient of variation exceeds it.
	HighVarianceThreshold float64 `yaml:"high_variance_threshold" json:"high_variance_threshold" validate:"gt=0" jsonschema:"title=High Variance Threshold,description=Flag threshold for the Monte Carlo coefficient of variation"`
}

// DefaultConfig enables all stages with their default settings.
func DefaultConfig() Config {
	wf := walkforward.DefaultConfig()
	mc := montecarlo.DefaultConfig()

	return Config{
		Backtest:              simulator.DefaultConfig(),
		WalkForward:           &wf,
		MonteCarlo:            &mc,
		SignificanceLevel:     DefaultSignificanceLevel,
		OverfittingThreshold:  DefaultOverfittingThreshold,
		HighVarianceThreshold: DefaultHighVarianceThreshold,
	}
}

// applyDefaults fills unset thresholds so a minimal YAML document is usable.
func (c *Config) applyDefaults() {
	if c.SignificanceLevel == 0 {
		c.SignificanceLevel = DefaultSignificanceLevel
	}

	if c.OverfittingThreshold == 0 {
		c.OverfittingThreshold = DefaultOverfittingThreshold
	}

	if c.HighVarianceThreshold == 0 {
		c.HighVarianceThreshold = DefaultHighVarianceThreshold
	}

	// Walk-forward windows always run under the base cost model.
	if c.WalkForward != nil {
		c.WalkForward.Backtest = c.Backtest
	}
}

// Validate checks every enabled section, then the facade thresholds.
// Sections are checked first so their more specific error codes win.
func (c *Config) Validate() error {
	if err := c.Backtest.Validate(); err != nil {
		return err
	}

	if c.WalkForward != nil {
		if err := c.WalkForward.Validate(); err != nil {
			return err
		}
	}

	if c.MonteCarlo != nil {
		if err := c.MonteCarlo.Validate(); err != nil {
			return err
		}
	}

	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeValidationConfig, "invalid validation config", err)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the validation config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
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
	schema.Title = "validation-config"
	schema.Description = "Configuration schema for the strategy validation engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the validation config.
func (c *Config) GenerateSchemaJSON() (string, error) {
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
