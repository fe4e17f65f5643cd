package walkforward

import (
	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-validation/internal/backtest/simulator"
	"github.com/rxtech-lab/argo-validation/pkg/errors"
)

// Config controls window generation and execution of a walk-forward analysis.
type Config struct {
	// InitialTrainWindow is the number of bars in the first training window.
	InitialTrainWindow int `yaml:"initial_train_window" json:"initial_train_window" validate:"required,gt=0" jsonschema:"title=Initial Train Window,description=Bars in the first training window,minimum=1"`
	// TestWindow is the number of out-of-sample bars evaluated per window.
	TestWindow int `yaml:"test_window" json:"test_window" validate:"required,gt=0" jsonschema:"title=Test Window,description=Out-of-sample bars evaluated per window,minimum=1"`
	// StepSize is the number of bars each window start advances by.
	StepSize int `yaml:"step_size" json:"step_size" validate:"required,gt=0" jsonschema:"title=Step Size,description=Bars each window start advances by,minimum=1"`
	// ExpandingWindow anchors the training window at the first bar instead of
	// rolling it forward.
	ExpandingWindow bool `yaml:"expanding_window" json:"expanding_window" jsonschema:"title=Expanding Window,description=Anchor the training window at the first bar"`
	// MinTrainWindow skips windows whose training slice is shorter. 0 disables.
	MinTrainWindow int `yaml:"min_train_window" json:"min_train_window" validate:"gte=0" jsonschema:"title=Min Train Window,description=Skip windows with a shorter training slice"`
	// MaxTrainWindow caps the training slice by dropping its oldest bars.
	// 0 disables.
	MaxTrainWindow int `yaml:"max_train_window" json:"max_train_window" validate:"gte=0" jsonschema:"title=Max Train Window,description=Cap the training slice by dropping its oldest bars"`
	// MaxConcurrency bounds the worker pool. 0 means one worker per window.
	MaxConcurrency int `yaml:"max_concurrency" json:"max_concurrency" validate:"gte=0" jsonschema:"title=Max Concurrency,description=Bound on concurrently evaluated windows"`

	// Backtest is the cost model applied to every test slice.
	Backtest simulator.BacktestConfig `yaml:"backtest" json:"backtest" jsonschema:"title=Backtest,description=Cost model applied to every test slice"`
}

// DefaultConfig returns a rolling 100/50/25 walk-forward setup over the
// standard cost model.
func DefaultConfig() Config {
	return Config{
		InitialTrainWindow: 100,
		TestWindow:         50,
		StepSize:           25,
		ExpandingWindow:    false,
		MaxConcurrency:     4,
		Backtest:           simulator.DefaultConfig(),
	}
}

// Validate checks the range and cross-field constraints.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid walk-forward config", err)
	}

	if c.MaxTrainWindow > 0 && c.MinTrainWindow > c.MaxTrainWindow {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"min_train_window %d exceeds max_train_window %d", c.MinTrainWindow, c.MaxTrainWindow)
	}

	return c.Backtest.Validate()
}
