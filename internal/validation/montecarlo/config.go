package montecarlo

import (
	"github.com/go-playground/validator/v10"

	"github.com/rxtech-lab/argo-validation/pkg/errors"
)

// Config controls the bootstrap Monte Carlo batch.
type Config struct {
	// NumSimulations is the number of bootstrap samples to draw.
	NumSimulations int `yaml:"num_simulations" json:"num_simulations" validate:"required,gt=0" jsonschema:"title=Num Simulations,description=Number of bootstrap samples to draw,minimum=1"`
	// BootstrapSampleSize is the length of each resampled return series.
	// 0 means the length of the input series.
	BootstrapSampleSize int `yaml:"bootstrap_sample_size" json:"bootstrap_sample_size" validate:"gte=0" jsonschema:"title=Bootstrap Sample Size,description=Length of each resampled return series (0 = input length)"`
	// RandomSeed seeds the per-sample RNG streams. The same seed reproduces
	// the same batch bit for bit, regardless of execution order.
	RandomSeed int64 `yaml:"random_seed" json:"random_seed" jsonschema:"title=Random Seed,description=Seed for the per-sample RNG streams"`
	// ParallelWorkers bounds the worker pool. 0 means NumSimulations workers.
	ParallelWorkers int `yaml:"parallel_workers" json:"parallel_workers" validate:"gte=0" jsonschema:"title=Parallel Workers,description=Bound on concurrently executed samples"`
}

// DefaultConfig returns a 1000-sample batch with a fixed seed and four
// workers.
func DefaultConfig() Config {
	return Config{
		NumSimulations:  1000,
		RandomSeed:      42,
		ParallelWorkers: 4,
	}
}

// Validate checks the range constraints.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid monte carlo config", err)
	}

	return nil
}
