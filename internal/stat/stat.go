// Package stat provides the scalar statistics shared by the metrics engines,
// the walk-forward analyzer and the Monte Carlo simulator.
package stat

import (
	"math"
	"sort"
)

// Summary describes a distribution of metric values across windows or samples.
type Summary struct {
	Mean   float64 `yaml:"mean" json:"mean"`
	Std    float64 `yaml:"std" json:"std"`
	Min    float64 `yaml:"min" json:"min"`
	Max    float64 `yaml:"max" json:"max"`
	Median float64 `yaml:"median" json:"median"`
}

// Describe computes a Summary over the given values. A zero Summary is
// returned for an empty input.
func Describe(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	return Summary{
		Mean:   Mean(values),
		Std:    Std(values),
		Min:    Min(values),
		Max:    Max(values),
		Median: Median(values),
	}
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// Std returns the sample standard deviation (n-1 denominator).
// Returns 0 when fewer than two values are given.
func Std(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	mean := Mean(values)

	sum := 0.0
	for _, v := range values {
		diff := v - mean
		sum += diff * diff
	}

	return math.Sqrt(sum / float64(n-1))
}

// Min returns the smallest value, or 0 for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}

	return m
}

// Max returns the largest value, or 0 for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}

	return m
}

// Median returns the 50th percentile.
func Median(values []float64) float64 {
	return Quantile(values, 0.5)
}

// Quantile returns the q-th quantile of values (q in [0,1]) using linear
// interpolation between closest ranks. Returns 0 for an empty slice.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}

	if q <= 0 {
		return Min(values)
	}

	if q >= 1 {
		return Max(values)
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := q * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper {
		return sorted[lower]
	}

	weight := idx - float64(lower)

	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Skewness returns the population skewness of values.
// Returns 0 when the standard deviation is 0.
func Skewness(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}

	mean := Mean(values)

	variance := 0.0
	skewSum := 0.0

	for _, v := range values {
		diff := v - mean
		variance += diff * diff
		skewSum += diff * diff * diff
	}

	variance /= n

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	return (skewSum / n) / (std * std * std)
}

// Kurtosis returns the excess kurtosis of values (normal distribution = 0).
// Returns 0 when the variance is 0.
func Kurtosis(values []float64) float64 {
	n := float64(len(values))
	if n == 0 {
		return 0
	}

	mean := Mean(values)

	variance := 0.0
	kurtSum := 0.0

	for _, v := range values {
		diff := v - mean
		variance += diff * diff
		kurtSum += diff * diff * diff * diff
	}

	variance /= n
	if variance == 0 {
		return 0
	}

	return (kurtSum/n)/(variance*variance) - 3
}
