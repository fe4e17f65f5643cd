package stat

import (
	"math"
)

// TTestResult holds the outcome of a one-sample t-test.
type TTestResult struct {
	TStatistic       float64 `yaml:"t_statistic" json:"t_statistic"`
	PValue           float64 `yaml:"p_value" json:"p_value"`
	DegreesOfFreedom int     `yaml:"degrees_of_freedom" json:"degrees_of_freedom"`
}

// TTestOneSample runs a two-tailed one-sample t-test of the mean of values
// against mu. When the sample is degenerate (fewer than two observations or
// zero standard deviation) the test is undefined and reported as
// t=0, p=1 rather than NaN.
func TTestOneSample(values []float64, mu float64) TTestResult {
	n := len(values)
	if n < 2 {
		return TTestResult{TStatistic: 0, PValue: 1, DegreesOfFreedom: 0}
	}

	std := Std(values)
	if std == 0 {
		return TTestResult{TStatistic: 0, PValue: 1, DegreesOfFreedom: n - 1}
	}

	t := (Mean(values) - mu) / (std / math.Sqrt(float64(n)))

	return TTestResult{
		TStatistic:       t,
		PValue:           StudentTPValue(t, n-1),
		DegreesOfFreedom: n - 1,
	}
}

// StudentTPValue returns the two-tailed p-value of a t-statistic under the
// Student's t-distribution with df degrees of freedom.
func StudentTPValue(t float64, df int) float64 {
	if df <= 0 {
		return 1
	}

	v := float64(df)
	x := v / (v + t*t)

	return regularizedIncompleteBeta(v/2, 0.5, x)
}

// regularizedIncompleteBeta computes I_x(a, b) using the continued fraction
// expansion (Numerical Recipes, betai/betacf).
func regularizedIncompleteBeta(a, b, x float64) float64 {
	if x <= 0 {
		return 0
	}

	if x >= 1 {
		return 1
	}

	lgA, _ := math.Lgamma(a)
	lgB, _ := math.Lgamma(b)
	lgAB, _ := math.Lgamma(a + b)
	front := math.Exp(lgAB - lgA - lgB + a*math.Log(x) + b*math.Log(1-x))

	// Continued fraction converges rapidly for x < (a+1)/(a+b+2).
	if x < (a+1)/(a+b+2) {
		return front * betaContinuedFraction(a, b, x) / a
	}

	return 1 - front*betaContinuedFraction(b, a, 1-x)/b
}

func betaContinuedFraction(a, b, x float64) float64 {
	const (
		maxIterations = 200
		epsilon       = 3e-14
		tiny          = 1e-30
	)

	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0

	d := 1 - qab*x/qap
	if math.Abs(d) < tiny {
		d = tiny
	}

	d = 1 / d
	h := d

	for m := 1; m <= maxIterations; m++ {
		fm := float64(m)
		m2 := 2 * fm

		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))

		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}

		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}

		d = 1 / d
		h *= d * c

		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))

		d = 1 + aa*d
		if math.Abs(d) < tiny {
			d = tiny
		}

		c = 1 + aa/c
		if math.Abs(c) < tiny {
			c = tiny
		}

		d = 1 / d

		del := d * c
		h *= del

		if math.Abs(del-1) < epsilon {
			break
		}
	}

	return h
}
