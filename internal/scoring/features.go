package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"qpcrscore/pkg/contracts/domain"
)

// ExtractFeatures computes the three curve features of a cycle-ordered
// series. baselineCycles bounds the baseline window; values below 1 are
// treated as 1.
func ExtractFeatures(series domain.WellSeries, baselineCycles int) domain.WellFeatures {
	values := series.DeltaRn()

	if baselineCycles < 1 {
		baselineCycles = 1
	}
	window := values
	if len(window) > baselineCycles {
		window = window[:baselineCycles]
	}

	return domain.WellFeatures{
		MaxDeltaRn:    nanMax(values),
		BaselineNoise: nanPopStdDev(window),
		MaxSlope:      nanMax(Gradient(values)),
	}
}

// Gradient returns the discrete derivative of values with unit spacing:
// central differences inside, one-sided differences at both ends. Fewer
// than two values have no derivative and yield nil.
func Gradient(values []float64) []float64 {
	n := len(values)
	if n < 2 {
		return nil
	}

	grad := make([]float64, n)
	grad[0] = values[1] - values[0]
	for i := 1; i < n-1; i++ {
		grad[i] = (values[i+1] - values[i-1]) / 2
	}
	grad[n-1] = values[n-1] - values[n-2]
	return grad
}

// nanMax is the maximum ignoring NaN, or NaN when nothing is left.
func nanMax(values []float64) float64 {
	finite := dropNaN(values)
	if len(finite) == 0 {
		return math.NaN()
	}
	return floats.Max(finite)
}

// nanPopStdDev is the population standard deviation ignoring NaN, or NaN
// when nothing is left.
func nanPopStdDev(values []float64) float64 {
	finite := dropNaN(values)
	switch len(finite) {
	case 0:
		return math.NaN()
	case 1:
		// gonum's two-pass variance divides by n-1 before rescaling
		if math.IsInf(finite[0], 0) {
			return math.NaN()
		}
		return 0
	}
	_, std := stat.PopMeanStdDev(finite, nil)
	return std
}

func dropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
