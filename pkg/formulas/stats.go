package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// PopStdDev calculates the population standard deviation (divisor n,
// not n-1) of a slice of float64 values.
func PopStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return math.Sqrt(stat.PopVariance(data, nil))
}

// DownsideDeviation measures the dispersion of returns below zero.
// Only negative values contribute to the sum of squares, but the
// divisor is the total number of observations.
func DownsideDeviation(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var sumSquares float64
	for _, r := range returns {
		if r < 0 {
			sumSquares += r * r
		}
	}
	return math.Sqrt(sumSquares / float64(len(returns)))
}

// Correlation calculates the Pearson correlation coefficient between two
// datasets. Returns 0 when either series has zero variance, instead of NaN.
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

func isNaN(f float64) bool {
	return math.IsNaN(f)
}
