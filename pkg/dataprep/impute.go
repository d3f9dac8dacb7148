package dataprep

import (
	"math"

	"salesforecast/pkg/stats"
)

// Unknown is the sentinel used for missing categorical values.
const Unknown = "Unknown"

// nonMissing returns the values of x that are not NaN.
func nonMissing(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// ImputeConstant replaces NaN values with a fixed constant, in place.
// It returns the number of values replaced.
func ImputeConstant(x []float64, constant float64) int {
	n := 0
	for i, v := range x {
		if math.IsNaN(v) {
			x[i] = constant
			n++
		}
	}
	return n
}

// ImputeMean replaces NaN values with the mean of the present values and
// returns the mean used.
func ImputeMean(x []float64) float64 {
	mean := stats.Mean(nonMissing(x))
	ImputeConstant(x, mean)
	return mean
}

// ImputeMedian replaces NaN values with the median of the present values and
// returns the median used.
func ImputeMedian(x []float64) float64 {
	median := stats.Median(nonMissing(x))
	ImputeConstant(x, median)
	return median
}

// ForwardFill propagates the last present value over NaNs. Leading NaNs are
// left untouched.
func ForwardFill(x []float64) {
	last := math.NaN()
	for i, v := range x {
		if math.IsNaN(v) {
			x[i] = last
		} else {
			last = v
		}
	}
}

// ForwardFillStrings is ForwardFill for categorical values ("" is missing).
func ForwardFillStrings(x []string) {
	last := ""
	for i, v := range x {
		if v == "" {
			x[i] = last
		} else {
			last = v
		}
	}
}

// ImputeCategorical replaces missing categorical values with constant.
func ImputeCategorical(x []string, constant string) int {
	n := 0
	for i, v := range x {
		if v == "" {
			x[i] = constant
			n++
		}
	}
	return n
}
