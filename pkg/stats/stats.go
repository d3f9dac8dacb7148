package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Mean computes the average of a slice. Empty input yields 0.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Variance computes the sample (n-1) variance of a slice.
func Variance(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return stat.Variance(x, nil)
}

// Std computes the sample standard deviation of a slice.
func Std(x []float64) float64 {
	return math.Sqrt(Variance(x))
}

// MinMax returns the minimum and maximum values in the slice.
func MinMax(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	return floats.Min(x), floats.Max(x)
}

// Sum returns the sum of all elements in the slice.
func Sum(x []float64) float64 {
	return floats.Sum(x)
}

// Median returns the median value of the slice (allocates a copy).
func Median(x []float64) float64 {
	return Percentile(x, 50)
}

// Percentile returns the p-th percentile value of the slice (0 <= p <= 100)
// using linear interpolation between closest ranks.
func Percentile(x []float64, p float64) float64 {
	n := len(x)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	if p <= 0 {
		return cp[0]
	}
	if p >= 100 {
		return cp[n-1]
	}
	rank := p / 100 * float64(n-1)
	lower := int(rank)
	upper := lower + 1
	weight := rank - float64(lower)
	if upper >= n {
		return cp[lower]
	}
	return cp[lower]*(1-weight) + cp[upper]*weight
}

// Correlation computes the Pearson correlation coefficient between two slices.
func Correlation(x, y []float64) float64 {
	if len(x) < 2 || len(y) != len(x) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// CorrelationMatrix returns the pairwise Pearson correlations of columns.
func CorrelationMatrix(columns [][]float64) [][]float64 {
	k := len(columns)
	if k == 0 || len(columns[0]) < 2 {
		return nil
	}
	n := len(columns[0])
	x := mat.NewDense(n, k, nil)
	for j, col := range columns {
		for i, v := range col {
			x.Set(i, j, v)
		}
	}
	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, x, nil)
	out := make([][]float64, k)
	for i := range out {
		out[i] = make([]float64, k)
		for j := range out[i] {
			out[i][j] = corr.At(i, j)
		}
	}
	return out
}

// Summary is the descriptive statistics of one numeric column.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Describe summarizes x, ignoring NaN values.
func Describe(x []float64) Summary {
	present := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	min, max := MinMax(present)
	return Summary{
		Count:  len(present),
		Mean:   Mean(present),
		Std:    Std(present),
		Min:    min,
		Q1:     Percentile(present, 25),
		Median: Percentile(present, 50),
		Q3:     Percentile(present, 75),
		Max:    max,
	}
}
