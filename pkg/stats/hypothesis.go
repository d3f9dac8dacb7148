package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var ErrTooFewObservations = errors.New("stats: too few observations")

// TestResult is the outcome of a hypothesis test. Effect carries the signed
// size of the effect: the difference in means for two-sample tests, r for
// correlation, and the spread of group means (or mean ranks) for k-sample
// tests.
type TestResult struct {
	Test      string
	Statistic float64
	PValue    float64
	DF        float64
	DF2       float64
	Effect    float64
}

// Significant reports whether the null hypothesis is rejected at alpha.
func (r TestResult) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// Direction is the sign of the effect: 1, -1 or 0.
func (r TestResult) Direction() int {
	switch {
	case r.Effect > 0:
		return 1
	case r.Effect < 0:
		return -1
	}
	return 0
}

// WelchTTest compares the means of a and b without assuming equal variances.
// A positive effect means a has the larger mean.
func WelchTTest(a, b []float64) (TestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return TestResult{}, fmt.Errorf("welch: %w", ErrTooFewObservations)
	}
	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))
	sa, sb := va/na, vb/nb
	se := math.Sqrt(sa + sb)
	if se == 0 {
		return TestResult{}, errors.New("welch: both samples have zero variance")
	}
	t := (ma - mb) / se
	df := (sa + sb) * (sa + sb) / (sa*sa/(na-1) + sb*sb/(nb-1))
	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
	return TestResult{Test: "welch-t", Statistic: t, PValue: p, DF: df, Effect: ma - mb}, nil
}

// OneWayANOVA tests whether the group means are equal.
func OneWayANOVA(groups [][]float64) (TestResult, error) {
	k := len(groups)
	if k < 2 {
		return TestResult{}, fmt.Errorf("anova: need at least 2 groups, got %d", k)
	}
	var all []float64
	means := make([]float64, k)
	for i, g := range groups {
		if len(g) == 0 {
			return TestResult{}, fmt.Errorf("anova: group %d: %w", i, ErrTooFewObservations)
		}
		means[i] = Mean(g)
		all = append(all, g...)
	}
	n := len(all)
	if n <= k {
		return TestResult{}, fmt.Errorf("anova: %w", ErrTooFewObservations)
	}
	grand := Mean(all)
	var ssb, ssw float64
	for i, g := range groups {
		d := means[i] - grand
		ssb += float64(len(g)) * d * d
		for _, v := range g {
			e := v - means[i]
			ssw += e * e
		}
	}
	df1, df2 := float64(k-1), float64(n-k)
	if ssw == 0 {
		return TestResult{}, errors.New("anova: zero within-group variance")
	}
	f := (ssb / df1) / (ssw / df2)
	lo, hi := MinMax(means)
	return TestResult{
		Test:      "anova",
		Statistic: f,
		PValue:    distuv.F{D1: df1, D2: df2}.Survival(f),
		DF:        df1,
		DF2:       df2,
		Effect:    hi - lo,
	}, nil
}

// KruskalWallis is the rank-based test that the groups share a distribution.
// Ties get average ranks and H is tie-corrected.
func KruskalWallis(groups [][]float64) (TestResult, error) {
	k := len(groups)
	if k < 2 {
		return TestResult{}, fmt.Errorf("kruskal: need at least 2 groups, got %d", k)
	}
	type obs struct {
		v     float64
		group int
	}
	var all []obs
	for i, g := range groups {
		if len(g) == 0 {
			return TestResult{}, fmt.Errorf("kruskal: group %d: %w", i, ErrTooFewObservations)
		}
		for _, v := range g {
			all = append(all, obs{v, i})
		}
	}
	sort.Slice(all, func(a, b int) bool { return all[a].v < all[b].v })

	n := float64(len(all))
	rankSums := make([]float64, k)
	ties := 0.0
	for i := 0; i < len(all); {
		j := i
		for j < len(all) && all[j].v == all[i].v {
			j++
		}
		rank := float64(i+j+1) / 2
		for m := i; m < j; m++ {
			rankSums[all[m].group] += rank
		}
		t := float64(j - i)
		ties += t*t*t - t
		i = j
	}
	correction := 1 - ties/(n*n*n-n)
	if correction == 0 {
		return TestResult{}, errors.New("kruskal: all values are identical")
	}

	h := 0.0
	meanRanks := make([]float64, k)
	for i, g := range groups {
		h += rankSums[i] * rankSums[i] / float64(len(g))
		meanRanks[i] = rankSums[i] / float64(len(g))
	}
	h = (12/(n*(n+1))*h - 3*(n+1)) / correction
	df := float64(k - 1)
	lo, hi := MinMax(meanRanks)
	return TestResult{
		Test:      "kruskal-wallis",
		Statistic: h,
		PValue:    distuv.ChiSquared{K: df}.Survival(h),
		DF:        df,
		Effect:    hi - lo,
	}, nil
}

// PearsonTest tests for linear correlation between x and y. The effect is r.
func PearsonTest(x, y []float64) (TestResult, error) {
	if len(x) != len(y) {
		return TestResult{}, fmt.Errorf("pearson: length mismatch %d != %d", len(x), len(y))
	}
	if len(x) < 3 {
		return TestResult{}, fmt.Errorf("pearson: %w", ErrTooFewObservations)
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return TestResult{}, errors.New("pearson: constant input")
	}
	df := float64(len(x) - 2)
	res := TestResult{Test: "pearson", Statistic: r, DF: df, Effect: r}
	if math.Abs(r) >= 1 {
		return res, nil
	}
	t := r * math.Sqrt(df/(1-r*r))
	res.PValue = 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
	return res, nil
}
