package model

import (
	"runtime"
	"sync"
)

// GradientBoosting fits an additive ensemble of regression trees to the
// residuals of squared loss.
type GradientBoosting struct {
	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int

	Init      float64
	Trees     []*RegressionTree
	TrainLoss []float64 // MSE after each stage
}

// BoostingOption functional config for GradientBoosting
type BoostingOption func(*GradientBoosting)

func WithNEstimators(n int) BoostingOption { return func(g *GradientBoosting) { g.NEstimators = n } }
func WithLearningRate(lr float64) BoostingOption {
	return func(g *GradientBoosting) { g.LearningRate = lr }
}
func WithTreeDepth(d int) BoostingOption { return func(g *GradientBoosting) { g.MaxDepth = d } }

func NewGradientBoosting(opts ...BoostingOption) *GradientBoosting {
	g := &GradientBoosting{
		NEstimators:     100,
		LearningRate:    0.1,
		MaxDepth:        6,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *GradientBoosting) Name() string { return KindBoosting }

func (g *GradientBoosting) Fit(X [][]float64, y []float64) error {
	if err := checkXY("boosting", X, y); err != nil {
		return err
	}
	n := len(X)
	sorted := presort(X)

	g.Init = 0
	for _, v := range y {
		g.Init += v
	}
	g.Init /= float64(n)

	F := make([]float64, n)
	for i := range F {
		F[i] = g.Init
	}
	residual := make([]float64, n)
	g.Trees = make([]*RegressionTree, 0, g.NEstimators)
	g.TrainLoss = make([]float64, 0, g.NEstimators)

	for m := 0; m < g.NEstimators; m++ {
		for i := range residual {
			residual[i] = y[i] - F[i]
		}
		tree := NewRegressionTree(
			WithMaxDepth(g.MaxDepth),
			WithMinSamplesSplit(g.MinSamplesSplit),
			WithMinSamplesLeaf(g.MinSamplesLeaf),
		)
		if err := tree.fitSorted(X, residual, sorted); err != nil {
			return err
		}
		loss := 0.0
		for i, x := range X {
			F[i] += g.LearningRate * tree.predictOne(x)
			d := y[i] - F[i]
			loss += d * d
		}
		g.Trees = append(g.Trees, tree)
		g.TrainLoss = append(g.TrainLoss, loss/float64(n))
	}
	return nil
}

// Predict sums the shrunken tree outputs, split across CPU cores.
func (g *GradientBoosting) Predict(X [][]float64) []float64 {
	if len(X) == 0 {
		return nil
	}
	pred := make([]float64, len(X))
	var wg sync.WaitGroup
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		s := w * rowsPerWorker
		e := min(s+rowsPerWorker, len(X))
		if s >= e {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				v := g.Init
				for _, t := range g.Trees {
					v += g.LearningRate * t.predictOne(X[i])
				}
				pred[i] = v
			}
		}(s, e)
	}
	wg.Wait()
	return pred
}
