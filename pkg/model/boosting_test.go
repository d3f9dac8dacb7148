package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegressionTreeStepFunction(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 10; i++ {
		X = append(X, []float64{float64(i), 0})
		if i < 5 {
			y = append(y, 1)
		} else {
			y = append(y, 3)
		}
	}
	tree := NewRegressionTree(WithMaxDepth(3))
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, 1, tree.Depth())
	assert.Equal(t, 0, tree.Nodes[0].Feature)
	assert.Equal(t, 4.5, tree.Nodes[0].Threshold)
	assert.Equal(t, []float64{1, 3}, tree.Predict([][]float64{{2, 9}, {7, -1}}))

	// missing values follow the larger child; both have 5 samples so left wins
	assert.Equal(t, []float64{1}, tree.Predict([][]float64{{math.NaN(), 0}}))
}

func TestRegressionTreeRespectsLimits(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 64; i++ {
		X = append(X, []float64{float64(i)})
		y = append(y, float64(i*i))
	}
	tree := NewRegressionTree(WithMaxDepth(2))
	require.NoError(t, tree.Fit(X, y))
	assert.Equal(t, 2, tree.Depth())

	leafy := NewRegressionTree(WithMinSamplesLeaf(40))
	require.NoError(t, leafy.Fit(X, y))
	assert.Len(t, leafy.Nodes, 1)
	assert.InDelta(t, 1333.5, leafy.Nodes[0].Value, 1e-9)

	assert.Error(t, NewRegressionTree().Fit(nil, nil))
}

func TestGradientBoostingFitsNonlinearTarget(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 200; i++ {
		a := float64(i%20) / 2
		b := float64(i / 20)
		X = append(X, []float64{a, b})
		y = append(y, math.Sin(a)+0.1*b*b)
	}
	g := NewGradientBoosting(WithNEstimators(50), WithLearningRate(0.2), WithTreeDepth(4))
	require.NoError(t, g.Fit(X, y))
	require.Len(t, g.Trees, 50)
	require.Len(t, g.TrainLoss, 50)

	for i := 1; i < len(g.TrainLoss); i++ {
		assert.LessOrEqual(t, g.TrainLoss[i], g.TrainLoss[i-1]+1e-12)
	}
	pred := g.Predict(X)
	assert.Less(t, MSE(y, pred), 0.05)
	assert.Greater(t, R2(y, pred), 0.95)

	again := NewGradientBoosting(WithNEstimators(50), WithLearningRate(0.2), WithTreeDepth(4))
	require.NoError(t, again.Fit(X, y))
	assert.Equal(t, pred, again.Predict(X))
}

func TestGradientBoostingZeroStagesPredictsMean(t *testing.T) {
	g := NewGradientBoosting(WithNEstimators(0))
	require.NoError(t, g.Fit([][]float64{{1}, {2}, {3}}, []float64{1, 2, 6}))
	assert.Equal(t, []float64{3, 3}, g.Predict([][]float64{{0}, {10}}))
}
