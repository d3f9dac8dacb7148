package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSGDStep(t *testing.T) {
	w := []float64{1, 2}
	NewSGD(0.5).Step(0, w, []float64{2, -2})
	assert.Equal(t, []float64{0, 3}, w)
}

func TestAdamFirstStepMovesByLearningRate(t *testing.T) {
	w := []float64{1, 1}
	NewAdam(0.1).Step(0, w, []float64{4, -0.001})
	assert.InDelta(t, 0.9, w[0], 1e-6)
	assert.InDelta(t, 1.1, w[1], 1e-3)
}

func TestAdamMinimizesQuadratic(t *testing.T) {
	var opt Optimizer = NewAdam(0.05)
	w := []float64{5}
	for range 2000 {
		opt.Step(0, w, []float64{2 * (w[0] - 2)})
	}
	assert.InDelta(t, 2.0, w[0], 1e-2)
}
