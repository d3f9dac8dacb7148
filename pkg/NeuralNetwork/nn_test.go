package NeuralNetwork

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivations(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.Equal(t, 0.25, SigmoidPrime(0))
	assert.Equal(t, 0.0, ReLU(-3))
	assert.Equal(t, 2.0, ReLU(2))
	assert.Equal(t, 0.0, ReLUPrime(-1))
	assert.Equal(t, 1.0, TanhPrime(0))

	a, ok := Lookup("relu")
	assert.True(t, ok)
	assert.Equal(t, 4.0, a.F(4))
	_, ok = Lookup("softmax")
	assert.False(t, ok)
}

func TestMSE(t *testing.T) {
	loss, grad := MSE([]float64{1, 2}, []float64{2, 2})
	assert.Equal(t, 0.5, loss)
	assert.Equal(t, []float64{1, 0}, grad)
}
