package model

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearRegressionRecoversCoefficients(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		x1, x2 := float64(i), float64(i*i%7)
		X = append(X, []float64{x1, x2})
		y = append(y, 3+2*x1-x2)
	}
	m := NewLinearRegression()
	require.NoError(t, m.Fit(X, y))
	assert.InDelta(t, 2.0, m.Coef[0], 1e-9)
	assert.InDelta(t, -1.0, m.Coef[1], 1e-9)
	assert.InDelta(t, 3.0, m.Intercept, 1e-9)
	assert.InDeltaSlice(t, y, m.Predict(X), 1e-8)
}

func TestLinearRegressionCollinearFeatures(t *testing.T) {
	var X [][]float64
	var y []float64
	for i := 0; i < 10; i++ {
		x := float64(i)
		// duplicated column and a constant column
		X = append(X, []float64{x, x, 1})
		y = append(y, 1+4*x)
	}
	m := NewLinearRegression()
	require.NoError(t, m.Fit(X, y))
	assert.InDelta(t, m.Coef[0], m.Coef[1], 1e-9)
	assert.InDelta(t, 0.0, m.Coef[2], 1e-9)
	assert.InDeltaSlice(t, y, m.Predict(X), 1e-8)
}

func TestLinearRegressionErrors(t *testing.T) {
	m := NewLinearRegression()
	assert.Error(t, m.Fit(nil, nil))
	assert.Error(t, m.Fit([][]float64{{1}}, []float64{1, 2}))
	assert.Error(t, m.Fit([][]float64{{1}, {1, 2}}, []float64{1, 2}))
}

func TestRegressorGobRoundTrip(t *testing.T) {
	var in Regressor = &LinearRegression{Coef: []float64{1.5, -2}, Intercept: 0.25}
	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(&in))

	var out Regressor
	require.NoError(t, gob.NewDecoder(&buf).Decode(&out))
	assert.Equal(t, KindLinear, out.Name())
	assert.Equal(t, []float64{1.75}, out.Predict([][]float64{{1, 0}}))
}

func TestNew(t *testing.T) {
	for _, kind := range []string{KindLinear, KindBoosting, KindLSTM} {
		m, err := New(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, m.Name())
	}
	_, err := New("svm")
	assert.Error(t, err)
}
