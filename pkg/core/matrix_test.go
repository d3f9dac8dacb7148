package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSliceAndSet(t *testing.T) {
	m := FromSlice([][]float64{{1, 2, 3}, {4, 5, 6}})
	assert.Equal(t, 2, m.R)
	assert.Equal(t, 3, m.C)
	assert.Equal(t, 6.0, m.At(1, 2))

	m.Set(0, 1, 9)
	assert.Equal(t, []float64{1, 9, 3}, m.Row(0))

	c := m.Clone()
	c.Zero()
	assert.Equal(t, 9.0, m.At(0, 1))
}

func TestVectorProducts(t *testing.T) {
	m := FromSlice([][]float64{{1, 2}, {3, 4}, {5, 6}})

	y := []float64{1, 1, 1}
	require.NoError(t, m.MulVecAdd(y, []float64{1, -1}))
	assert.Equal(t, []float64{0, 0, 0}, y)

	z := make([]float64, 2)
	require.NoError(t, m.MulTVecAdd(z, []float64{1, 0, 1}))
	assert.Equal(t, []float64{6, 8}, z)

	require.NoError(t, m.AddOuter([]float64{1, 0, 2}, []float64{1, 1}))
	assert.Equal(t, []float64{2, 3, 3, 4, 7, 8}, m.Data)

	assert.ErrorIs(t, m.MulVecAdd(y, []float64{1}), ErrDimension)
}

func TestMatMulTranspose(t *testing.T) {
	a := FromSlice([][]float64{{1, 2}, {3, 4}})
	p, err := MatMul(a, a.Transpose())
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 11, 11, 25}, p.Data)

	_, err = MatMul(a, NewMatrix(3, 1))
	assert.ErrorIs(t, err, ErrDimension)

	a.Apply(func(v float64) float64 { return v * 2 })
	assert.Equal(t, []float64{2, 4, 6, 8}, a.Data)
}
