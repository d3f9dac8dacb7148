package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatcherEmitsRemainder(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}, {5}}
	y := []float64{10, 20, 30, 40, 50}

	samples := make(chan Sample)
	batches := make(chan Batch)
	StreamSamples(X, y, []int{4, 3, 2, 1, 0}, samples)
	Batcher(samples, 2, batches)

	var sizes []int
	var order []float64
	for b := range batches {
		sizes = append(sizes, len(b.Y))
		order = append(order, b.Y...)
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Equal(t, []float64{50, 40, 30, 20, 10}, order)
}

func TestStreamSamplesDefaultOrder(t *testing.T) {
	samples := make(chan Sample, 3)
	StreamSamples([][]float64{{1}, {2}, {3}}, []float64{1, 2, 3}, nil, samples)

	var got []float64
	for s := range samples {
		got = append(got, s.Y)
	}
	assert.Equal(t, []float64{1, 2, 3}, got)
}
