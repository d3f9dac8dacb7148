package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonalDecompositionForecastsTrendPlusSeason(t *testing.T) {
	pattern := []float64{10, -5, 0, 3, -8, 0, 0}
	start := time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)
	var dates []time.Time
	var y []float64
	for i := 0; i < 70; i++ {
		dates = append(dates, start.AddDate(0, 0, i))
		y = append(y, 100+0.5*float64(i)+pattern[i%7])
	}

	s := NewSeasonalDecomposition(7, 14)
	require.NoError(t, s.Fit(dates, y))
	assert.InDelta(t, 0.5, s.Slope, 1e-9)
	assert.InDelta(t, 100.0, s.Intercept, 1e-9)
	assert.InDeltaSlice(t, pattern, s.Seasonal, 1e-9)

	fc := s.Forecast(s.Horizon)
	require.Len(t, fc, 14)
	for h, v := range fc {
		i := 70 + h
		assert.InDelta(t, 100+0.5*float64(i)+pattern[i%7], v, 1e-9)
	}
	fd := s.ForecastDates(2)
	assert.Equal(t, start.AddDate(0, 0, 70), fd[0])
	assert.Equal(t, "decomposition", s.Name())
}

func TestSeasonalDecompositionNeedsTwoPeriods(t *testing.T) {
	s := NewSeasonalDecomposition(7, 1)
	dates := make([]time.Time, 10)
	assert.Error(t, s.Fit(dates, make([]float64, 10)))
	assert.Error(t, NewSeasonalDecomposition(1, 1).Fit(dates, make([]float64, 10)))
	assert.Nil(t, s.Forecast(3))
}

func TestMetrics(t *testing.T) {
	yTrue := []float64{1, 2, 3, 4}
	yPred := []float64{1, 2, 3, 6}
	assert.Equal(t, 0.5, MAE(yTrue, yPred))
	assert.Equal(t, 1.0, MSE(yTrue, yPred))
	assert.Equal(t, 1.0, RMSE(yTrue, yPred))
	assert.InDelta(t, 0.2, R2(yTrue, yPred), 1e-12)

	ev := Evaluate("run-1", KindLinear, yTrue, yPred)
	assert.Equal(t, 4, ev.N)
	assert.Equal(t, "run-1", ev.RunID)
	assert.Equal(t, 1.0, ev.RMSE)

	_, mean, std := Residuals(yTrue, yPred)
	assert.Equal(t, -0.5, mean)
	assert.InDelta(t, 1.0, std, 1e-12)
}
