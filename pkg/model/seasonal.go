package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	arimastats "github.com/sartorproj/goarima/stats"
	"github.com/sartorproj/goarima/timeseries"
	"gonum.org/v1/gonum/stat"
)

// SeasonalDecomposition forecasts a series as an extrapolated linear trend
// plus the repeating seasonal profile of a classical additive
// decomposition.
type SeasonalDecomposition struct {
	Period  int
	Horizon int

	Seasonal  []float64 // one cycle, aligned with the first fitted point
	Intercept float64
	Slope     float64
	N         int
	Last      time.Time

	// Ljung-Box test on the decomposition residuals.
	ResidualQ      float64
	ResidualPValue float64
}

func NewSeasonalDecomposition(period, horizon int) *SeasonalDecomposition {
	return &SeasonalDecomposition{Period: period, Horizon: horizon}
}

func (s *SeasonalDecomposition) Name() string { return "decomposition" }

// Fit decomposes y (one value per date, in date order).
func (s *SeasonalDecomposition) Fit(dates []time.Time, y []float64) error {
	if s.Period < 2 {
		return fmt.Errorf("decomposition: period %d < 2", s.Period)
	}
	series, err := timeseries.NewWithTimestamps(dates, y)
	if err != nil {
		return fmt.Errorf("decomposition: %w", err)
	}
	series.Name = "sales"
	res := arimastats.Decompose(series, s.Period, "additive")
	if res == nil {
		return fmt.Errorf("decomposition: need at least %d points, got %d", 2*s.Period, len(y))
	}

	var xs, ts []float64
	for i, v := range res.Trend.Values {
		if !math.IsNaN(v) {
			xs = append(xs, float64(i))
			ts = append(ts, v)
		}
	}
	if len(xs) < 2 {
		return errors.New("decomposition: trend has fewer than 2 points")
	}
	s.Intercept, s.Slope = stat.LinearRegression(xs, ts, nil, false)
	s.Seasonal = append([]float64(nil), res.Seasonal.Values[:s.Period]...)
	s.N = len(y)
	s.Last = dates[len(dates)-1]

	var resid []float64
	for _, v := range res.Residual.Values {
		if !math.IsNaN(v) {
			resid = append(resid, v)
		}
	}
	if lb := arimastats.LjungBox(timeseries.New(resid), s.Period, 0); lb != nil {
		s.ResidualQ, s.ResidualPValue = lb.Statistic, lb.PValue
	}
	return nil
}

// At returns the trend plus seasonal value at in-sample position i;
// positions past the fitted range extrapolate.
func (s *SeasonalDecomposition) At(i int) float64 {
	return s.Intercept + s.Slope*float64(i) + s.Seasonal[i%s.Period]
}

// Forecast returns the next horizon values after the fitted range.
func (s *SeasonalDecomposition) Forecast(horizon int) []float64 {
	if len(s.Seasonal) == 0 {
		return nil
	}
	out := make([]float64, horizon)
	for h := range out {
		out[h] = s.At(s.N + h)
	}
	return out
}

// ForecastDates returns the dates matching Forecast(horizon), one day apart.
func (s *SeasonalDecomposition) ForecastDates(horizon int) []time.Time {
	out := make([]time.Time, horizon)
	for h := range out {
		out[h] = s.Last.AddDate(0, 0, h+1)
	}
	return out
}
