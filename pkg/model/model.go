package model

import (
	"encoding/gob"
	"fmt"
	"time"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("log")

// Regressor is a supervised model predicting a continuous target from
// feature rows.
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) []float64
	Name() string
}

// Forecaster models a single time series and extrapolates it.
type Forecaster interface {
	Fit(dates []time.Time, y []float64) error
	Forecast(horizon int) []float64
	Name() string
}

// Model kinds that can be persisted and served.
const (
	KindLinear   = "linear"
	KindBoosting = "boosting"
	KindLSTM     = "lstm"
)

func init() {
	gob.Register(&LinearRegression{})
	gob.Register(&GradientBoosting{})
	gob.Register(&LSTM{})
}

// New returns an unfitted regressor of the given kind with default
// hyperparameters.
func New(kind string) (Regressor, error) {
	switch kind {
	case KindLinear:
		return NewLinearRegression(), nil
	case KindBoosting:
		return NewGradientBoosting(), nil
	case KindLSTM:
		return NewLSTM(), nil
	}
	return nil, fmt.Errorf("model: unknown kind %q", kind)
}
