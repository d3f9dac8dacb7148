package model

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

func MSE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	if n == 0 {
		return 0
	}
	s := 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return s / n
}

func MAE(yTrue, yPred []float64) float64 {
	n := float64(len(yTrue))
	if n == 0 {
		return 0
	}
	s := 0.0
	for i := range yTrue {
		s += math.Abs(yPred[i] - yTrue[i])
	}
	return s / n
}

func RMSE(yTrue, yPred []float64) float64 { return math.Sqrt(MSE(yTrue, yPred)) }

// R2 is the coefficient of determination.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	r2 := stat.RSquaredFrom(yPred, yTrue, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 0
	}
	return r2
}

// Evaluation is one model's scores on a held-out set.
type Evaluation struct {
	RunID     string
	Model     string
	MAE       float64
	MSE       float64
	RMSE      float64
	R2        float64
	N         int
	CreatedAt time.Time
}

// Evaluate scores predictions against the truth.
func Evaluate(runID, name string, yTrue, yPred []float64) Evaluation {
	return Evaluation{
		RunID:     runID,
		Model:     name,
		MAE:       MAE(yTrue, yPred),
		MSE:       MSE(yTrue, yPred),
		RMSE:      RMSE(yTrue, yPred),
		R2:        R2(yTrue, yPred),
		N:         len(yTrue),
		CreatedAt: time.Now().UTC(),
	}
}

// Residuals returns yTrue - yPred with its mean and standard deviation.
func Residuals(yTrue, yPred []float64) (res []float64, mean, std float64) {
	res = make([]float64, len(yTrue))
	for i := range yTrue {
		res[i] = yTrue[i] - yPred[i]
	}
	switch len(res) {
	case 0:
		return res, 0, 0
	case 1:
		return res, res[0], 0
	}
	mean, variance := stat.MeanVariance(res, nil)
	return res, mean, math.Sqrt(variance)
}
