package model

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// rcond is the relative singular value cutoff when solving least squares.
const rcond = 1e-10

// LinearRegression is ordinary least squares solved through an SVD of the
// centered design matrix, giving the minimum-norm solution when features
// are collinear.
type LinearRegression struct {
	Coef      []float64
	Intercept float64
}

func NewLinearRegression() *LinearRegression { return &LinearRegression{} }

func (m *LinearRegression) Name() string { return KindLinear }

func (m *LinearRegression) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("linear: empty X")
	}
	n, p := len(X), len(X[0])
	if len(y) != n {
		return errors.New("linear: X and y length mismatch")
	}

	means := make([]float64, p)
	for i, row := range X {
		if len(row) != p {
			return fmt.Errorf("linear: row %d has %d features, want %d", i, len(row), p)
		}
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}
	yMean := 0.0
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(n)

	a := mat.NewDense(n, p, nil)
	b := mat.NewVecDense(n, nil)
	for i, row := range X {
		for j, v := range row {
			a.Set(i, j, v-means[j])
		}
		b.SetVec(i, y[i]-yMean)
	}

	m.Coef = make([]float64, p)
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return errors.New("linear: SVD factorization failed")
	}
	if rank := svd.Rank(rcond); rank > 0 {
		var w mat.VecDense
		svd.SolveVecTo(&w, b, rank)
		for j := range m.Coef {
			m.Coef[j] = w.AtVec(j)
		}
	}

	m.Intercept = yMean
	for j, c := range m.Coef {
		m.Intercept -= c * means[j]
	}
	return nil
}

// Predict returns predictions for rows in X, split across CPU cores.
func (m *LinearRegression) Predict(X [][]float64) []float64 {
	if len(X) == 0 {
		return nil
	}
	pred := make([]float64, len(X))
	var wg sync.WaitGroup

	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (len(X) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		s := w * rowsPerWorker
		e := min(s+rowsPerWorker, len(X))
		if s >= e {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				sum := m.Intercept
				for j, v := range X[i] {
					sum += m.Coef[j] * v
				}
				pred[i] = sum
			}
		}(s, e)
	}
	wg.Wait()
	return pred
}
