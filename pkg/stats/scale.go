package stats

import (
	"errors"
	"fmt"
)

var ErrScalerNotFitted = errors.New("stats: scaler not fitted")

// MinMaxScaler scales named columns to [0, 1] using the range seen at fit
// time. Columns it was not fitted on pass through untouched.
type MinMaxScaler struct {
	Columns []string
	Min     []float64
	Max     []float64
}

func NewMinMaxScaler() *MinMaxScaler { return &MinMaxScaler{} }

// Fit learns the range of each column. X[i][j] is the value of columns[j].
func (s *MinMaxScaler) Fit(columns []string, X [][]float64) error {
	if len(X) == 0 {
		return errors.New("stats: empty X")
	}
	c := len(columns)
	s.Columns = append([]string(nil), columns...)
	s.Min = make([]float64, c)
	s.Max = make([]float64, c)
	for j := range c {
		col := make([]float64, len(X))
		for i, row := range X {
			if len(row) != c {
				return fmt.Errorf("stats: row %d has %d values, want %d", i, len(row), c)
			}
			col[i] = row[j]
		}
		s.Min[j], s.Max[j] = MinMax(col)
	}
	return nil
}

func (s *MinMaxScaler) scale(j int, v float64) float64 {
	span := s.Max[j] - s.Min[j]
	if span == 0 {
		span = 1
	}
	return (v - s.Min[j]) / span
}

// TransformNamed scales, in place, the entries of row whose name in names
// is one of the fitted columns.
func (s *MinMaxScaler) TransformNamed(names []string, row []float64) error {
	if len(s.Columns) == 0 {
		return ErrScalerNotFitted
	}
	if len(names) != len(row) {
		return fmt.Errorf("stats: %d names for %d values", len(names), len(row))
	}
	index := make(map[string]int, len(s.Columns))
	for j, c := range s.Columns {
		index[c] = j
	}
	for i, name := range names {
		if j, ok := index[name]; ok {
			row[i] = s.scale(j, row[i])
		}
	}
	return nil
}

// Transform scales rows laid out in fitted column order.
func (s *MinMaxScaler) Transform(X [][]float64) ([][]float64, error) {
	if len(s.Columns) == 0 {
		return nil, ErrScalerNotFitted
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Columns) {
			return nil, fmt.Errorf("stats: row %d has %d values, want %d", i, len(row), len(s.Columns))
		}
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = s.scale(j, v)
		}
	}
	return out, nil
}
