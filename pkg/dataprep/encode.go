package dataprep

import (
	"errors"
	"fmt"
	"sort"
)

var ErrNotFitted = errors.New("dataprep: encoder not fitted")

// OneHotEncoder expands categorical columns into indicator columns.
// Categories are kept sorted; with DropFirst the first category of each
// column is the all-zero baseline. Unseen values encode as all zeros.
type OneHotEncoder struct {
	Columns    []string
	Categories [][]string
	DropFirst  bool
}

func NewOneHotEncoder(dropFirst bool) *OneHotEncoder {
	return &OneHotEncoder{DropFirst: dropFirst}
}

// Fit learns the categories of each column. rows[i][j] is the value of
// columns[j] in row i.
func (e *OneHotEncoder) Fit(columns []string, rows [][]string) error {
	if len(columns) == 0 {
		return errors.New("dataprep: no columns to encode")
	}
	seen := make([]map[string]struct{}, len(columns))
	for j := range columns {
		seen[j] = map[string]struct{}{}
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("dataprep: row %d has %d values, want %d", i, len(row), len(columns))
		}
		for j, v := range row {
			seen[j][v] = struct{}{}
		}
	}
	e.Columns = append([]string(nil), columns...)
	e.Categories = make([][]string, len(columns))
	for j := range columns {
		cats := make([]string, 0, len(seen[j]))
		for v := range seen[j] {
			cats = append(cats, v)
		}
		sort.Strings(cats)
		e.Categories[j] = cats
	}
	return nil
}

func (e *OneHotEncoder) fitted() bool { return len(e.Columns) > 0 }

// FeatureNames returns the output column names as <Column>_<Category>.
func (e *OneHotEncoder) FeatureNames() []string {
	var names []string
	for j, col := range e.Columns {
		for _, cat := range e.kept(j) {
			names = append(names, col+"_"+cat)
		}
	}
	return names
}

func (e *OneHotEncoder) kept(j int) []string {
	if e.DropFirst && len(e.Categories[j]) > 0 {
		return e.Categories[j][1:]
	}
	return e.Categories[j]
}

// TransformRow encodes one row whose values follow e.Columns.
func (e *OneHotEncoder) TransformRow(row []string) ([]float64, error) {
	if !e.fitted() {
		return nil, ErrNotFitted
	}
	if len(row) != len(e.Columns) {
		return nil, fmt.Errorf("dataprep: got %d values, want %d", len(row), len(e.Columns))
	}
	var out []float64
	for j, v := range row {
		for _, cat := range e.kept(j) {
			if v == cat {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		}
	}
	return out, nil
}

// Transform encodes every row.
func (e *OneHotEncoder) Transform(rows [][]string) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		enc, err := e.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = enc
	}
	return out, nil
}

func (e *OneHotEncoder) FitTransform(columns []string, rows [][]string) ([][]float64, error) {
	if err := e.Fit(columns, rows); err != nil {
		return nil, err
	}
	return e.Transform(rows)
}
