package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/op/go-logging"

	"salesforecast/pkg/data"
	"salesforecast/pkg/dataprep"
	"salesforecast/pkg/stats"
)

var log = logging.MustGetLogger("log")

// Frame is the state handed from step to step: the cleaned table, the
// feature matrix built from it and the fitted transformers.
type Frame struct {
	Table   *data.Table
	Lags    dataprep.LagFeatures
	Schema  Schema
	X       [][]float64
	Y       []float64
	Encoder *dataprep.OneHotEncoder
	Scaler  *stats.MinMaxScaler
}

// Step is one stage of feature preparation.
type Step interface {
	Name() string
	Apply(f *Frame) error
}

// Pipeline chains multiple steps.
type Pipeline struct {
	steps []Step
}

func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// DefaultPipeline is the training-time feature preparation.
func DefaultPipeline() *Pipeline {
	return NewPipeline(CleanStep{}, SortStep{}, LagStep{}, EncodeStep{}, AssembleStep{}, ScaleStep{}, TargetStep{})
}

// Run applies every step in order to a frame built from table.
func (p *Pipeline) Run(table *data.Table) (*Frame, error) {
	if table == nil || table.Len() == 0 {
		return nil, errors.New("pipeline: empty table")
	}
	f := &Frame{Table: table}
	for _, step := range p.steps {
		if err := step.Apply(f); err != nil {
			return nil, fmt.Errorf("pipeline: %s: %w", step.Name(), err)
		}
		log.Debugf("pipeline step %s done (%d rows)", step.Name(), f.Table.Len())
	}
	return f, nil
}

// CleanStep imputes gaps and drops duplicate rows.
type CleanStep struct{}

func (CleanStep) Name() string { return "clean" }

func (CleanStep) Apply(f *Frame) error {
	f.Table = dataprep.Clean(f.Table)
	return nil
}

// SortStep orders rows by date so the split is chronological.
type SortStep struct{}

func (SortStep) Name() string { return "sort" }

func (SortStep) Apply(f *Frame) error {
	for i, r := range f.Table.Records {
		if r.Date.IsZero() {
			return fmt.Errorf("row %d: %w", i, data.ErrBadDate)
		}
	}
	f.Table.SortByDate()
	return nil
}

// LagStep computes per-store sales history features.
type LagStep struct{}

func (LagStep) Name() string { return "lags" }

func (LagStep) Apply(f *Frame) error {
	f.Lags = dataprep.ComputeLags(f.Table)
	return nil
}

// EncodeStep fits the one-hot encoder on the categorical columns.
type EncodeStep struct{}

func (EncodeStep) Name() string { return "encode" }

func (EncodeStep) Apply(f *Frame) error {
	rows := make([][]string, f.Table.Len())
	for i, r := range f.Table.Records {
		row := make([]string, len(EncodedColumns))
		for j, c := range EncodedColumns {
			v, err := r.String(c)
			if err != nil {
				return err
			}
			row[j] = v
		}
		rows[i] = row
	}
	f.Encoder = dataprep.NewOneHotEncoder(true)
	if err := f.Encoder.Fit(EncodedColumns, rows); err != nil {
		return err
	}
	f.Schema = NewSchema(f.Encoder)
	f.X = make([][]float64, len(rows))
	for i := range rows {
		enc, err := f.Encoder.TransformRow(rows[i])
		if err != nil {
			return err
		}
		// encoded columns sit at the tail of the feature row
		f.X[i] = make([]float64, len(f.Schema.FeatureNames))
		copy(f.X[i][len(f.X[i])-len(enc):], enc)
	}
	return nil
}

// AssembleStep fills the passthrough, calendar and lag columns.
type AssembleStep struct{}

func (AssembleStep) Name() string { return "assemble" }

func (AssembleStep) Apply(f *Frame) error {
	if f.X == nil {
		return errors.New("features not encoded")
	}
	idx := f.Schema.Index()
	for i, r := range f.Table.Records {
		row := f.X[i]
		for _, c := range PassthroughFeatures {
			v, err := r.Float(c)
			if err != nil {
				return err
			}
			row[idx[c]] = v
		}
		for name, v := range dataprep.CalendarFeatures(r.Date).Map() {
			row[idx[name]] = v
		}
		row[idx[dataprep.FeatSalesLag7]] = f.Lags.Lag7[i]
		row[idx[dataprep.FeatSalesMovingAvg7]] = f.Lags.MovingAvg7[i]
		row[idx[dataprep.FeatSalesLag30]] = f.Lags.Lag30[i]
	}
	return nil
}

// ScaleStep fits the min-max scaler on ScaledColumns and applies it.
type ScaleStep struct{}

func (ScaleStep) Name() string { return "scale" }

func (ScaleStep) Apply(f *Frame) error {
	idx := f.Schema.Index()
	cols := make([][]float64, len(f.X))
	for i, row := range f.X {
		cols[i] = make([]float64, len(ScaledColumns))
		for j, c := range ScaledColumns {
			cols[i][j] = row[idx[c]]
		}
	}
	f.Scaler = stats.NewMinMaxScaler()
	if err := f.Scaler.Fit(ScaledColumns, cols); err != nil {
		return err
	}
	for _, row := range f.X {
		if err := f.Scaler.TransformNamed(f.Schema.FeatureNames, row); err != nil {
			return err
		}
	}
	return nil
}

// TargetStep sets the target to log1p(Sales).
type TargetStep struct{}

func (TargetStep) Name() string { return "target" }

func (TargetStep) Apply(f *Frame) error {
	sales, err := f.Table.Column(data.ColSales)
	if err != nil {
		return err
	}
	for i, v := range sales {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("row %d: sales %v cannot be log-transformed", i, v)
		}
	}
	f.Y = dataprep.LogTransform(sales)
	return nil
}
