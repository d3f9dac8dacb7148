// Package inference turns a raw sales record into the feature row the
// trained model expects and returns a sales prediction.
package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"salesforecast/pkg/artifact"
	"salesforecast/pkg/data"
	"salesforecast/pkg/dataprep"
)

var ErrMissingDate = errors.New("missing required field: Date")

// Predictor is immutable after construction and safe for concurrent use.
type Predictor struct {
	bundle    *artifact.Bundle
	index     map[string]int
	encoded   map[string]bool
	encodeIdx []int // feature_order position of each encoder output
}

func NewPredictor(b *artifact.Bundle) (*Predictor, error) {
	if b == nil || b.Model == nil || b.Encoder == nil || b.Scaler == nil {
		return nil, errors.New("inference: incomplete artifact bundle")
	}
	if len(b.FeatureOrder) == 0 {
		return nil, errors.New("inference: empty feature order")
	}
	p := &Predictor{
		bundle:  b,
		index:   make(map[string]int, len(b.FeatureOrder)),
		encoded: map[string]bool{},
	}
	for i, name := range b.FeatureOrder {
		p.index[name] = i
	}
	for _, name := range b.Encoder.FeatureNames() {
		p.encoded[name] = true
		pos, ok := p.index[name]
		if !ok {
			pos = -1
		}
		p.encodeIdx = append(p.encodeIdx, pos)
	}
	return p, nil
}

// RunID identifies the training run the artifacts came from, if known.
func (p *Predictor) RunID() string { return p.bundle.Manifest.RunID }

// ModelName is the kind of the loaded regressor.
func (p *Predictor) ModelName() string { return p.bundle.Model.Name() }

// Align builds the scaled feature row for one record.
func (p *Predictor) Align(record map[string]any) ([]float64, error) {
	row := make([]float64, len(p.bundle.FeatureOrder))

	// numeric fields the request carries; absent ones stay 0
	for name, i := range p.index {
		if p.encoded[name] {
			continue
		}
		raw, ok := record[name]
		if !ok {
			continue
		}
		v, err := toFloat(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		row[i] = v
	}

	rawDate, ok := record[data.ColDate]
	if !ok || rawDate == nil {
		return nil, ErrMissingDate
	}
	date, err := data.ParseDate(fmt.Sprint(rawDate))
	if err != nil {
		return nil, err
	}
	for name, v := range dataprep.CalendarFeatures(date).Map() {
		if i, ok := p.index[name]; ok {
			row[i] = v
		}
	}

	enc := p.bundle.Encoder
	cats := make([]string, len(enc.Columns))
	for j, col := range enc.Columns {
		cats[j] = categorical(record[col])
	}
	encoded, err := enc.TransformRow(cats)
	if err != nil {
		return nil, err
	}
	for k, v := range encoded {
		if pos := p.encodeIdx[k]; pos >= 0 {
			row[pos] = v
		}
	}

	if err := p.bundle.Scaler.TransformNamed(p.bundle.FeatureOrder, row); err != nil {
		return nil, err
	}
	return row, nil
}

// Predict returns the sales prediction for one record, rounded to cents.
func (p *Predictor) Predict(record map[string]any) (float64, error) {
	row, err := p.Align(record)
	if err != nil {
		return 0, err
	}
	out := p.bundle.Model.Predict([][]float64{row})
	if len(out) != 1 {
		return 0, fmt.Errorf("model %s returned %d values", p.ModelName(), len(out))
	}
	sales := Round2(math.Expm1(out[0]))
	if math.IsNaN(sales) || math.IsInf(sales, 0) {
		return 0, fmt.Errorf("model %s produced a non-finite prediction from output %v", p.ModelName(), out[0])
	}
	return sales, nil
}

// Round2 rounds to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func categorical(v any) string {
	switch x := v.(type) {
	case nil:
		return dataprep.Unknown
	case string:
		if strings.TrimSpace(x) == "" {
			return dataprep.Unknown
		}
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

func toFloat(v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, errors.New("value is null")
	case float64:
		f = x
	case int:
		f = float64(x)
	case bool:
		if x {
			f = 1
		}
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("could not convert string to float: '%s'", x)
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("could not convert string to float: '%s'", x)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("input contains NaN or infinity")
	}
	return f, nil
}
