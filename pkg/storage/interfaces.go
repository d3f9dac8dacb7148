// Package storage persists model evaluations.
package storage

import (
	"context"

	"github.com/op/go-logging"

	"salesforecast/pkg/model"
)

// MetricsWriter is the interface any evaluation sink must satisfy.
type MetricsWriter interface {
	Write(ctx context.Context, evals []model.Evaluation) error
	Close() error
}

// MultiWriter fans evaluations out to several writers.
type MultiWriter []MetricsWriter

func (m MultiWriter) Write(ctx context.Context, evals []model.Evaluation) error {
	for _, w := range m {
		if err := w.Write(ctx, evals); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiWriter) Close() error {
	var first error
	for _, w := range m {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var log = logging.MustGetLogger("log")

// Open builds the configured sinks: a CSV file when csvPath is set and a
// PostgreSQL table when dsn is set. With neither, evaluations are dropped.
func Open(ctx context.Context, csvPath, dsn string) (MetricsWriter, error) {
	var sinks MultiWriter
	if csvPath != "" {
		w, err := NewCSVWriter(csvPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, w)
	}
	if dsn != "" {
		w, err := NewPostgresWriter(ctx, dsn)
		if err != nil {
			_ = sinks.Close()
			return nil, err
		}
		sinks = append(sinks, w)
	}
	if len(sinks) == 0 {
		log.Infof("No evaluation storage configured")
	}
	return sinks, nil
}
