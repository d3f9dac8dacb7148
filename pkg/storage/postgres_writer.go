package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"salesforecast/pkg/model"
)

const evalColumns = 8

// PostgresWriter persists evaluations to a model_evaluations table.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		log.Warningf("postgres: ping failed (attempt %d/5): %v", i+1, err)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS model_evaluations (
			id         SERIAL PRIMARY KEY,
			run_id     UUID          NOT NULL,
			model      VARCHAR(50)   NOT NULL,
			mae        DOUBLE PRECISION NOT NULL,
			mse        DOUBLE PRECISION NOT NULL,
			rmse       DOUBLE PRECISION NOT NULL,
			r2         DOUBLE PRECISION NOT NULL,
			n          INTEGER       NOT NULL,
			created_at TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			UNIQUE (run_id, model)
		);

		CREATE INDEX IF NOT EXISTS idx_model_evaluations_model ON model_evaluations(model);
	`)
	return err
}

// Write batch-inserts evaluations; re-running a run/model pair is a no-op.
func (pw *PostgresWriter) Write(ctx context.Context, evals []model.Evaluation) error {
	const batchSize = 50
	for i := 0; i < len(evals); i += batchSize {
		end := min(i+batchSize, len(evals))
		query, args := insertQuery(evals[i:end])
		if _, err := pw.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert: %w", err)
		}
	}
	return nil
}

func insertQuery(batch []model.Evaluation) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*evalColumns)

	for idx, e := range batch {
		base := idx * evalColumns
		ph := make([]string, evalColumns)
		for k := range ph {
			ph[k] = fmt.Sprintf("$%d", base+k+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs,
			e.RunID, e.Model, e.MAE, e.MSE, e.RMSE, e.R2, e.N, e.CreatedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO model_evaluations (run_id, model, mae, mse, rmse, r2, n, created_at)
		VALUES %s
		ON CONFLICT (run_id, model) DO NOTHING
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
