package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "linear", cfg.Train.Model)
	assert.Equal(t, 0.2, cfg.Train.TestFraction)
	assert.Equal(t, 100, cfg.Train.Boosting.Estimators)
	assert.Equal(t, 6, cfg.Train.Boosting.MaxDepth)
	assert.Equal(t, 50, cfg.Train.LSTM.Units)
	assert.Equal(t, 32, cfg.Train.LSTM.BatchSize)
	assert.Equal(t, "adam", cfg.Train.LSTM.Optimizer)
	assert.Equal(t, 7, cfg.Train.Decomposition.Period)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Empty(t, cfg.Storage.PostgresDSN)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"log-level": "DEBUG",
		"train": {"model": "boosting", "boosting": {"estimators": 10}},
		"server": {"address": ":8080", "shutdown-timeout": "3s"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, "boosting", cfg.Train.Model)
	assert.Equal(t, 10, cfg.Train.Boosting.Estimators)
	assert.Equal(t, 0.1, cfg.Train.Boosting.LearningRate)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"server": {"address": ":8080"}}`)
	t.Setenv("SERVER_ADDRESS", ":9090")
	t.Setenv("TRAIN_TEST_FRACTION", "0.3")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 0.3, cfg.Train.TestFraction)
}

func TestLoadRejectsUnknownModel(t *testing.T) {
	path := writeConfig(t, `{"train": {"model": "prophet"}}`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid train.model")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownOptimizer(t *testing.T) {
	path := writeConfig(t, `{"train": {"lstm": {"optimizer": "rmsprop"}}}`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid train.lstm.optimizer")
}

func TestRedactedMasksPostgresPassword(t *testing.T) {
	cases := map[string]string{
		"postgres://sales:s3cret@db:5432/metrics?sslmode=disable": "postgres://sales:xxxxx@db:5432/metrics?sslmode=disable",
		"host=db user=sales password=s3cret dbname=metrics":       "host=db user=sales password=xxxxx dbname=metrics",
		"host=db user=sales password='s3 cret' dbname=metrics":    "host=db user=sales password=xxxxx dbname=metrics",
		"postgres://sales@db/metrics":                             "postgres://sales@db/metrics",
		"":                                                        "",
	}
	for dsn, want := range cases {
		cfg := Config{Storage: StorageConfig{PostgresDSN: dsn}}
		got := cfg.Redacted()
		assert.Equal(t, want, got.Storage.PostgresDSN, dsn)
		assert.NotContains(t, got.Storage.PostgresDSN, "s3cret")
		assert.Equal(t, dsn, cfg.Storage.PostgresDSN, "original must be untouched")
	}
}
