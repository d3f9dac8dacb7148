package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.json"

// Config represents the application's configuration structure.
type Config struct {
	LogLevel  string          `json:"log-level" mapstructure:"log-level"`
	Data      DataConfig      `json:"data" mapstructure:"data"`
	Artifacts ArtifactsConfig `json:"artifacts" mapstructure:"artifacts"`
	Charts    ChartsConfig    `json:"charts" mapstructure:"charts"`
	Train     TrainConfig     `json:"train" mapstructure:"train"`
	Server    ServerConfig    `json:"server" mapstructure:"server"`
	Storage   StorageConfig   `json:"storage" mapstructure:"storage"`
}

type DataConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

type ArtifactsConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// ChartsConfig controls EDA chart rendering. An empty Dir disables charts.
type ChartsConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// TrainConfig holds the training pipeline knobs. Model selects which fitted
// regressor is persisted as the serving model.
type TrainConfig struct {
	Model         string              `json:"model" mapstructure:"model"`
	TestFraction  float64             `json:"test-fraction" mapstructure:"test-fraction"`
	Seed          int64               `json:"seed" mapstructure:"seed"`
	Boosting      BoostingConfig      `json:"boosting" mapstructure:"boosting"`
	LSTM          LSTMConfig          `json:"lstm" mapstructure:"lstm"`
	Decomposition DecompositionConfig `json:"decomposition" mapstructure:"decomposition"`
}

type BoostingConfig struct {
	Estimators   int     `json:"estimators" mapstructure:"estimators"`
	LearningRate float64 `json:"learning-rate" mapstructure:"learning-rate"`
	MaxDepth     int     `json:"max-depth" mapstructure:"max-depth"`
}

type LSTMConfig struct {
	Units          int     `json:"units" mapstructure:"units"`
	Epochs         int     `json:"epochs" mapstructure:"epochs"`
	BatchSize      int     `json:"batch-size" mapstructure:"batch-size"`
	LearningRate   float64 `json:"learning-rate" mapstructure:"learning-rate"`
	SequenceLength int     `json:"sequence-length" mapstructure:"sequence-length"`
	Optimizer      string  `json:"optimizer" mapstructure:"optimizer"`
}

type DecompositionConfig struct {
	Period  int `json:"period" mapstructure:"period"`
	Horizon int `json:"horizon" mapstructure:"horizon"`
}

type ServerConfig struct {
	Address         string        `json:"address" mapstructure:"address"`
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// StorageConfig lists the evaluation sinks. Empty values disable a sink.
type StorageConfig struct {
	MetricsCSV  string `json:"metrics-csv" mapstructure:"metrics-csv"`
	PostgresDSN string `json:"postgres-dsn" mapstructure:"postgres-dsn"`
}

// field: default value
var defaults = map[string]interface{}{
	"log-level":                    "INFO",
	"data.path":                    "TRAIN.csv",
	"artifacts.dir":                "model",
	"charts.dir":                   "",
	"train.model":                  "linear",
	"train.test-fraction":          0.2,
	"train.seed":                   42,
	"train.boosting.estimators":    100,
	"train.boosting.learning-rate": 0.1,
	"train.boosting.max-depth":     6,
	"train.lstm.units":             50,
	"train.lstm.epochs":            20,
	"train.lstm.batch-size":        32,
	"train.lstm.learning-rate":     0.001,
	"train.lstm.sequence-length":   1,
	"train.lstm.optimizer":         "adam",
	"train.decomposition.period":   7,
	"train.decomposition.horizon":  30,
	"server.address":               ":5000",
	"server.shutdown-timeout":      "10s",
	"storage.metrics-csv":          "",
	"storage.postgres-dsn":         "",
}

var validModels = map[string]bool{"linear": true, "boosting": true, "lstm": true}

// Load reads configuration from an optional .env file, an optional JSON file
// and environment variables. Environment variables take precedence over the
// config file, which takes precedence over the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not read .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config: %w", err)
		}
	} else if path != DefaultPath {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	if !validModels[c.Train.Model] {
		return fmt.Errorf("invalid train.model %q: want linear, boosting or lstm", c.Train.Model)
	}
	if c.Train.TestFraction <= 0 || c.Train.TestFraction >= 1 {
		return fmt.Errorf("invalid train.test-fraction %v: must be in (0, 1)", c.Train.TestFraction)
	}
	if c.Train.Decomposition.Period < 2 {
		return fmt.Errorf("invalid train.decomposition.period %d", c.Train.Decomposition.Period)
	}
	if o := c.Train.LSTM.Optimizer; o != "adam" && o != "sgd" {
		return fmt.Errorf("invalid train.lstm.optimizer %q: want adam or sgd", o)
	}
	if c.Train.LSTM.SequenceLength < 1 {
		return fmt.Errorf("invalid train.lstm.sequence-length %d", c.Train.LSTM.SequenceLength)
	}
	return nil
}

var dsnPassword = regexp.MustCompile(`(?i)(password\s*=\s*)('[^']*'|\S+)`)

const redacted = "xxxxx"

// Redacted returns a copy safe to log: the password of the Postgres DSN is
// masked, in both URL and key=value form.
func (c Config) Redacted() Config {
	c.Storage.PostgresDSN = redactDSN(c.Storage.PostgresDSN)
	return c
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
		}
		q := u.Query()
		if q.Has("password") {
			q.Set("password", redacted)
			u.RawQuery = q.Encode()
		}
		return u.String()
	}
	return dsnPassword.ReplaceAllString(dsn, "${1}"+redacted)
}
