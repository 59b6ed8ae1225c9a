// Package config loads the YAML configuration of rcss2d-imitation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all rcss2d-imitation configuration.
type Config struct {
	// Log conversion
	Data DataConfig `yaml:"data"`

	// Match index
	Store StoreConfig `yaml:"store"`

	// Model training
	Train TrainConfig `yaml:"train"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig configures the extract and normalize pipelines.
type DataConfig struct {
	Workers  int  `yaml:"workers"` // 0 uses every CPU
	Compress bool `yaml:"compress"`
}

// StoreConfig configures the SQLite match index.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// TrainConfig configures the imitation networks and their trainer.
type TrainConfig struct {
	HiddenLayers     []int   `yaml:"hidden_layers"`
	HiddenActivation string  `yaml:"hidden_activation"` // relu, tanh, sigmoid, linear
	Optimizer        string  `yaml:"optimizer"`         // adam, sgd
	LearningRate     float64 `yaml:"learning_rate"`
	Momentum         float64 `yaml:"momentum"` // sgd only
	Beta1            float64 `yaml:"beta1"`
	Beta2            float64 `yaml:"beta2"`
	Epsilon          float64 `yaml:"epsilon"`
	BatchSize        int     `yaml:"batch_size"`
	Epochs           int     `yaml:"epochs"`
	ValidationSplit  float64 `yaml:"validation_split"`
	Seed             int64   `yaml:"seed"`
	Sessions         int     `yaml:"sessions"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Workers:  0,
			Compress: false,
		},

		Store: StoreConfig{
			Path: "data/matches.db",
		},

		Train: TrainConfig{
			HiddenLayers:     []int{512, 256, 128},
			HiddenActivation: "relu",
			Optimizer:        "adam",
			LearningRate:     0.001,
			Momentum:         0.9,
			Beta1:            0.9,
			Beta2:            0.999,
			Epsilon:          1e-7,
			BatchSize:        256,
			Epochs:           10,
			ValidationSplit:  0.1,
			Seed:             1,
			Sessions:         1,
		},

		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("RCSS2D_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RCSS2D_WORKERS: %w", err)
		}
		c.Data.Workers = n
	}
	if path := os.Getenv("RCSS2D_STORE_PATH"); path != "" {
		c.Store.Path = path
	}
	if level := os.Getenv("RCSS2D_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}

var (
	ValidActivations = []string{"relu", "tanh", "sigmoid", "linear"}
	ValidOptimizers  = []string{"adam", "sgd"}
	ValidLogLevels   = []string{"debug", "info", "warn", "error"}
)

// Validate validates the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	if c.Data.Workers < 0 {
		errs = append(errs, fmt.Errorf("data.workers must not be negative: %d", c.Data.Workers))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}

	t := c.Train
	if len(t.HiddenLayers) == 0 {
		errs = append(errs, errors.New("train.hidden_layers is required"))
	}
	for i, n := range t.HiddenLayers {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("train.hidden_layers[%d] must be positive: %d", i, n))
		}
	}
	if !slices.Contains(ValidActivations, t.HiddenActivation) {
		errs = append(errs, fmt.Errorf("invalid train.hidden_activation: %s (valid: %v)", t.HiddenActivation, ValidActivations))
	}
	if !slices.Contains(ValidOptimizers, t.Optimizer) {
		errs = append(errs, fmt.Errorf("invalid train.optimizer: %s (valid: %v)", t.Optimizer, ValidOptimizers))
	}
	if t.LearningRate <= 0 {
		errs = append(errs, fmt.Errorf("train.learning_rate must be positive: %g", t.LearningRate))
	}
	if t.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("train.batch_size must be positive: %d", t.BatchSize))
	}
	if t.Epochs <= 0 {
		errs = append(errs, fmt.Errorf("train.epochs must be positive: %d", t.Epochs))
	}
	if t.ValidationSplit < 0 || t.ValidationSplit >= 1 {
		errs = append(errs, fmt.Errorf("train.validation_split must be in [0, 1): %g", t.ValidationSplit))
	}
	if t.Sessions <= 0 {
		errs = append(errs, fmt.Errorf("train.sessions must be positive: %d", t.Sessions))
	}

	if !slices.Contains(ValidLogLevels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("invalid logging.level: %s (valid: %v)", c.Logging.Level, ValidLogLevels))
	}
	return errors.Join(errs...)
}
