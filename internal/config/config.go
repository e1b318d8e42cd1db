// Package config loads training and run settings. Environment variables
// prefixed with SYNAPTICAL_ override the config file, which overrides the
// built-in defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"synaptical/internal/cost"
	"synaptical/internal/dataset"
	"synaptical/internal/logging"
	"synaptical/internal/nn"
	"synaptical/internal/storage"
)

// EnvPrefix prefixes every environment override, e.g. SYNAPTICAL_RATE.
const EnvPrefix = "SYNAPTICAL"

// Config describes one training run and where its results go.
type Config struct {
	// Layers are the perceptron sizes: input, hidden..., output.
	Layers []int `mapstructure:"layers"`

	// Rate is the constant learning rate, used when RateSchedule is empty.
	Rate float64 `mapstructure:"rate"`

	// RateSchedule spreads its rates evenly across Iterations.
	RateSchedule []float64 `mapstructure:"rate_schedule"`

	// Error stops training once the mean epoch error falls to it.
	Error float64 `mapstructure:"error"`

	// Seed fixes weight initialization; zero picks a time-based seed.
	Seed int64 `mapstructure:"seed"`

	Iterations int    `mapstructure:"iterations"`
	Cost       string `mapstructure:"cost"`
	Squash     string `mapstructure:"squash"`
	LogEvery   int    `mapstructure:"log_every"`
	Shuffle    bool   `mapstructure:"shuffle"`
	Dataset    string `mapstructure:"dataset"`

	CrossValidate CrossValidate `mapstructure:"cross_validate"`

	Store    string `mapstructure:"store"`
	DBPath   string `mapstructure:"db_path"`
	LogLevel string `mapstructure:"log_level"`
}

// CrossValidate holds back the last TestSize fraction of the set and stops
// once its error reaches TestError. A zero TestSize disables it.
type CrossValidate struct {
	TestSize  float64 `mapstructure:"test_size"`
	TestError float64 `mapstructure:"test_error"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Layers:       []int{2, 3, 1},
		Rate:         0.2,
		RateSchedule: []float64{},
		Iterations:   100000,
		Error:        0.005,
		Cost:         cost.MSE,
		Squash:       nn.DefaultSquash,
		Dataset:      "xor",
		Store:        storage.DefaultStoreKind(),
		DBPath:       "synaptical.db",
		LogLevel:     "info",
	}
}

// ViperSetDefaults registers every default on v so environment overrides
// are picked up by Unmarshal.
func ViperSetDefaults(v *viper.Viper) {
	d := Default()
	keys := map[string]interface{}{
		"layers":                    d.Layers,
		"rate":                      d.Rate,
		"rate_schedule":             d.RateSchedule,
		"iterations":                d.Iterations,
		"error":                     d.Error,
		"cost":                      d.Cost,
		"squash":                    d.Squash,
		"seed":                      d.Seed,
		"log_every":                 d.LogEvery,
		"shuffle":                   d.Shuffle,
		"dataset":                   d.Dataset,
		"cross_validate.test_size":  d.CrossValidate.TestSize,
		"cross_validate.test_error": d.CrossValidate.TestError,
		"store":                     d.Store,
		"db_path":                   d.DBPath,
		"log_level":                 d.LogLevel,
	}
	for k, value := range keys {
		v.SetDefault(k, value)
	}
}

// Load reads path (any format viper understands, picked by extension) on top
// of the defaults and environment. An empty path skips the file.
func Load(path string) (Config, error) {
	v := viper.New()
	ViperSetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		logging.Debugf("Unmarshaling config failed: %v", err)
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings before anything is built from them.
func (c Config) Validate() error {
	if len(c.Layers) < 3 {
		return fmt.Errorf("layers: need at least 3 sizes, got %d", len(c.Layers))
	}
	for i, size := range c.Layers {
		if size <= 0 {
			return fmt.Errorf("layers[%d]: size must be positive, got %d", i, size)
		}
	}
	if c.Rate <= 0 && len(c.RateSchedule) == 0 {
		return fmt.Errorf("rate must be positive, got %g", c.Rate)
	}
	for i, rate := range c.RateSchedule {
		if rate <= 0 {
			return fmt.Errorf("rate_schedule[%d]: rate must be positive, got %g", i, rate)
		}
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", c.Iterations)
	}
	if c.Error < 0 {
		return fmt.Errorf("error must not be negative, got %g", c.Error)
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("log_every must not be negative, got %d", c.LogEvery)
	}
	if _, err := cost.Get(c.Cost); err != nil {
		return err
	}
	if _, err := nn.GetSquash(c.Squash); err != nil {
		return err
	}
	if _, err := dataset.Get(c.Dataset); err != nil {
		return err
	}
	if c.CrossValidate.TestSize < 0 || c.CrossValidate.TestSize >= 1 {
		return fmt.Errorf("cross_validate.test_size must be in [0, 1), got %g", c.CrossValidate.TestSize)
	}
	if err := storage.ValidateKind(c.Store); err != nil {
		return err
	}
	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}
