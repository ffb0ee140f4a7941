// Package config loads the monitor configuration from defaults, an optional
// config file, and HYDRAS_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all service configuration.
type Config struct {
	HTTPAddr        string        `mapstructure:"http_addr"        validate:"required"`
	LogLevel        string        `mapstructure:"log_level"        validate:"oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`

	// ReadingInterval is the period of the classification loop.
	ReadingInterval time.Duration `mapstructure:"reading_interval" validate:"gt=0"`
	SelectedBuoy    int           `mapstructure:"selected_buoy"    validate:"min=1,max=7"`
	SamplesPerBuoy  int           `mapstructure:"samples_per_buoy" validate:"min=1"`
	SimulatorSeed   int64         `mapstructure:"simulator_seed"   validate:"min=-1"`

	Forest ForestConfig `mapstructure:"forest"`
	Store  StoreConfig  `mapstructure:"store"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
}

// ForestConfig mirrors the random forest hyperparameters.
type ForestConfig struct {
	Trees           int     `mapstructure:"trees"             validate:"min=1"`
	MaxDepth        int     `mapstructure:"max_depth"         validate:"min=0"`
	MinSamplesSplit int     `mapstructure:"min_samples_split" validate:"min=2"`
	SampleRatio     float64 `mapstructure:"sample_ratio"      validate:"gt=0,lte=1"`
	MaxFeatures     int     `mapstructure:"max_features"      validate:"min=0"`
	RandomState     int64   `mapstructure:"random_state"      validate:"min=-1"`
	NJobs           int     `mapstructure:"n_jobs"            validate:"min=0"`
}

// StoreConfig selects where the training dataset is kept.
type StoreConfig struct {
	Kind string `mapstructure:"kind" validate:"oneof=file sqlite csv none"`
	Path string `mapstructure:"path" validate:"required_unless=Kind none"`
}

// KafkaConfig enables the reading sink when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic" validate:"required"`
}

// Enabled reports whether classified readings should be published.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("shutdown_timeout", 10*time.Second)

	v.SetDefault("reading_interval", 3*time.Second)
	v.SetDefault("selected_buoy", 1)
	v.SetDefault("samples_per_buoy", 200)
	v.SetDefault("simulator_seed", -1)

	v.SetDefault("forest.trees", 15)
	v.SetDefault("forest.max_depth", 6)
	v.SetDefault("forest.min_samples_split", 4)
	v.SetDefault("forest.sample_ratio", 0.7)
	v.SetDefault("forest.max_features", 0)
	v.SetDefault("forest.random_state", -1)
	v.SetDefault("forest.n_jobs", 0)

	v.SetDefault("store.kind", "file")
	v.SetDefault("store.path", "data/dataset.json")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "hydras.readings")
}

// Load reads configuration. path may be empty, in which case only defaults
// and the environment apply. HYDRAS_FOREST_TREES overrides forest.trees and
// so on; list values such as HYDRAS_KAFKA_BROKERS are comma-separated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HYDRAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config error: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
