package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 3*time.Second, cfg.ReadingInterval)
	assert.Equal(t, 1, cfg.SelectedBuoy)
	assert.Equal(t, 200, cfg.SamplesPerBuoy)
	assert.Equal(t, int64(-1), cfg.SimulatorSeed)

	assert.Equal(t, ForestConfig{
		Trees:           15,
		MaxDepth:        6,
		MinSamplesSplit: 4,
		SampleRatio:     0.7,
		MaxFeatures:     0,
		RandomState:     -1,
		NJobs:           0,
	}, cfg.Forest)

	assert.Equal(t, "file", cfg.Store.Kind)
	assert.Equal(t, "data/dataset.json", cfg.Store.Path)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "hydras.readings", cfg.Kafka.Topic)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HYDRAS_HTTP_ADDR", ":9090")
	t.Setenv("HYDRAS_LOG_LEVEL", "debug")
	t.Setenv("HYDRAS_READING_INTERVAL", "500ms")
	t.Setenv("HYDRAS_SELECTED_BUOY", "6")
	t.Setenv("HYDRAS_FOREST_TREES", "31")
	t.Setenv("HYDRAS_FOREST_SAMPLE_RATIO", "0.5")
	t.Setenv("HYDRAS_FOREST_RANDOM_STATE", "42")
	t.Setenv("HYDRAS_STORE_KIND", "sqlite")
	t.Setenv("HYDRAS_STORE_PATH", "/tmp/hydras.db")
	t.Setenv("HYDRAS_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("HYDRAS_KAFKA_TOPIC", "readings")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.ReadingInterval)
	assert.Equal(t, 6, cfg.SelectedBuoy)
	assert.Equal(t, 31, cfg.Forest.Trees)
	assert.Equal(t, 0.5, cfg.Forest.SampleRatio)
	assert.Equal(t, int64(42), cfg.Forest.RandomState)
	assert.Equal(t, "sqlite", cfg.Store.Kind)
	assert.Equal(t, "/tmp/hydras.db", cfg.Store.Path)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "readings", cfg.Kafka.Topic)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydras.yaml")
	content := `
http_addr: ":7070"
forest:
  trees: 5
  max_depth: 3
store:
  kind: none
  path: ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.Forest.Trees)
	assert.Equal(t, 3, cfg.Forest.MaxDepth)
	assert.Equal(t, 4, cfg.Forest.MinSamplesSplit)
	assert.Equal(t, "none", cfg.Store.Kind)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config error")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown log level", "HYDRAS_LOG_LEVEL", "verbose"},
		{"zero interval", "HYDRAS_READING_INTERVAL", "0s"},
		{"buoy out of network", "HYDRAS_SELECTED_BUOY", "8"},
		{"no trees", "HYDRAS_FOREST_TREES", "0"},
		{"split below two", "HYDRAS_FOREST_MIN_SAMPLES_SPLIT", "1"},
		{"ratio above one", "HYDRAS_FOREST_SAMPLE_RATIO", "1.5"},
		{"seed below -1", "HYDRAS_FOREST_RANDOM_STATE", "-2"},
		{"unknown store", "HYDRAS_STORE_KIND", "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.ErrorContains(t, err, "config validation failed")
		})
	}
}

func TestStorePathRequiredForFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hydras.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  kind: file\n  path: \"\"\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "config validation failed")
}
