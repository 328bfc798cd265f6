package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/lumen-engine/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "medium", cfg.Processing.Intensity)
	assert.Equal(t, 2, cfg.Processing.MaxConcurrentTasks)
	assert.InDelta(t, 0.2, cfg.Processing.BatteryThreshold, 1e-9)
	assert.InDelta(t, 0.8, cfg.Processing.MemoryThreshold, 1e-9)
	assert.InDelta(t, 0.75, cfg.Clustering.SimilarityThreshold, 1e-9)
	assert.Equal(t, 2, cfg.Clustering.MinClusterSize)
	assert.Equal(t, 50, cfg.Clustering.MaxClusterSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("LUMEN_SERVER_PORT", "9999")
	t.Setenv("LUMEN_PROCESSING_INTENSITY", "aggressive")
	t.Setenv("LUMEN_PROCESSING_MAX_CONCURRENT_TASKS", "5")
	t.Setenv("LUMEN_CLUSTERING_SIMILARITY_THRESHOLD", "0.9")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "aggressive", cfg.Processing.Intensity)
	assert.Equal(t, 5, cfg.Processing.MaxConcurrentTasks)
	assert.InDelta(t, 0.9, cfg.Clustering.SimilarityThreshold, 1e-9)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 7070
  log_level: debug
processing:
  intensity: low
clustering:
  min_cluster_size: 3
  max_cluster_size: 10
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "low", cfg.Processing.Intensity)
	assert.Equal(t, 3, cfg.Clustering.MinClusterSize)
	assert.Equal(t, 10, cfg.Clustering.MaxClusterSize)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600))

	t.Setenv("LUMEN_SERVER_PORT", "6060")

	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"invalid intensity", "LUMEN_PROCESSING_INTENSITY", "turbo"},
		{"invalid log level", "LUMEN_SERVER_LOG_LEVEL", "verbose"},
		{"port out of range", "LUMEN_SERVER_PORT", "99999"},
		{"battery threshold above one", "LUMEN_PROCESSING_BATTERY_THRESHOLD", "1.5"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.envVar, tc.value)

			_, err := config.Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}
