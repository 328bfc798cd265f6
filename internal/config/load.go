package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile behaves like Load but reads the given config file instead of
// searching the working directory. An empty path falls back to the default
// search behavior.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()

	// Defaults tuned for an interactive device: medium cadence, modest
	// concurrency, pause below 20% battery or above 80% memory usage.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("processing.intensity", "medium")
	v.SetDefault("processing.max_concurrent_tasks", 2)
	v.SetDefault("processing.battery_threshold", 0.2)
	v.SetDefault("processing.memory_threshold", 0.8)
	v.SetDefault("processing.max_retries", 3)
	v.SetDefault("clustering.similarity_threshold", 0.75)
	v.SetDefault("clustering.time_threshold_hours", 6)
	v.SetDefault("clustering.location_threshold_meters", 1000)
	v.SetDefault("clustering.min_cluster_size", 2)
	v.SetDefault("clustering.max_cluster_size", 50)

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if configPath != "" {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		}
	}

	// Configure environment variables with the LUMEN_ prefix.
	v.SetEnvPrefix("LUMEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind critical environment variables so they are visible
	// to Unmarshal even when no other source sets the key.
	bindEnvs := []struct {
		key    string
		envVar string
	}{
		{"server.port", "LUMEN_SERVER_PORT"},
		{"server.log_level", "LUMEN_SERVER_LOG_LEVEL"},
		{"processing.intensity", "LUMEN_PROCESSING_INTENSITY"},
		{"processing.max_concurrent_tasks", "LUMEN_PROCESSING_MAX_CONCURRENT_TASKS"},
		{"processing.battery_threshold", "LUMEN_PROCESSING_BATTERY_THRESHOLD"},
		{"processing.memory_threshold", "LUMEN_PROCESSING_MEMORY_THRESHOLD"},
		{"processing.max_retries", "LUMEN_PROCESSING_MAX_RETRIES"},
		{"clustering.similarity_threshold", "LUMEN_CLUSTERING_SIMILARITY_THRESHOLD"},
		{"clustering.time_threshold_hours", "LUMEN_CLUSTERING_TIME_THRESHOLD_HOURS"},
		{"clustering.location_threshold_meters", "LUMEN_CLUSTERING_LOCATION_THRESHOLD_METERS"},
		{"clustering.min_cluster_size", "LUMEN_CLUSTERING_MIN_CLUSTER_SIZE"},
		{"clustering.max_cluster_size", "LUMEN_CLUSTERING_MAX_CLUSTER_SIZE"},
	}
	for _, env := range bindEnvs {
		if err := v.BindEnv(env.key, env.envVar); err != nil {
			return nil, fmt.Errorf("error binding environment variable %s: %w", env.envVar, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}
