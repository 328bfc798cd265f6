package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Processing ProcessingConfig `mapstructure:"processing" validate:"required"`
	Clustering ClusteringConfig `mapstructure:"clustering" validate:"required"`
}

// ServerConfig contains settings for the local control API and logging.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// ProcessingConfig contains the scheduler and task queue settings.
type ProcessingConfig struct {
	// Intensity selects the scheduler polling cadence.
	Intensity string `mapstructure:"intensity" validate:"required,oneof=low medium high aggressive"`

	// MaxConcurrentTasks bounds how many tasks may be running at once.
	MaxConcurrentTasks int `mapstructure:"max_concurrent_tasks" validate:"required,gte=1"`

	// BatteryThreshold is the battery fraction below which processing
	// pauses while the device is discharging.
	BatteryThreshold float64 `mapstructure:"battery_threshold" validate:"gte=0,lte=1"`

	// MemoryThreshold is the memory-usage fraction above which processing
	// pauses.
	MemoryThreshold float64 `mapstructure:"memory_threshold" validate:"gte=0,lte=1"`

	// MaxRetries is the default retry budget for tasks that do not set
	// their own.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0"`
}

// ClusteringConfig contains tuning for the clustering engine.
type ClusteringConfig struct {
	// SimilarityThreshold is the minimum cosine similarity for two photos
	// to share a visual-similarity cluster.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" validate:"required,gt=0,lte=1"`

	// TimeThresholdHours is the maximum capture-time gap, in hours, for
	// two photos to share an event cluster.
	TimeThresholdHours float64 `mapstructure:"time_threshold_hours" validate:"required,gt=0"`

	// LocationThresholdMeters is the maximum great-circle distance for two
	// located photos to share an event cluster.
	LocationThresholdMeters float64 `mapstructure:"location_threshold_meters" validate:"required,gt=0"`

	MinClusterSize int `mapstructure:"min_cluster_size" validate:"required,gte=1"`
	MaxClusterSize int `mapstructure:"max_cluster_size" validate:"required,gtefield=MinClusterSize"`
}
