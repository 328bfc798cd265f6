package scheduler

import (
	"time"

	"github.com/phrazzld/lumen-engine/internal/config"
)

// Intensity selects how aggressively the scheduler polls for work.
type Intensity string

// Processing intensity levels.
const (
	IntensityLow        Intensity = "low"
	IntensityMedium     Intensity = "medium"
	IntensityHigh       Intensity = "high"
	IntensityAggressive Intensity = "aggressive"
)

// Interval returns the tick interval for the intensity. Unknown values
// fall back to the medium cadence.
func (i Intensity) Interval() time.Duration {
	switch i {
	case IntensityLow:
		return 2000 * time.Millisecond
	case IntensityHigh:
		return 500 * time.Millisecond
	case IntensityAggressive:
		return 100 * time.Millisecond
	default:
		return 1000 * time.Millisecond
	}
}

// Settings is the scheduler's live processing configuration. A
// MaxRetries of zero or below keeps the queue's built-in retry budget.
type Settings struct {
	Intensity          Intensity `json:"intensity"`
	MaxConcurrentTasks int       `json:"max_concurrent_tasks"`
	BatteryThreshold   float64   `json:"battery_threshold"`
	MemoryThreshold    float64   `json:"memory_threshold"`
	MaxRetries         int       `json:"max_retries"`
}

// SettingsFromConfig derives scheduler settings from loaded configuration.
func SettingsFromConfig(cfg config.ProcessingConfig) Settings {
	return Settings{
		Intensity:          Intensity(cfg.Intensity),
		MaxConcurrentTasks: cfg.MaxConcurrentTasks,
		BatteryThreshold:   cfg.BatteryThreshold,
		MemoryThreshold:    cfg.MemoryThreshold,
		MaxRetries:         cfg.MaxRetries,
	}
}

// SettingsPatch is a partial settings update; nil fields keep their
// current value.
type SettingsPatch struct {
	Intensity          *Intensity `json:"intensity,omitempty"`
	MaxConcurrentTasks *int       `json:"max_concurrent_tasks,omitempty"`
	BatteryThreshold   *float64   `json:"battery_threshold,omitempty"`
	MemoryThreshold    *float64   `json:"memory_threshold,omitempty"`
	MaxRetries         *int       `json:"max_retries,omitempty"`
}

// apply overlays the patch onto s.
func (p SettingsPatch) apply(s *Settings) {
	if p.Intensity != nil {
		s.Intensity = *p.Intensity
	}
	if p.MaxConcurrentTasks != nil {
		s.MaxConcurrentTasks = *p.MaxConcurrentTasks
	}
	if p.BatteryThreshold != nil {
		s.BatteryThreshold = *p.BatteryThreshold
	}
	if p.MemoryThreshold != nil {
		s.MemoryThreshold = *p.MemoryThreshold
	}
	if p.MaxRetries != nil {
		s.MaxRetries = *p.MaxRetries
	}
}
