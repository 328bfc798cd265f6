// Package resource reports device resource state to the scheduler.
//
// The scheduler only depends on the Monitor interface; the polling
// implementation in this package samples a pluggable Probe so the server
// binary and tests can supply synthetic readings.
package resource

import "time"

// ThermalState classifies the device's thermal pressure.
type ThermalState int

// Thermal states, ordered from coolest to hottest.
const (
	ThermalNominal ThermalState = iota
	ThermalFair
	ThermalSerious
	ThermalCritical
)

// String returns a human-readable thermal state.
func (s ThermalState) String() string {
	switch s {
	case ThermalNominal:
		return "nominal"
	case ThermalFair:
		return "fair"
	case ThermalSerious:
		return "serious"
	case ThermalCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Status is a read-only snapshot of device resources.
type Status struct {
	// BatteryLevel is the remaining charge as a fraction in [0,1].
	BatteryLevel float64 `json:"battery_level"`

	// Charging reports whether the device is on external power.
	Charging bool `json:"charging"`

	// MemoryUsage is the used fraction of total memory in [0,1].
	MemoryUsage float64 `json:"memory_usage"`

	// AvailableMemory is the free memory in bytes.
	AvailableMemory uint64 `json:"available_memory"`

	// CPUUsage is the overall CPU utilization fraction in [0,1].
	CPUUsage float64 `json:"cpu_usage"`

	// Thermal is the current thermal pressure classification.
	Thermal ThermalState `json:"thermal"`

	// SampledAt records when the snapshot was taken.
	SampledAt time.Time `json:"sampled_at"`
}

// ShouldPause reports whether background processing should pause given the
// configured thresholds: battery below batteryThreshold while discharging,
// memory usage above memoryThreshold, or serious-or-worse thermal pressure.
func (s Status) ShouldPause(batteryThreshold, memoryThreshold float64) bool {
	if !s.Charging && s.BatteryLevel < batteryThreshold {
		return true
	}
	if s.MemoryUsage > memoryThreshold {
		return true
	}
	return s.Thermal >= ThermalSerious
}

// Monitor exposes device resource state and change notifications.
type Monitor interface {
	// Current returns the most recent resource snapshot.
	Current() Status

	// ShouldPause evaluates the pause predicate against the most recent
	// snapshot.
	ShouldPause(batteryThreshold, memoryThreshold float64) bool

	// Subscribe registers a callback invoked on every new sample and
	// returns a function that removes it.
	Subscribe(func(Status)) func()

	// Start begins sampling; Stop halts it. Both are idempotent.
	Start()
	Stop()
}
