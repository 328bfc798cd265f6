package resource

import (
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/lumen-engine/internal/events"
)

// Probe samples the device once. Implementations read platform facilities;
// tests use StaticProbe.
type Probe interface {
	Sample() Status
}

// StaticProbe is a Probe returning a fixed Status. Swap the value with Set
// to simulate resource changes.
type StaticProbe struct {
	mu     sync.Mutex
	status Status
}

// NewStaticProbe creates a StaticProbe returning the given status.
func NewStaticProbe(status Status) *StaticProbe {
	return &StaticProbe{status: status}
}

// Set replaces the status returned by subsequent samples.
func (p *StaticProbe) Set(status Status) {
	p.mu.Lock()
	p.status = status
	p.mu.Unlock()
}

// Sample returns the configured status stamped with the current time.
func (p *StaticProbe) Sample() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.status
	s.SampledAt = time.Now().UTC()
	return s
}

// PollingMonitor implements Monitor by sampling a Probe on a fixed interval
// and fanning each new snapshot out to subscribers.
type PollingMonitor struct {
	probe    Probe
	interval time.Duration
	logger   *slog.Logger

	broadcaster *events.Broadcaster[Status]

	mu      sync.Mutex
	current Status
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPollingMonitor creates a monitor sampling probe every interval.
func NewPollingMonitor(probe Probe, interval time.Duration, logger *slog.Logger) *PollingMonitor {
	return &PollingMonitor{
		probe:       probe,
		interval:    interval,
		logger:      logger.With(slog.String("component", "resource_monitor")),
		broadcaster: events.NewBroadcaster[Status](logger),
		current:     probe.Sample(),
	}
}

// Current returns the most recent resource snapshot.
func (m *PollingMonitor) Current() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// ShouldPause evaluates the pause predicate against the latest snapshot.
func (m *PollingMonitor) ShouldPause(batteryThreshold, memoryThreshold float64) bool {
	return m.Current().ShouldPause(batteryThreshold, memoryThreshold)
}

// Subscribe registers a callback invoked on every new sample.
func (m *PollingMonitor) Subscribe(callback func(Status)) func() {
	return m.broadcaster.Subscribe(callback)
}

// Start begins background sampling. Calling Start on a running monitor is
// a no-op.
func (m *PollingMonitor) Start() {
	m.mu.Lock()
	if m.stopCh != nil {
		m.mu.Unlock()
		return
	}
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})
	m.stopCh = stopCh
	m.doneCh = doneCh
	m.mu.Unlock()

	go m.run(stopCh, doneCh)
}

// Stop halts background sampling and waits for the sampling goroutine to
// exit. Calling Stop on a stopped monitor is a no-op.
func (m *PollingMonitor) Stop() {
	m.mu.Lock()
	stopCh := m.stopCh
	doneCh := m.doneCh
	m.stopCh = nil
	m.doneCh = nil
	m.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh
}

func (m *PollingMonitor) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			status := m.probe.Sample()
			m.mu.Lock()
			m.current = status
			m.mu.Unlock()

			m.logger.Debug("resource sample",
				"battery", status.BatteryLevel,
				"charging", status.Charging,
				"memory_usage", status.MemoryUsage,
				"cpu_usage", status.CPUUsage,
				"thermal", status.Thermal.String())

			m.broadcaster.Publish(status)
		}
	}
}
