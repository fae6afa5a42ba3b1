// Package metrics tracks launch and navigation counters for a browser session.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters for the launcher and the security filter.
// All fields are safe for concurrent access.
type Metrics struct {
	// Launch metrics
	LaunchAttempts  atomic.Int64
	LaunchSuccesses atomic.Int64
	LaunchFailures  atomic.Int64

	// Input metrics
	ValidationFailures atomic.Int64

	// Navigation metrics
	NavigationsAllowed atomic.Int64
	NavigationsDenied  atomic.Int64

	// Timing metrics
	startTime      time.Time
	lastNavigation atomic.Value // time.Time
	avgFilterNs    atomic.Int64
	filterCount    atomic.Int64

	mu sync.RWMutex
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	Timestamp          time.Time `json:"timestamp"`
	Uptime             string    `json:"uptime"`
	LaunchAttempts     int64     `json:"launch_attempts"`
	LaunchSuccesses    int64     `json:"launch_successes"`
	LaunchFailures     int64     `json:"launch_failures"`
	ValidationFailures int64     `json:"validation_failures"`
	NavigationsAllowed int64     `json:"navigations_allowed"`
	NavigationsDenied  int64     `json:"navigations_denied"`
	AvgFilterMicros    float64   `json:"avg_filter_us"`
	LastNavigation     string    `json:"last_navigation,omitempty"`
}

// NewMetrics creates a new Metrics instance with the start time set to now.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordNavigation counts one filter decision and folds its evaluation time
// into the running average.
func (m *Metrics) RecordNavigation(allowed bool, took time.Duration) {
	if allowed {
		m.NavigationsAllowed.Add(1)
	} else {
		m.NavigationsDenied.Add(1)
	}
	m.lastNavigation.Store(time.Now())
	m.recordFilterLatency(took)
}

// RecordLaunch counts one launch attempt and its outcome.
func (m *Metrics) RecordLaunch(err error) {
	m.LaunchAttempts.Add(1)
	if err != nil {
		m.LaunchFailures.Add(1)
		return
	}
	m.LaunchSuccesses.Add(1)
}

func (m *Metrics) recordFilterLatency(d time.Duration) {
	ns := d.Nanoseconds()
	count := m.filterCount.Add(1)

	// newAvg = oldAvg + (newValue - oldAvg) / count
	for {
		oldAvg := m.avgFilterNs.Load()
		newAvg := oldAvg + (ns-oldAvg)/count
		if m.avgFilterNs.CompareAndSwap(oldAvg, newAvg) {
			break
		}
		count = m.filterCount.Load()
		if count == 0 {
			count = 1
		}
	}
}

// Uptime returns the duration since the metrics instance was created or reset.
func (m *Metrics) Uptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return time.Since(m.startTime)
}

// AvgFilterLatency returns the average recorded filter evaluation time.
// Returns 0 if nothing has been recorded.
func (m *Metrics) AvgFilterLatency() time.Duration {
	return time.Duration(m.avgFilterNs.Load())
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		Timestamp:          time.Now(),
		Uptime:             m.Uptime().Round(time.Millisecond).String(),
		LaunchAttempts:     m.LaunchAttempts.Load(),
		LaunchSuccesses:    m.LaunchSuccesses.Load(),
		LaunchFailures:     m.LaunchFailures.Load(),
		ValidationFailures: m.ValidationFailures.Load(),
		NavigationsAllowed: m.NavigationsAllowed.Load(),
		NavigationsDenied:  m.NavigationsDenied.Load(),
		AvgFilterMicros:    float64(m.avgFilterNs.Load()) / float64(time.Microsecond),
	}

	if v := m.lastNavigation.Load(); v != nil {
		if t, ok := v.(time.Time); ok && !t.IsZero() {
			snap.LastNavigation = t.Format(time.RFC3339)
		}
	}

	return snap
}

// ToJSON returns a JSON-encoded representation of the current metrics snapshot.
func (m *Metrics) ToJSON() ([]byte, error) {
	return json.Marshal(m.Snapshot())
}

// Reset zeroes all counters and restarts the uptime clock.
func (m *Metrics) Reset() {
	m.LaunchAttempts.Store(0)
	m.LaunchSuccesses.Store(0)
	m.LaunchFailures.Store(0)
	m.ValidationFailures.Store(0)
	m.NavigationsAllowed.Store(0)
	m.NavigationsDenied.Store(0)
	m.avgFilterNs.Store(0)
	m.filterCount.Store(0)
	m.lastNavigation.Store(time.Time{})

	m.mu.Lock()
	m.startTime = time.Now()
	m.mu.Unlock()
}
