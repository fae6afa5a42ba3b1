package metrics

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

// TestNewMetrics verifies that a new Metrics instance starts at zero.
func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m == nil {
		t.Fatal("NewMetrics() returned nil")
	}

	snap := m.Snapshot()
	if snap.LaunchAttempts != 0 || snap.NavigationsAllowed != 0 || snap.NavigationsDenied != 0 {
		t.Errorf("new snapshot has non-zero counters: %+v", snap)
	}
	if snap.LastNavigation != "" {
		t.Errorf("LastNavigation = %q, want empty", snap.LastNavigation)
	}
}

// TestMetrics_RecordLaunch verifies launch outcome counters.
func TestMetrics_RecordLaunch(t *testing.T) {
	m := NewMetrics()

	m.RecordLaunch(nil)
	m.RecordLaunch(nil)
	m.RecordLaunch(errors.New("xdg-open missing"))

	if got := m.LaunchAttempts.Load(); got != 3 {
		t.Errorf("LaunchAttempts = %d, want 3", got)
	}
	if got := m.LaunchSuccesses.Load(); got != 2 {
		t.Errorf("LaunchSuccesses = %d, want 2", got)
	}
	if got := m.LaunchFailures.Load(); got != 1 {
		t.Errorf("LaunchFailures = %d, want 1", got)
	}
}

// TestMetrics_RecordNavigation verifies allow/deny counters and latency averaging.
func TestMetrics_RecordNavigation(t *testing.T) {
	m := NewMetrics()

	m.RecordNavigation(true, 10*time.Microsecond)
	m.RecordNavigation(false, 30*time.Microsecond)

	if got := m.NavigationsAllowed.Load(); got != 1 {
		t.Errorf("NavigationsAllowed = %d, want 1", got)
	}
	if got := m.NavigationsDenied.Load(); got != 1 {
		t.Errorf("NavigationsDenied = %d, want 1", got)
	}
	if got := m.AvgFilterLatency(); got != 20*time.Microsecond {
		t.Errorf("AvgFilterLatency() = %v, want 20µs", got)
	}
	if m.Snapshot().LastNavigation == "" {
		t.Error("LastNavigation is empty after RecordNavigation")
	}
}

// TestMetrics_ConcurrentAccess exercises the counters from many goroutines.
func TestMetrics_ConcurrentAccess(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.RecordNavigation(i%2 == 0, time.Microsecond)
			m.RecordLaunch(nil)
			_ = m.Snapshot()
		}(i)
	}
	wg.Wait()

	total := m.NavigationsAllowed.Load() + m.NavigationsDenied.Load()
	if total != 50 {
		t.Errorf("navigations = %d, want 50", total)
	}
	if got := m.LaunchAttempts.Load(); got != 50 {
		t.Errorf("LaunchAttempts = %d, want 50", got)
	}
}

// TestMetrics_ToJSON verifies the snapshot encodes with the documented keys.
func TestMetrics_ToJSON(t *testing.T) {
	m := NewMetrics()
	m.RecordNavigation(false, time.Microsecond)
	m.ValidationFailures.Add(2)

	data, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal error: %v", err)
	}
	if decoded["navigations_denied"] != float64(1) {
		t.Errorf("navigations_denied = %v, want 1", decoded["navigations_denied"])
	}
	if decoded["validation_failures"] != float64(2) {
		t.Errorf("validation_failures = %v, want 2", decoded["validation_failures"])
	}
}

// TestMetrics_Reset verifies every counter returns to zero.
func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	m.RecordLaunch(nil)
	m.RecordNavigation(true, time.Millisecond)

	m.Reset()

	snap := m.Snapshot()
	if snap.LaunchAttempts != 0 || snap.NavigationsAllowed != 0 || snap.AvgFilterMicros != 0 {
		t.Errorf("snapshot after Reset() = %+v, want zero counters", snap)
	}
	if snap.LastNavigation != "" {
		t.Errorf("LastNavigation after Reset() = %q, want empty", snap.LastNavigation)
	}
}
