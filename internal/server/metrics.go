package server

import (
	"sync/atomic"
	"time"
)

// Metrics tracks service-level counters using atomic operations for
// lock-free concurrency.
type Metrics struct {
	resolves      atomic.Int64
	errors        atomic.Int64
	totalDuration atomic.Int64 // nanoseconds
}

// RecordResolve records a successful resolution.
func (m *Metrics) RecordResolve(d time.Duration) {
	m.resolves.Add(1)
	m.totalDuration.Add(int64(d))
}

// RecordError records a failed resolution request.
func (m *Metrics) RecordError() {
	m.errors.Add(1)
}

// Snapshot returns a consistent point-in-time view of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	resolves := m.resolves.Load()
	snap := MetricsSnapshot{
		Resolves: resolves,
		Errors:   m.errors.Load(),
	}
	if resolves > 0 {
		snap.AvgDuration = time.Duration(m.totalDuration.Load() / resolves)
	}
	return snap
}

// MetricsSnapshot is a serializable point-in-time metrics view.
type MetricsSnapshot struct {
	Resolves    int64         `json:"resolves"`
	Errors      int64         `json:"errors"`
	AvgDuration time.Duration `json:"avg_duration_ns"`
}
