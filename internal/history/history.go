// Package history persists resolution records in SQLite so past plans can
// be inspected and compared. It uses modernc.org/sqlite (pure Go, no CGO)
// with WAL mode.
package history

import (
	"time"

	"github.com/flemzord/lineup/internal/engine"
)

// Record is one stored resolution.
type Record struct {
	// ID is the database row ID.
	ID int64 `json:"id"`

	// Source identifies where the resolution came from: "startup",
	// "watch", or "api".
	Source string `json:"source"`

	// Fingerprint is the plan fingerprint (see engine.Plan.Fingerprint).
	Fingerprint string `json:"fingerprint"`

	// StepCount is the number of steps in the resolved plan.
	StepCount int `json:"step_count"`

	// Duration is how long the resolution took.
	Duration time.Duration `json:"duration_ns"`

	// Steps is the resolved plan.
	Steps []engine.Step `json:"steps"`

	// CreatedAt is when the resolution was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// Store records and queries resolutions.
type Store interface {
	// Record persists one resolution.
	Record(source string, plan *engine.Plan) (int64, error)

	// Recent returns up to n records, newest first.
	Recent(n int) ([]Record, error)

	// Prune deletes records created at or before the cutoff and reports
	// how many were removed.
	Prune(olderThan time.Time) (int64, error)
}
