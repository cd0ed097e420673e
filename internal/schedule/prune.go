package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/flemzord/lineup/internal/history"
)

// PruneJob deletes history records older than the retention window.
type PruneJob struct {
	store     history.Store
	retention time.Duration
	schedule  string
	logger    *slog.Logger
}

var _ Job = (*PruneJob)(nil)

// NewPruneJob creates the history retention job.
func NewPruneJob(store history.Store, retention time.Duration, schedule string, logger *slog.Logger) *PruneJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PruneJob{
		store:     store,
		retention: retention,
		schedule:  schedule,
		logger:    logger.With("component", "schedule"),
	}
}

// Name implements Job.
func (j *PruneJob) Name() string { return "history.prune" }

// Schedule implements Job.
func (j *PruneJob) Schedule() string { return j.schedule }

// Run implements Job.
func (j *PruneJob) Run(_ context.Context) error {
	cutoff := time.Now().Add(-j.retention)
	n, err := j.store.Prune(cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("schedule: history pruned",
			"removed", n,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return nil
}
