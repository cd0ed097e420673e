// Package schedule runs periodic maintenance jobs on cron expressions.
// The lineup service registers one built-in job: history pruning.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is a named piece of periodic work.
type Job interface {
	// Name identifies the job in logs and duplicate checks.
	Name() string

	// Schedule is a five-field cron expression (minute granularity).
	Schedule() string

	// Run executes the job. The context is cancelled when the scheduler
	// stops.
	Run(ctx context.Context) error
}

// entry pairs a job with its running guard. The guard ensures a slow job
// skips ticks instead of piling up parallel runs.
type entry struct {
	job     Job
	running sync.Mutex
}

// Scheduler executes registered jobs on their cron schedules.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	byName  map[string]*entry
	cron    *cron.Cron
	cancel  context.CancelFunc
	logger  *slog.Logger
}

// NewScheduler creates a scheduler. Jobs must be registered before Start().
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		byName: make(map[string]*entry),
		logger: logger.With("component", "schedule"),
	}
}

// RegisterJob adds a job. Job names must be unique; registration after
// Start has no effect on the running schedule.
func (s *Scheduler) RegisterJob(j Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if _, dup := s.byName[name]; dup {
		return fmt.Errorf("schedule: duplicate job name %q", name)
	}

	e := &entry{job: j}
	s.byName[name] = e
	s.entries = append(s.entries, e)
	return nil
}

// Start parses every registered schedule and begins ticking. An invalid
// cron expression fails the whole start.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.cron = cron.New(cron.WithParser(
		cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	))

	for _, e := range s.entries {
		e := e
		if _, err := s.cron.AddFunc(e.job.Schedule(), func() { s.tick(ctx, e) }); err != nil {
			cancel()
			return fmt.Errorf("schedule: invalid schedule for job %q: %w", e.job.Name(), err)
		}
	}

	s.cron.Start()
	s.logger.Info("schedule: scheduler started", "jobs", len(s.entries))
	return nil
}

// tick runs one scheduled invocation, skipping if the previous one is
// still going.
func (s *Scheduler) tick(ctx context.Context, e *entry) {
	name := e.job.Name()
	if !e.running.TryLock() {
		s.logger.Warn("schedule: job still running, skipping tick", "job", name)
		return
	}
	defer e.running.Unlock()

	s.logger.Debug("schedule: job started", "job", name)
	if err := e.job.Run(ctx); err != nil {
		s.logger.Error("schedule: job failed", "job", name, "error", err)
		return
	}
	s.logger.Debug("schedule: job completed", "job", name)
}

// Stop cancels job contexts and waits for in-flight runs to finish.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.logger.Info("schedule: scheduler stopped")
	}
	return nil
}
