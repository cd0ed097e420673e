// Package watch detects manifest changes by polling the file's
// modification time. Serve mode re-resolves the pipeline whenever the
// watched manifest is modified.
package watch

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

const defaultPollInterval = 5 * time.Second

// Config configures the file watcher.
type Config struct {
	// Path is the manifest file to watch.
	Path string

	// PollInterval is how often to stat the file. Zero means 5 seconds.
	PollInterval time.Duration
}

// Event is a manifest change notification.
type Event struct {
	// Path is the manifest file that changed.
	Path string

	// ModTime is the file's new modification time.
	ModTime time.Time
}

// Watcher polls a manifest file and emits an Event when its modification
// time advances. Events are buffered one deep; a change observed while
// the consumer is still handling the previous one is coalesced.
type Watcher struct {
	config Config
	ch     chan Event

	startOnce sync.Once
	stopOnce  sync.Once
	quit      chan struct{}
	done      chan struct{}
	running   atomic.Bool
}

// NewWatcher creates a watcher for the configured path.
func NewWatcher(config Config) *Watcher {
	if config.PollInterval <= 0 {
		config.PollInterval = defaultPollInterval
	}
	return &Watcher{
		config: config,
		ch:     make(chan Event, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the polling goroutine. Subsequent calls are no-ops.
func (w *Watcher) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		w.running.Store(true)
		go w.loop(ctx)
	})
}

// Events returns the change notification channel.
func (w *Watcher) Events() <-chan Event {
	return w.ch
}

// Stop halts polling and waits for the goroutine to exit. Safe to call
// more than once, and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.quit)
	})
	if w.running.Load() {
		<-w.done
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	last := w.modTime()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.quit:
			return
		case <-ticker.C:
			last = w.check(last)
		}
	}
}

// check stats the file and publishes an event if it changed since the
// previous observation. Returns the modification time to compare against
// next tick.
func (w *Watcher) check(last time.Time) time.Time {
	mod := w.modTime()
	if mod.IsZero() || !mod.After(last) {
		return last
	}

	select {
	case w.ch <- Event{Path: w.config.Path, ModTime: mod}:
	default:
		// Consumer is behind; the pending event already covers this change.
	}
	return mod
}

// modTime returns the file's modification time, or zero if the file is
// missing or unreadable.
func (w *Watcher) modTime() time.Time {
	info, err := os.Stat(w.config.Path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
