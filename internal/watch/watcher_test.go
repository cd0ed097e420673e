package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	writeFile(t, path, "initial")

	w := NewWatcher(Config{
		Path:         path,
		PollInterval: 50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	// Wait for the watcher to read the initial modtime.
	time.Sleep(100 * time.Millisecond)

	writeFile(t, path, "modified")

	select {
	case evt := <-w.Events():
		if evt.Path != path {
			t.Errorf("got path %q, want %q", evt.Path, path)
		}
		if evt.ModTime.IsZero() {
			t.Error("event has zero modtime")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for file change event")
	}
}

func TestWatcher_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	writeFile(t, path, "data")

	w := NewWatcher(Config{
		Path:         path,
		PollInterval: 50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return in time")
	}
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	w := NewWatcher(Config{Path: "/any/path"})

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop before Start deadlocked")
	}
}

func TestWatcher_MissingFile(t *testing.T) {
	w := NewWatcher(Config{
		Path:         "/nonexistent/pipeline.yaml",
		PollInterval: 50 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	select {
	case evt := <-w.Events():
		t.Errorf("unexpected event: %+v", evt)
	case <-ctx.Done():
		// OK — no events for a missing file.
	}
}
