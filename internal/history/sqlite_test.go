package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/flemzord/lineup/internal/engine"
)

func openStore(t *testing.T) Store {
	t.Helper()

	store, db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return store
}

func testPlan(names ...string) *engine.Plan {
	steps := make([]engine.Step, len(names))
	for i, n := range names {
		steps[i] = engine.Step{Name: n, Group: 500}
	}
	return &engine.Plan{
		Steps:      steps,
		ResolvedAt: time.Now(),
		Duration:   3 * time.Millisecond,
	}
}

func TestStore_RecordAndRecent(t *testing.T) {
	t.Parallel()

	store := openStore(t)

	if _, err := store.Record("pipeline.yaml", testPlan("a", "b")); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := store.Record("api", testPlan("a", "b", "c")); err != nil {
		t.Fatalf("Record: %v", err)
	}

	records, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	// Newest first.
	if records[0].Source != "api" || records[0].StepCount != 3 {
		t.Errorf("records[0] = %+v, want the api resolution", records[0])
	}
	if records[1].Source != "pipeline.yaml" {
		t.Errorf("records[1].Source = %q, want pipeline.yaml", records[1].Source)
	}

	wantSteps := []engine.Step{
		{Name: "a", Group: 500},
		{Name: "b", Group: 500},
		{Name: "c", Group: 500},
	}
	if diff := cmp.Diff(wantSteps, records[0].Steps); diff != "" {
		t.Errorf("steps round-trip mismatch (-want +got):\n%s", diff)
	}

	if records[0].Fingerprint == "" || records[0].Fingerprint == records[1].Fingerprint {
		t.Error("fingerprints should be non-empty and distinct for different plans")
	}
	if records[0].CreatedAt.IsZero() {
		t.Error("CreatedAt not populated")
	}
	if records[0].Duration != 3*time.Millisecond {
		t.Errorf("Duration = %v, want 3ms", records[0].Duration)
	}
}

func TestStore_RecentLimit(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	for range 5 {
		if _, err := store.Record("api", testPlan("a")); err != nil {
			t.Fatal(err)
		}
	}

	records, err := store.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}

	records, err = store.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if records != nil {
		t.Errorf("Recent(0) = %v, want nil", records)
	}
}

func TestStore_Prune(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	if _, err := store.Record("api", testPlan("a")); err != nil {
		t.Fatal(err)
	}

	// Everything is newer than an hour ago.
	n, err := store.Prune(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 0 {
		t.Errorf("pruned %d records, want 0", n)
	}

	// Everything is older than an hour from now.
	n, err = store.Prune(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d records, want 1", n)
	}

	records, err := store.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records after prune, want 0", len(records))
	}
}

func TestStore_PruneCutoffIsInclusive(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	if _, err := store.Record("api", testPlan("a")); err != nil {
		t.Fatal(err)
	}

	// A cutoff taken right after the insert can land in the same
	// millisecond as the stored created_at; the record must still count
	// as expired.
	n, err := store.Prune(time.Now())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d records, want 1", n)
	}
}

func TestOpen_CreatesParentDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := store.Record("api", testPlan("a")); err != nil {
		t.Errorf("Record after nested create: %v", err)
	}
}

func TestOpen_MigrationIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")

	_, db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	store, db, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := store.Recent(1); err != nil {
		t.Errorf("Recent after re-open: %v", err)
	}
}
