package order

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sortedNames(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name()
	}
	return out
}

func TestSortItems_AfterResolvesAgainstLastOccurrence(t *testing.T) {
	t.Parallel()

	// "x" appears twice; "tail" must land after the later occurrence.
	items := []Item{
		{"name": "x", "slot": 1},
		{"name": "tail", "after": []any{"x"}},
		{"name": "x", "slot": 2},
	}
	sortItems(items, 0)

	if diff := cmp.Diff([]string{"x", "x", "tail"}, sortedNames(items)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortItems_BeforeAttachesToFirstOccurrence(t *testing.T) {
	t.Parallel()

	// "head" declares before:x; the edge lands on the first "x", which
	// then chases head's last occurrence. Both x entries end up trailing.
	items := []Item{
		{"name": "x", "slot": 1},
		{"name": "head", "before": []any{"x"}},
		{"name": "x", "slot": 2},
	}
	sortItems(items, 0)

	got := sortedNames(items)
	if got[0] != "head" {
		t.Errorf("order = %v, want head first", got)
	}
}

func TestSortItems_ChainedConstraints(t *testing.T) {
	t.Parallel()

	items := []Item{
		{"name": "c", "after": []any{"b"}},
		{"name": "b", "after": []any{"a"}},
		{"name": "a"},
	}
	sortItems(items, 0)

	if diff := cmp.Diff([]string{"a", "b", "c"}, sortedNames(items)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSortItems_UnconstrainedSpacing(t *testing.T) {
	t.Parallel()

	// Many constrained items slot between two unconstrained neighbours
	// without crossing into the next tier.
	items := []Item{
		{"name": "anchor"},
		{"name": "p1", "after": []any{"anchor"}},
		{"name": "p2", "after": []any{"anchor"}},
		{"name": "p3", "after": []any{"p1"}},
		{"name": "last"},
	}
	sortItems(items, 0)

	got := sortedNames(items)
	if got[0] != "anchor" {
		t.Errorf("order = %v, want anchor first", got)
	}
	if got[len(got)-1] != "last" {
		t.Errorf("order = %v, want last to stay last", got)
	}
	if indexOf(got, "p3") < indexOf(got, "p1") {
		t.Errorf("order = %v, want p3 after p1", got)
	}
}

func TestSortItems_SelfReferenceTerminates(t *testing.T) {
	t.Parallel()

	items := []Item{
		{"name": "loop", "after": []any{"loop"}},
		{"name": "other"},
	}
	sortItems(items, 0)

	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
}

func TestSortItems_GroupBeatsConstraintOrder(t *testing.T) {
	t.Parallel()

	// Constraint order only breaks ties within a group tier.
	items := []Item{
		{"name": "late", "group": 900},
		{"name": "early", "group": 100, "after": []any{"late"}},
	}
	sortItems(items, 0)

	if diff := cmp.Diff([]string{"early", "late"}, sortedNames(items)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}
