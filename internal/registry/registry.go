// Package registry holds the process-wide catalog of known step kinds.
// A kind carries the ordering defaults for a named pipeline step, so
// manifests can reference well-known steps without restating their group
// or constraints every time.
package registry

import (
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/flemzord/lineup/pkg/order"
)

// Common group tiers for registered kinds. Manifests may use any number;
// these just give built-in kinds consistent staging.
const (
	GroupEarly   = 100
	GroupDefault = 500
	GroupLate    = 900
)

// Kind describes one well-known step name and its ordering defaults.
type Kind struct {
	// Name is the step name manifests use to reference this kind.
	Name string

	// Group is the default ordering tier. Zero means no default.
	Group float64

	// After and Before are default ordering constraints.
	After  []string
	Before []string

	// Description is shown by CLI listings.
	Description string
}

var (
	kinds   = make(map[string]Kind)
	kindsMu sync.RWMutex
)

// Register adds a kind to the catalog. It panics on an empty name or a
// duplicate registration. Intended to be called from init() functions.
func Register(k Kind) {
	if k.Name == "" {
		panic("registry: kind name must not be empty")
	}

	kindsMu.Lock()
	defer kindsMu.Unlock()

	if _, exists := kinds[k.Name]; exists {
		panic(fmt.Sprintf("registry: kind already registered: %s", k.Name))
	}
	kinds[k.Name] = k
}

// Get returns the kind for the given name, or false if not registered.
func Get(name string) (Kind, bool) {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	k, ok := kinds[name]
	return k, ok
}

// All returns every registered kind sorted by name.
func All() []Kind {
	kindsMu.RLock()
	defer kindsMu.RUnlock()

	result := make([]Kind, 0, len(kinds))
	for _, k := range kinds {
		result = append(result, k)
	}
	slices.SortFunc(result, func(a, b Kind) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return result
}

// Schema converts the catalog into a resolver schema fragment: one entry
// per kind carrying its defaults. Manifest schema entries are merged on
// top of these, so a manifest can override any registered default.
func Schema() map[string]order.Item {
	kindsMu.RLock()
	defer kindsMu.RUnlock()

	schema := make(map[string]order.Item, len(kinds))
	for name, k := range kinds {
		entry := order.Item{}
		if k.Group != 0 {
			entry[order.FieldGroup] = k.Group
		}
		if len(k.After) > 0 {
			entry[order.FieldAfter] = toAny(k.After)
		}
		if len(k.Before) > 0 {
			entry[order.FieldBefore] = toAny(k.Before)
		}
		if len(entry) > 0 {
			schema[name] = entry
		}
	}
	return schema
}

// reset clears the catalog. Only for testing.
func reset() {
	kindsMu.Lock()
	defer kindsMu.Unlock()
	kinds = make(map[string]Kind)
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
