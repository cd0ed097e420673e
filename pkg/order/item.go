package order

import "github.com/flemzord/lineup/pkg/merge"

// Recognized item fields. Anything else passes through the resolver
// untouched.
const (
	FieldName    = "name"
	FieldGroup   = "group"
	FieldAfter   = "after"
	FieldBefore  = "before"
	FieldDisable = "disable"
	FieldVirtual = "virtual"
)

// Wildcard is the schema key whose entry applies to every real item.
const Wildcard = "*"

// Item is one declarative pipeline element subject to ordering. It is a
// plain record: the resolver reads the recognized fields above and carries
// every other key through to the output unchanged. Names are not required
// to be unique — a virtual item shares its name with the real item(s) it
// patches, and repeated registrations of the same name are legal.
type Item map[string]any

// Name returns the item's name, or "" when absent or not a string.
func (it Item) Name() string {
	s, _ := it[FieldName].(string)
	return s
}

// Group returns the item's explicit group, coercing the numeric shapes
// produced by YAML and JSON decoding. ok is false when no group is set.
func (it Item) Group() (float64, bool) {
	return toNumber(it[FieldGroup])
}

// After returns the names this item must be ordered after.
func (it Item) After() []string {
	return stringList(it[FieldAfter])
}

// Before returns the names this item must be ordered before.
func (it Item) Before() []string {
	return stringList(it[FieldBefore])
}

// Disabled reports whether the item is marked disabled.
func (it Item) Disabled() bool {
	b, _ := it[FieldDisable].(bool)
	return b
}

// Virtual reports whether the item is a patch-only entry.
func (it Item) Virtual() bool {
	b, _ := it[FieldVirtual].(bool)
	return b
}

// Clone returns an independent deep copy of the item.
func (it Item) Clone() Item {
	return Item(merge.CloneMap(it))
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// stringList coerces a constraint field into a name list. A bare string is
// treated as a single-element list; non-string elements are skipped (they
// cannot name anything, so they constrain nothing).
func stringList(v any) []string {
	switch s := v.(type) {
	case nil:
		return nil
	case string:
		return []string{s}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if name, ok := e.(string); ok {
				out = append(out, name)
			}
		}
		return out
	default:
		return nil
	}
}
