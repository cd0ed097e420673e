// Package order resolves the final ordering of declarative pipeline items.
// Items name themselves, optionally declare before/after relations to other
// names, a numeric group tier, a disable flag, and a virtual flag. A
// Resolver turns an unordered sequence of such records into a finalized,
// deterministically ordered sequence: virtual patches are merged into their
// real counterparts, disabled items are dropped, and the survivors are
// sorted by group, then by constraint order, then by original position.
//
// Run is a pure function of its input and the resolver's configuration:
// the input is never mutated, the output items are independent copies, and
// a single Resolver is safe for concurrent use.
package order

import (
	"errors"
	"fmt"

	"github.com/flemzord/lineup/pkg/merge"
)

// ErrInvalidInput is returned by Run when the input sequence is nil.
var ErrInvalidInput = errors.New("order: input is not an item sequence")

// NormalizeError reports a normalize result that is not a usable item.
type NormalizeError struct {
	// Index is the position of the offending raw item in the input.
	Index int

	// Reason describes what was wrong with the normalized record.
	Reason string
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("order: normalize item %d: %s", e.Index, e.Reason)
}

// NormalizeFunc maps a raw input element to an Item. Returning a nil Item
// (with a nil error) drops the element before any further processing.
type NormalizeFunc func(raw any) (Item, error)

// FinalizeFunc maps a surviving, ordered item to the caller's output shape.
// Returning nil (with a nil error) drops the item from the result.
type FinalizeFunc func(item Item) (any, error)

// Options configures a Resolver. All fields are optional.
type Options struct {
	// Normalize converts raw input elements into Items. The default
	// accepts Item and map[string]any values as-is and rejects anything
	// else with a NormalizeError.
	Normalize NormalizeFunc

	// Finalize converts each ordered item into the caller's output shape.
	// The default passes the Item through unchanged.
	Finalize FinalizeFunc

	// Schema maps item names (or Wildcard) to default field fragments
	// merged beneath matching real items. Virtual items never receive
	// schema defaults.
	Schema map[string]Item

	// DefaultGroup is the group assigned to items without an explicit one.
	DefaultGroup float64
}

// Resolver applies the normalize → schema → virtual-merge → filter →
// sort → finalize pipeline. Configuration is fixed at construction.
type Resolver struct {
	opts Options
}

// New creates a Resolver with the given options.
func New(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

// Run resolves the input sequence into a finalized, ordered sequence.
// A nil input yields ErrInvalidInput; an empty input yields an empty,
// non-nil result. Errors from Normalize and Finalize propagate unwrapped.
func (r *Resolver) Run(items []any) ([]any, error) {
	if items == nil {
		return nil, ErrInvalidInput
	}

	normalized, err := r.normalize(items)
	if err != nil {
		return nil, err
	}

	applied := r.applySchema(normalized)
	merged := mergeVirtual(applied)
	live := dropDisabled(merged)
	sortItems(live, r.opts.DefaultGroup)

	return r.finalize(live)
}

func (r *Resolver) normalize(items []any) ([]Item, error) {
	fn := r.opts.Normalize
	if fn == nil {
		fn = defaultNormalize
	}

	out := make([]Item, 0, len(items))
	for i, raw := range items {
		item, err := fn(raw)
		if err != nil {
			var nerr *NormalizeError
			if errors.As(err, &nerr) {
				nerr.Index = i
			}
			return nil, err
		}
		if item == nil {
			continue
		}
		if item.Name() == "" {
			return nil, &NormalizeError{Index: i, Reason: "missing name"}
		}
		out = append(out, item)
	}
	return out, nil
}

func defaultNormalize(raw any) (Item, error) {
	switch v := raw.(type) {
	case Item:
		return v, nil
	case map[string]any:
		return Item(v), nil
	default:
		return nil, &NormalizeError{Reason: fmt.Sprintf("not a plain record (%T)", raw)}
	}
}

// applySchema rebuilds every item as an independent copy layered, lowest
// priority first, from the empty-constraint base, the wildcard schema
// entry, the name-keyed schema entry, and the item itself. Virtual items
// skip both schema layers: defaults describe real items, and applying them
// to a patch would smuggle them into items the patch merges into.
func (r *Resolver) applySchema(items []Item) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		base := map[string]any{
			FieldAfter:  []any{},
			FieldBefore: []any{},
		}
		if !item.Virtual() {
			if wild, ok := r.opts.Schema[Wildcard]; ok {
				base = merge.Merge(base, wild)
			}
			if named, ok := r.opts.Schema[item.Name()]; ok {
				base = merge.Merge(base, named)
			}
		}
		out[i] = merge.Merge(base, item)
	}
	return out
}

// mergeVirtual folds virtual patches into same-named real items. Patches
// accumulate per name, so a virtual item merges into every real item with
// its name whether it appears before or after them in the input. Virtual
// items themselves are never emitted.
func mergeVirtual(items []Item) []Item {
	out := make([]Item, 0, len(items))
	patches := make(map[string]Item)
	emitted := make(map[string][]int)

	for _, item := range items {
		name := item.Name()

		if item.Virtual() {
			patch := item.Clone()
			delete(patch, FieldVirtual)

			if acc, ok := patches[name]; ok {
				patches[name] = merge.Merge(acc, patch)
			} else {
				patches[name] = patch
			}
			for _, j := range emitted[name] {
				out[j] = merge.Merge(out[j], patch)
			}
			continue
		}

		if patch, ok := patches[name]; ok {
			out = append(out, merge.Merge(patch.Clone(), item))
		} else {
			out = append(out, item)
		}
		emitted[name] = append(emitted[name], len(out)-1)
	}
	return out
}

// dropDisabled removes disabled items before any ordering happens, so a
// disabled item cannot influence the positions of the survivors.
func dropDisabled(items []Item) []Item {
	out := items[:0:0]
	for _, item := range items {
		if !item.Disabled() {
			out = append(out, item)
		}
	}
	return out
}

func (r *Resolver) finalize(items []Item) ([]any, error) {
	fn := r.opts.Finalize
	if fn == nil {
		fn = func(item Item) (any, error) { return item, nil }
	}

	out := make([]any, 0, len(items))
	for _, item := range items {
		v, err := fn(item)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
