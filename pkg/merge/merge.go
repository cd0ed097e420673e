// Package merge implements the deep-merge semantics used by the order
// resolver: nested maps merge recursively, slices concatenate, and scalars
// from the source overwrite the destination. A Transform value in the source
// replaces the default rule for that key.
package merge

// Transform is the customizer escape hatch. When a source value is a
// Transform, it is called with the destination's current value (or nil)
// and its return value is stored instead of running the default merge rule.
type Transform func(prev any) any

// Merge deep-merges src into dst and returns dst. dst is mutated; src is
// never modified. Values copied out of src are cloned, so later mutation of
// the result cannot alias back into src.
//
// Rules, per key:
//   - both values are maps: merged recursively
//   - both values are slices: concatenated (dst elements first)
//   - src value is a Transform: applied to the dst value
//   - anything else: the src value (cloned) overwrites
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for key, sv := range src {
		dst[key] = mergeValue(dst[key], sv)
	}
	return dst
}

func mergeValue(dv, sv any) any {
	if fn, ok := sv.(Transform); ok {
		return fn(dv)
	}

	if sm, ok := toMap(sv); ok {
		if dm, ok := toMap(dv); ok {
			return Merge(dm, sm)
		}
		return CloneMap(sm)
	}

	if ss, ok := toSlice(sv); ok {
		if ds, ok := toSlice(dv); ok {
			out := make([]any, 0, len(ds)+len(ss))
			out = append(out, ds...)
			for _, v := range ss {
				out = append(out, cloneValue(v))
			}
			return out
		}
		return cloneSlice(ss)
	}

	return sv
}

// CloneMap returns an independent deep copy of m. Nested maps and slices are
// copied; scalar values are shared (they are immutable by convention).
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	if m, ok := toMap(v); ok {
		return CloneMap(m)
	}
	if s, ok := toSlice(v); ok {
		return cloneSlice(s)
	}
	return v
}

func cloneSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}

// toMap normalizes the map shapes produced by YAML and JSON decoding.
func toMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	default:
		return nil, false
	}
}

// toSlice accepts []any as well as []string, the two slice shapes that
// reach the resolver from decoded documents and hand-written literals.
func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}
