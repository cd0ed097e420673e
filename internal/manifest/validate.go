package manifest

import (
	"errors"
	"fmt"

	"github.com/flemzord/lineup/pkg/order"
)

// Validate checks the structural validity of a Manifest: the version
// field, step shapes, and the types of the recognized ordering fields.
// Dangling before/after references are legal (the resolver ignores them),
// so they are not flagged here.
func Validate(m *Manifest) error {
	var errs []error

	if m.Version == "" {
		errs = append(errs, errors.New("manifest: version field is required"))
	} else if m.Version != "1" {
		errs = append(errs, fmt.Errorf("manifest: unsupported version %q (supported: \"1\")", m.Version))
	}

	if len(m.Steps) == 0 {
		errs = append(errs, errors.New("manifest: at least one step is required"))
	}

	for i, step := range m.Steps {
		errs = append(errs, validateStep(i, step)...)
	}

	for name, entry := range m.Schema {
		if name == "" {
			errs = append(errs, errors.New("manifest: schema keys must not be empty"))
			continue
		}
		errs = append(errs, validateFields(fmt.Sprintf("schema[%q]", name), entry)...)
	}

	return errors.Join(errs...)
}

func validateStep(i int, step map[string]any) []error {
	where := fmt.Sprintf("steps[%d]", i)

	name, ok := step[order.FieldName]
	if !ok {
		return []error{fmt.Errorf("manifest: %s: name is required", where)}
	}
	if _, ok := name.(string); !ok {
		return []error{fmt.Errorf("manifest: %s: name must be a string, got %T", where, name)}
	}

	return validateFields(where, step)
}

func validateFields(where string, fields map[string]any) []error {
	var errs []error

	for _, key := range []string{order.FieldAfter, order.FieldBefore} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		if !isNameList(v) {
			errs = append(errs, fmt.Errorf("manifest: %s: %s must be a name or list of names, got %T", where, key, v))
		}
	}

	for _, key := range []string{order.FieldDisable, order.FieldVirtual} {
		if v, ok := fields[key]; ok {
			if _, isBool := v.(bool); !isBool {
				errs = append(errs, fmt.Errorf("manifest: %s: %s must be a boolean, got %T", where, key, v))
			}
		}
	}

	if v, ok := fields[order.FieldGroup]; ok {
		if !isNumber(v) {
			errs = append(errs, fmt.Errorf("manifest: %s: group must be a number, got %T", where, v))
		}
	}

	return errs
}

func isNameList(v any) bool {
	switch s := v.(type) {
	case string:
		return true
	case []any:
		for _, e := range s {
			if _, ok := e.(string); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, uint64, float32, float64:
		return true
	default:
		return false
	}
}
