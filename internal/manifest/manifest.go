// Package manifest handles YAML pipeline manifest loading, environment
// variable expansion, and structural validation.
package manifest

// Manifest is the top-level pipeline document.
type Manifest struct {
	// Version is the manifest format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// DefaultGroup is the group assigned to steps without an explicit one.
	DefaultGroup float64 `yaml:"default_group,omitempty"`

	// Steps is the ordered list of declarative step records. Each step
	// needs at least a name unless it is dropped by normalization;
	// arbitrary extra fields pass through to the resolved plan.
	Steps []map[string]any `yaml:"steps"`

	// Schema maps step names (or "*") to default field fragments merged
	// beneath matching steps. Manifest entries override any defaults the
	// step-kind registry provides for the same name.
	Schema map[string]map[string]any `yaml:"schema,omitempty"`
}
