package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Step is one resolved pipeline element.
type Step struct {
	// Name is the step's declared name. Not necessarily unique.
	Name string `json:"name" yaml:"name"`

	// Group is the ordering tier the step resolved into.
	Group float64 `json:"group" yaml:"group"`

	// Options carries every non-ordering field of the original step.
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// Plan is the ordered result of resolving one manifest.
type Plan struct {
	Steps      []Step        `json:"steps"`
	ResolvedAt time.Time     `json:"resolved_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// Names returns the step names in plan order.
func (p *Plan) Names() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Name
	}
	return out
}

// Fingerprint is a stable hash of the plan's steps. Two plans with the
// same steps in the same order share a fingerprint regardless of when
// they were resolved (json.Marshal sorts map keys, so Options encode
// deterministically).
func (p *Plan) Fingerprint() string {
	data, err := json.Marshal(p.Steps)
	if err != nil {
		// Steps come from YAML/JSON decoding and carry only plain values.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
