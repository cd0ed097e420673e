package manifest

import (
	"strings"
	"testing"
)

func validManifest() *Manifest {
	return &Manifest{
		Version: "1",
		Steps: []map[string]any{
			{"name": "compile"},
			{"name": "minify", "group": 900, "after": []any{"compile"}},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()

	if err := Validate(validManifest()); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Manifest)
		wantErr string
	}{
		{
			name:    "missing version",
			mutate:  func(m *Manifest) { m.Version = "" },
			wantErr: "version field is required",
		},
		{
			name:    "unsupported version",
			mutate:  func(m *Manifest) { m.Version = "2" },
			wantErr: "unsupported version",
		},
		{
			name:    "no steps",
			mutate:  func(m *Manifest) { m.Steps = nil },
			wantErr: "at least one step",
		},
		{
			name: "step without name",
			mutate: func(m *Manifest) {
				m.Steps = append(m.Steps, map[string]any{"group": 100})
			},
			wantErr: "name is required",
		},
		{
			name: "non-string name",
			mutate: func(m *Manifest) {
				m.Steps = append(m.Steps, map[string]any{"name": 42})
			},
			wantErr: "name must be a string",
		},
		{
			name: "bad after type",
			mutate: func(m *Manifest) {
				m.Steps[0]["after"] = 42
			},
			wantErr: "after must be a name or list of names",
		},
		{
			name: "bad before element",
			mutate: func(m *Manifest) {
				m.Steps[0]["before"] = []any{"ok", 42}
			},
			wantErr: "before must be a name or list of names",
		},
		{
			name: "non-bool disable",
			mutate: func(m *Manifest) {
				m.Steps[0]["disable"] = "yes"
			},
			wantErr: "disable must be a boolean",
		},
		{
			name: "non-numeric group",
			mutate: func(m *Manifest) {
				m.Steps[0]["group"] = "high"
			},
			wantErr: "group must be a number",
		},
		{
			name: "bad schema entry",
			mutate: func(m *Manifest) {
				m.Schema = map[string]map[string]any{
					"compile": {"after": 42},
				}
			},
			wantErr: "after must be a name or list of names",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := validManifest()
			tt.mutate(m)

			err := Validate(m)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	m := &Manifest{
		Steps: []map[string]any{
			{"group": 1},
		},
	}

	err := Validate(m)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"version field is required", "name is required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error %q missing %q", err, want)
		}
	}
}
