package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lineup.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
version: "1"
manifest: pipeline.yaml
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Listen != defaultListen {
		t.Errorf("Listen = %q, want default %q", cfg.Listen, defaultListen)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Watch.PollInterval != defaultPollInterval {
		t.Errorf("PollInterval = %q, want default", cfg.Watch.PollInterval)
	}
	if cfg.History.Enabled() {
		t.Error("history should be disabled without a path")
	}
	if cfg.Auth.IsConfigured() {
		t.Error("auth should be unconfigured without a token")
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("LINEUP_TEST_TOKEN", "hunter2")

	cfg, err := Load(writeConfig(t, `
version: "1"
manifest: pipeline.yaml
auth:
  token: ${LINEUP_TEST_TOKEN}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Token != "hunter2" {
		t.Errorf("Token = %q, want env value", cfg.Auth.Token)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing version",
			mutate:  func(c *Config) { c.Version = "" },
			wantErr: "version field is required",
		},
		{
			name:    "missing manifest",
			mutate:  func(c *Config) { c.Manifest = "" },
			wantErr: "manifest path is required",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "loud" },
			wantErr: "unknown log_level",
		},
		{
			name: "bad retention",
			mutate: func(c *Config) {
				c.History.Path = "h.db"
				c.History.Retention = "a month"
			},
			wantErr: "history.retention",
		},
		{
			name:    "bad poll interval",
			mutate:  func(c *Config) { c.Watch.PollInterval = "soon" },
			wantErr: "watch.poll_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{Version: "1", Manifest: "pipeline.yaml"}
			cfg.defaults()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Level(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		if got := cfg.Level(); got != tt.want {
			t.Errorf("Level(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
