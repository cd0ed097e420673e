package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/flemzord/lineup/internal/manifest"
)

// Load reads a YAML service configuration file, expands environment
// variables, parses it, and applies defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded, err := manifest.ExpandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.defaults()
	return &cfg, nil
}

// Validate checks the structural validity of a Config.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.Manifest == "" {
		errs = append(errs, errors.New("config: manifest path is required"))
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("config: unknown log_level %q", cfg.LogLevel))
	}

	if cfg.History.Enabled() {
		if _, err := cfg.History.RetentionDuration(); err != nil {
			errs = append(errs, fmt.Errorf("config: history.retention: %w", err))
		}
	}

	if _, err := cfg.Watch.PollDuration(); err != nil {
		errs = append(errs, fmt.Errorf("config: watch.poll_interval: %w", err))
	}

	return errors.Join(errs...)
}
