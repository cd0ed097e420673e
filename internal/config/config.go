// Package config handles YAML configuration loading and validation for
// the lineup service. Pipeline manifests are handled separately by the
// manifest package; this covers the serve-mode settings only.
package config

import (
	"log/slog"
	"time"
)

const (
	defaultListen        = "127.0.0.1:8484"
	defaultRetention     = "720h"
	defaultPruneSchedule = "0 3 * * *"
	defaultPollInterval  = "5s"
)

// Config is the top-level service configuration.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Manifest is the path of the pipeline manifest served and watched.
	Manifest string `yaml:"manifest"`

	// Listen is the HTTP listen address.
	Listen string `yaml:"listen,omitempty"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level,omitempty"`

	Auth    AuthConfig    `yaml:"auth,omitempty"`
	History HistoryConfig `yaml:"history,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty"`
}

// AuthConfig protects the admin endpoints. An empty token disables them.
type AuthConfig struct {
	Token string `yaml:"token,omitempty"`
}

// IsConfigured reports whether admin endpoints should be mounted.
func (a AuthConfig) IsConfigured() bool {
	return a.Token != ""
}

// HistoryConfig controls the resolution history store. An empty path
// disables history entirely.
type HistoryConfig struct {
	// Path is the SQLite database file.
	Path string `yaml:"path,omitempty"`

	// Retention is how long resolution records are kept (Go duration).
	Retention string `yaml:"retention,omitempty"`

	// PruneSchedule is the cron expression for the retention job.
	PruneSchedule string `yaml:"prune_schedule,omitempty"`
}

// Enabled reports whether a history store should be opened.
func (h HistoryConfig) Enabled() bool {
	return h.Path != ""
}

// RetentionDuration parses the retention setting.
func (h HistoryConfig) RetentionDuration() (time.Duration, error) {
	return time.ParseDuration(h.Retention)
}

// WatchConfig controls manifest change detection.
type WatchConfig struct {
	// PollInterval is how often the manifest file is checked (Go duration).
	PollInterval string `yaml:"poll_interval,omitempty"`
}

// PollDuration parses the poll interval setting.
func (w WatchConfig) PollDuration() (time.Duration, error) {
	return time.ParseDuration(w.PollInterval)
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.History.Retention == "" {
		c.History.Retention = defaultRetention
	}
	if c.History.PruneSchedule == "" {
		c.History.PruneSchedule = defaultPruneSchedule
	}
	if c.Watch.PollInterval == "" {
		c.Watch.PollInterval = defaultPollInterval
	}
}

// Level converts the configured log level into a slog.Level. Unknown
// values fall back to info; Validate reports them as errors.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
