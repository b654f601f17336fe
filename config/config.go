// Package config provides configuration loading and management for
// Novelaire.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfigFile is the name of the project-level config file.
const ProjectConfigFile = "novelaire.yaml"

// Config represents the complete Novelaire configuration.
type Config struct {
	Project ProjectConfig `yaml:"project"`
	Events  EventsConfig  `yaml:"events"`
	Watch   WatchConfig   `yaml:"watch"`
	Ingest  IngestConfig  `yaml:"ingest"`
}

// ProjectConfig configures the project location.
type ProjectConfig struct {
	// Root is the project root path (auto-detected from .novelaire if empty).
	Root string `yaml:"root"`
}

// EventsConfig configures best-effort workflow event publishing.
type EventsConfig struct {
	// URL is the NATS server URL (empty = publishing disabled).
	URL string `yaml:"url"`
	// SubjectPrefix is the subject prefix for workflow events.
	SubjectPrefix string `yaml:"subject_prefix"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// DebounceDelay is how long to wait for more changes before re-gating.
	DebounceDelay time.Duration `yaml:"debounce_delay"`
	// MetricsAddr is the listen address for the /metrics endpoint.
	MetricsAddr string `yaml:"metrics_addr"`
}

// IngestConfig configures the reference importer.
type IngestConfig struct {
	// Timeout is the maximum time to wait for a fetch.
	Timeout time.Duration `yaml:"timeout"`
	// UserAgent is sent on outbound requests.
	UserAgent string `yaml:"user_agent"`
	// MaxContentSize caps fetched payloads in bytes.
	MaxContentSize int64 `yaml:"max_content_size"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Project: ProjectConfig{
			Root: "", // Auto-detect
		},
		Events: EventsConfig{
			URL:           "",
			SubjectPrefix: "novelaire.events",
		},
		Watch: WatchConfig{
			DebounceDelay: 500 * time.Millisecond,
			MetricsAddr:   "localhost:9472",
		},
		Ingest: IngestConfig{
			Timeout:        30 * time.Second,
			UserAgent:      "novelaire/1.0 reference importer",
			MaxContentSize: 10 << 20,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Events.SubjectPrefix == "" {
		return fmt.Errorf("events.subject_prefix is required")
	}
	if c.Watch.DebounceDelay <= 0 {
		return fmt.Errorf("watch.debounce_delay must be positive")
	}
	if c.Ingest.MaxContentSize <= 0 {
		return fmt.Errorf("ingest.max_content_size must be positive")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Project.Root != "" {
		c.Project.Root = other.Project.Root
	}

	if other.Events.URL != "" {
		c.Events.URL = other.Events.URL
	}
	if other.Events.SubjectPrefix != "" {
		c.Events.SubjectPrefix = other.Events.SubjectPrefix
	}

	if other.Watch.DebounceDelay != 0 {
		c.Watch.DebounceDelay = other.Watch.DebounceDelay
	}
	if other.Watch.MetricsAddr != "" {
		c.Watch.MetricsAddr = other.Watch.MetricsAddr
	}

	if other.Ingest.Timeout != 0 {
		c.Ingest.Timeout = other.Ingest.Timeout
	}
	if other.Ingest.UserAgent != "" {
		c.Ingest.UserAgent = other.Ingest.UserAgent
	}
	if other.Ingest.MaxContentSize != 0 {
		c.Ingest.MaxContentSize = other.Ingest.MaxContentSize
	}
}
