package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls publication of catalog events.
type Config struct {
	Enabled        bool          `yaml:"enabled"`
	NatsURL        string        `yaml:"nats_url"`
	StreamName     string        `yaml:"stream_name"`
	SubjectPrefix  string        `yaml:"subject_prefix"`
	RetryAttempts  int           `yaml:"retry_attempts"`
	FileStorage    bool          `yaml:"file_storage"`
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// DefaultConfig returns the default events configuration. Events are off
// unless explicitly enabled.
func DefaultConfig() Config {
	return Config{
		NatsURL:        "nats://localhost:4222",
		StreamName:     "FILECATALOG",
		SubjectPrefix:  "filecatalog",
		RetryAttempts:  2,
		PublishTimeout: 2 * time.Second,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.NatsURL == "" {
		c.NatsURL = d.NatsURL
	}
	if c.StreamName == "" {
		c.StreamName = d.StreamName
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = d.SubjectPrefix
	}
	if c.PublishTimeout == 0 {
		c.PublishTimeout = d.PublishTimeout
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("NATS_URL"); val != "" {
		c.NatsURL = val
	}
	if val := os.Getenv("CATALOG_EVENTS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Enabled = b
		}
	}
}

// ResolvePaths is a no-op; the events config has no paths.
func (c *Config) ResolvePaths(_ string) {}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.NatsURL == "" {
		return fmt.Errorf("events.nats_url is required when events are enabled")
	}
	if c.StreamName == "" {
		return fmt.Errorf("events.stream_name is required when events are enabled")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("events.retry_attempts cannot be negative")
	}
	return nil
}
