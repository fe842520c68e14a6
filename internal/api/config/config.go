package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds settings of the REST surface.
type Config struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	Auth           AuthConfig    `yaml:"auth"`
}

// AuthConfig enables bearer-token checks on tag mutations and admin routes.
// An empty secret disables authentication.
type AuthConfig struct {
	Secret   string `yaml:"secret"`
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

// DefaultConfig returns the default API configuration.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: 10 * time.Second,
		MaxBodyBytes:   1 << 20,
	}
}

// Enabled reports whether authentication is required.
func (a AuthConfig) Enabled() bool { return a.Secret != "" }

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.RequestTimeout == 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("CATALOG_AUTH_SECRET"); val != "" {
		c.Auth.Secret = val
	}
}

// ResolvePaths is a no-op; the API config has no paths.
func (c *Config) ResolvePaths(_ string) {}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("api.request_timeout must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("api.max_body_bytes must be positive")
	}
	if c.Auth.Enabled() && len(c.Auth.Secret) < 16 {
		return fmt.Errorf("api.auth.secret must be at least 16 bytes")
	}
	return nil
}
