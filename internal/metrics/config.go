package metrics

import "fmt"

// Config controls the Prometheus exposition endpoint.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() Config {
	return Config{Enabled: true, Path: "/metrics"}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.Path == "" {
		c.Path = DefaultConfig().Path
	}
}

// ApplyEnvOverrides is a no-op.
func (c *Config) ApplyEnvOverrides() {}

// ResolvePaths is a no-op.
func (c *Config) ResolvePaths(_ string) {}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.Enabled && (c.Path == "" || c.Path[0] != '/') {
		return fmt.Errorf("metrics.path must start with '/': %q", c.Path)
	}
	return nil
}
