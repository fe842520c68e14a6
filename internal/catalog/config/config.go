package config

import (
	"fmt"
	"time"
)

// Config tunes the catalog components: reads, tag mutation, search and the
// reconciliation schedule.
type Config struct {
	ReadTimeout time.Duration `yaml:"read_timeout"`

	WriteTimeout time.Duration `yaml:"write_timeout"`
	// ConflictRetry is how many version conflicts a tag update retries.
	// Zero disables retrying; it is not replaced by the default.
	ConflictRetry int `yaml:"conflict_retry"`

	SearchLimit   int           `yaml:"search_limit"`
	SearchTimeout time.Duration `yaml:"search_timeout"`

	Reconcile ReconcileConfig `yaml:"reconcile"`
}

// ReconcileConfig controls the readiness gate and the fixed-delay schedule.
type ReconcileConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Interval     time.Duration `yaml:"interval"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	GateAttempts int           `yaml:"gate_attempts"`
	GateDelay    time.Duration `yaml:"gate_delay"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	RunTimeout   time.Duration `yaml:"run_timeout"`
}

// DefaultConfig returns the default catalog configuration.
func DefaultConfig() Config {
	return Config{
		ReadTimeout:   3 * time.Second,
		WriteTimeout:  time.Second,
		ConflictRetry: 3,
		SearchLimit:   10000,
		SearchTimeout: 5 * time.Second,
		Reconcile: ReconcileConfig{
			Enabled:      true,
			Interval:     600 * time.Second,
			InitialDelay: 600 * time.Second,
			GateAttempts: 3,
			GateDelay:    10 * time.Second,
			ProbeTimeout: 5 * time.Second,
			RunTimeout:   30 * time.Minute,
		},
	}
}

// ApplyDefaults fills in zero values with defaults. ConflictRetry is left
// alone because zero is a valid setting; LoadConfig starts from
// DefaultConfig so an unset value still gets the default.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.SearchLimit == 0 {
		c.SearchLimit = d.SearchLimit
	}
	if c.SearchTimeout == 0 {
		c.SearchTimeout = d.SearchTimeout
	}
	r, dr := &c.Reconcile, d.Reconcile
	if r.Interval == 0 {
		r.Interval = dr.Interval
	}
	if r.InitialDelay == 0 {
		r.InitialDelay = dr.InitialDelay
	}
	if r.GateAttempts == 0 {
		r.GateAttempts = dr.GateAttempts
	}
	if r.GateDelay == 0 {
		r.GateDelay = dr.GateDelay
	}
	if r.ProbeTimeout == 0 {
		r.ProbeTimeout = dr.ProbeTimeout
	}
	if r.RunTimeout == 0 {
		r.RunTimeout = dr.RunTimeout
	}
}

// ApplyEnvOverrides is a no-op; catalog tuning comes from files only.
func (c *Config) ApplyEnvOverrides() {}

// ResolvePaths is a no-op; the catalog config has no paths.
func (c *Config) ResolvePaths(_ string) {}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.ConflictRetry < 0 {
		return fmt.Errorf("catalog.conflict_retry cannot be negative")
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("catalog.search_limit must be positive")
	}
	if c.Reconcile.Interval <= 0 {
		return fmt.Errorf("catalog.reconcile.interval must be positive")
	}
	if c.Reconcile.InitialDelay < 0 || c.Reconcile.GateDelay < 0 {
		return fmt.Errorf("catalog.reconcile delays cannot be negative")
	}
	if c.Reconcile.GateAttempts < 1 {
		return fmt.Errorf("catalog.reconcile.gate_attempts must be at least 1")
	}
	return nil
}
