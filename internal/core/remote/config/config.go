package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config selects and configures the authoritative remote file store.
type Config struct {
	Type     string `yaml:"type"` // s3, minio, memory
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	Bucket   string `yaml:"bucket"`
	Secure   bool   `yaml:"secure"`

	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	SessionToken string `yaml:"session_token"`

	// PageSize bounds entries per List page.
	PageSize int `yaml:"page_size"`
	// MaxSearchResults caps SearchByName, which scans the whole bucket.
	MaxSearchResults int `yaml:"max_search_results"`
	// Direct makes searches consult the remote store before the index.
	Direct bool `yaml:"direct"`

	Timeout time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default remote configuration.
func DefaultConfig() Config {
	return Config{
		Type:             "s3",
		Region:           "us-east-1",
		Bucket:           "files",
		PageSize:         1000,
		MaxSearchResults: 10000,
		Timeout:          5 * time.Second,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Type == "" {
		c.Type = d.Type
	}
	if c.Region == "" {
		c.Region = d.Region
	}
	if c.Bucket == "" {
		c.Bucket = d.Bucket
	}
	if c.PageSize == 0 {
		c.PageSize = d.PageSize
	}
	if c.MaxSearchResults == 0 {
		c.MaxSearchResults = d.MaxSearchResults
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("CATALOG_REMOTE_TYPE"); val != "" {
		c.Type = val
	}
	if val := os.Getenv("CATALOG_REMOTE_ENDPOINT"); val != "" {
		c.Endpoint = val
	}
	if val := os.Getenv("CATALOG_REMOTE_BUCKET"); val != "" {
		c.Bucket = val
	}
	if val := os.Getenv("CATALOG_REMOTE_DIRECT"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Direct = b
		}
	}
	if val := os.Getenv("AWS_REGION"); val != "" {
		c.Region = val
	}
	if val := os.Getenv("AWS_ACCESS_KEY_ID"); val != "" {
		c.AccessKey = val
	}
	if val := os.Getenv("AWS_SECRET_ACCESS_KEY"); val != "" {
		c.SecretKey = val
	}
	if val := os.Getenv("CATALOG_REMOTE_TOKEN"); val != "" {
		c.SessionToken = val
	}
}

// ResolvePaths is a no-op; the remote config has no paths.
func (c *Config) ResolvePaths(_ string) {}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	switch c.Type {
	case "memory":
		return nil
	case "s3":
	case "minio":
		if c.Endpoint == "" {
			return fmt.Errorf("remote.endpoint is required for minio")
		}
	default:
		return fmt.Errorf("unknown remote type: %q (must be s3, minio or memory)", c.Type)
	}
	if c.Bucket == "" {
		return fmt.Errorf("remote.bucket cannot be empty")
	}
	if c.PageSize < 1 || c.PageSize > 1000 {
		return fmt.Errorf("remote.page_size must be between 1 and 1000, got %d", c.PageSize)
	}
	if c.MaxSearchResults < 1 {
		return fmt.Errorf("remote.max_search_results must be positive")
	}
	return nil
}
