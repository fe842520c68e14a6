package config

import (
	"log"
	"os"
	"path/filepath"

	api "github.com/syntrixbase/filecatalog/internal/api/config"
	catalog "github.com/syntrixbase/filecatalog/internal/catalog/config"
	index "github.com/syntrixbase/filecatalog/internal/core/index/config"
	events "github.com/syntrixbase/filecatalog/internal/core/pubsub/config"
	remote "github.com/syntrixbase/filecatalog/internal/core/remote/config"
	"github.com/syntrixbase/filecatalog/internal/metrics"
	"github.com/syntrixbase/filecatalog/internal/server"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server  server.Config  `yaml:"server"`
	Logging LoggingConfig  `yaml:"logging"`
	API     api.Config     `yaml:"api"`
	Metrics metrics.Config `yaml:"metrics"`

	// Components
	Index   index.Config   `yaml:"index"`
	Remote  remote.Config  `yaml:"remote"`
	Catalog catalog.Config `yaml:"catalog"`
	Events  events.Config  `yaml:"events"`
}

// DefaultConfig returns the built-in configuration before any file is read.
func DefaultConfig() *Config {
	return &Config{
		Server:  server.DefaultConfig(),
		Logging: DefaultLoggingConfig(),
		API:     api.DefaultConfig(),
		Metrics: metrics.DefaultConfig(),
		Index:   index.DefaultConfig(),
		Remote:  remote.DefaultConfig(),
		Catalog: catalog.DefaultConfig(),
		Events:  events.DefaultConfig(),
	}
}

// LoadConfig loads configuration from configDir and environment variables.
// Order: defaults -> config.yml -> config.local.yml -> ApplyDefaults ->
// ApplyEnvOverrides -> ResolvePaths -> Validate
func LoadConfig(configDir string) (*Config, error) {
	// Start with defaults so YAML can override them, including bool fields
	cfg := DefaultConfig()

	loadFile(filepath.Join(configDir, "config.yml"), cfg)
	loadFile(filepath.Join(configDir, "config.local.yml"), cfg)

	if err := ApplyServiceConfigs(configDir,
		&cfg.Server,
		&cfg.Logging,
		&cfg.API,
		&cfg.Metrics,
		&cfg.Index,
		&cfg.Remote,
		&cfg.Catalog,
		&cfg.Events,
	); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(filename string, cfg *Config) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return // File doesn't exist, skip
		}
		log.Printf("Warning: Error reading %s: %v", filename, err)
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		log.Printf("Warning: Error parsing %s: %v", filename, err)
	}
}
