package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestDefaultLoggingConfig(t *testing.T) {
	cfg := DefaultLoggingConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "logs", cfg.Dir)
	assert.Equal(t, 100, cfg.Rotation.MaxSize)
	assert.Equal(t, 10, cfg.Rotation.MaxBackups)
	assert.Equal(t, 30, cfg.Rotation.MaxAge)
	assert.True(t, cfg.Rotation.Compress)
	assert.True(t, cfg.Console.Enabled)
	assert.True(t, cfg.File.Enabled)
	assert.Equal(t, 30*time.Second, cfg.RepeatWindow)
}

func TestLoggingConfigYAMLParsing(t *testing.T) {
	yamlData := `
level: "debug"
format: "json"
dir: "/var/log/filecatalog"
repeat_window: 1m
rotation:
  max_size: 50
  max_backups: 5
  max_age: 14
  compress: false
console:
  enabled: false
  level: "warn"
  format: "text"
file:
  enabled: true
  level: "info"
  format: "json"
`

	var cfg LoggingConfig
	err := yaml.Unmarshal([]byte(yamlData), &cfg)

	assert.NoError(t, err)
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "/var/log/filecatalog", cfg.Dir)
	assert.Equal(t, 50, cfg.Rotation.MaxSize)
	assert.Equal(t, time.Minute, cfg.RepeatWindow)
	assert.False(t, cfg.Console.Enabled)
	assert.Equal(t, "json", cfg.File.Format)
}

func TestLoggingConfigApplyDefaults(t *testing.T) {
	cfg := &LoggingConfig{}
	cfg.ApplyDefaults()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "logs", cfg.Dir)
	assert.Equal(t, 100, cfg.Rotation.MaxSize)
	// Compress is a bool; a zero value cannot be told apart from "off"
	assert.False(t, cfg.Rotation.Compress)
	assert.True(t, cfg.Console.Enabled)
	assert.True(t, cfg.File.Enabled)
	assert.Equal(t, 30*time.Second, cfg.RepeatWindow)
}

func TestLoggingConfigApplyDefaultsWithPartialConfig(t *testing.T) {
	cfg := &LoggingConfig{
		Level:  "debug",
		Format: "json",
		Console: OutputConfig{
			Enabled: true,
			Level:   "warn",
		},
		RepeatWindow: -1,
	}
	cfg.ApplyDefaults()

	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "warn", cfg.Console.Level)
	assert.Equal(t, time.Duration(-1), cfg.RepeatWindow)

	assert.Equal(t, "logs", cfg.Dir)
	assert.Equal(t, "json", cfg.Console.Format)
	assert.True(t, cfg.File.Enabled)
	assert.Equal(t, "debug", cfg.File.Level)
	assert.Equal(t, "json", cfg.File.Format)
}

func TestLoggingConfigApplyEnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_LOG_LEVEL", "error")
	t.Setenv("CATALOG_LOG_DIR", "/var/log/catalog")

	cfg := DefaultLoggingConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "error", cfg.Level)
	assert.Equal(t, "error", cfg.Console.Level)
	assert.Equal(t, "error", cfg.File.Level)
	assert.Equal(t, "/var/log/catalog", cfg.Dir)
}

func TestLoggingConfigResolvePaths(t *testing.T) {
	tests := []struct {
		name      string
		configDir string
		dir       string
		expected  string
	}{
		{"relative path next to config dir", "/app/config", "logs", "/app/logs"},
		{"absolute path unchanged", "/app/config", "/var/log/catalog", "/var/log/catalog"},
		{"relative with subdirs", "/app/config", "logs/app", "/app/logs/app"},
		{"empty dir unchanged", "/app/config", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &LoggingConfig{Dir: tt.dir}
			cfg.ResolvePaths(tt.configDir)
			assert.Equal(t, tt.expected, cfg.Dir)
		})
	}
}

func TestLoggingConfigValidation(t *testing.T) {
	base := func() LoggingConfig {
		return LoggingConfig{Level: "info", Format: "text", Dir: "logs"}
	}
	tests := []struct {
		name        string
		mutate      func(*LoggingConfig)
		expectError bool
	}{
		{"valid config", func(*LoggingConfig) {}, false},
		{"invalid level", func(c *LoggingConfig) { c.Level = "invalid" }, true},
		{"invalid format", func(c *LoggingConfig) { c.Format = "xml" }, true},
		{"empty dir", func(c *LoggingConfig) { c.Dir = "" }, true},
		{"invalid console level when enabled", func(c *LoggingConfig) {
			c.Console = OutputConfig{Enabled: true, Level: "invalid", Format: "text"}
		}, true},
		{"invalid file format when enabled", func(c *LoggingConfig) {
			c.File = OutputConfig{Enabled: true, Level: "info", Format: "xml"}
		}, true},
		{"disabled sink is not checked", func(c *LoggingConfig) {
			c.File = OutputConfig{Enabled: false, Level: "invalid"}
		}, false},
		{"valid overrides", func(c *LoggingConfig) {
			c.Console = OutputConfig{Enabled: true, Level: "debug", Format: "text"}
			c.File = OutputConfig{Enabled: true, Level: "warn", Format: "json"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
