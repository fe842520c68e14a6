package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config selects and configures the index backend.
type Config struct {
	Type       string         `yaml:"type"` // memory, mongo, postgres, pebble
	Collection string         `yaml:"collection"`
	Mongo      MongoConfig    `yaml:"mongo"`
	Postgres   PostgresConfig `yaml:"postgres"`
	Pebble     PebbleConfig   `yaml:"pebble"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI          string `yaml:"uri"`
	DatabaseName string `yaml:"database_name"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	DSN          string        `yaml:"dsn"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	ConnMaxLife  time.Duration `yaml:"conn_max_lifetime"`
}

// PebbleConfig holds embedded PebbleDB settings.
type PebbleConfig struct {
	Path           string `yaml:"path"`
	BlockCacheSize int64  `yaml:"block_cache_size"`
}

// DefaultConfig returns the default index configuration.
func DefaultConfig() Config {
	return Config{
		Type:       "mongo",
		Collection: "files",
		Mongo: MongoConfig{
			URI:          "mongodb://localhost:27017",
			DatabaseName: "filecatalog",
		},
		Postgres: PostgresConfig{
			DSN:          "postgres://localhost:5432/filecatalog?sslmode=disable",
			MaxOpenConns: 20,
			MaxIdleConns: 5,
			ConnMaxLife:  30 * time.Minute,
		},
		Pebble: PebbleConfig{
			Path:           "data/index",
			BlockCacheSize: 64 * 1024 * 1024, // 64MB
		},
		ConnectTimeout: 10 * time.Second,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Type == "" {
		c.Type = d.Type
	}
	if c.Collection == "" {
		c.Collection = d.Collection
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = d.Mongo.URI
	}
	if c.Mongo.DatabaseName == "" {
		c.Mongo.DatabaseName = d.Mongo.DatabaseName
	}
	if c.Postgres.DSN == "" {
		c.Postgres.DSN = d.Postgres.DSN
	}
	if c.Postgres.MaxOpenConns == 0 {
		c.Postgres.MaxOpenConns = d.Postgres.MaxOpenConns
	}
	if c.Postgres.MaxIdleConns == 0 {
		c.Postgres.MaxIdleConns = d.Postgres.MaxIdleConns
	}
	if c.Postgres.ConnMaxLife == 0 {
		c.Postgres.ConnMaxLife = d.Postgres.ConnMaxLife
	}
	if c.Pebble.Path == "" {
		c.Pebble.Path = d.Pebble.Path
	}
	if c.Pebble.BlockCacheSize == 0 {
		c.Pebble.BlockCacheSize = d.Pebble.BlockCacheSize
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = d.ConnectTimeout
	}
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("CATALOG_INDEX_TYPE"); val != "" {
		c.Type = val
	}
	if val := os.Getenv("MONGO_URI"); val != "" {
		c.Mongo.URI = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Mongo.DatabaseName = val
	}
	if val := os.Getenv("POSTGRES_DSN"); val != "" {
		c.Postgres.DSN = val
	}
	if val := os.Getenv("PEBBLE_PATH"); val != "" {
		c.Pebble.Path = val
	}
}

// ResolvePaths makes a relative pebble path relative to the parent of
// configDir, like the log directory.
func (c *Config) ResolvePaths(configDir string) {
	if c.Pebble.Path == "" || filepath.IsAbs(c.Pebble.Path) {
		return
	}
	c.Pebble.Path = filepath.Clean(filepath.Join(filepath.Dir(configDir), c.Pebble.Path))
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	switch c.Type {
	case "memory":
	case "mongo":
		if c.Mongo.URI == "" || c.Mongo.DatabaseName == "" {
			return fmt.Errorf("index.mongo requires uri and database_name")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("index.postgres.dsn is required")
		}
	case "pebble":
		if c.Pebble.Path == "" {
			return fmt.Errorf("index.pebble.path is required")
		}
	default:
		return fmt.Errorf("unknown index type: %q (must be memory, mongo, postgres or pebble)", c.Type)
	}
	if c.Collection == "" {
		return fmt.Errorf("index.collection cannot be empty")
	}
	return nil
}
