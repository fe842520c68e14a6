package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "mongo", cfg.Type)
	assert.Equal(t, "files", cfg.Collection)
	assert.Equal(t, "filecatalog", cfg.Mongo.DatabaseName)
	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{Type: "postgres", Postgres: PostgresConfig{DSN: "postgres://db/x"}}
	cfg.ApplyDefaults()

	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "postgres://db/x", cfg.Postgres.DSN)
	assert.Equal(t, "files", cfg.Collection)
	assert.Equal(t, 20, cfg.Postgres.MaxOpenConns)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_INDEX_TYPE", "postgres")
	t.Setenv("MONGO_URI", "mongodb://env:27017")
	t.Setenv("DB_NAME", "envdb")
	t.Setenv("POSTGRES_DSN", "postgres://env/db")
	t.Setenv("PEBBLE_PATH", "/var/lib/catalog")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "mongodb://env:27017", cfg.Mongo.URI)
	assert.Equal(t, "envdb", cfg.Mongo.DatabaseName)
	assert.Equal(t, "postgres://env/db", cfg.Postgres.DSN)
	assert.Equal(t, "/var/lib/catalog", cfg.Pebble.Path)
}

func TestResolvePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResolvePaths(filepath.Join("srv", "configs"))
	assert.Equal(t, filepath.Join("srv", "data", "index"), cfg.Pebble.Path)

	abs := filepath.Join(string(filepath.Separator), "data", "index")
	cfg.Pebble.Path = abs
	cfg.ResolvePaths("configs")
	assert.Equal(t, abs, cfg.Pebble.Path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"memory", func(c *Config) { c.Type = "memory" }, ""},
		{"unknown type", func(c *Config) { c.Type = "redis" }, "unknown index type"},
		{"mongo without uri", func(c *Config) { c.Mongo.URI = "" }, "index.mongo"},
		{"postgres without dsn", func(c *Config) { c.Type = "postgres"; c.Postgres.DSN = "" }, "dsn"},
		{"pebble", func(c *Config) { c.Type = "pebble" }, ""},
		{"pebble without path", func(c *Config) { c.Type = "pebble"; c.Pebble.Path = "" }, "index.pebble.path"},
		{"empty collection", func(c *Config) { c.Collection = "" }, "collection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestYAMLParsing(t *testing.T) {
	data := `
type: postgres
collection: catalog_files
postgres:
  dsn: postgres://u:p@db:5432/files
  max_open_conns: 4
connect_timeout: 3s
`
	var cfg Config
	assert.NoError(t, yaml.Unmarshal([]byte(data), &cfg))
	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "catalog_files", cfg.Collection)
	assert.Equal(t, 4, cfg.Postgres.MaxOpenConns)
	assert.Equal(t, "3s", cfg.ConnectTimeout.String())
}
