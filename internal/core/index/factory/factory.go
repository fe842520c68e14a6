// Package factory builds the configured index.Store backend.
package factory

import (
	"context"
	"fmt"

	"github.com/syntrixbase/filecatalog/internal/core/index"
	"github.com/syntrixbase/filecatalog/internal/core/index/config"
	"github.com/syntrixbase/filecatalog/internal/core/index/memory"
	"github.com/syntrixbase/filecatalog/internal/core/index/mongo"
	"github.com/syntrixbase/filecatalog/internal/core/index/pebble"
	"github.com/syntrixbase/filecatalog/internal/core/index/postgres"
)

// NewStore connects to the backend named by cfg.Type.
func NewStore(ctx context.Context, cfg config.Config) (index.Store, error) {
	ctx, cancel := index.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	switch cfg.Type {
	case "memory":
		return memory.New(), nil
	case "mongo":
		p, err := mongo.NewProvider(ctx, cfg.Mongo.URI, cfg.Mongo.DatabaseName, cfg.ConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		s, err := mongo.Open(ctx, p, cfg.Collection)
		if err != nil {
			_ = p.Close(context.Background())
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "pebble":
		s, err := pebble.Open(pebble.Config{Path: cfg.Pebble.Path, BlockCacheSize: cfg.Pebble.BlockCacheSize})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported index type: %s", cfg.Type)
	}
}
