// Package factory builds the configured remote.Store backend.
package factory

import (
	"context"
	"fmt"

	"github.com/syntrixbase/filecatalog/internal/core/remote"
	"github.com/syntrixbase/filecatalog/internal/core/remote/config"
	"github.com/syntrixbase/filecatalog/internal/core/remote/memory"
	"github.com/syntrixbase/filecatalog/internal/core/remote/minio"
	"github.com/syntrixbase/filecatalog/internal/core/remote/s3"
)

// NewStore creates the backend named by cfg.Type. Remote clients connect
// lazily; reachability is checked by the reconciliation readiness gate.
func NewStore(ctx context.Context, cfg config.Config) (remote.Store, error) {
	switch cfg.Type {
	case "memory":
		return memory.New(cfg.PageSize), nil
	case "s3":
		return s3.New(ctx, cfg)
	case "minio":
		return minio.New(cfg)
	default:
		return nil, fmt.Errorf("unsupported remote type: %s", cfg.Type)
	}
}
