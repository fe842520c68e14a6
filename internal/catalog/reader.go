// Package catalog implements the file catalog on top of the local index and
// the remote file store: cache-aside reads, tag mutation, search and the
// periodic full-catalog reconciliation.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/syntrixbase/filecatalog/internal/catalog/config"
	"github.com/syntrixbase/filecatalog/internal/core/index"
	"github.com/syntrixbase/filecatalog/internal/core/remote"
	"github.com/syntrixbase/filecatalog/internal/metrics"
	"github.com/syntrixbase/filecatalog/pkg/model"
	"golang.org/x/sync/singleflight"
)

// Reader resolves file records, filling the index from the remote store on a
// miss.
type Reader struct {
	index   index.Store
	remote  remote.Store
	timeout time.Duration
	logger  *slog.Logger

	// concurrent misses for one id share a single remote fetch
	fills singleflight.Group
}

// NewReader creates a Reader.
func NewReader(idx index.Store, rem remote.Store, cfg config.Config, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		index:   idx,
		remote:  rem,
		timeout: cfg.ReadTimeout,
		logger:  logger.With("component", "reader"),
	}
}

// FindByID returns the record for id. An index hit is returned as is. On a
// miss the record is fetched from the remote store, created in the index if
// still absent and read back, so tags already present are kept. Failing to
// write or re-read the index degrades to the remote copy. A record absent from
// both stores yields model.ErrNotFound.
func (r *Reader) FindByID(ctx context.Context, id string) (*model.FileRecord, error) {
	// Records are indexed under their canonical id whatever form was asked for.
	canonical := remote.CanonicalID(id)
	rec, err := r.getIndexed(ctx, canonical)
	if err == nil {
		metrics.Lookups.WithLabelValues(metrics.SourceIndex).Inc()
		return rec, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("index lookup %s: %w", id, err)
	}

	v, err, _ := r.fills.Do(canonical, func() (interface{}, error) {
		return r.fill(ctx, id)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			metrics.Lookups.WithLabelValues(metrics.SourceMiss).Inc()
			r.logger.Debug("File not found", "id", id)
		}
		return nil, err
	}
	metrics.Lookups.WithLabelValues(metrics.SourceRemote).Inc()
	return v.(*model.FileRecord).Clone(), nil
}

func (r *Reader) fill(ctx context.Context, id string) (*model.FileRecord, error) {
	rctx, cancel := index.WithTimeout(ctx, r.timeout)
	found, err := r.remote.Get(rctx, id)
	cancel()
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("remote lookup %s: %w", id, err)
	}
	found.Normalize()
	r.logger.Debug("File found in remote store", "id", id, "canonical", found.ID)

	wctx, cancel := index.WithTimeout(ctx, r.timeout)
	_, err = r.index.CreateIfAbsent(wctx, found)
	cancel()
	if err != nil && !errors.Is(err, model.ErrExists) {
		r.logger.Warn("Failed to index file, serving remote copy", "id", found.ID, "error", err)
		return found, nil
	}

	stored, err := r.getIndexed(ctx, found.ID)
	if err != nil {
		r.logger.Warn("Failed to re-read indexed file, serving remote copy", "id", found.ID, "error", err)
		return found, nil
	}
	return stored, nil
}

func (r *Reader) getIndexed(ctx context.Context, id string) (*model.FileRecord, error) {
	ctx, cancel := index.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.index.Get(ctx, id)
}
