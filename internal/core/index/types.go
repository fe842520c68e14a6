// Package index defines the local search index that fronts the remote file
// store. Backends live in sub-packages; NewStore selects one from config.
package index

import (
	"context"
	"time"

	"github.com/syntrixbase/filecatalog/pkg/model"
)

// Store is the document index holding FileRecords.
//
// Implementations must be safe for concurrent use. Records returned by a
// Store are owned by the caller and always have non-nil tags.
type Store interface {
	// Get returns the record with the given id or model.ErrNotFound.
	Get(ctx context.Context, id string) (*model.FileRecord, error)

	// CreateIfAbsent inserts rec unless a record with the same id exists.
	// An existing record is left untouched and created is false.
	CreateIfAbsent(ctx context.Context, rec *model.FileRecord) (created bool, err error)

	// BulkCreateIfAbsent inserts every record not already present.
	// Existing records are counted as skipped. A non-nil error may come with a
	// partially filled result.
	BulkCreateIfAbsent(ctx context.Context, recs []*model.FileRecord) (BulkResult, error)

	// UpdatePartial applies patch to the record with the given id. When
	// opts.ExpectedVersion is positive the update only succeeds against that
	// version, otherwise model.ErrConflict is returned. A missing record
	// yields model.ErrNotFound.
	UpdatePartial(ctx context.Context, id string, patch Patch, opts UpdateOptions) error

	// SearchByName returns records whose name contains text, case-insensitively,
	// ordered by name then id.
	SearchByName(ctx context.Context, text string, offset, limit int) ([]*model.FileRecord, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Patch lists the fields a partial update replaces. Only tags are mutable.
type Patch struct {
	Tags []string
}

// UpdateOptions guard and bound a partial update.
type UpdateOptions struct {
	ExpectedVersion int64
	Timeout         time.Duration
	// WaitForRefresh makes the write visible to subsequent reads before returning.
	WaitForRefresh bool
}

// BulkResult summarizes a bulk create-if-absent.
type BulkResult struct {
	Created int
	Skipped int
	Failed  int
}

// Total is the number of records the bulk call accounted for.
func (r BulkResult) Total() int { return r.Created + r.Skipped + r.Failed }

// Add merges two results.
func (r BulkResult) Add(o BulkResult) BulkResult {
	return BulkResult{
		Created: r.Created + o.Created,
		Skipped: r.Skipped + o.Skipped,
		Failed:  r.Failed + o.Failed,
	}
}

// WithTimeout derives a context bounded by d; d <= 0 leaves ctx unchanged.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
