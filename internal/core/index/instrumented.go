package index

import (
	"context"
	"errors"
	"time"

	"github.com/syntrixbase/filecatalog/internal/metrics"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

type instrumented struct {
	next Store
}

// Instrument wraps s so every call records its latency. Not-found, conflict
// and already-exists outcomes count as successful calls.
func Instrument(s Store) Store {
	return &instrumented{next: s}
}

func observe(op string, start time.Time, err error) {
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrConflict) || errors.Is(err, model.ErrExists) {
		err = nil
	}
	metrics.ObserveStoreOp("index", op, start, err)
}

func (i *instrumented) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	start := time.Now()
	rec, err := i.next.Get(ctx, id)
	observe("get", start, err)
	return rec, err
}

func (i *instrumented) CreateIfAbsent(ctx context.Context, rec *model.FileRecord) (bool, error) {
	start := time.Now()
	created, err := i.next.CreateIfAbsent(ctx, rec)
	observe("create", start, err)
	return created, err
}

func (i *instrumented) BulkCreateIfAbsent(ctx context.Context, recs []*model.FileRecord) (BulkResult, error) {
	start := time.Now()
	res, err := i.next.BulkCreateIfAbsent(ctx, recs)
	observe("bulk_create", start, err)
	return res, err
}

func (i *instrumented) UpdatePartial(ctx context.Context, id string, patch Patch, opts UpdateOptions) error {
	start := time.Now()
	err := i.next.UpdatePartial(ctx, id, patch, opts)
	observe("update", start, err)
	return err
}

func (i *instrumented) SearchByName(ctx context.Context, text string, offset, limit int) ([]*model.FileRecord, error) {
	start := time.Now()
	recs, err := i.next.SearchByName(ctx, text, offset, limit)
	observe("search", start, err)
	return recs, err
}

func (i *instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := i.next.Ping(ctx)
	observe("ping", start, err)
	return err
}

func (i *instrumented) Close(ctx context.Context) error {
	return i.next.Close(ctx)
}
