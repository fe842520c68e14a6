package remote

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

// Instrument wraps s so every call records its latency.
func Instrument(s Store) Store {
	return &instrumented{next: s}
}

func observe(op string, start time.Time, err error) {
	if errors.Is(err, model.ErrNotFound) {
		err = nil
	}
	metrics.ObserveStoreOp("remote", op, start, err)
}

func (i *instrumented) Get(ctx context.Context, id string) (*model.FileRecord, error) {
	start := time.Now()
	rec, err := i.next.Get(ctx, id)
	observe("get", start, err)
	return rec, err
}

func (i *instrumented) SearchByName(ctx context.Context, name string) ([]*model.FileRecord, error) {
	start := time.Now()
	recs, err := i.next.SearchByName(ctx, name)
	observe("search", start, err)
	return recs, err
}

func (i *instrumented) List(ctx context.Context, cursor string) (Page, error) {
	start := time.Now()
	page, err := i.next.List(ctx, cursor)
	observe("list", start, err)
	return page, err
}

func (i *instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := i.next.Ping(ctx)
	observe("ping", start, err)
	return err
}
