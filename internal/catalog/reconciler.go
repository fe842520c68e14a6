package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/syntrixbase/filecatalog/internal/core/index"
	"github.com/syntrixbase/filecatalog/internal/core/remote"
	"github.com/syntrixbase/filecatalog/internal/metrics"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

// Report summarizes one reconciliation run.
type Report struct {
	Pages      int  `json:"pages"`
	Discovered int  `json:"discovered"`
	Created    int  `json:"created"`
	Skipped    int  `json:"skipped"`
	Failed     int  `json:"failed"`
	Folders    int  `json:"folders"`
	Ignored    int  `json:"ignored"`
	Partial    bool `json:"partial"`

	Duration time.Duration `json:"duration_ns"`
}

// Reconciler copies the whole remote catalog into the index without
// overwriting records already indexed.
type Reconciler struct {
	index  index.Store
	remote remote.Store
	events *Events
	logger *slog.Logger
}

// NewReconciler creates a Reconciler. events may be nil.
func NewReconciler(idx index.Store, rem remote.Store, events *Events, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		index:  idx,
		remote: rem,
		events: events,
		logger: logger.With("component", "reconciler"),
	}
}

// ReconcileAll walks every page of the remote listing and bulk creates the
// files found there. Folders and other entry kinds are skipped. Failing to
// fetch the first page fails the run; a later page failure ends the walk and
// the records collected so far are still indexed, with Report.Partial set.
func (r *Reconciler) ReconcileAll(ctx context.Context) (report Report, err error) {
	start := time.Now()
	defer func() {
		if report.Duration == 0 {
			report.Duration = time.Since(start)
		}
		metrics.RecordReconcile(report.Created, report.Skipped, report.Failed, report.Duration, err)
	}()

	batch, err := r.collect(ctx, &report)
	if err != nil {
		return report, err
	}
	batch = dedupe(batch)
	report.Discovered = len(batch)

	if len(batch) > 0 {
		res, err := r.index.BulkCreateIfAbsent(ctx, batch)
		report.Created, report.Skipped, report.Failed = res.Created, res.Skipped, res.Failed
		if err != nil {
			return report, fmt.Errorf("bulk index %d records: %w", len(batch), err)
		}
	}

	report.Duration = time.Since(start)
	r.logger.Info("Synchronization is finished",
		"pages", report.Pages,
		"discovered", report.Discovered,
		"created", report.Created,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"folders", report.Folders,
		"partial", report.Partial,
		"duration", report.Duration)
	r.events.reconciled(ctx, report)
	return report, nil
}

func (r *Reconciler) collect(ctx context.Context, report *Report) ([]*model.FileRecord, error) {
	var batch []*model.FileRecord

	cursor := ""
	for {
		page, err := r.remote.List(ctx, cursor)
		if err != nil {
			if report.Pages == 0 {
				return nil, fmt.Errorf("list remote catalog: %w", err)
			}
			r.logger.Warn("Listing continuation failed, indexing partial catalog",
				"pages", report.Pages, "cursor", cursor, "error", err)
			report.Partial = true
			return batch, nil
		}
		report.Pages++

		for _, e := range page.Entries {
			switch {
			case e.Kind == remote.KindFolder:
				report.Folders++
			case e.Kind != remote.KindFile || e.Record == nil:
				report.Ignored++
			default:
				batch = append(batch, e.Record)
			}
		}

		if !page.HasMore {
			return batch, nil
		}
		if page.Cursor == "" || page.Cursor == cursor {
			r.logger.Warn("Listing cursor did not advance, indexing partial catalog", "pages", report.Pages, "cursor", cursor)
			report.Partial = true
			return batch, nil
		}
		cursor = page.Cursor
	}
}

// CheckRemoteReachable probes the remote store and the index within timeout.
// It reports false instead of returning an error.
func (r *Reconciler) CheckRemoteReachable(ctx context.Context, timeout time.Duration) bool {
	ctx, cancel := index.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.remote.Ping(ctx); err != nil {
		r.logger.Warn("Remote store is unreachable", "error", err)
		return false
	}
	if err := r.index.Ping(ctx); err != nil {
		r.logger.Warn("Index is unreachable", "error", err)
		return false
	}
	return true
}
