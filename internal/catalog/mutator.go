package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/syntrixbase/filecatalog/internal/catalog/config"
	"github.com/syntrixbase/filecatalog/internal/core/index"
	"github.com/syntrixbase/filecatalog/internal/metrics"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

// Mutator applies tag mutations to indexed records. The remote store is never
// written.
type Mutator struct {
	reader       *Reader
	index        index.Store
	events       *Events
	readTimeout  time.Duration
	writeTimeout time.Duration
	retries      int
	logger       *slog.Logger
}

// NewMutator creates a Mutator. events may be nil.
func NewMutator(reader *Reader, idx index.Store, cfg config.Config, events *Events, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{
		reader:       reader,
		index:        idx,
		events:       events,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		retries:      cfg.ConflictRetry,
		logger:       logger.With("component", "mutator"),
	}
}

// Apply replaces, merges or deletes tags on the record identified by id and
// returns the record as stored afterwards. requested must already be
// validated. A version conflict is retried against a fresh read up to the
// configured budget, after which model.ErrConflict is returned.
func (m *Mutator) Apply(ctx context.Context, id string, requested []string, mode model.TagMode) (rec *model.FileRecord, err error) {
	defer func() { metrics.RecordMutation(string(mode), err) }()

	if _, err := mode.Apply(nil, nil); err != nil {
		return nil, err
	}

	current, err := m.reader.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var tags []string
	for attempt := 0; ; attempt++ {
		tags, err = mode.Apply(current.Tags, requested)
		if err != nil {
			return nil, err
		}

		err = m.index.UpdatePartial(ctx, current.ID, index.Patch{Tags: tags}, index.UpdateOptions{
			ExpectedVersion: current.Version,
			Timeout:         m.writeTimeout,
			WaitForRefresh:  true,
		})
		if err == nil {
			break
		}
		if !errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("update tags of %s: %w", current.ID, err)
		}
		if attempt >= m.retries {
			m.logger.Warn("Tag update conflicts exhausted", "id", current.ID, "retries", m.retries)
			return nil, fmt.Errorf("update tags of %s after %d retries: %w", current.ID, m.retries, model.ErrConflict)
		}

		metrics.ConflictRetries.Inc()
		m.logger.Debug("Tag update conflict, retrying", "id", current.ID, "attempt", attempt+1)
		if current, err = m.get(ctx, current.ID); err != nil {
			return nil, fmt.Errorf("re-read %s after conflict: %w", id, err)
		}
	}

	stored, err := m.get(ctx, current.ID)
	if err != nil {
		m.logger.Warn("Failed to re-read updated file", "id", current.ID, "error", err)
		stored = current.Clone()
		stored.Tags = tags
		stored.Version++
	}

	m.events.tagsChanged(ctx, mode, requested, stored)
	return stored, nil
}

func (m *Mutator) get(ctx context.Context, id string) (*model.FileRecord, error) {
	ctx, cancel := index.WithTimeout(ctx, m.readTimeout)
	defer cancel()
	return m.index.Get(ctx, id)
}
