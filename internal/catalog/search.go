package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/syntrixbase/filecatalog/internal/catalog/config"
	"github.com/syntrixbase/filecatalog/internal/core/index"
	"github.com/syntrixbase/filecatalog/internal/core/remote"
	"github.com/syntrixbase/filecatalog/internal/metrics"
	"github.com/syntrixbase/filecatalog/pkg/model"
)

// Query is a file name search.
type Query struct {
	// Text is matched as a case-insensitive substring of the file name.
	Text string
	// Direct overrides the configured direct mode when set.
	Direct *bool
	// Filter is an optional CEL expression, see CompileFilter.
	Filter string
}

// Searcher answers name searches from the index, optionally feeding it from
// the remote store first.
type Searcher struct {
	index   index.Store
	remote  remote.Store
	direct  bool
	limit   int
	timeout time.Duration
	logger  *slog.Logger
}

// NewSearcher creates a Searcher. direct enables remote search by default.
func NewSearcher(idx index.Store, rem remote.Store, cfg config.Config, direct bool, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searcher{
		index:   idx,
		remote:  rem,
		direct:  direct,
		limit:   cfg.SearchLimit,
		timeout: cfg.SearchTimeout,
		logger:  logger.With("component", "searcher"),
	}
}

// Search returns the indexed records whose name contains q.Text, ordered by
// name then id. In direct mode matching remote files are created in the index
// first, without overwriting existing records. An empty text or no match
// yields an empty slice.
func (s *Searcher) Search(ctx context.Context, q Query) ([]*model.FileRecord, error) {
	var filter *Filter
	if q.Filter != "" {
		f, err := CompileFilter(q.Filter)
		if err != nil {
			return nil, err
		}
		filter = f
	}

	direct := s.direct
	if q.Direct != nil {
		direct = *q.Direct
	}
	mode := "index"
	if direct {
		mode = "direct"
	}
	metrics.SearchRequests.WithLabelValues(mode).Inc()

	if q.Text == "" {
		return []*model.FileRecord{}, nil
	}

	if direct {
		s.feed(ctx, q.Text)
	}

	ctx, cancel := index.WithTimeout(ctx, s.timeout)
	defer cancel()
	found, err := s.index.SearchByName(ctx, q.Text, 0, s.limit)
	if err != nil {
		return nil, fmt.Errorf("index search %q: %w", q.Text, err)
	}

	out := make([]*model.FileRecord, 0, len(found))
	for _, rec := range found {
		ok, err := filter.Match(rec.Normalize())
		if err != nil {
			s.logger.Debug("Filter evaluation failed", "id", rec.ID, "filter", filter.String(), "error", err)
			continue
		}
		if ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// feed copies the remote matches for text into the index. Failures are
// logged; the index answers the search either way.
func (s *Searcher) feed(ctx context.Context, text string) {
	ctx, cancel := index.WithTimeout(ctx, s.timeout)
	defer cancel()

	found, err := s.remote.SearchByName(ctx, text)
	if err != nil {
		s.logger.Warn("Direct remote search failed", "text", text, "error", err)
		return
	}

	files := dedupe(found)
	if len(files) == 0 {
		return
	}

	res, err := s.index.BulkCreateIfAbsent(ctx, files)
	if err != nil {
		s.logger.Warn("Failed to index direct search results", "text", text, "error", err)
		return
	}
	s.logger.Debug("Indexed direct search results", "text", text, "created", res.Created, "skipped", res.Skipped)
}

// dedupe drops nil records and records that are the same file as an earlier
// one.
func dedupe(recs []*model.FileRecord) []*model.FileRecord {
	seen := make(map[string]*model.FileRecord, len(recs))
	out := make([]*model.FileRecord, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		if prev, ok := seen[rec.ID]; ok && prev.SameFile(rec) {
			continue
		}
		seen[rec.ID] = rec
		out = append(out, rec.Normalize())
	}
	return out
}
