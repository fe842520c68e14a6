package catalog

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/syntrixbase/filecatalog/internal/catalog/config"
	indexmem "github.com/syntrixbase/filecatalog/internal/core/index/memory"
	pubsubtest "github.com/syntrixbase/filecatalog/internal/core/pubsub/testing"
	remotemem "github.com/syntrixbase/filecatalog/internal/core/remote/memory"
)

type fixture struct {
	index      *indexmem.Store
	remote     *remotemem.Store
	pub        *pubsubtest.MockPublisher
	cfg        config.Config
	reader     *Reader
	mutator    *Mutator
	reconciler *Reconciler
	searcher   *Searcher
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		index:  indexmem.New(),
		remote: remotemem.New(2),
		pub:    pubsubtest.NewMockPublisher(),
		cfg:    config.DefaultConfig(),
	}
	logger := discardLogger()
	events := NewEvents(f.pub, time.Second, logger)
	f.reader = NewReader(f.index, f.remote, f.cfg, logger)
	f.mutator = NewMutator(f.reader, f.index, f.cfg, events, logger)
	f.reconciler = NewReconciler(f.index, f.remote, events, logger)
	f.searcher = NewSearcher(f.index, f.remote, f.cfg, false, logger)
	return f
}
