package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/syntrixbase/filecatalog/internal/api/rest"
	"github.com/syntrixbase/filecatalog/internal/catalog"
	"github.com/syntrixbase/filecatalog/internal/core/index"
	indexconfig "github.com/syntrixbase/filecatalog/internal/core/index/config"
	indexfactory "github.com/syntrixbase/filecatalog/internal/core/index/factory"
	"github.com/syntrixbase/filecatalog/internal/core/pubsub"
	eventsconfig "github.com/syntrixbase/filecatalog/internal/core/pubsub/config"
	natspubsub "github.com/syntrixbase/filecatalog/internal/core/pubsub/nats"
	"github.com/syntrixbase/filecatalog/internal/core/remote"
	remoteconfig "github.com/syntrixbase/filecatalog/internal/core/remote/config"
	remotefactory "github.com/syntrixbase/filecatalog/internal/core/remote/factory"
	"github.com/syntrixbase/filecatalog/internal/metrics"
	"github.com/syntrixbase/filecatalog/internal/server"
)

var indexStoreFactory = func(ctx context.Context, cfg indexconfig.Config) (index.Store, error) {
	return indexfactory.NewStore(ctx, cfg)
}

var remoteStoreFactory = func(ctx context.Context, cfg remoteconfig.Config) (remote.Store, error) {
	return remotefactory.NewStore(ctx, cfg)
}

var publisherFactory = func(ctx context.Context, cfg eventsconfig.Config) (pubsub.Publisher, error) {
	return natspubsub.Open(ctx, cfg, metrics.ObservePublish)
}

var serverFactory = func(cfg server.Config, logger *slog.Logger) server.Service {
	return server.New(cfg, logger)
}

// Init connects the stores and builds every component. On error the
// resources opened so far are released.
func (m *Manager) Init(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			m.release(context.Background())
		}
	}()

	if err := m.initStores(ctx); err != nil {
		return err
	}
	if err := m.initEvents(ctx); err != nil {
		return err
	}
	m.initCatalog()
	m.initServer()
	return nil
}

func (m *Manager) initStores(ctx context.Context) error {
	rem, err := remoteStoreFactory(ctx, m.cfg.Remote)
	if err != nil {
		return fmt.Errorf("failed to initialize remote store: %w", err)
	}
	m.remote = remote.Instrument(rem)
	m.logger.Info("Initialized remote store", "type", m.cfg.Remote.Type)

	idx, err := indexStoreFactory(ctx, m.cfg.Index)
	if err != nil {
		return fmt.Errorf("failed to initialize index: %w", err)
	}
	m.index = index.Instrument(idx)
	m.logger.Info("Connected to index successfully", "type", m.cfg.Index.Type)
	return nil
}

func (m *Manager) initEvents(ctx context.Context) error {
	if !m.cfg.Events.Enabled {
		m.publisher = pubsub.Discard()
		return nil
	}
	pub, err := publisherFactory(ctx, m.cfg.Events)
	if err != nil {
		return fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	m.publisher = pub
	return nil
}

func (m *Manager) initCatalog() {
	cfg := m.cfg.Catalog
	events := catalog.NewEvents(m.publisher, m.cfg.Events.PublishTimeout, m.logger)

	m.reader = catalog.NewReader(m.index, m.remote, cfg, m.logger)
	m.mutator = catalog.NewMutator(m.reader, m.index, cfg, events, m.logger)
	m.searcher = catalog.NewSearcher(m.index, m.remote, cfg, m.cfg.Remote.Direct, m.logger)
	m.reconciler = catalog.NewReconciler(m.index, m.remote, events, m.logger)

	if m.opts.NoSync {
		m.logger.Info("Background reconciliation disabled by flag")
		return
	}
	m.scheduler = catalog.NewScheduler(m.reconciler, cfg.Reconcile, m.logger)
}

func (m *Manager) initServer() {
	m.server = serverFactory(m.cfg.Server, m.logger)

	// A nil *Scheduler must not become a non-nil interface.
	var trigger rest.ReconcileTrigger
	if m.scheduler != nil {
		trigger = m.scheduler
	}
	h := rest.NewHandler(m.reader, m.mutator, m.searcher, trigger, m.cfg.API, m.logger)
	h.RegisterRoutes(m.server.HTTPMux())

	if m.cfg.Metrics.Enabled {
		m.server.RegisterHTTPHandler("GET "+m.cfg.Metrics.Path, promhttp.Handler())
	}
}
