// Package services wires the catalog process: stores, event publisher,
// catalog components, the reconciliation scheduler and the HTTP server.
package services

import (
	"log/slog"
	"sync"

	"github.com/syntrixbase/filecatalog/internal/catalog"
	"github.com/syntrixbase/filecatalog/internal/config"
	"github.com/syntrixbase/filecatalog/internal/core/index"
	"github.com/syntrixbase/filecatalog/internal/core/pubsub"
	"github.com/syntrixbase/filecatalog/internal/core/remote"
	"github.com/syntrixbase/filecatalog/internal/server"
)

type Options struct {
	// NoSync disables background reconciliation and the admin trigger.
	NoSync bool
}

type Manager struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	index     index.Store
	remote    remote.Store
	publisher pubsub.Publisher

	reader     *catalog.Reader
	mutator    *catalog.Mutator
	searcher   *catalog.Searcher
	reconciler *catalog.Reconciler
	scheduler  *catalog.Scheduler

	server  server.Service
	serveCh chan error
	wg      sync.WaitGroup
}

func NewManager(cfg *config.Config, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		opts:    opts,
		logger:  logger,
		serveCh: make(chan error, 1),
	}
}

// Server returns the HTTP server, nil before Init.
func (m *Manager) Server() server.Service {
	return m.server
}

// Scheduler returns the reconciliation scheduler, nil when sync is disabled.
func (m *Manager) Scheduler() *catalog.Scheduler {
	return m.scheduler
}

// Failed delivers a fatal HTTP server error.
func (m *Manager) Failed() <-chan error {
	return m.serveCh
}
