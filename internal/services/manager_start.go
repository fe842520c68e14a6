package services

import (
	"context"
	"fmt"
)

// Start serves HTTP and starts the reconciliation scheduler. Both stop when
// bgCtx is canceled or Shutdown is called.
func (m *Manager) Start(bgCtx context.Context) error {
	if m.server == nil {
		return fmt.Errorf("manager not initialized")
	}

	if m.scheduler != nil {
		if err := m.scheduler.Start(bgCtx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		if m.cfg.Catalog.Reconcile.Enabled {
			m.logger.Info("Scheduled reconciliation started",
				"initial_delay", m.cfg.Catalog.Reconcile.InitialDelay,
				"interval", m.cfg.Catalog.Reconcile.Interval)
		}
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.server.Start(bgCtx); err != nil {
			m.logger.Error("HTTP server failed", "error", err)
			select {
			case m.serveCh <- err:
			default:
			}
		}
	}()
	return nil
}
