package services

import (
	"context"
)

// Shutdown stops the HTTP server first so no request reaches a closed store,
// then the scheduler, the event publisher and the index connection.
func (m *Manager) Shutdown(ctx context.Context) {
	if m.server != nil {
		m.logger.Info("Stopping HTTP server...")
		if err := m.server.Stop(ctx); err != nil {
			m.logger.Error("Error shutting down HTTP server", "error", err)
		}
	}

	if m.scheduler != nil {
		m.logger.Info("Stopping scheduler...")
		if err := m.scheduler.Stop(ctx); err != nil {
			m.logger.Warn("Scheduler did not stop in time", "error", err)
		}
	}

	m.logger.Info("Waiting for background tasks to finish...")
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("Background tasks finished.")
	case <-ctx.Done():
		m.logger.Warn("Timeout waiting for background tasks.")
	}

	m.release(ctx)
}

// release closes the publisher and the index. It is safe to call on a
// partially initialized manager.
func (m *Manager) release(ctx context.Context) {
	if m.publisher != nil {
		if err := m.publisher.Close(); err != nil {
			m.logger.Error("Error closing event publisher", "error", err)
		}
		m.publisher = nil
	}
	if m.index != nil {
		if err := m.index.Close(ctx); err != nil {
			m.logger.Error("Error closing index", "error", err)
		}
		m.index = nil
	}
}
