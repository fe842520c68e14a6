package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/syntrixbase/filecatalog/internal/catalog/config"
)

// Scheduler runs reconciliations in the background: once after a readiness
// gate, then on a fixed delay measured from the end of each run, and whenever
// Trigger is called. Runs never overlap.
type Scheduler struct {
	rec    *Reconciler
	cfg    config.ReconcileConfig
	logger *slog.Logger

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	triggerCh chan struct{}

	runMu sync.Mutex

	statusMu   sync.Mutex
	lastReport Report
	lastErr    error
	runs       int
}

// NewScheduler creates a Scheduler for rec.
func NewScheduler(rec *Reconciler, cfg config.ReconcileConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		rec:       rec,
		cfg:       cfg,
		logger:    logger.With("component", "scheduler"),
		triggerCh: make(chan struct{}, 1),
	}
}

// Start starts the background loop. With scheduling disabled the loop only
// serves Trigger.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(runCtx)

	s.logger.Info("Scheduler started",
		"enabled", s.cfg.Enabled,
		"initial_delay", s.cfg.InitialDelay,
		"interval", s.cfg.Interval)
	return nil
}

// Stop stops the loop and waits for a running reconciliation to return, or
// for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}

	s.cancel()
	s.running = false
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger requests a reconciliation without blocking. Requests made while one
// is already pending are coalesced.
func (s *Scheduler) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// RunOnce runs a reconciliation now, waiting for any run in progress.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.logger.Info("Synchronization is started")
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	report, err := s.rec.ReconcileAll(ctx)
	if err != nil {
		s.logger.Error("Synchronization failed", "error", err)
	}
	s.statusMu.Lock()
	s.lastReport, s.lastErr = report, err
	s.runs++
	s.statusMu.Unlock()
	return report, err
}

// LastReport returns the outcome of the most recent run.
func (s *Scheduler) LastReport() (Report, error) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.lastReport, s.lastErr
}

// Runs returns the number of runs so far.
func (s *Scheduler) Runs() int {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.runs
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	var tick <-chan time.Time
	var timer *time.Timer
	if s.cfg.Enabled {
		timer = time.NewTimer(s.cfg.InitialDelay)
		defer timer.Stop()
		tick = timer.C

		s.gate(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
		case <-s.triggerCh:
		}

		_, _ = s.RunOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if timer != nil {
			timer.Reset(s.cfg.Interval)
		}
	}
}

// gate probes the stores up to GateAttempts times, each after GateDelay, and
// runs the initial reconciliation on the first successful probe.
func (s *Scheduler) gate(ctx context.Context) {
	if s.cfg.GateAttempts <= 0 {
		return
	}
	for attempt := 1; attempt <= s.cfg.GateAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.GateDelay):
		}

		s.logger.Info("Checking stores for initial synchronization", "attempt", attempt)
		if s.rec.CheckRemoteReachable(ctx, s.cfg.ProbeTimeout) {
			_, _ = s.RunOnce(ctx)
			return
		}
	}
	s.logger.Warn("Stores unreachable, skipping initial synchronization", "attempts", s.cfg.GateAttempts)
}
