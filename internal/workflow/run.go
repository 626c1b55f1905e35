package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/AdemFabio/denoise/internal/logging"
)

// Start spins up the worker pool. It fails when the pool is already live
// or no stage handlers are wired in.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow manager already started")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("no stages configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(m.workers)
	m.mu.Unlock()

	for i := 0; i < m.workers; i++ {
		// Exactly one worker doubles as the stale-work reclaimer.
		go m.runWorker(runCtx, i, i == 0)
	}
	return nil
}

// Stop terminates background processing and waits for workers to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runWorker(ctx context.Context, index int, reclaimer bool) {
	defer m.wg.Done()
	logger := m.logger.With(logging.Int(logging.FieldWorker, index))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if reclaimer {
			if err := m.heartbeat.ReclaimStaleItems(ctx, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("reclaim stale processing failed; stuck items may remain", logging.Error(err))
			}
		}

		item, err := m.store.ClaimNext(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			m.setLastError(err)
			logger.Error("failed to claim next queue item", logging.Error(err))
			m.idle(ctx)
			continue
		case item == nil:
			m.idle(ctx)
			continue
		}

		if err := m.processItem(ctx, logger, item); errors.Is(err, context.Canceled) {
			return
		}
	}
}

// idle sleeps one poll interval or until shutdown, whichever comes first.
func (m *Manager) idle(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}
