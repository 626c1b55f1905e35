package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/queue"
)

// HeartbeatMonitor keeps claimed work visibly alive. While a stage runs,
// a per-item loop refreshes the heartbeat column; a reclaim sweep returns
// items whose owner stopped refreshing to their waiting status.
type HeartbeatMonitor struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewHeartbeatMonitor builds a monitor that refreshes every interval and
// treats heartbeats older than timeout as abandoned.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, interval, timeout time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "workflow-heartbeat"),
		interval: interval,
		timeout:  timeout,
	}
}

// ReclaimStaleItems returns work whose owner stopped heartbeating to its
// waiting status: stale fetching rows go back to pending, stale cropping
// rows back to fetched. A timeout of zero disables reclamation.
func (h *HeartbeatMonitor) ReclaimStaleItems(ctx context.Context, logger *slog.Logger) error {
	if h.timeout <= 0 {
		return nil
	}
	reclaimed, err := h.store.ReclaimStale(ctx, h.timeout)
	if err != nil {
		return err
	}
	if reclaimed > 0 && logger != nil {
		logger.Info("reclaimed stale items", logging.Int64("count", reclaimed))
	}
	return nil
}

// StartLoop refreshes the item's heartbeat until ctx is cancelled. It must
// run in its own goroutine and marks wg done on exit. An interval of zero
// disables refreshing; the loop then only waits for cancellation.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, itemID int64) {
	defer wg.Done()
	if h.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := h.store.UpdateHeartbeat(ctx, itemID)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				h.logger.Debug("shutdown cancelled heartbeat update")
			default:
				h.logger.Warn("heartbeat update failed",
					logging.Error(err),
					logging.Int64(logging.FieldItemID, itemID))
			}
		}
	}
}
