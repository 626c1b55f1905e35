package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/AdemFabio/denoise/internal/config"
	"github.com/AdemFabio/denoise/internal/daemonctl"
	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/queue"
	"github.com/AdemFabio/denoise/internal/workflow"
)

// Daemon owns the long-running pipeline process: single-instance locking,
// startup recovery, and the workflow manager lifecycle.
type Daemon struct {
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status is a point-in-time snapshot of the daemon.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
}

// New wires a daemon over its collaborators. The instance lock file lives
// next to the queue database under the log directory.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon: config, store, logger, and workflow manager are all required")
	}

	lockPath := daemonctl.LockPath(cfg)
	return &Daemon{
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start claims the single-instance lock, returns rows stranded in a
// processing status to their waiting status, and launches the workflow
// manager. Stranded rows can only be leftovers from a crashed run; the
// lock guarantees no other instance owns them.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already started")
	}

	held, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("take instance lock: %w", err)
	}
	if !held {
		return errors.New("another denoise daemon instance is already running")
	}

	reset, err := d.store.ResetStuckProcessing(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("reset stuck items: %w", err)
	}
	if reset > 0 {
		d.logger.Info("returned stuck items to their waiting status", logging.Int64("count", reset))
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow manager: %w", err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts background processing and releases the instance lock. Calling
// it on a stopped daemon is a no-op.
func (d *Daemon) Stop() {
	if !d.running.CompareAndSwap(true, false) {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.logger.Info("daemon stopped")
}

// Close stops the daemon if needed and closes the queue store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store == nil {
		return nil
	}
	return d.store.Close()
}

// Status reports whether the daemon runs and where its lock and queue
// database live, along with per-stage workflow health.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
}
