package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/AdemFabio/denoise/internal/config"
	"github.com/AdemFabio/denoise/internal/crop"
	"github.com/AdemFabio/denoise/internal/daemon"
	"github.com/AdemFabio/denoise/internal/daemonctl"
	"github.com/AdemFabio/denoise/internal/fetch"
	"github.com/AdemFabio/denoise/internal/logging"
	"github.com/AdemFabio/denoise/internal/preflight"
	"github.com/AdemFabio/denoise/internal/queue"
	"github.com/AdemFabio/denoise/internal/workflow"
)

// Options carries per-invocation overrides for the daemon process.
type Options struct {
	LogLevel string
}

// Run starts the denoise daemon runtime loop and blocks until SIGINT or
// SIGTERM (or the parent context) ends it.
func Run(parent context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("create dataset directories: %w", err)
	}

	runStamp := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("denoised-%s.log", runStamp))

	logger, err := newRunLogger(cfg, opts, logPath)
	if err != nil {
		return err
	}
	if err := refreshLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update denoised.log link: %v\n", err)
	}

	if err := runPreflight(signalCtx, cfg, logger); err != nil {
		return err
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue database", logging.Error(err))
		return err
	}
	defer store.Close()

	manager := workflow.NewManager(cfg, store, logger, workflow.StageSet{
		Fetcher: fetch.NewHandler(cfg, store, logger),
		Cropper: crop.NewHandler(cfg, store, logger),
	})

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	for name, health := range d.Status(signalCtx).Workflow.StageHealth {
		if health.Ready {
			logger.Info("stage ready", logging.String("stage", name))
		} else {
			logger.Warn("stage not ready", logging.String("stage", name), logging.String("detail", health.Detail))
		}
	}

	// Write the pid file only after the instance lock is won.
	pidPath := daemonctl.PIDPath(cfg)
	if err := recordPID(pidPath); err != nil {
		logger.Warn("write pid file failed", logging.Error(err))
	} else {
		defer os.Remove(pidPath)
	}

	<-signalCtx.Done()
	logger.Info("denoise daemon shutting down")
	return nil
}

// newRunLogger builds the daemon logger writing to stdout and the run's
// timestamped log file, tagged with a fresh run id.
func newRunLogger(cfg *config.Config, opts Options, logPath string) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger.With(logging.String("run_id", uuid.NewString())), nil
}

func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	results := preflight.RunAll(ctx, cfg)
	for _, result := range results {
		if result.Passed {
			continue
		}
		logger.Error("preflight check failed", logging.String("check", result.Name), logging.String("detail", result.Detail))
	}
	if preflight.HasFailures(results) {
		return errors.New("preflight checks failed; run `denoise doctor` for details")
	}
	logger.Info("preflight checks passed", logging.Int("checks", len(results)))
	return nil
}

// refreshLogPointer repoints {log_dir}/denoised.log at the current run's
// log file so tailing one path always follows the live daemon.
func refreshLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "denoised.log")
	if err := os.Remove(current); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("drop old log pointer: %w", err)
	}
	if symErr := os.Symlink(target, current); symErr != nil {
		// Some filesystems refuse symlinks; fall back to a hard link.
		if linkErr := os.Link(target, current); linkErr != nil {
			return fmt.Errorf("link %s: %w", current, linkErr)
		}
	}
	return nil
}

func recordPID(path string) error {
	if path == "" {
		return nil
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)
}
