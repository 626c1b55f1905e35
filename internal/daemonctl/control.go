// Package daemonctl drives the denoised process from the CLI. The daemon
// holds a flock on {log_dir}/denoised.lock and records its pid in
// {log_dir}/denoised.pid, so launch, stop, and status probing all work
// against the filesystem without talking to the process.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/AdemFabio/denoise/internal/config"
	"github.com/AdemFabio/denoise/internal/deps"
	"github.com/AdemFabio/denoise/internal/preflight"
	"github.com/AdemFabio/denoise/internal/queue"
)

// ErrDaemonNotRunning indicates no process holds the instance lock.
var ErrDaemonNotRunning = errors.New("daemon not running")

const lockPollInterval = 200 * time.Millisecond

// LaunchOptions carries the flags handed through to the spawned
// `denoise daemon run` process.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult reports whether EnsureStarted launched a daemon or found one
// already holding the lock.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// StopResult records which pid was told to stop and whether SIGKILL was
// needed to make it let go.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// RestartResult bundles the stop and start halves of a restart.
type RestartResult struct {
	WasRunning bool
	Stop       StopResult
	Start      StartResult
}

// Snapshot is the offline status view assembled from the lock, the pid
// file, the queue database, and binary lookups.
type Snapshot struct {
	Running      bool
	PID          int
	LockPath     string
	QueueDBPath  string
	QueueStats   map[queue.Status]int
	Dependencies []deps.Status
}

// LockPath returns the instance lock location for the configured log dir.
func LockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "denoised.lock")
}

// PIDPath returns the pid file location for the configured log dir.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "denoised.pid")
}

// IsRunning probes the instance lock without keeping it. A held lock means
// a daemon owns it.
func IsRunning(lockPath string) (bool, error) {
	if _, err := os.Stat(lockPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat lock file %q: %w", lockPath, err)
	}
	lock := flock.New(lockPath)
	acquired, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("probe lock file %q: %w", lockPath, err)
	}
	if acquired {
		if err := lock.Unlock(); err != nil {
			return false, fmt.Errorf("release probe lock %q: %w", lockPath, err)
		}
		return false, nil
	}
	return true, nil
}

// ReadPID reads the daemon pid file. Missing or malformed files report zero.
func ReadPID(pidPath string) int {
	raw, err := os.ReadFile(pidPath)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

// Launch starts a detached daemon process via `denoise daemon run`.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return errors.New("daemon executable path is empty")
	}

	args := []string{"daemon", "run"}
	if cfgPath := strings.TrimSpace(opts.ConfigPath); cfgPath != "" {
		args = append(args, "--config", cfgPath)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}

	cmd := exec.Command(executablePath, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawn daemon: %w", err)
	}
	return cmd.Process.Release()
}

// awaitLockState polls the instance lock until it reaches the wanted held
// state or the timeout passes.
func awaitLockState(lockPath string, timeout time.Duration, wantHeld bool) error {
	var lastErr error
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); {
		held, err := IsRunning(lockPath)
		switch {
		case err != nil:
			lastErr = err
		case held == wantHeld:
			return nil
		default:
			lastErr = nil
		}
		time.Sleep(lockPollInterval)
	}
	if lastErr == nil {
		lastErr = errors.New("deadline exceeded")
	}
	return lastErr
}

// WaitForStart polls the instance lock until the daemon holds it.
func WaitForStart(lockPath string, timeout time.Duration) error {
	if err := awaitLockState(lockPath, timeout, true); err != nil {
		return fmt.Errorf("daemon failed to start: %w", err)
	}
	return nil
}

// WaitForShutdown polls the instance lock until it is released.
func WaitForShutdown(lockPath string, timeout time.Duration) error {
	if err := awaitLockState(lockPath, timeout, false); err != nil {
		return fmt.Errorf("daemon did not stop: %w", err)
	}
	return nil
}

// EnsureStarted launches the daemon unless one already holds the lock.
func EnsureStarted(cfg *config.Config, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	lockPath := LockPath(cfg)
	running, err := IsRunning(lockPath)
	if err != nil {
		return StartResult{}, err
	}
	if running {
		return StartResult{State: StartStateAlreadyRunning, PID: ReadPID(PIDPath(cfg))}, nil
	}

	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	if err := WaitForStart(lockPath, waitTimeout); err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, Launched: true, PID: ReadPID(PIDPath(cfg))}, nil
}

// ForceKillProcess sends SIGKILL to the daemon and cleans pid/lock files.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid := ReadPID(pidPath)
	if pid == 0 {
		pid = fallbackPID
	}
	if pid <= 0 {
		return 0, fmt.Errorf("no pid recorded in %s and no fallback known", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("pid %d is this process, not killing it", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("find process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return 0, fmt.Errorf("kill process %d: %w", pid, err)
	}
	if err := os.Remove(pidPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return 0, fmt.Errorf("clean up pid file %s: %w", pidPath, err)
	}
	if lockPath != "" {
		_ = os.Remove(lockPath)
	}
	return pid, nil
}

// signalTerm asks pid to shut down. Unknown or already-gone processes are
// not an error; the shutdown wait decides what happens next.
func signalTerm(pid int) error {
	if pid <= 0 || pid == os.Getpid() {
		return nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// StopAndTerminate signals the daemon to shut down and force-kills the
// process if it still holds the lock after gracePeriod.
func StopAndTerminate(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	lockPath := LockPath(cfg)
	pidPath := PIDPath(cfg)

	running, err := IsRunning(lockPath)
	if err != nil {
		return StopResult{}, err
	}
	if !running {
		return StopResult{}, ErrDaemonNotRunning
	}

	pid := ReadPID(pidPath)
	result := StopResult{PID: pid}
	if err := signalTerm(pid); err != nil {
		return result, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}

	if err := WaitForShutdown(lockPath, gracePeriod); err == nil {
		return result, nil
	}

	// Grace period expired with the lock still held.
	killedPID, killErr := ForceKillProcess(pidPath, lockPath, pid)
	if killErr != nil {
		return result, fmt.Errorf("force kill after grace period: %w", killErr)
	}
	result.ForcedKill = true
	result.PID = killedPID
	return result, nil
}

// Restart stops the daemon if running, then starts a fresh one.
func Restart(cfg *config.Config, executablePath string, opts LaunchOptions, stopGracePeriod, startWaitTimeout time.Duration) (RestartResult, error) {
	stopResult, stopErr := StopAndTerminate(cfg, stopGracePeriod)
	if stopErr != nil && !errors.Is(stopErr, ErrDaemonNotRunning) {
		return RestartResult{}, stopErr
	}

	startResult, err := EnsureStarted(cfg, executablePath, opts, startWaitTimeout)
	if err != nil {
		return RestartResult{}, err
	}

	return RestartResult{
		WasRunning: stopErr == nil,
		Stop:       stopResult,
		Start:      startResult,
	}, nil
}

// readQueueStats opens the queue just long enough for one counts query. A
// nil map means the database was unavailable, which the status view shows
// as missing stats rather than an error.
func readQueueStats(ctx context.Context, cfg *config.Config) map[queue.Status]int {
	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	store, err := queue.Open(cfg)
	if err != nil {
		return nil
	}
	defer store.Close()

	stats, err := store.Stats(queryCtx)
	if err != nil {
		return nil
	}
	return stats
}

// BuildStatusSnapshot assembles the offline daemon status view.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("no configuration loaded")
	}

	snapshot := &Snapshot{
		LockPath:    LockPath(cfg),
		QueueDBPath: queue.DatabasePath(cfg),
	}

	running, err := IsRunning(snapshot.LockPath)
	if err != nil {
		return nil, err
	}
	snapshot.Running = running
	if running {
		snapshot.PID = ReadPID(PIDPath(cfg))
	}

	snapshot.QueueStats = readQueueStats(ctx, cfg)
	snapshot.Dependencies = preflight.CheckSystemDeps(cfg)
	return snapshot, nil
}
