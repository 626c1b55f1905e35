package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AdemFabio/denoise/internal/config"
)

// Store is the durable clip queue, a single SQLite file shared by the CLI
// and the daemon.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode             = 5
	sqliteConstraintCode       = 19
	sqliteConstraintUniqueCode = 2067
	busyMaxAttempts            = 5
	busyBackoffStart           = 10 * time.Millisecond
	busyBackoffCap             = 200 * time.Millisecond
)

// ErrDuplicateClip is returned when a clip with the same clip_id already
// sits in the queue.
var ErrDuplicateClip = errors.New("clip already queued")

// ErrNotFound is returned when no row matches the requested item.
var ErrNotFound = errors.New("queue item not found")

// DatabasePath returns where the queue database lives for a configuration.
func DatabasePath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "queue.db")
}

// Open connects to the queue database, creating the file and applying any
// pending migrations on first use.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create dataset directories: %w", err)
	}

	dbPath := DatabasePath(cfg)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}
	if err := prepareConnection(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: dbPath}, nil
}

// prepareConnection puts the handle in WAL mode with a busy timeout and
// brings the schema up to date.
func prepareConnection(db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("apply %s: %w", strings.TrimPrefix(pragma, "PRAGMA "), err)
		}
	}
	return applyMigrations(context.Background(), db)
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// sqliteCode extracts the driver's result code when err carries one.
func sqliteCode(err error) (int, bool) {
	var coder interface{ Code() int }
	if errors.As(err, &coder) {
		return coder.Code(), true
	}
	return 0, false
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok && code == sqliteBusyCode {
		return true
	}
	text := err.Error()
	return strings.Contains(text, "SQLITE_BUSY") || strings.Contains(text, "database is locked")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	switch code, ok := sqliteCode(err); {
	case ok && code == sqliteConstraintCode:
		return true
	case ok && code == sqliteConstraintUniqueCode:
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}

// withBusyRetry runs op, backing off and retrying while SQLite reports the
// database locked. Other connections hold the file only briefly, so a few
// short waits normally clear the contention.
func withBusyRetry(ctx context.Context, op func() error) error {
	delay := busyBackoffStart
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !isBusyError(err) || attempt >= busyMaxAttempts {
			return err
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if delay *= 2; delay > busyBackoffCap {
			delay = busyBackoffCap
		}
	}
}

func (s *Store) execRetrying(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = contextOrBackground(ctx)
	var res sql.Result
	err := withBusyRetry(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func timestampNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// parseStoredTime accepts the RFC3339Nano timestamps this store writes plus
// the bare datetime format SQLite produces for rows touched by hand.
func parseStoredTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	var lastErr error
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func textOrNull(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func timeOrNull(ts *time.Time) any {
	if ts == nil || ts.IsZero() {
		return nil
	}
	return ts.UTC().Format(time.RFC3339Nano)
}

func sqlPlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
