package queue

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
)

var requiredColumns = []string{
	"id", "clip_id", "start_seconds", "duration_seconds", "download_dir",
	"cropped_dir", "max_height", "priority", "status",
	"video_path", "audio_path", "cropped_path",
	"error_message", "reject_reason",
	"progress_stage", "progress_percent", "progress_message",
	"created_at", "updated_at", "last_heartbeat",
}

// Stats returns the number of items per status. Statuses with no items are
// present with a zero count so callers can render a stable table.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	ctx = contextOrBackground(ctx)
	counts := make(map[Status]int, len(allStatuses))
	for _, status := range allStatuses {
		counts[status] = 0
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM clips GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue: count items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("queue: scan counts: %w", err)
		}
		counts[Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queue: count items: %w", err)
	}
	return counts, nil
}

// Health aggregates the per-status counts into the coarse buckets shown by
// status output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	counts, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	summary := HealthSummary{
		Pending:   counts[StatusPending] + counts[StatusFetched],
		Completed: counts[StatusCompleted],
		Rejected:  counts[StatusRejected],
		Failed:    counts[StatusFailed],
	}
	for status, count := range counts {
		summary.Total += count
		if IsProcessingStatus(status) {
			summary.Processing += count
		}
	}
	return summary, nil
}

// CheckHealth inspects the queue database file without requiring an open
// Store, reporting what a doctor run needs: existence, readability, schema
// shape, and integrity.
func CheckHealth(ctx context.Context, dbPath string) DatabaseHealth {
	health := DatabaseHealth{DBPath: dbPath}

	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			health.Error = "database file does not exist"
		} else {
			health.Error = fmt.Sprintf("stat database: %v", err)
		}
		return health
	}
	if info.IsDir() {
		health.Error = "database path is a directory"
		return health
	}
	health.DatabaseExists = true

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		health.Error = fmt.Sprintf("open database: %v", err)
		return health
	}
	defer db.Close()

	ctx = contextOrBackground(ctx)
	if err := db.PingContext(ctx); err != nil {
		health.Error = fmt.Sprintf("ping database: %v", err)
		return health
	}
	health.DatabaseReadable = true

	var tableName string
	err = db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'clips'`).Scan(&tableName)
	if err != nil {
		health.Error = "clips table is missing"
		return health
	}
	health.TableExists = true

	present, err := tableColumns(ctx, db)
	if err != nil {
		health.Error = fmt.Sprintf("inspect columns: %v", err)
		return health
	}
	health.ColumnsPresent = present
	presentSet := make(map[string]struct{}, len(present))
	for _, column := range present {
		presentSet[column] = struct{}{}
	}
	for _, column := range requiredColumns {
		if _, ok := presentSet[column]; !ok {
			health.MissingColumns = append(health.MissingColumns, column)
		}
	}

	var integrity string
	if err := db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&integrity); err != nil {
		health.Error = fmt.Sprintf("integrity check: %v", err)
		return health
	}
	health.IntegrityCheck = strings.EqualFold(integrity, "ok")
	if !health.IntegrityCheck {
		health.Error = fmt.Sprintf("integrity check reported: %s", integrity)
	}

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clips`).Scan(&health.TotalItems); err != nil {
		health.Error = fmt.Sprintf("count items: %v", err)
	}
	return health
}

func tableColumns(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `PRAGMA table_info(clips)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}
