package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const itemColumns = `id, clip_id, start_seconds, duration_seconds, download_dir, cropped_dir,
    max_height, priority, status, video_path, audio_path, cropped_path,
    error_message, reject_reason, progress_stage, progress_percent, progress_message,
    created_at, updated_at, last_heartbeat`

// ClipRequest carries everything needed to enqueue one clip.
type ClipRequest struct {
	ClipID      string
	Start       float64
	Duration    float64
	DownloadDir string
	CroppedDir  string
	MaxHeight   int
}

// NewClip inserts a pending fetch task for the given clip. Each clip_id may
// appear at most once; re-submitting an already queued clip returns
// ErrDuplicateClip.
func (s *Store) NewClip(ctx context.Context, req ClipRequest) (*Item, error) {
	ctx = contextOrBackground(ctx)
	clipID := strings.TrimSpace(req.ClipID)
	if clipID == "" {
		return nil, errors.New("queue: clip id is required")
	}
	if req.Duration <= 0 {
		return nil, fmt.Errorf("queue: clip %s: duration must be positive", clipID)
	}

	now := timestampNow()
	result, err := s.execRetrying(ctx, `
        INSERT INTO clips (
            clip_id, start_seconds, duration_seconds, download_dir, cropped_dir,
            max_height, priority, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		clipID, req.Start, req.Duration, req.DownloadDir, req.CroppedDir,
		req.MaxHeight, int(PriorityFetch), string(StatusPending), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("queue: clip %s: %w", clipID, ErrDuplicateClip)
		}
		return nil, fmt.Errorf("queue: insert clip %s: %w", clipID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("queue: read clip id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID loads a single item by primary key.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	ctx = contextOrBackground(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM clips WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("queue: item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("queue: load item %d: %w", id, err)
	}
	return item, nil
}

// GetByClipID loads a single item by its clip identifier.
func (s *Store) GetByClipID(ctx context.Context, clipID string) (*Item, error) {
	ctx = contextOrBackground(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM clips WHERE clip_id = ?`, clipID)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("queue: clip %s: %w", clipID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("queue: load clip %s: %w", clipID, err)
	}
	return item, nil
}

// Update persists every mutable column of the item and bumps updated_at.
func (s *Store) Update(ctx context.Context, item *Item) error {
	ctx = contextOrBackground(ctx)
	if item == nil {
		return errors.New("queue: item is nil")
	}
	now := timestampNow()
	result, err := s.execRetrying(ctx, `
        UPDATE clips SET
            clip_id = ?, start_seconds = ?, duration_seconds = ?, download_dir = ?,
            cropped_dir = ?, max_height = ?, priority = ?, status = ?,
            video_path = ?, audio_path = ?, cropped_path = ?,
            error_message = ?, reject_reason = ?,
            progress_stage = ?, progress_percent = ?, progress_message = ?,
            updated_at = ?, last_heartbeat = ?
        WHERE id = ?`,
		item.ClipID, item.Start, item.Duration, item.DownloadDir,
		item.CroppedDir, item.MaxHeight, int(item.Priority), string(item.Status),
		textOrNull(item.VideoPath), textOrNull(item.AudioPath), textOrNull(item.CroppedPath),
		textOrNull(item.ErrorMessage), textOrNull(item.RejectReason),
		textOrNull(item.ProgressStage), item.ProgressPercent, textOrNull(item.ProgressMessage),
		now, timeOrNull(item.LastHeartbeat),
		item.ID)
	if err != nil {
		return fmt.Errorf("queue: update item %d: %w", item.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("queue: update item %d: %w", item.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("queue: item %d: %w", item.ID, ErrNotFound)
	}
	if ts, err := parseStoredTime(now); err == nil {
		item.UpdatedAt = ts
	}
	return nil
}

// UpdateProgress persists only the progress fields of the item. The
// heartbeat column is untouched so progress chatter from a stage handler
// cannot mask a worker that stopped heartbeating.
func (s *Store) UpdateProgress(ctx context.Context, item *Item) error {
	ctx = contextOrBackground(ctx)
	if item == nil {
		return errors.New("queue: item is nil")
	}
	now := timestampNow()
	result, err := s.execRetrying(ctx, `
        UPDATE clips SET
            progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ?
        WHERE id = ?`,
		textOrNull(item.ProgressStage), item.ProgressPercent, textOrNull(item.ProgressMessage),
		now, item.ID)
	if err != nil {
		return fmt.Errorf("queue: update progress for item %d: %w", item.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("queue: update progress for item %d: %w", item.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("queue: item %d: %w", item.ID, ErrNotFound)
	}
	return nil
}

// List returns items filtered by status, or every item when no statuses are
// given, in insertion order.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	ctx = contextOrBackground(ctx)
	query := `SELECT ` + itemColumns + ` FROM clips`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + sqlPlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("queue: list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("queue: scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("queue: list items: %w", err)
	}
	return items, nil
}

// Remove deletes a single item by primary key.
func (s *Store) Remove(ctx context.Context, id int64) error {
	ctx = contextOrBackground(ctx)
	result, err := s.execRetrying(ctx, `DELETE FROM clips WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("queue: remove item %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("queue: remove item %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("queue: item %d: %w", id, ErrNotFound)
	}
	return nil
}

// Clear deletes every item and returns how many rows were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ctx = contextOrBackground(ctx)
	result, err := s.execRetrying(ctx, `DELETE FROM clips`)
	if err != nil {
		return 0, fmt.Errorf("queue: clear queue: %w", err)
	}
	return result.RowsAffected()
}

// ClearByStatus deletes every item in the given statuses and returns how
// many rows were removed.
func (s *Store) ClearByStatus(ctx context.Context, statuses ...Status) (int64, error) {
	ctx = contextOrBackground(ctx)
	if len(statuses) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	result, err := s.execRetrying(ctx,
		`DELETE FROM clips WHERE status IN (`+sqlPlaceholders(len(statuses))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("queue: clear by status: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item            Item
		priority        int
		status          string
		videoPath       sql.NullString
		audioPath       sql.NullString
		croppedPath     sql.NullString
		errorMessage    sql.NullString
		rejectReason    sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		createdAt       string
		updatedAt       string
		lastHeartbeat   sql.NullString
	)

	if err := row.Scan(
		&item.ID, &item.ClipID, &item.Start, &item.Duration,
		&item.DownloadDir, &item.CroppedDir, &item.MaxHeight,
		&priority, &status,
		&videoPath, &audioPath, &croppedPath,
		&errorMessage, &rejectReason,
		&progressStage, &progressPercent, &progressMessage,
		&createdAt, &updatedAt, &lastHeartbeat,
	); err != nil {
		return nil, err
	}

	item.Priority = Priority(priority)
	item.Status = Status(status)
	item.VideoPath = videoPath.String
	item.AudioPath = audioPath.String
	item.CroppedPath = croppedPath.String
	item.ErrorMessage = errorMessage.String
	item.RejectReason = rejectReason.String
	item.ProgressStage = progressStage.String
	if progressPercent.Valid {
		item.ProgressPercent = progressPercent.Float64
	}
	item.ProgressMessage = progressMessage.String

	if ts, err := parseStoredTime(createdAt); err == nil {
		item.CreatedAt = ts
	}
	if ts, err := parseStoredTime(updatedAt); err == nil {
		item.UpdatedAt = ts
	}
	if lastHeartbeat.Valid && strings.TrimSpace(lastHeartbeat.String) != "" {
		if ts, err := parseStoredTime(lastHeartbeat.String); err == nil {
			item.LastHeartbeat = &ts
		}
	}
	return &item, nil
}
