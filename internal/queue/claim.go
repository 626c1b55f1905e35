package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ClaimNext atomically claims the highest-priority waiting item and moves it
// to its processing status. Ties break on created_at, then id, so equal
// priority work runs in submission order. Returns (nil, nil) when nothing is
// waiting.
//
// The claim is an optimistic loop: select a candidate, then update it with a
// status guard. A concurrent worker winning the same row leaves the update
// with zero affected rows, so the claim retries with a fresh candidate.
func (s *Store) ClaimNext(ctx context.Context) (*Item, error) {
	ctx = contextOrBackground(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			id     int64
			status string
		)
		err := s.db.QueryRowContext(ctx, `
            SELECT id, status FROM clips
            WHERE status IN (?, ?)
            ORDER BY priority DESC, created_at, id
            LIMIT 1`,
			string(StatusPending), string(StatusFetched)).Scan(&id, &status)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("queue: select claim candidate: %w", err)
		}

		next, ok := ClaimedStatus(Status(status))
		if !ok {
			return nil, fmt.Errorf("queue: item %d: no claim transition from %s", id, status)
		}

		now := timestampNow()
		result, err := s.execRetrying(ctx, `
            UPDATE clips SET status = ?, last_heartbeat = ?, updated_at = ?
            WHERE id = ? AND status = ?`,
			string(next), now, now, id, status)
		if err != nil {
			return nil, fmt.Errorf("queue: claim item %d: %w", id, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("queue: claim item %d: %w", id, err)
		}
		if affected == 0 {
			continue
		}
		return s.GetByID(ctx, id)
	}
}

// UpdateHeartbeat refreshes the liveness timestamp of an in-flight item.
// Items no longer in a processing status are left alone.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	ctx = contextOrBackground(ctx)
	now := timestampNow()
	_, err := s.execRetrying(ctx, `
        UPDATE clips SET last_heartbeat = ?, updated_at = ?
        WHERE id = ? AND status IN (?, ?)`,
		now, now, id, string(StatusFetching), string(StatusCropping))
	if err != nil {
		return fmt.Errorf("queue: heartbeat item %d: %w", id, err)
	}
	return nil
}

// ReclaimStale returns processing items whose heartbeat is older than the
// timeout to their waiting status. The work they carried is re-delivered to
// the next claimant, which is where the at-least-once guarantee comes from.
func (s *Store) ReclaimStale(ctx context.Context, timeout time.Duration) (int64, error) {
	ctx = contextOrBackground(ctx)
	if timeout <= 0 {
		return 0, errors.New("queue: reclaim timeout must be positive")
	}
	cutoff := time.Now().UTC().Add(-timeout).Format(time.RFC3339Nano)
	now := timestampNow()

	var total int64
	for _, tr := range reclaimTransitions {
		result, err := s.execRetrying(ctx, `
            UPDATE clips SET status = ?, last_heartbeat = NULL, updated_at = ?
            WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
			string(tr.to), now, string(tr.from), cutoff)
		if err != nil {
			return total, fmt.Errorf("queue: reclaim %s items: %w", tr.from, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("queue: reclaim %s items: %w", tr.from, err)
		}
		total += affected
	}
	return total, nil
}

// ResetStuckProcessing returns every processing item to its waiting status
// regardless of heartbeat age. Called once at daemon startup, when no worker
// can legitimately own an in-flight row.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	ctx = contextOrBackground(ctx)
	now := timestampNow()

	var total int64
	for _, tr := range reclaimTransitions {
		result, err := s.execRetrying(ctx, `
            UPDATE clips SET status = ?, last_heartbeat = NULL, updated_at = ?
            WHERE status = ?`,
			string(tr.to), now, string(tr.from))
		if err != nil {
			return total, fmt.Errorf("queue: reset %s items: %w", tr.from, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("queue: reset %s items: %w", tr.from, err)
		}
		total += affected
	}
	return total, nil
}

// RetryFailed moves failed items back to pending at fetch priority. The
// fetch stage recognizes work that already happened and fast-forwards, so
// restarting from the top is safe even when only the crop stage failed.
// With no ids every failed item is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	ctx = contextOrBackground(ctx)
	now := timestampNow()

	query := `
        UPDATE clips SET status = ?, priority = ?, error_message = NULL,
            progress_stage = NULL, progress_percent = 0, progress_message = NULL,
            last_heartbeat = NULL, updated_at = ?
        WHERE status = ?`
	args := []any{string(StatusPending), int(PriorityFetch), now, string(StatusFailed)}
	if len(ids) > 0 {
		query += ` AND id IN (` + sqlPlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}

	result, err := s.execRetrying(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("queue: retry failed items: %w", err)
	}
	return result.RowsAffected()
}
