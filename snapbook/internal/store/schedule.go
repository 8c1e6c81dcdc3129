package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

func scanSchedule(row scanner) (*Schedule, error) {
	sc := &Schedule{}
	var autoTags string
	var last, next sql.NullInt64
	err := row.Scan(&sc.BookID, &sc.Enabled, &sc.Frequency, &sc.DayOfWeek,
		&sc.DayOfMonth, &sc.RetentionCount, &autoTags, &last, &next,
		&sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	sc.AutoTags = decodeList[string](autoTags)
	sc.LastExecutedAt = last.Int64
	sc.NextExecutionAt = next.Int64
	return sc, nil
}

const scheduleColumns = `book_id, enabled, frequency, day_of_week, day_of_month,
	retention_count, auto_tags_json, last_executed_at, next_execution_at,
	created_at, updated_at`

// UpsertSchedule creates or replaces the book's schedule (at most one per
// book). LastExecutedAt survives an update; the configurable fields and
// NextExecutionAt are overwritten.
func (s *Store) UpsertSchedule(ctx context.Context, sc *Schedule) error {
	now := time.Now().UnixMilli()
	if sc.CreatedAt == 0 {
		sc.CreatedAt = now
	}
	sc.UpdatedAt = now
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO snapshot_schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			enabled = excluded.enabled,
			frequency = excluded.frequency,
			day_of_week = excluded.day_of_week,
			day_of_month = excluded.day_of_month,
			retention_count = excluded.retention_count,
			auto_tags_json = excluded.auto_tags_json,
			next_execution_at = excluded.next_execution_at,
			updated_at = excluded.updated_at`,
		sc.BookID, sc.Enabled, sc.Frequency, sc.DayOfWeek, sc.DayOfMonth,
		sc.RetentionCount, encodeList(sc.AutoTags), nullableMs(sc.LastExecutedAt),
		nullableMs(sc.NextExecutionAt), sc.CreatedAt, sc.UpdatedAt,
	)
	return err
}

// GetSchedule retrieves a book's schedule, or nil if none exists.
func (s *Store) GetSchedule(ctx context.Context, bookID string) (*Schedule, error) {
	sc, err := scanSchedule(s.DB.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM snapshot_schedules WHERE book_id = ?`, bookID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sc, nil
}

// DueSchedules returns enabled schedules whose next execution time has
// passed. Event-triggered schedules (NULL next_execution_at) never appear.
func (s *Store) DueSchedules(ctx context.Context, nowMs int64) ([]*Schedule, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM snapshot_schedules
		WHERE enabled = 1 AND next_execution_at IS NOT NULL AND next_execution_at <= ?
		ORDER BY next_execution_at`, nowMs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sc)
	}
	return schedules, rows.Err()
}

// MarkScheduleExecuted records an execution and the newly computed next run.
// nextMs 0 stores NULL (event-triggered schedules).
func (s *Store) MarkScheduleExecuted(ctx context.Context, bookID string, lastMs, nextMs int64) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE snapshot_schedules SET last_executed_at = ?, next_execution_at = ?, updated_at = ?
		WHERE book_id = ?`,
		lastMs, nullableMs(nextMs), time.Now().UnixMilli(), bookID)
	return err
}

func nullableMs(ms int64) any {
	if ms == 0 {
		return nil
	}
	return ms
}
