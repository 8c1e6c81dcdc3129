package snapbook

import (
	"context"
	"fmt"
	"time"
)

// NextExecution computes the next run time for a periodic frequency, always
// at midnight in now's location. The second return is false for
// event-triggered frequencies, which never get a periodic next run.
//
// Weekly: if today already is the target weekday, the next run is seven days
// out — never today. Monthly: this month's day, or next month's once the
// candidate is at or before now; days beyond the month's end clamp to its
// last day.
func NextExecution(frequency string, dayOfWeek, dayOfMonth int, now time.Time) (time.Time, bool) {
	switch frequency {
	case FrequencyWeekly:
		days := (dayOfWeek - int(now.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		next := now.AddDate(0, 0, days)
		return midnight(next), true

	case FrequencyMonthly:
		candidate := monthlyCandidate(now.Year(), now.Month(), dayOfMonth, now.Location())
		if !candidate.After(now) {
			candidate = monthlyCandidate(now.Year(), now.Month()+1, dayOfMonth, now.Location())
		}
		return candidate, true

	default:
		return time.Time{}, false
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func monthlyCandidate(year int, month time.Month, day int, loc *time.Location) time.Time {
	// Last day of the target month: day 0 of the month after.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// GetSchedule returns a book's schedule.
func (s *Service) GetSchedule(ctx context.Context, bookID string) (*Schedule, error) {
	sc, err := s.store.GetSchedule(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, fmt.Errorf("%w: schedule for book %s", ErrNotFound, bookID)
	}
	return sc, nil
}

// UpsertSchedule creates or replaces a book's schedule and computes its
// next execution time.
func (s *Service) UpsertSchedule(ctx context.Context, bookID string, req ScheduleRequest) (*Schedule, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, fmt.Errorf("%w: fiscal book %s", ErrNotFound, bookID)
	}
	if err := validateScheduleRequest(&req); err != nil {
		return nil, err
	}

	retention := req.RetentionCount
	if retention == 0 {
		retention = s.config.DefaultRetentionCount
	}
	autoTags := normalizeTags(req.AutoTags)
	if len(autoTags) == 0 {
		autoTags = []string{"auto"}
	}

	sc := &Schedule{
		BookID:         bookID,
		Enabled:        req.Enabled,
		Frequency:      req.Frequency,
		DayOfWeek:      req.DayOfWeek,
		DayOfMonth:     req.DayOfMonth,
		RetentionCount: retention,
		AutoTags:       autoTags,
	}
	if sc.Enabled {
		if next, ok := NextExecution(sc.Frequency, sc.DayOfWeek, sc.DayOfMonth, s.now()); ok {
			sc.NextExecutionAt = next.UnixMilli()
		}
	}

	if err := s.store.UpsertSchedule(ctx, sc); err != nil {
		return nil, err
	}
	return s.GetSchedule(ctx, bookID)
}

// ExecuteDue runs every enabled schedule whose next execution time has
// passed: capture, schedule bookkeeping, then retention cleanup. Each
// schedule is processed in isolation — one failure is recorded and the batch
// moves on.
func (s *Service) ExecuteDue(ctx context.Context, now time.Time) (*ExecutionReport, error) {
	due, err := s.store.DueSchedules(ctx, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query due schedules: %w", err)
	}

	report := &ExecutionReport{Executed: []ExecutedSchedule{}, Errors: []ScheduleError{}}
	for _, sc := range due {
		executed, err := s.executeSchedule(ctx, sc, now)
		if err != nil {
			s.logger.Warn("schedule execution failed", "book_id", sc.BookID, "error", err)
			report.Errors = append(report.Errors, ScheduleError{BookID: sc.BookID, Error: err.Error()})
			continue
		}
		report.Executed = append(report.Executed, *executed)
	}

	if len(due) > 0 {
		s.logger.Info("due schedules processed", "executed", len(report.Executed), "errors", len(report.Errors))
	}
	return report, nil
}

func (s *Service) executeSchedule(ctx context.Context, sc *Schedule, now time.Time) (*ExecutedSchedule, error) {
	snap, err := s.Capture(ctx, sc.BookID, CaptureRequest{
		Name:           "Scheduled snapshot " + now.Format("2006-01-02"),
		Tags:           sc.AutoTags,
		CreationSource: SourceScheduled,
	})
	if err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	var nextMs int64
	if next, ok := NextExecution(sc.Frequency, sc.DayOfWeek, sc.DayOfMonth, now); ok {
		nextMs = next.UnixMilli()
	}
	if err := s.store.MarkScheduleExecuted(ctx, sc.BookID, now.UnixMilli(), nextMs); err != nil {
		return nil, fmt.Errorf("mark executed: %w", err)
	}

	pruned, err := s.CleanupSnapshots(ctx, sc.BookID, sc.RetentionCount)
	if err != nil {
		return nil, fmt.Errorf("retention cleanup: %w", err)
	}

	return &ExecutedSchedule{
		BookID:          sc.BookID,
		SnapshotID:      snap.ID,
		PrunedSnapshots: pruned,
		NextExecutionAt: nextMs,
	}, nil
}

// CreateBeforeStatusChangeSnapshot captures a safety snapshot ahead of a
// book status transition. It is a no-op (nil, no error) when the book has no
// schedule, the schedule is disabled, or its frequency is not
// before-status-change. Internal failures are logged and swallowed: a status
// change must never be blocked by a failed safety snapshot.
func (s *Service) CreateBeforeStatusChangeSnapshot(ctx context.Context, bookID, newStatus string) *Snapshot {
	sc, err := s.store.GetSchedule(ctx, bookID)
	if err != nil {
		s.logger.Warn("before-status-change: load schedule", "book_id", bookID, "error", err)
		return nil
	}
	if sc == nil || !sc.Enabled || sc.Frequency != FrequencyBeforeStatusChange {
		return nil
	}

	now := s.now()
	snap, err := s.Capture(ctx, bookID, CaptureRequest{
		Name:           fmt.Sprintf("Before status change to %s", newStatus),
		Tags:           append(append([]string{}, sc.AutoTags...), "before-status-change"),
		CreationSource: SourceBeforeStatusChange,
	})
	if err != nil {
		s.logger.Warn("before-status-change: capture", "book_id", bookID, "error", err)
		return nil
	}

	if err := s.store.MarkScheduleExecuted(ctx, bookID, now.UnixMilli(), sc.NextExecutionAt); err != nil {
		s.logger.Warn("before-status-change: mark executed", "book_id", bookID, "error", err)
	}
	if _, err := s.CleanupSnapshots(ctx, bookID, sc.RetentionCount); err != nil {
		s.logger.Warn("before-status-change: retention cleanup", "book_id", bookID, "error", err)
	}
	return snap
}
