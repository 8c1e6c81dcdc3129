package snapbook

import (
	"context"
	"fmt"
)

// CleanupSnapshots prunes a book's schedule-created, unprotected snapshots
// beyond the retentionCount most recent. retentionCount <= 0 falls back to
// the configured default. A candidate that cannot be deleted (for instance
// protected concurrently) is logged and skipped, never fatal to the batch.
// Returns the number successfully deleted.
func (s *Service) CleanupSnapshots(ctx context.Context, bookID string, retentionCount int) (int, error) {
	if retentionCount <= 0 {
		retentionCount = s.config.DefaultRetentionCount
	}

	candidates, err := s.store.ScheduledUnprotectedSnapshots(ctx, bookID)
	if err != nil {
		return 0, fmt.Errorf("list retention candidates: %w", err)
	}
	if len(candidates) <= retentionCount {
		return 0, nil
	}

	deleted := 0
	for _, sn := range candidates[retentionCount:] {
		ok, err := s.store.DeleteSnapshot(ctx, sn.ID)
		if err != nil {
			s.logger.Warn("retention: delete snapshot", "snapshot_id", sn.ID, "error", err)
			continue
		}
		if !ok {
			s.logger.Warn("retention: snapshot skipped", "snapshot_id", sn.ID)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Info("retention cleanup", "book_id", bookID, "deleted", deleted, "kept", retentionCount)
	}
	return deleted, nil
}
