package snapbook

import (
	"context"
	"fmt"

	"github.com/hazyhaar/fiskal/snapbook/internal/store"
)

// Clone creates a new, independent fiscal book seeded from a snapshot.
// Descriptive fields default to the snapshot's denormalized copy unless
// overridden; the clone always starts with status "open" regardless of the
// status the snapshot recorded. Neither the original book nor the snapshot
// is touched.
func (s *Service) Clone(ctx context.Context, snapshotID string, ov CloneOverrides) (*FiscalBook, error) {
	snap, err := s.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListSnapshotTransactions(ctx, snapshotID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("load snapshot transactions: %w", err)
	}

	book := &FiscalBook{
		ID:          s.newBookID(),
		Name:        snap.BookName,
		Description: snap.BookDescription,
		Period:      snap.BookPeriod,
		Status:      "open",
	}
	if ov.Name != "" {
		book.Name = ov.Name
	}
	if ov.Description != "" {
		book.Description = ov.Description
	}
	if ov.Period != "" {
		book.Period = ov.Period
	}

	txs := s.transactionsFromSnapshot(book.ID, items)
	if err := s.store.CreateBookWithTransactions(ctx, book, txs); err != nil {
		return nil, fmt.Errorf("create clone: %w", err)
	}

	s.logger.Info("snapshot cloned", "snapshot_id", snapshotID, "book_id", book.ID,
		"transactions", len(txs))
	return book, nil
}

// Rollback destructively restores the snapshot's original book to the state
// the snapshot recorded. Two phases: an optional safety snapshot of the
// current state commits on its own, then one atomic unit deletes the live
// transactions, re-inserts the snapshot's copies, and overwrites the book's
// descriptive fields. If the destructive phase fails, the safety snapshot is
// kept — there is no automatic compensation.
func (s *Service) Rollback(ctx context.Context, snapshotID string, createPreRollbackSnapshot bool) (*RollbackResult, error) {
	snap, err := s.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	book, err := s.store.GetBook(ctx, snap.BookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, fmt.Errorf("%w: fiscal book %s", ErrNotFound, snap.BookID)
	}

	var preID string
	if createPreRollbackSnapshot {
		pre, err := s.Capture(ctx, book.ID, CaptureRequest{
			Name:           "Pre-rollback " + s.now().Format("2006-01-02 15:04"),
			Description:    "State before rollback to snapshot " + snapshotID,
			Tags:           []string{"pre-rollback", "auto"},
			CreationSource: SourceManual,
		})
		if err != nil {
			return nil, fmt.Errorf("pre-rollback snapshot: %w", err)
		}
		preID = pre.ID
	}

	items, err := s.store.ListSnapshotTransactions(ctx, snapshotID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("load snapshot transactions: %w", err)
	}

	restored := &FiscalBook{
		ID:          book.ID,
		Name:        snap.BookName,
		Description: snap.BookDescription,
		Period:      snap.BookPeriod,
		Status:      snap.BookStatus,
	}
	txs := s.transactionsFromSnapshot(book.ID, items)
	if err := s.store.RestoreBook(ctx, restored, txs); err != nil {
		s.logger.Error("rollback destructive phase failed", "snapshot_id", snapshotID,
			"book_id", book.ID, "pre_rollback_snapshot", preID, "error", err)
		return nil, fmt.Errorf("restore book: %w", err)
	}

	s.logger.Info("book rolled back", "book_id", book.ID, "snapshot_id", snapshotID,
		"transactions", len(txs), "pre_rollback_snapshot", preID)
	return &RollbackResult{
		Success:                  true,
		FiscalBookID:             book.ID,
		RestoredFromSnapshot:     snapshotID,
		RestoredTransactionCount: len(txs),
		PreRollbackSnapshotID:    preID,
	}, nil
}

// transactionsFromSnapshot materializes fresh live transactions from a
// snapshot's copies: new identifiers, linked to bookID.
func (s *Service) transactionsFromSnapshot(bookID string, items []*SnapshotTransaction) []*store.Transaction {
	txs := make([]*store.Transaction, 0, len(items))
	for _, item := range items {
		txs = append(txs, &store.Transaction{
			ID:              s.newTxID(),
			BookID:          bookID,
			Name:            item.Name,
			Description:     item.Description,
			Value:           item.Value,
			TransactionType: item.TransactionType,
			Status:          item.Status,
			Category:        item.Category,
			PaymentMethod:   item.PaymentMethod,
			Company:         item.Company,
			TransactionDate: item.TransactionDate,
		})
	}
	return txs
}
