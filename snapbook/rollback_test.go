package snapbook

import (
	"context"
	"errors"
	"testing"
)

func TestCloneCreatesIndependentBook(t *testing.T) {
	// WHAT: A clone gets a fresh ID, the snapshot's transaction set, and
	// status "open" even when the source book was closed; editing the clone
	// leaves the original untouched.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	seedTx(t, svc, "fbk-1", "trx-1", "$100", "credit")
	seedTx(t, svc, "fbk-1", "trx-2", "$50", "debit")

	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if err := svc.Store().UpdateBookStatus(ctx, "fbk-1", "closed"); err != nil {
		t.Fatalf("close book: %v", err)
	}

	clone, err := svc.Clone(ctx, snap.ID, CloneOverrides{})
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if clone.ID == "fbk-1" {
		t.Error("clone reused the source book ID")
	}
	if clone.Status != "open" {
		t.Errorf("clone status = %q, want open", clone.Status)
	}
	if clone.Name != "Book fbk-1" {
		t.Errorf("clone name = %q, want the snapshot's book name", clone.Name)
	}

	cloneTxs, err := svc.Store().ListTransactions(ctx, clone.ID)
	if err != nil {
		t.Fatalf("list clone transactions: %v", err)
	}
	if len(cloneTxs) != 2 {
		t.Fatalf("clone has %d transactions, want 2", len(cloneTxs))
	}
	for _, tx := range cloneTxs {
		if tx.ID == "trx-1" || tx.ID == "trx-2" {
			t.Errorf("clone transaction reused live ID %s", tx.ID)
		}
	}

	if err := svc.Store().DeleteTransaction(ctx, cloneTxs[0].ID); err != nil {
		t.Fatalf("delete clone transaction: %v", err)
	}
	n, err := svc.Store().CountTransactions(ctx, "fbk-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("original book has %d transactions after editing the clone, want 2", n)
	}
}

func TestCloneOverrides(t *testing.T) {
	// WHAT: Non-empty overrides replace the snapshot's descriptive fields;
	// empty ones keep them.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	clone, err := svc.Clone(ctx, snap.ID, CloneOverrides{Name: "Budget redo", Period: "2026-02"})
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if clone.Name != "Budget redo" || clone.Period != "2026-02" {
		t.Errorf("overrides not applied: %q / %q", clone.Name, clone.Period)
	}
	if clone.Description != "desc" {
		t.Errorf("description = %q, want the snapshot's", clone.Description)
	}
}

func TestRollbackRestoresBook(t *testing.T) {
	// WHAT: Rollback replaces the live transaction set and the book's
	// descriptive fields with the snapshot's state, and first captures a
	// pre-rollback safety snapshot of what is being destroyed.
	// WHY: Rollback is the only destructive operation; the safety snapshot
	// is the undo path.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	seedTx(t, svc, "fbk-1", "trx-1", "$100", "credit")
	seedTx(t, svc, "fbk-1", "trx-2", "$50", "debit")

	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{Name: "good state"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	// Drift: drop one transaction, add two, close the book.
	if err := svc.Store().DeleteTransaction(ctx, "trx-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seedTx(t, svc, "fbk-1", "trx-3", "$1", "debit")
	seedTx(t, svc, "fbk-1", "trx-4", "$2", "debit")
	if err := svc.Store().UpdateBookStatus(ctx, "fbk-1", "closed"); err != nil {
		t.Fatalf("close: %v", err)
	}

	res, err := svc.Rollback(ctx, snap.ID, true)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if !res.Success || res.FiscalBookID != "fbk-1" || res.RestoredTransactionCount != 2 {
		t.Errorf("result = %+v", res)
	}
	if res.PreRollbackSnapshotID == "" {
		t.Fatal("missing pre-rollback snapshot ID")
	}

	book, err := svc.Store().GetBook(ctx, "fbk-1")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if book.Status != "open" {
		t.Errorf("status = %q, want the snapshot's open", book.Status)
	}

	txs, err := svc.Store().ListTransactions(ctx, "fbk-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("live set = %d transactions, want 2", len(txs))
	}

	// The safety snapshot recorded the drifted state: 3 transactions,
	// closed book.
	pre, err := svc.GetSnapshot(ctx, res.PreRollbackSnapshotID)
	if err != nil {
		t.Fatalf("get pre-rollback snapshot: %v", err)
	}
	if pre.Stats.TransactionCount != 3 {
		t.Errorf("pre-rollback count = %d, want 3", pre.Stats.TransactionCount)
	}
	if pre.BookStatus != "closed" {
		t.Errorf("pre-rollback book status = %q, want closed", pre.BookStatus)
	}
	found := false
	for _, tag := range pre.Tags {
		if tag == "pre-rollback" {
			found = true
		}
	}
	if !found {
		t.Errorf("pre-rollback tags = %v", pre.Tags)
	}
}

func TestRollbackWithoutSafetySnapshot(t *testing.T) {
	// WHAT: With the safety snapshot disabled, rollback restores state and
	// creates no extra snapshot.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	seedTx(t, svc, "fbk-1", "trx-1", "$10", "debit")

	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	seedTx(t, svc, "fbk-1", "trx-2", "$20", "debit")

	res, err := svc.Rollback(ctx, snap.ID, false)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if res.PreRollbackSnapshotID != "" {
		t.Errorf("unexpected safety snapshot %s", res.PreRollbackSnapshotID)
	}

	snaps, err := svc.ListSnapshots(ctx, "fbk-1", nil, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(snaps) != 1 {
		t.Errorf("got %d snapshots, want only the original", len(snaps))
	}
}

func TestRollbackUnknownSnapshot(t *testing.T) {
	svc := newTestService(t, nil)
	if _, err := svc.Rollback(context.Background(), "nope", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
