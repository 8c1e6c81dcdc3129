package snapbook

import (
	"context"
	"testing"
)

func TestCompareUnchanged(t *testing.T) {
	// WHAT: Comparing a snapshot against an untouched book yields empty
	// diff buckets and a zero statistics delta.
	// WHY: The diff must be a fixed point when nothing changed.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	seedTx(t, svc, "fbk-1", "trx-1", "$100", "credit")
	seedTx(t, svc, "fbk-1", "trx-2", "$50", "debit")

	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	res, err := svc.Compare(ctx, snap.ID)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if res.Counts != (ComparisonCounts{Unchanged: 2}) {
		t.Errorf("counts = %+v, want only unchanged=2", res.Counts)
	}
	if res.Summary.Delta != (Statistics{}) {
		t.Errorf("delta = %+v, want zero", res.Summary.Delta)
	}
}

func TestCompareBuckets(t *testing.T) {
	// WHAT: After one edit, one deletion, and one insertion the diff is
	// 1 added, 1 removed, 1 modified, 1 unchanged.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	seedTx(t, svc, "fbk-1", "trx-1", "$10", "debit")
	edited := seedTx(t, svc, "fbk-1", "trx-2", "$20", "debit")
	seedTx(t, svc, "fbk-1", "trx-3", "$30", "debit")

	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	edited.Value = "$25"
	if err := svc.Store().UpdateTransaction(ctx, edited); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.Store().DeleteTransaction(ctx, "trx-3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	seedTx(t, svc, "fbk-1", "trx-4", "$40", "credit")

	res, err := svc.Compare(ctx, snap.ID)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	want := ComparisonCounts{Added: 1, Removed: 1, Modified: 1, Unchanged: 1}
	if res.Counts != want {
		t.Fatalf("counts = %+v, want %+v", res.Counts, want)
	}
	if res.Added[0].ID != "trx-4" {
		t.Errorf("added = %s, want trx-4", res.Added[0].ID)
	}
	if res.Removed[0].OriginalTransactionID != "trx-3" {
		t.Errorf("removed original = %s, want trx-3", res.Removed[0].OriginalTransactionID)
	}
	if res.Modified[0].TransactionID != "trx-2" {
		t.Errorf("modified = %s, want trx-2", res.Modified[0].TransactionID)
	}
}

func TestCompareFieldChanges(t *testing.T) {
	// WHAT: A value edit surfaces as a single transactionValue change with
	// old and new recorded; whitespace-only differences do not count.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	tx := seedTx(t, svc, "fbk-1", "trx-1", "$10", "debit")

	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	tx.Value = "  $15 "
	tx.Name = tx.Name + "  " // trims away, no change
	if err := svc.Store().UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("update: %v", err)
	}

	res, err := svc.Compare(ctx, snap.ID)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(res.Modified) != 1 {
		t.Fatalf("modified = %d entries, want 1", len(res.Modified))
	}
	changes := res.Modified[0].Changes
	if len(changes) != 1 {
		t.Fatalf("changes = %+v, want exactly one", changes)
	}
	if changes[0].Field != "transactionValue" || changes[0].Old != "$10" || changes[0].New != "$15" {
		t.Errorf("change = %+v", changes[0])
	}
}

func TestCompareStatisticsDelta(t *testing.T) {
	// WHAT: The summary contrasts frozen statistics with freshly computed
	// ones; adding a $40 credit after capture shows up in the delta.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	seedTx(t, svc, "fbk-1", "trx-1", "$100", "credit")

	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	seedTx(t, svc, "fbk-1", "trx-2", "$40", "credit")

	res, err := svc.Compare(ctx, snap.ID)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	want := Statistics{TransactionCount: 1, TotalIncome: 40, NetAmount: 40}
	if res.Summary.Delta != want {
		t.Errorf("delta = %+v, want %+v", res.Summary.Delta, want)
	}
	if res.Summary.SnapshotStats.TotalIncome != 100 || res.Summary.CurrentStats.TotalIncome != 140 {
		t.Errorf("summary = %+v", res.Summary)
	}
}
