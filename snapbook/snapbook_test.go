package snapbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/fiskal/dbopen"
	"github.com/hazyhaar/fiskal/idgen"
	"github.com/hazyhaar/fiskal/snapbook/internal/store"
	_ "modernc.org/sqlite"
)

// testNow is a Monday.
var testNow = time.Date(2026, time.January, 5, 10, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seqGen yields deterministic, lexically increasing IDs.
func seqGen() idgen.Generator {
	var mu sync.Mutex
	var n int
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%08d", n)
	}
}

func newTestService(t *testing.T, cfg *Config, opts ...ServiceOption) *Service {
	t.Helper()
	db := dbopen.OpenMemory(t)
	all := append([]ServiceOption{
		WithClock(func() time.Time { return testNow }),
		WithIDGenerator(seqGen()),
	}, opts...)
	svc, err := New(db, cfg, discardLogger(), all...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedBook(t *testing.T, svc *Service, id string) *FiscalBook {
	t.Helper()
	b := &FiscalBook{ID: id, Name: "Book " + id, Description: "desc", Period: "2026-01", Status: "open"}
	if err := svc.Store().InsertBook(context.Background(), b); err != nil {
		t.Fatalf("insert book: %v", err)
	}
	return b
}

func seedTx(t *testing.T, svc *Service, bookID, id, value, txType string) *Transaction {
	t.Helper()
	tx := &Transaction{
		ID:              id,
		BookID:          bookID,
		Name:            "tx " + id,
		Value:           value,
		TransactionType: txType,
		Status:          "completed",
		Category:        "general",
		PaymentMethod:   "card",
		TransactionDate: testNow.UnixMilli(),
	}
	if err := svc.Store().InsertTransaction(context.Background(), tx); err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	return tx
}

func TestCaptureComputesStatistics(t *testing.T) {
	// WHAT: A capture of one $100 credit and one $50 debit records
	// count 2, income 100, expenses 50, net 50.
	// WHY: Statistics are computed once at capture and frozen with the
	// snapshot; a wrong aggregate here is wrong forever.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	seedTx(t, svc, "fbk-1", "trx-1", "$100", "credit")
	seedTx(t, svc, "fbk-1", "trx-2", "$50", "debit")

	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{Name: "month end"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	want := Statistics{TransactionCount: 2, TotalIncome: 100, TotalExpenses: 50, NetAmount: 50}
	if snap.Stats != want {
		t.Errorf("stats = %+v, want %+v", snap.Stats, want)
	}
	if snap.CreationSource != SourceManual {
		t.Errorf("creation source = %q, want manual", snap.CreationSource)
	}
}

func TestCaptureFreezesTransactionCopies(t *testing.T) {
	// WHAT: Every live transaction gets a copy referencing its original ID,
	// and later edits to the live row do not leak into the copy.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	live := seedTx(t, svc, "fbk-1", "trx-1", "$10", "debit")

	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	live.Value = "$999"
	if err := svc.Store().UpdateTransaction(ctx, live); err != nil {
		t.Fatalf("update transaction: %v", err)
	}

	items, err := svc.ListSnapshotTransactions(ctx, snap.ID, 0, 0)
	if err != nil {
		t.Fatalf("list snapshot transactions: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d copies, want 1", len(items))
	}
	if items[0].OriginalTransactionID != "trx-1" {
		t.Errorf("original id = %q, want trx-1", items[0].OriginalTransactionID)
	}
	if items[0].Value != "$10" {
		t.Errorf("copy value = %q, want the frozen $10", items[0].Value)
	}
}

func TestCaptureDenormalizesBookHeader(t *testing.T) {
	// WHAT: The snapshot carries its own copy of the book's descriptive
	// fields as they were at capture time.
	svc := newTestService(t, nil)
	ctx := context.Background()
	book := seedBook(t, svc, "fbk-1")

	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if snap.BookName != book.Name || snap.BookPeriod != book.Period || snap.BookStatus != "open" {
		t.Errorf("denormalized header = %q/%q/%q", snap.BookName, snap.BookPeriod, snap.BookStatus)
	}
}

func TestCaptureDefaultName(t *testing.T) {
	// WHAT: An empty name defaults to a timestamped one.
	svc := newTestService(t, nil)
	seedBook(t, svc, "fbk-1")

	snap, err := svc.Capture(context.Background(), "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if snap.Name != "Snapshot 2026-01-05 10:30" {
		t.Errorf("default name = %q", snap.Name)
	}
}

func TestCaptureEmptyBook(t *testing.T) {
	// WHAT: Capturing a book with no transactions yields zeroed statistics
	// and no copies, not an error.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")

	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if snap.Stats != (Statistics{}) {
		t.Errorf("stats = %+v, want zero", snap.Stats)
	}
	n, err := svc.Store().CountSnapshotTransactions(ctx, snap.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("got %d copies, want 0", n)
	}
}

func TestCaptureUnknownBook(t *testing.T) {
	// WHAT: Capturing a nonexistent book is ErrNotFound.
	svc := newTestService(t, nil)
	_, err := svc.Capture(context.Background(), "nope", CaptureRequest{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCaptureNormalizesTags(t *testing.T) {
	// WHAT: Tags are lower-cased, trimmed, and de-duplicated at capture.
	svc := newTestService(t, nil)
	seedBook(t, svc, "fbk-1")

	snap, err := svc.Capture(context.Background(), "fbk-1", CaptureRequest{
		Tags: []string{" Month-End ", "month-end", "AUDIT", ""},
	})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if got := strings.Join(snap.Tags, ","); got != "month-end,audit" {
		t.Errorf("tags = %q, want month-end,audit", got)
	}
}

func TestUpdateTagsReplacesSet(t *testing.T) {
	// WHAT: UpdateTags replaces the whole tag set; over-limit input is
	// rejected as invalid.
	svc := newTestService(t, &Config{MaxTags: 2})
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{Tags: []string{"old"}})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	updated, err := svc.UpdateTags(ctx, snap.ID, []string{"New", "final"})
	if err != nil {
		t.Fatalf("update tags: %v", err)
	}
	if got := strings.Join(updated.Tags, ","); got != "new,final" {
		t.Errorf("tags = %q, want new,final", got)
	}

	if _, err := svc.UpdateTags(ctx, snap.ID, []string{"a", "b", "c"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("over-limit err = %v, want ErrInvalidInput", err)
	}
}

func TestProtectionBlocksDeletion(t *testing.T) {
	// WHAT: A protected snapshot cannot be deleted; unprotecting it first
	// makes deletion succeed.
	// WHY: Protection is the only guard rail for audit snapshots.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	if _, err := svc.SetProtection(ctx, snap.ID, true); err != nil {
		t.Fatalf("protect: %v", err)
	}
	if err := svc.DeleteSnapshot(ctx, snap.ID); !errors.Is(err, ErrProtected) {
		t.Fatalf("delete protected: err = %v, want ErrProtected", err)
	}

	if _, err := svc.SetProtection(ctx, snap.ID, false); err != nil {
		t.Fatalf("unprotect: %v", err)
	}
	if err := svc.DeleteSnapshot(ctx, snap.ID); err != nil {
		t.Fatalf("delete after unprotect: %v", err)
	}
	if _, err := svc.GetSnapshot(ctx, snap.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete: err = %v, want ErrNotFound", err)
	}
}

func TestAddAnnotation(t *testing.T) {
	// WHAT: Annotations append in order with the clock's timestamp; empty
	// content is invalid.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")
	snap, err := svc.Capture(ctx, "fbk-1", CaptureRequest{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	if _, err := svc.AddAnnotation(ctx, snap.ID, "", "alice"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty content: err = %v, want ErrInvalidInput", err)
	}

	if _, err := svc.AddAnnotation(ctx, snap.ID, "first", "alice"); err != nil {
		t.Fatalf("annotate: %v", err)
	}
	got, err := svc.AddAnnotation(ctx, snap.ID, "second", "bob")
	if err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if len(got.Annotations) != 2 {
		t.Fatalf("got %d annotations, want 2", len(got.Annotations))
	}
	if got.Annotations[0].Content != "first" || got.Annotations[1].CreatedBy != "bob" {
		t.Errorf("annotations out of order: %+v", got.Annotations)
	}
	if got.Annotations[1].CreatedAt != testNow.UnixMilli() {
		t.Errorf("created_at = %d, want pinned clock", got.Annotations[1].CreatedAt)
	}
}

func TestDeleteBookSnapshotsSparesProtected(t *testing.T) {
	// WHAT: The book-level purge removes unprotected snapshots and the
	// schedule but leaves protected snapshots intact.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")

	keep, err := svc.Capture(ctx, "fbk-1", CaptureRequest{Name: "keep"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if _, err := svc.SetProtection(ctx, keep.ID, true); err != nil {
		t.Fatalf("protect: %v", err)
	}
	if _, err := svc.Capture(ctx, "fbk-1", CaptureRequest{Name: "gone"}); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if _, err := svc.UpsertSchedule(ctx, "fbk-1", ScheduleRequest{Enabled: true, Frequency: FrequencyWeekly}); err != nil {
		t.Fatalf("upsert schedule: %v", err)
	}

	deleted, err := svc.DeleteBookSnapshots(ctx, "fbk-1")
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := svc.GetSnapshot(ctx, keep.ID); err != nil {
		t.Errorf("protected snapshot gone: %v", err)
	}
	if _, err := svc.GetSchedule(ctx, "fbk-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("schedule survived the purge: %v", err)
	}

	if _, err := svc.DeleteBookSnapshots(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown book: err = %v, want ErrNotFound", err)
	}
}

func TestListSnapshotsFilterAndOrder(t *testing.T) {
	// WHAT: Listing is newest-first and the tag filter requires every
	// requested tag.
	svc := newTestService(t, nil)
	ctx := context.Background()
	seedBook(t, svc, "fbk-1")

	mkSnap := func(id string, createdAt int64, tags []string) {
		sn := &store.Snapshot{
			ID: id, BookID: "fbk-1", Name: id, CreationSource: SourceManual,
			Tags: tags, CreatedAt: createdAt,
		}
		if err := svc.Store().CreateSnapshotBundle(ctx, sn, nil); err != nil {
			t.Fatalf("seed snapshot %s: %v", id, err)
		}
	}
	mkSnap("snp-1", 1000, []string{"auto"})
	mkSnap("snp-2", 2000, []string{"auto", "audit"})
	mkSnap("snp-3", 3000, []string{"audit"})

	all, err := svc.ListSnapshots(ctx, "fbk-1", nil, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "snp-3" || all[2].ID != "snp-1" {
		t.Errorf("order wrong: %v", snapshotIDs(all))
	}

	both, err := svc.ListSnapshots(ctx, "fbk-1", []string{"AUTO", "audit"}, 0, 0)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(both) != 1 || both[0].ID != "snp-2" {
		t.Errorf("AND filter wrong: %v", snapshotIDs(both))
	}
}

func snapshotIDs(snaps []*Snapshot) []string {
	ids := make([]string, 0, len(snaps))
	for _, sn := range snaps {
		ids = append(ids, sn.ID)
	}
	return ids
}
