package snapbook

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// csvHeader is the fixed export header row.
const csvHeader = `"Date","Name","Description","Value","Type","Status","Category","Payment Method","Company"`

// Export serializes a snapshot in the requested format ("json" or "csv").
// Returns the payload and its content type.
func (s *Service) Export(ctx context.Context, snapshotID, format string) ([]byte, string, error) {
	switch format {
	case "json":
		data, err := s.exportJSON(ctx, snapshotID)
		return data, "application/json", err
	case "csv":
		data, err := s.exportCSV(ctx, snapshotID)
		return data, "text/csv", err
	default:
		return nil, "", fmt.Errorf("%w: unsupported export format %q", ErrInvalidInput, format)
	}
}

// exportJSON dumps the snapshot header plus every transaction copy.
func (s *Service) exportJSON(ctx context.Context, snapshotID string) ([]byte, error) {
	snap, err := s.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListSnapshotTransactions(ctx, snapshotID, 0, 0)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*SnapshotTransaction{}
	}

	dump := struct {
		Snapshot     *Snapshot              `json:"snapshot"`
		Transactions []*SnapshotTransaction `json:"transactions"`
	}{snap, items}
	return json.MarshalIndent(dump, "", "  ")
}

// exportCSV writes one row per transaction copy. Every field is
// double-quoted with embedded quotes doubled; dates format as YYYY-MM-DD.
func (s *Service) exportCSV(ctx context.Context, snapshotID string) ([]byte, error) {
	snap, err := s.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListSnapshotTransactions(ctx, snap.ID, 0, 0)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteByte('\n')
	for _, item := range items {
		fields := []string{
			csvDate(item.TransactionDate),
			item.Name,
			item.Description,
			item.Value,
			item.TransactionType,
			item.Status,
			item.Category,
			item.PaymentMethod,
			item.Company,
		}
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(f, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

func csvDate(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}
