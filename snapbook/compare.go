package snapbook

import (
	"context"
	"fmt"
	"strings"
)

// Compare diffs a snapshot against its book's live state. Live transactions
// with no snapshot counterpart are added; snapshot copies whose original is
// gone are removed; pairs present in both sets are checked field by field.
// The result is deterministic given the two sets — no ordering beyond list
// membership is implied.
func (s *Service) Compare(ctx context.Context, snapshotID string) (*ComparisonResult, error) {
	snap, err := s.GetSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	items, err := s.store.ListSnapshotTransactions(ctx, snapshotID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("load snapshot transactions: %w", err)
	}
	live, err := s.store.ListTransactions(ctx, snap.BookID)
	if err != nil {
		return nil, fmt.Errorf("load live transactions: %w", err)
	}

	byOriginal := make(map[string]*SnapshotTransaction, len(items))
	for _, item := range items {
		if item.OriginalTransactionID != "" {
			byOriginal[item.OriginalTransactionID] = item
		}
	}

	result := &ComparisonResult{
		SnapshotID: snap.ID,
		BookID:     snap.BookID,
		Added:      []*Transaction{},
		Removed:    []*SnapshotTransaction{},
		Modified:   []ModifiedTransaction{},
	}

	matched := make(map[string]bool, len(live))
	for _, t := range live {
		item, ok := byOriginal[t.ID]
		if !ok {
			result.Added = append(result.Added, t)
			continue
		}
		matched[t.ID] = true

		changes := diffFields(item, t)
		if len(changes) == 0 {
			result.Unchanged++
			continue
		}
		result.Modified = append(result.Modified, ModifiedTransaction{
			TransactionID: t.ID,
			Name:          t.Name,
			Changes:       changes,
		})
	}

	for _, item := range items {
		if item.OriginalTransactionID == "" || !matched[item.OriginalTransactionID] {
			result.Removed = append(result.Removed, item)
		}
	}

	result.Counts = ComparisonCounts{
		Added:     len(result.Added),
		Removed:   len(result.Removed),
		Modified:  len(result.Modified),
		Unchanged: result.Unchanged,
	}

	current := computeStatistics(live)
	result.Summary = ComparisonSummary{
		SnapshotStats: snap.Stats,
		CurrentStats:  current,
		Delta: Statistics{
			TransactionCount: current.TransactionCount - snap.Stats.TransactionCount,
			TotalIncome:      current.TotalIncome - snap.Stats.TotalIncome,
			TotalExpenses:    current.TotalExpenses - snap.Stats.TotalExpenses,
			NetAmount:        current.NetAmount - snap.Stats.NetAmount,
		},
	}
	return result, nil
}

// diffFields checks the fixed comparison field set, trimmed-string equality.
func diffFields(item *SnapshotTransaction, t *Transaction) []FieldChange {
	pairs := []struct {
		field    string
		old, now string
	}{
		{"transactionValue", item.Value, t.Value},
		{"name", item.Name, t.Name},
		{"description", item.Description, t.Description},
		{"status", item.Status, t.Status},
		{"transactionType", item.TransactionType, t.TransactionType},
		{"category", item.Category, t.Category},
		{"paymentMethod", item.PaymentMethod, t.PaymentMethod},
	}

	var changes []FieldChange
	for _, p := range pairs {
		old, now := strings.TrimSpace(p.old), strings.TrimSpace(p.now)
		if old != now {
			changes = append(changes, FieldChange{Field: p.field, Old: old, New: now})
		}
	}
	return changes
}
