package store

import (
	"context"
	"database/sql"
	"time"
)

func insertSnapshotTransactionTx(ctx context.Context, tx *sql.Tx, st *SnapshotTransaction) error {
	if st.CreatedAt == 0 {
		st.CreatedAt = time.Now().UnixMilli()
	}
	var origID any
	if st.OriginalTransactionID != "" {
		origID = st.OriginalTransactionID
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_transactions (id, snapshot_id, original_transaction_id,
		name, description, value, transaction_type, status, category, payment_method,
		company, transaction_date, annotations_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.SnapshotID, origID, st.Name, st.Description, st.Value,
		st.TransactionType, st.Status, st.Category, st.PaymentMethod, st.Company,
		st.TransactionDate, encodeList(st.Annotations), st.CreatedAt,
	)
	return err
}

// ListSnapshotTransactions returns a snapshot's transaction copies.
// limit <= 0 means no limit.
func (s *Store) ListSnapshotTransactions(ctx context.Context, snapshotID string, limit, skip int) ([]*SnapshotTransaction, error) {
	query := `SELECT id, snapshot_id, original_transaction_id, name, description, value,
		transaction_type, status, category, payment_method, company, transaction_date,
		annotations_json, created_at
		FROM snapshot_transactions WHERE snapshot_id = ?
		ORDER BY transaction_date, id`
	args := []any{snapshotID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, skip)
	} else if skip > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, skip)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*SnapshotTransaction
	for rows.Next() {
		st := &SnapshotTransaction{}
		var origID sql.NullString
		var annotations string
		if err := rows.Scan(&st.ID, &st.SnapshotID, &origID, &st.Name, &st.Description,
			&st.Value, &st.TransactionType, &st.Status, &st.Category, &st.PaymentMethod,
			&st.Company, &st.TransactionDate, &annotations, &st.CreatedAt); err != nil {
			return nil, err
		}
		st.OriginalTransactionID = origID.String
		st.Annotations = decodeList[Annotation](annotations)
		items = append(items, st)
	}
	return items, rows.Err()
}

// CountSnapshotTransactions returns the number of transaction copies held by
// a snapshot.
func (s *Store) CountSnapshotTransactions(ctx context.Context, snapshotID string) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshot_transactions WHERE snapshot_id = ?`, snapshotID).Scan(&count)
	return count, err
}
