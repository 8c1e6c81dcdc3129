package store

import (
	"context"
	"database/sql"
	"time"
)

// InsertTransaction adds a live transaction to a book.
func (s *Store) InsertTransaction(ctx context.Context, t *Transaction) error {
	now := time.Now().UnixMilli()
	if t.CreatedAt == 0 {
		t.CreatedAt = now
	}
	if t.UpdatedAt == 0 {
		t.UpdatedAt = now
	}
	return insertTransactionTxq(ctx, s.DB, t)
}

func insertTransactionTx(ctx context.Context, tx *sql.Tx, t *Transaction) error {
	now := time.Now().UnixMilli()
	if t.CreatedAt == 0 {
		t.CreatedAt = now
	}
	if t.UpdatedAt == 0 {
		t.UpdatedAt = now
	}
	return insertTransactionTxq(ctx, tx, t)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransactionTxq(ctx context.Context, q execer, t *Transaction) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO transactions (id, book_id, name, description, value, transaction_type,
		status, category, payment_method, company, transaction_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.BookID, t.Name, t.Description, t.Value, t.TransactionType,
		t.Status, t.Category, t.PaymentMethod, t.Company, t.TransactionDate,
		t.CreatedAt, t.UpdatedAt,
	)
	return err
}

// UpdateTransaction updates a live transaction's business fields.
func (s *Store) UpdateTransaction(ctx context.Context, t *Transaction) error {
	t.UpdatedAt = time.Now().UnixMilli()
	_, err := s.DB.ExecContext(ctx,
		`UPDATE transactions SET name=?, description=?, value=?, transaction_type=?,
		status=?, category=?, payment_method=?, company=?, transaction_date=?, updated_at=?
		WHERE id=?`,
		t.Name, t.Description, t.Value, t.TransactionType,
		t.Status, t.Category, t.PaymentMethod, t.Company, t.TransactionDate,
		t.UpdatedAt, t.ID,
	)
	return err
}

// DeleteTransaction removes a single live transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return err
}

// ListTransactions returns all live transactions of a book.
func (s *Store) ListTransactions(ctx context.Context, bookID string) ([]*Transaction, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, book_id, name, description, value, transaction_type,
		status, category, payment_method, company, transaction_date, created_at, updated_at
		FROM transactions WHERE book_id = ? ORDER BY transaction_date, id`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []*Transaction
	for rows.Next() {
		t := &Transaction{}
		if err := rows.Scan(&t.ID, &t.BookID, &t.Name, &t.Description, &t.Value,
			&t.TransactionType, &t.Status, &t.Category, &t.PaymentMethod, &t.Company,
			&t.TransactionDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// CountTransactions returns the number of live transactions in a book.
func (s *Store) CountTransactions(ctx context.Context, bookID string) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE book_id = ?`, bookID).Scan(&count)
	return count, err
}
