package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hazyhaar/fiskal/dbopen"
)

// InsertBook adds a fiscal book.
func (s *Store) InsertBook(ctx context.Context, b *FiscalBook) error {
	now := time.Now().UnixMilli()
	if b.CreatedAt == 0 {
		b.CreatedAt = now
	}
	if b.UpdatedAt == 0 {
		b.UpdatedAt = now
	}
	if b.Status == "" {
		b.Status = "open"
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO fiscal_books (id, name, description, period, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Description, b.Period, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	return err
}

// GetBook retrieves a book by ID, or nil if absent.
func (s *Store) GetBook(ctx context.Context, id string) (*FiscalBook, error) {
	b := &FiscalBook{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, description, period, status, created_at, updated_at
		FROM fiscal_books WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.Description, &b.Period, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBookStatus sets a book's status.
func (s *Store) UpdateBookStatus(ctx context.Context, id, status string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE fiscal_books SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UnixMilli(), id)
	return err
}

// CreateBookWithTransactions inserts a new book plus its transactions in one
// atomic unit. Used by clone.
func (s *Store) CreateBookWithTransactions(ctx context.Context, b *FiscalBook, txs []*Transaction) error {
	now := time.Now().UnixMilli()
	if b.CreatedAt == 0 {
		b.CreatedAt = now
	}
	if b.UpdatedAt == 0 {
		b.UpdatedAt = now
	}
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fiscal_books (id, name, description, period, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.Name, b.Description, b.Period, b.Status, b.CreatedAt, b.UpdatedAt,
		); err != nil {
			return err
		}
		for _, t := range txs {
			if err := insertTransactionTx(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// RestoreBook is the destructive phase of a rollback: within one atomic unit
// it deletes every live transaction of the book, bulk-inserts the replacement
// set, and overwrites the book's descriptive fields.
func (s *Store) RestoreBook(ctx context.Context, b *FiscalBook, txs []*Transaction) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM transactions WHERE book_id = ?`, b.ID); err != nil {
			return err
		}
		for _, t := range txs {
			if err := insertTransactionTx(ctx, tx, t); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE fiscal_books SET name = ?, description = ?, period = ?, status = ?, updated_at = ?
			WHERE id = ?`,
			b.Name, b.Description, b.Period, b.Status, time.Now().UnixMilli(), b.ID)
		return err
	})
}
