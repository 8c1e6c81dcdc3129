package store

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"time"

	"github.com/hazyhaar/fiskal/dbopen"
)

const snapshotColumns = `id, book_id, name, description, creation_source, tags_json,
	is_protected, book_name, book_description, book_period, book_status,
	tx_count, total_income, total_expenses, net_amount, annotations_json, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	sn := &Snapshot{}
	var tags, annotations string
	err := row.Scan(&sn.ID, &sn.BookID, &sn.Name, &sn.Description, &sn.CreationSource,
		&tags, &sn.IsProtected, &sn.BookName, &sn.BookDescription, &sn.BookPeriod,
		&sn.BookStatus, &sn.Stats.TransactionCount, &sn.Stats.TotalIncome,
		&sn.Stats.TotalExpenses, &sn.Stats.NetAmount, &annotations, &sn.CreatedAt)
	if err != nil {
		return nil, err
	}
	sn.Tags = decodeList[string](tags)
	sn.Annotations = decodeList[Annotation](annotations)
	return sn, nil
}

// CreateSnapshotBundle persists a snapshot header and its transaction copies
// in one atomic unit. A bundle with zero items persists the header only.
func (s *Store) CreateSnapshotBundle(ctx context.Context, sn *Snapshot, items []*SnapshotTransaction) error {
	if sn.CreatedAt == 0 {
		sn.CreatedAt = time.Now().UnixMilli()
	}
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (`+snapshotColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sn.ID, sn.BookID, sn.Name, sn.Description, sn.CreationSource,
			encodeList(sn.Tags), sn.IsProtected, sn.BookName, sn.BookDescription,
			sn.BookPeriod, sn.BookStatus, sn.Stats.TransactionCount,
			sn.Stats.TotalIncome, sn.Stats.TotalExpenses, sn.Stats.NetAmount,
			encodeList(sn.Annotations), sn.CreatedAt,
		); err != nil {
			return err
		}
		for _, item := range items {
			if err := insertSnapshotTransactionTx(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetSnapshot retrieves a snapshot header by ID, or nil if absent.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	sn, err := scanSnapshot(s.DB.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sn, nil
}

// ListSnapshots returns a book's snapshots newest-first. A non-empty tags
// slice is an AND-filter: only snapshots carrying every tag match. limit <= 0
// means no limit; skip applies after filtering.
func (s *Store) ListSnapshots(ctx context.Context, bookID string, tags []string, limit, skip int) ([]*Snapshot, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE book_id = ?
		ORDER BY created_at DESC, id DESC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		sn, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		if !hasAllTags(sn.Tags, tags) {
			continue
		}
		snaps = append(snaps, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if skip > 0 {
		if skip >= len(snaps) {
			return nil, nil
		}
		snaps = snaps[skip:]
	}
	if limit > 0 && len(snaps) > limit {
		snaps = snaps[:limit]
	}
	return snaps, nil
}

func hasAllTags(have, want []string) bool {
	for _, tag := range want {
		if !slices.Contains(have, tag) {
			return false
		}
	}
	return true
}

// UpdateSnapshotTags replaces a snapshot's tag set.
func (s *Store) UpdateSnapshotTags(ctx context.Context, id string, tags []string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE snapshots SET tags_json = ? WHERE id = ?`, encodeList(tags), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetSnapshotProtection toggles the protection flag.
func (s *Store) SetSnapshotProtection(ctx context.Context, id string, protected bool) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE snapshots SET is_protected = ? WHERE id = ?`, protected, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// AppendSnapshotAnnotation appends one annotation to a snapshot.
// The read-modify-write runs inside a transaction so concurrent appends
// cannot drop each other.
func (s *Store) AppendSnapshotAnnotation(ctx context.Context, id string, a Annotation) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx,
			`SELECT annotations_json FROM snapshots WHERE id = ?`, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		if err != nil {
			return err
		}
		annotations := append(decodeList[Annotation](raw), a)
		_, err = tx.ExecContext(ctx,
			`UPDATE snapshots SET annotations_json = ? WHERE id = ?`,
			encodeList(annotations), id)
		return err
	})
}

// DeleteSnapshot removes an unprotected snapshot; its transaction copies go
// with it via ON DELETE CASCADE. Returns false when nothing was deleted
// (absent, or protected — the caller distinguishes).
func (s *Store) DeleteSnapshot(ctx context.Context, id string) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id = ? AND is_protected = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ScheduledUnprotectedSnapshots returns a book's schedule-created,
// unprotected snapshots ordered newest-first. Retention cleanup candidates.
func (s *Store) ScheduledUnprotectedSnapshots(ctx context.Context, bookID string) ([]*Snapshot, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots
		WHERE book_id = ? AND creation_source = 'scheduled' AND is_protected = 0
		ORDER BY created_at DESC, id DESC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*Snapshot
	for rows.Next() {
		sn, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, sn)
	}
	return snaps, rows.Err()
}

// PurgeBookSnapshots deletes a book's unprotected snapshots (transaction
// copies first, then headers) and its schedule, all in one atomic unit.
// Protected snapshots survive the purge. Returns the number of headers
// deleted.
func (s *Store) PurgeBookSnapshots(ctx context.Context, bookID string) (int, error) {
	var deleted int
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM snapshot_transactions WHERE snapshot_id IN
			(SELECT id FROM snapshots WHERE book_id = ? AND is_protected = 0)`, bookID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM snapshots WHERE book_id = ? AND is_protected = 0`, bookID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		deleted = int(n)
		_, err = tx.ExecContext(ctx,
			`DELETE FROM snapshot_schedules WHERE book_id = ?`, bookID)
		return err
	})
	return deleted, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
