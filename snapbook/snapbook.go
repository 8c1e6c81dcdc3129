package snapbook

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/fiskal/idgen"
	"github.com/hazyhaar/fiskal/snapbook/internal/store"
)

// Service is the snapshot engine for fiscal books.
type Service struct {
	store  *store.Store
	config *Config
	logger *slog.Logger

	newBookID     idgen.Generator
	newTxID       idgen.Generator
	newSnapshotID idgen.Generator
	newSnapTxID   idgen.Generator

	now func() time.Time
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithIDGenerator replaces the base ID generator (prefixes stay).
func WithIDGenerator(gen idgen.Generator) ServiceOption {
	return func(s *Service) {
		s.newBookID = idgen.Prefixed("fbk_", gen)
		s.newTxID = idgen.Prefixed("trx_", gen)
		s.newSnapshotID = idgen.Prefixed("snp_", gen)
		s.newSnapTxID = idgen.Prefixed("stx_", gen)
	}
}

// WithClock replaces the wall clock. Tests pin time with this.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// New creates a snapbook Service on an already-opened database and applies
// the schema.
func New(db *sql.DB, cfg *Config, logger *slog.Logger, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	if err := store.ApplySchema(db); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	svc := &Service{
		store:  store.NewStore(db),
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
	WithIDGenerator(idgen.UUIDv7())(svc)
	for _, o := range opts {
		o(svc)
	}
	return svc, nil
}

// Store exposes the underlying store for tests and seed tooling.
func (s *Service) Store() *store.Store { return s.store }

// Capture materializes a snapshot of the book's current state: header fields
// denormalized, statistics computed once from the live transaction set, and
// one transaction copy per live transaction, all in one atomic unit.
func (s *Service) Capture(ctx context.Context, bookID string, req CaptureRequest) (*Snapshot, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("load book: %w", err)
	}
	if book == nil {
		return nil, fmt.Errorf("%w: fiscal book %s", ErrNotFound, bookID)
	}

	if req.CreationSource == "" {
		req.CreationSource = SourceManual
	}
	if err := validateCaptureRequest(&req, s.config); err != nil {
		return nil, err
	}

	txs, err := s.store.ListTransactions(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	now := s.now()
	name := req.Name
	if name == "" {
		name = "Snapshot " + now.Format("2006-01-02 15:04")
	}

	snap := &Snapshot{
		ID:              s.newSnapshotID(),
		BookID:          bookID,
		Name:            name,
		Description:     req.Description,
		CreationSource:  req.CreationSource,
		Tags:            normalizeTags(req.Tags),
		BookName:        book.Name,
		BookDescription: book.Description,
		BookPeriod:      book.Period,
		BookStatus:      book.Status,
		Stats:           computeStatistics(txs),
		CreatedAt:       now.UnixMilli(),
	}

	items := make([]*store.SnapshotTransaction, 0, len(txs))
	for _, t := range txs {
		items = append(items, &store.SnapshotTransaction{
			ID:                    s.newSnapTxID(),
			SnapshotID:            snap.ID,
			OriginalTransactionID: t.ID,
			Name:                  t.Name,
			Description:           t.Description,
			Value:                 t.Value,
			TransactionType:       t.TransactionType,
			Status:                t.Status,
			Category:              t.Category,
			PaymentMethod:         t.PaymentMethod,
			Company:               t.Company,
			TransactionDate:       t.TransactionDate,
			CreatedAt:             snap.CreatedAt,
		})
	}

	if err := s.store.CreateSnapshotBundle(ctx, snap, items); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	s.logger.Info("snapshot captured", "snapshot_id", snap.ID, "book_id", bookID,
		"source", snap.CreationSource, "transactions", snap.Stats.TransactionCount)
	return snap, nil
}

// GetSnapshot returns a snapshot header.
func (s *Service) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	snap, err := s.store.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: snapshot %s", ErrNotFound, id)
	}
	return snap, nil
}

// ListSnapshots returns a book's snapshots newest-first, optionally
// AND-filtered by tags, with limit/skip paging.
func (s *Service) ListSnapshots(ctx context.Context, bookID string, tags []string, limit, skip int) ([]*Snapshot, error) {
	return s.store.ListSnapshots(ctx, bookID, normalizeTags(tags), limit, skip)
}

// ListSnapshotTransactions returns a snapshot's transaction copies.
func (s *Service) ListSnapshotTransactions(ctx context.Context, snapshotID string, limit, skip int) ([]*SnapshotTransaction, error) {
	if _, err := s.GetSnapshot(ctx, snapshotID); err != nil {
		return nil, err
	}
	return s.store.ListSnapshotTransactions(ctx, snapshotID, limit, skip)
}

// DeleteSnapshot removes a snapshot and its transaction copies.
// Protected snapshots are refused: callers must unset protection first.
func (s *Service) DeleteSnapshot(ctx context.Context, id string) error {
	snap, err := s.GetSnapshot(ctx, id)
	if err != nil {
		return err
	}
	if snap.IsProtected {
		return fmt.Errorf("%w: %s", ErrProtected, id)
	}
	deleted, err := s.store.DeleteSnapshot(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		// Lost the race: either gone or protected in the meantime.
		snap, err := s.store.GetSnapshot(ctx, id)
		if err != nil {
			return err
		}
		if snap != nil {
			return fmt.Errorf("%w: %s", ErrProtected, id)
		}
		return fmt.Errorf("%w: snapshot %s", ErrNotFound, id)
	}
	s.logger.Info("snapshot deleted", "snapshot_id", id)
	return nil
}

// DeleteBookSnapshots removes every unprotected snapshot of a book, their
// transaction copies, and the book's schedule as one atomic cascade.
func (s *Service) DeleteBookSnapshots(ctx context.Context, bookID string) (int, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return 0, err
	}
	if book == nil {
		return 0, fmt.Errorf("%w: fiscal book %s", ErrNotFound, bookID)
	}
	deleted, err := s.store.PurgeBookSnapshots(ctx, bookID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("book snapshots purged", "book_id", bookID, "deleted", deleted)
	return deleted, nil
}

// UpdateTags replaces a snapshot's tag set with the normalized input.
func (s *Service) UpdateTags(ctx context.Context, id string, tags []string) (*Snapshot, error) {
	if len(tags) > s.config.MaxTags {
		return nil, fmt.Errorf("%w: more than %d tags", ErrInvalidInput, s.config.MaxTags)
	}
	if _, err := s.GetSnapshot(ctx, id); err != nil {
		return nil, err
	}
	if err := s.store.UpdateSnapshotTags(ctx, id, normalizeTags(tags)); err != nil {
		return nil, err
	}
	return s.GetSnapshot(ctx, id)
}

// SetProtection toggles a snapshot's protection flag.
func (s *Service) SetProtection(ctx context.Context, id string, protected bool) (*Snapshot, error) {
	if _, err := s.GetSnapshot(ctx, id); err != nil {
		return nil, err
	}
	if err := s.store.SetSnapshotProtection(ctx, id, protected); err != nil {
		return nil, err
	}
	return s.GetSnapshot(ctx, id)
}

// AddAnnotation appends a note to a snapshot.
func (s *Service) AddAnnotation(ctx context.Context, id, content, createdBy string) (*Snapshot, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: annotation content is required", ErrInvalidInput)
	}
	if len(content) > s.config.MaxAnnotationLen {
		return nil, fmt.Errorf("%w: annotation exceeds %d characters", ErrInvalidInput, s.config.MaxAnnotationLen)
	}
	if _, err := s.GetSnapshot(ctx, id); err != nil {
		return nil, err
	}
	a := Annotation{Content: content, CreatedBy: createdBy, CreatedAt: s.now().UnixMilli()}
	if err := s.store.AppendSnapshotAnnotation(ctx, id, a); err != nil {
		return nil, err
	}
	return s.GetSnapshot(ctx, id)
}
