package store

import "database/sql"

// Schema is the complete fiskal schema.
const Schema = `
-- Fiscal books: period-scoped ledgers grouping transactions
CREATE TABLE IF NOT EXISTS fiscal_books (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    period      TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'open',
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);

-- Live transactions linked to a book
CREATE TABLE IF NOT EXISTS transactions (
    id               TEXT PRIMARY KEY,
    book_id          TEXT NOT NULL REFERENCES fiscal_books(id) ON DELETE CASCADE,
    name             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    value            TEXT NOT NULL DEFAULT '0',
    transaction_type TEXT NOT NULL DEFAULT 'debit',
    status           TEXT NOT NULL DEFAULT 'pending',
    category         TEXT NOT NULL DEFAULT '',
    payment_method   TEXT NOT NULL DEFAULT '',
    company          TEXT NOT NULL DEFAULT '',
    transaction_date INTEGER NOT NULL DEFAULT 0,
    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_book ON transactions(book_id);

-- Snapshot headers: immutable point-in-time copies of a book
CREATE TABLE IF NOT EXISTS snapshots (
    id               TEXT PRIMARY KEY,
    book_id          TEXT NOT NULL REFERENCES fiscal_books(id) ON DELETE CASCADE,
    name             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    creation_source  TEXT NOT NULL DEFAULT 'manual',
    tags_json        TEXT NOT NULL DEFAULT '[]',
    is_protected     INTEGER NOT NULL DEFAULT 0,
    book_name        TEXT NOT NULL DEFAULT '',
    book_description TEXT NOT NULL DEFAULT '',
    book_period      TEXT NOT NULL DEFAULT '',
    book_status      TEXT NOT NULL DEFAULT '',
    tx_count         INTEGER NOT NULL DEFAULT 0,
    total_income     REAL NOT NULL DEFAULT 0,
    total_expenses   REAL NOT NULL DEFAULT 0,
    net_amount       REAL NOT NULL DEFAULT 0,
    annotations_json TEXT NOT NULL DEFAULT '[]',
    created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_book ON snapshots(book_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_snapshots_retention
    ON snapshots(book_id, creation_source, is_protected, created_at DESC);

-- Denormalized transaction copies frozen at capture time.
-- original_transaction_id carries no FK: the live row may be deleted later.
CREATE TABLE IF NOT EXISTS snapshot_transactions (
    id                      TEXT PRIMARY KEY,
    snapshot_id             TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
    original_transaction_id TEXT,
    name             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    value            TEXT NOT NULL DEFAULT '0',
    transaction_type TEXT NOT NULL DEFAULT 'debit',
    status           TEXT NOT NULL DEFAULT 'pending',
    category         TEXT NOT NULL DEFAULT '',
    payment_method   TEXT NOT NULL DEFAULT '',
    company          TEXT NOT NULL DEFAULT '',
    transaction_date INTEGER NOT NULL DEFAULT 0,
    annotations_json TEXT NOT NULL DEFAULT '[]',
    created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshot_tx_snapshot ON snapshot_transactions(snapshot_id);

-- At most one schedule per book (upsert keyed by book_id)
CREATE TABLE IF NOT EXISTS snapshot_schedules (
    book_id           TEXT PRIMARY KEY REFERENCES fiscal_books(id) ON DELETE CASCADE,
    enabled           INTEGER NOT NULL DEFAULT 0,
    frequency         TEXT NOT NULL DEFAULT 'weekly',
    day_of_week       INTEGER NOT NULL DEFAULT 0,
    day_of_month      INTEGER NOT NULL DEFAULT 1,
    retention_count   INTEGER NOT NULL DEFAULT 12,
    auto_tags_json    TEXT NOT NULL DEFAULT '["auto"]',
    last_executed_at  INTEGER,
    next_execution_at INTEGER,
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schedules_due ON snapshot_schedules(enabled, next_execution_at);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
