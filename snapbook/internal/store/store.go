// Package store provides the data access layer for fiskal snapshots.
//
// All multi-entity writes (snapshot capture, rollback's destructive phase,
// clone, cascade purge) run through dbopen.RunTx with the *sql.Tx handle
// threaded explicitly into the per-table helpers, so one unit of work either
// commits everything or nothing.
package store

import "database/sql"

// Store wraps the fiskal database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}
