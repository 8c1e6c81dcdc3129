// Package snapbook captures, compares, schedules, prunes, and restores
// point-in-time snapshots of fiscal books.
//
// A snapshot freezes a book's header and its full transaction set as
// denormalized copies with no aliasing to the live rows. Everything here is
// pure request/response logic over an SQLite store; periodic execution is
// driven by an external caller (cmd/fiskal wires a cron entry).
package snapbook

import "github.com/hazyhaar/fiskal/snapbook/internal/store"

// Re-export store types for the public API.
type (
	FiscalBook          = store.FiscalBook
	Transaction         = store.Transaction
	Snapshot            = store.Snapshot
	SnapshotTransaction = store.SnapshotTransaction
	Schedule            = store.Schedule
	Annotation          = store.Annotation
	Statistics          = store.Statistics
)

// Creation sources.
const (
	SourceManual             = "manual"
	SourceScheduled          = "scheduled"
	SourceBeforeStatusChange = "before-status-change"
)

// Schedule frequencies.
const (
	FrequencyWeekly             = "weekly"
	FrequencyMonthly            = "monthly"
	FrequencyBeforeStatusChange = "before-status-change"
)

// CaptureRequest describes a snapshot to create.
type CaptureRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	CreationSource string   `json:"creation_source"`
}

// SnapshotUpdate enumerates the only mutable snapshot fields. Nil means
// "leave unchanged".
type SnapshotUpdate struct {
	Tags        *[]string `json:"tags,omitempty"`
	IsProtected *bool     `json:"is_protected,omitempty"`
}

// ScheduleRequest configures a book's schedule (upsert semantics).
type ScheduleRequest struct {
	Enabled        bool     `json:"enabled"`
	Frequency      string   `json:"frequency"`
	DayOfWeek      int      `json:"day_of_week"`
	DayOfMonth     int      `json:"day_of_month"`
	RetentionCount int      `json:"retention_count"`
	AutoTags       []string `json:"auto_tags"`
}

// FieldChange records one field-level difference between a snapshot copy and
// its live counterpart.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// ModifiedTransaction is a transaction present in both sets with at least one
// changed field.
type ModifiedTransaction struct {
	TransactionID string        `json:"transaction_id"`
	Name          string        `json:"name"`
	Changes       []FieldChange `json:"changes"`
}

// ComparisonCounts sizes the diff buckets.
type ComparisonCounts struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`
}

// ComparisonSummary contrasts the statistics stored at capture time with the
// book's freshly computed current statistics.
type ComparisonSummary struct {
	SnapshotStats Statistics `json:"snapshot_statistics"`
	CurrentStats  Statistics `json:"current_statistics"`
	Delta         Statistics `json:"delta"`
}

// ComparisonResult is the full diff of a snapshot against its book's live state.
type ComparisonResult struct {
	SnapshotID string                 `json:"snapshot_id"`
	BookID     string                 `json:"book_id"`
	Added      []*Transaction         `json:"added"`
	Removed    []*SnapshotTransaction `json:"removed"`
	Modified   []ModifiedTransaction  `json:"modified"`
	Unchanged  int                    `json:"unchanged"`
	Counts     ComparisonCounts       `json:"counts"`
	Summary    ComparisonSummary      `json:"summary"`
}

// CloneOverrides optionally replaces descriptive fields of a cloned book.
// Empty strings keep the snapshot's denormalized values.
type CloneOverrides struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Period      string `json:"period"`
}

// RollbackResult reports a completed rollback.
type RollbackResult struct {
	Success                  bool   `json:"success"`
	FiscalBookID             string `json:"fiscal_book_id"`
	RestoredFromSnapshot     string `json:"restored_from_snapshot"`
	RestoredTransactionCount int    `json:"restored_transaction_count"`
	PreRollbackSnapshotID    string `json:"pre_rollback_snapshot_id,omitempty"`
}

// ExecutedSchedule is one successful entry in an ExecuteDue batch.
type ExecutedSchedule struct {
	BookID          string `json:"book_id"`
	SnapshotID      string `json:"snapshot_id"`
	PrunedSnapshots int    `json:"pruned_snapshots"`
	NextExecutionAt int64  `json:"next_execution_at"`
}

// ScheduleError is one failed entry in an ExecuteDue batch.
type ScheduleError struct {
	BookID string `json:"book_id"`
	Error  string `json:"error"`
}

// ExecutionReport is the outcome of one ExecuteDue pass. Per-schedule
// failures land in Errors; they never abort the batch.
type ExecutionReport struct {
	Executed []ExecutedSchedule `json:"executed"`
	Errors   []ScheduleError    `json:"errors"`
}
