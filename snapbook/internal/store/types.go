package store

import "encoding/json"

// FiscalBook is a period-scoped ledger grouping transactions.
type FiscalBook struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Period      string `json:"period"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// Transaction is a live business transaction linked to a book.
// Value is kept as the monetary string it was imported with; statistics
// parse it at capture time.
type Transaction struct {
	ID              string `json:"id"`
	BookID          string `json:"book_id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Value           string `json:"value"`
	TransactionType string `json:"transaction_type"`
	Status          string `json:"status"`
	Category        string `json:"category"`
	PaymentMethod   string `json:"payment_method"`
	Company         string `json:"company"`
	TransactionDate int64  `json:"transaction_date"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
}

// Annotation is a free-form note attached to a snapshot or snapshot transaction.
type Annotation struct {
	Content   string `json:"content"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
}

// Statistics are the aggregates computed once at capture time.
type Statistics struct {
	TransactionCount int     `json:"transaction_count"`
	TotalIncome      float64 `json:"total_income"`
	TotalExpenses    float64 `json:"total_expenses"`
	NetAmount        float64 `json:"net_amount"`
}

// Snapshot is an immutable point-in-time copy of a book's header.
// After creation only Tags, IsProtected and Annotations may change.
type Snapshot struct {
	ID              string       `json:"id"`
	BookID          string       `json:"book_id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	CreationSource  string       `json:"creation_source"`
	Tags            []string     `json:"tags"`
	IsProtected     bool         `json:"is_protected"`
	BookName        string       `json:"book_name"`
	BookDescription string       `json:"book_description"`
	BookPeriod      string       `json:"book_period"`
	BookStatus      string       `json:"book_status"`
	Stats           Statistics   `json:"statistics"`
	Annotations     []Annotation `json:"annotations"`
	CreatedAt       int64        `json:"created_at"`
}

// SnapshotTransaction is a denormalized transaction copy frozen at capture
// time. OriginalTransactionID is a bare reference: empty when unknown, and
// possibly dangling once the live transaction is deleted.
type SnapshotTransaction struct {
	ID                    string       `json:"id"`
	SnapshotID            string       `json:"snapshot_id"`
	OriginalTransactionID string       `json:"original_transaction_id"`
	Name                  string       `json:"name"`
	Description           string       `json:"description"`
	Value                 string       `json:"value"`
	TransactionType       string       `json:"transaction_type"`
	Status                string       `json:"status"`
	Category              string       `json:"category"`
	PaymentMethod         string       `json:"payment_method"`
	Company               string       `json:"company"`
	TransactionDate       int64        `json:"transaction_date"`
	Annotations           []Annotation `json:"annotations"`
	CreatedAt             int64        `json:"created_at"`
}

// Schedule is the per-book automatic snapshot schedule.
// LastExecutedAt and NextExecutionAt are Unix ms; 0 means "never" / "none".
type Schedule struct {
	BookID          string   `json:"book_id"`
	Enabled         bool     `json:"enabled"`
	Frequency       string   `json:"frequency"`
	DayOfWeek       int      `json:"day_of_week"`
	DayOfMonth      int      `json:"day_of_month"`
	RetentionCount  int      `json:"retention_count"`
	AutoTags        []string `json:"auto_tags"`
	LastExecutedAt  int64    `json:"last_executed_at"`
	NextExecutionAt int64    `json:"next_execution_at"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
}

func encodeList[T any](list []T) string {
	if len(list) == 0 {
		return "[]"
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList[T any](raw string) []T {
	if raw == "" || raw == "[]" {
		return nil
	}
	var list []T
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil
	}
	return list
}
