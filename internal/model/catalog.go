package model

import "time"

const (
	KindTask    = "task"
	KindPrize   = "prize"
	KindPenalty = "penalty"
)

// CatalogEntry is an admin-defined template (task, prize, or penalty type).
// Requests snapshot title and points at submission time, so entries may be
// edited or hard-deleted without breaking historical audit.
type CatalogEntry struct {
	ID          int64     `json:"id"`
	GroupID     int64     `json:"group_id"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Points      int64     `json:"points"`
	Active      bool      `json:"active"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
