package model

import "time"

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// Request is a pending ask (task completion, prize application, or penalty)
// awaiting an admin decision. Title and Points are snapshots taken from the
// catalog entry at submission time; CatalogEntryID may be nil if the entry
// was deleted later.
type Request struct {
	ID              int64      `json:"id"`
	GroupID         int64      `json:"group_id"`
	UserID          int64      `json:"user_id"`
	Kind            string     `json:"kind"`
	CatalogEntryID  *int64     `json:"catalog_entry_id,omitempty"`
	Title           string     `json:"title"`
	Points          int64      `json:"points"`
	Status          string     `json:"status"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessedBy     *int64     `json:"processed_by,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}
