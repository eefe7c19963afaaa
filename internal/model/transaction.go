package model

import "time"

const (
	TxEarn    = "earn"
	TxRedeem  = "redeem"
	TxPenalty = "penalty"
)

// PointsTransaction is an immutable ledger entry. The log is the source of
// truth for the user projection and exists for audit and replay.
type PointsTransaction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Type        string    `json:"type"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
