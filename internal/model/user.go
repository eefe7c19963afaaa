package model

import "time"

// User is the cached points projection for a principal supplied by the auth
// collaborator. CurrentPoints/TotalEarned/TotalRedeemed are maintained only
// inside ledger transactions and are re-derivable by replaying the log.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	CurrentPoints int64     `json:"current_points"`
	TotalEarned   int64     `json:"total_earned"`
	TotalRedeemed int64     `json:"total_redeemed"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
