package model

import "time"

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
	InvitationExpired  = "expired"
)

type Invitation struct {
	ID           int64     `json:"id"`
	GroupID      int64     `json:"group_id"`
	AdminID      int64     `json:"admin_id"`
	InviteeEmail string    `json:"invitee_email"`
	Status       string    `json:"status"`
	Code         string    `json:"code"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Lapsed reports whether a still-pending invitation is past its window.
// Expiry is applied lazily on read; there is no background sweep.
func (i *Invitation) Lapsed(now time.Time) bool {
	return i.Status == InvitationPending && now.After(i.ExpiresAt)
}
