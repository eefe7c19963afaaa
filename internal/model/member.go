package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Member is a user's membership in one group. Members are never deleted;
// deactivation is a soft state so point history stays attributable.
type Member struct {
	ID             int64      `json:"id"`
	GroupID        int64      `json:"group_id"`
	UserID         int64      `json:"user_id"`
	Role           string     `json:"role"`
	Active         bool       `json:"active"`
	PointsEarned   int64      `json:"points_earned"`
	PointsRedeemed int64      `json:"points_redeemed"`
	JoinedAt       time.Time  `json:"joined_at"`
	DeactivatedAt  *time.Time `json:"deactivated_at,omitempty"`
	DeactivatedBy  *int64     `json:"deactivated_by,omitempty"`
	ReactivatedAt  *time.Time `json:"reactivated_at,omitempty"`
}

// AvailablePoints is the member's group-scoped balance, never negative.
func (m *Member) AvailablePoints() int64 {
	return m.PointsEarned - m.PointsRedeemed
}
