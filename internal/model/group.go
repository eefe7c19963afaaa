package model

import "time"

type Group struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Code        *string   `json:"code,omitempty"` // nil for invitation-only groups
	AdminID     int64     `json:"admin_id"`
	MemberCount int64     `json:"member_count"`
	MaxMembers  int64     `json:"max_members"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
