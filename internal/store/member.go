package store

import (
	"database/sql"
	"fmt"

	"github.com/merithub/merit/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var active int
	var deactivatedAt, reactivatedAt sql.NullTime
	var deactivatedBy sql.NullInt64

	err := scanner.Scan(
		&m.ID, &m.GroupID, &m.UserID, &m.Role, &active, &m.PointsEarned,
		&m.PointsRedeemed, &m.JoinedAt, &deactivatedAt, &deactivatedBy, &reactivatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Active = active != 0
	if deactivatedAt.Valid {
		m.DeactivatedAt = &deactivatedAt.Time
	}
	if deactivatedBy.Valid {
		m.DeactivatedBy = &deactivatedBy.Int64
	}
	if reactivatedAt.Valid {
		m.ReactivatedAt = &reactivatedAt.Time
	}
	return &m, nil
}

const memberCols = `id, group_id, user_id, role, active, points_earned, points_redeemed, joined_at, deactivated_at, deactivated_by, reactivated_at`

func (s *MemberStore) Get(groupID, userID int64) (*model.Member, error) {
	row := s.db.QueryRow(
		`SELECT `+memberCols+` FROM members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) ListByGroup(groupID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE group_id = ? ORDER BY joined_at ASC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) ListByUser(userID int64) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE user_id = ? ORDER BY joined_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// CountActive recounts active members directly. Used by reconciliation tests
// to check the cached Group.MemberCount against reality.
func (s *MemberStore) CountActive(groupID int64) (int64, error) {
	var n int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM members WHERE group_id = ? AND active = 1`,
		groupID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active members: %w", err)
	}
	return n, nil
}
