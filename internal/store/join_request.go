package store

import (
	"database/sql"
	"fmt"

	"github.com/merithub/merit/internal/model"
)

type JoinRequestStore struct {
	db *sql.DB
}

func NewJoinRequestStore(db *sql.DB) *JoinRequestStore {
	return &JoinRequestStore{db: db}
}

func scanJoinRequest(scanner interface{ Scan(...any) error }) (*model.JoinRequest, error) {
	var j model.JoinRequest
	var processedAt sql.NullTime
	var processedBy sql.NullInt64

	err := scanner.Scan(
		&j.ID, &j.GroupID, &j.UserID, &j.Status, &j.RequestedAt,
		&processedAt, &processedBy,
	)
	if err != nil {
		return nil, err
	}

	if processedAt.Valid {
		j.ProcessedAt = &processedAt.Time
	}
	if processedBy.Valid {
		j.ProcessedBy = &processedBy.Int64
	}
	return &j, nil
}

const joinRequestCols = `id, group_id, user_id, status, requested_at, processed_at, processed_by`

func (s *JoinRequestStore) GetByID(id int64) (*model.JoinRequest, error) {
	row := s.db.QueryRow(`SELECT `+joinRequestCols+` FROM join_requests WHERE id = ?`, id)
	j, err := scanJoinRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get join request: %w", err)
	}
	return j, nil
}

// ListByGroup returns join requests for a group, optionally filtered by status.
func (s *JoinRequestStore) ListByGroup(groupID int64, status string) ([]model.JoinRequest, error) {
	query := `SELECT ` + joinRequestCols + ` FROM join_requests WHERE group_id = ?`
	args := []any{groupID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY requested_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list join requests: %w", err)
	}
	defer rows.Close()

	var requests []model.JoinRequest
	for rows.Next() {
		j, err := scanJoinRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan join request: %w", err)
		}
		requests = append(requests, *j)
	}
	return requests, rows.Err()
}

func (s *JoinRequestStore) ListByUser(userID int64) ([]model.JoinRequest, error) {
	rows, err := s.db.Query(
		`SELECT `+joinRequestCols+` FROM join_requests WHERE user_id = ? ORDER BY requested_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list join requests by user: %w", err)
	}
	defer rows.Close()

	var requests []model.JoinRequest
	for rows.Next() {
		j, err := scanJoinRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan join request: %w", err)
		}
		requests = append(requests, *j)
	}
	return requests, rows.Err()
}
