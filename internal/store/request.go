package store

import (
	"database/sql"
	"fmt"

	"github.com/merithub/merit/internal/model"
)

type RequestStore struct {
	db *sql.DB
}

func NewRequestStore(db *sql.DB) *RequestStore {
	return &RequestStore{db: db}
}

func scanRequest(scanner interface{ Scan(...any) error }) (*model.Request, error) {
	var r model.Request
	var entryID sql.NullInt64
	var processedAt sql.NullTime
	var processedBy sql.NullInt64

	err := scanner.Scan(
		&r.ID, &r.GroupID, &r.UserID, &r.Kind, &entryID, &r.Title, &r.Points,
		&r.Status, &r.SubmittedAt, &processedAt, &processedBy, &r.RejectionReason,
	)
	if err != nil {
		return nil, err
	}

	if entryID.Valid {
		r.CatalogEntryID = &entryID.Int64
	}
	if processedAt.Valid {
		r.ProcessedAt = &processedAt.Time
	}
	if processedBy.Valid {
		r.ProcessedBy = &processedBy.Int64
	}
	return &r, nil
}

const requestCols = `id, group_id, user_id, kind, catalog_entry_id, title, points, status, submitted_at, processed_at, processed_by, rejection_reason`

func (s *RequestStore) GetByID(id int64) (*model.Request, error) {
	row := s.db.QueryRow(`SELECT `+requestCols+` FROM requests WHERE id = ?`, id)
	r, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return r, nil
}

// ListByGroup returns requests for a group in submission order, optionally
// filtered by status and kind.
func (s *RequestStore) ListByGroup(groupID int64, status, kind string) ([]model.Request, error) {
	query := `SELECT ` + requestCols + ` FROM requests WHERE group_id = ?`
	args := []any{groupID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY submitted_at ASC, id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var requests []model.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

func (s *RequestStore) ListByUser(userID int64) ([]model.Request, error) {
	rows, err := s.db.Query(
		`SELECT `+requestCols+` FROM requests WHERE user_id = ? ORDER BY submitted_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list requests by user: %w", err)
	}
	defer rows.Close()

	var requests []model.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}
