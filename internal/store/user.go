package store

import (
	"database/sql"
	"fmt"

	"github.com/merithub/merit/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(
		&u.ID, &u.Email, &u.Name, &u.CurrentPoints, &u.TotalEarned,
		&u.TotalRedeemed, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, email, name, current_points, total_earned, total_redeemed, created_at, updated_at`

// Ensure inserts or refreshes the projection row for a principal supplied by
// the auth collaborator, keyed by email.
func (s *UserStore) Ensure(email, name string) (*model.User, error) {
	_, err := s.db.Exec(
		`INSERT INTO users (email, name) VALUES (?, ?)
		 ON CONFLICT(email) DO UPDATE SET name = excluded.name`,
		email, name,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	return s.GetByEmail(email)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}
