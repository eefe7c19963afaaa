package store

import (
	"database/sql"
	"fmt"

	"github.com/merithub/merit/internal/model"
)

type CatalogStore struct {
	db *sql.DB
}

func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

func scanEntry(scanner interface{ Scan(...any) error }) (*model.CatalogEntry, error) {
	var e model.CatalogEntry
	var active int

	err := scanner.Scan(
		&e.ID, &e.GroupID, &e.Kind, &e.Title, &e.Description, &e.Points,
		&active, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Active = active != 0
	return &e, nil
}

const entryCols = `id, group_id, kind, title, description, points, active, created_by, created_at, updated_at`

func (s *CatalogStore) Create(groupID int64, kind, title, description string, points int64, active bool, createdBy int64) (*model.CatalogEntry, error) {
	var a int
	if active {
		a = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO catalog_entries (group_id, kind, title, description, points, active, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		groupID, kind, title, description, points, a, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert catalog entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CatalogStore) GetByID(id int64) (*model.CatalogEntry, error) {
	row := s.db.QueryRow(`SELECT `+entryCols+` FROM catalog_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog entry: %w", err)
	}
	return e, nil
}

// ListByGroup returns catalog entries for a group, active first, then by
// title. Kind may be empty to list every kind.
func (s *CatalogStore) ListByGroup(groupID int64, kind string) ([]model.CatalogEntry, error) {
	query := `SELECT ` + entryCols + ` FROM catalog_entries WHERE group_id = ?`
	args := []any{groupID}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY active DESC, title ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []model.CatalogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *CatalogStore) Update(id int64, title, description string, points int64, active bool) (*model.CatalogEntry, error) {
	var a int
	if active {
		a = 1
	}

	_, err := s.db.Exec(
		`UPDATE catalog_entries SET title = ?, description = ?, points = ?, active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, points, a, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update catalog entry: %w", err)
	}
	return s.GetByID(id)
}

// Delete hard-deletes an entry. Historical requests keep their snapshot and
// their catalog_entry_id is set NULL by the schema.
func (s *CatalogStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM catalog_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete catalog entry: %w", err)
	}
	return nil
}
