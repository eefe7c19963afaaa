package engine

import (
	"fmt"
	"strings"

	"github.com/merithub/merit/internal/model"
)

func validKind(kind string) bool {
	switch kind {
	case model.KindTask, model.KindPrize, model.KindPenalty:
		return true
	}
	return false
}

// CreateCatalogEntry adds an admin-defined task, prize, or penalty type.
func (e *Engine) CreateCatalogEntry(groupID, adminID int64, kind, title, description string, points int64, active bool) (*model.CatalogEntry, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrValidation)
	}
	if points <= 0 {
		return nil, fmt.Errorf("points must be positive: %w", ErrValidation)
	}
	if !validKind(kind) {
		return nil, fmt.Errorf("unknown catalog kind %q: %w", kind, ErrValidation)
	}

	if err := e.requireGroupAdmin(groupID, adminID); err != nil {
		return nil, err
	}
	return e.catalog.Create(groupID, kind, title, description, points, active, adminID)
}

// UpdateCatalogEntry edits an entry. Pending and historical requests keep
// their submission-time snapshot and are unaffected.
func (e *Engine) UpdateCatalogEntry(entryID, adminID int64, title, description string, points int64, active bool) (*model.CatalogEntry, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrValidation)
	}
	if points <= 0 {
		return nil, fmt.Errorf("points must be positive: %w", ErrValidation)
	}

	entry, err := e.catalog.GetByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("catalog entry %d: %w", entryID, ErrNotFound)
	}
	if err := e.requireGroupAdmin(entry.GroupID, adminID); err != nil {
		return nil, err
	}
	return e.catalog.Update(entryID, title, description, points, active)
}

// DeleteCatalogEntry hard-deletes an entry. Requests referencing it keep
// their snapshot; their catalog link is detached by the store.
func (e *Engine) DeleteCatalogEntry(entryID, adminID int64) error {
	entry, err := e.catalog.GetByID(entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("catalog entry %d: %w", entryID, ErrNotFound)
	}
	if err := e.requireGroupAdmin(entry.GroupID, adminID); err != nil {
		return err
	}
	return e.catalog.Delete(entryID)
}

// ListCatalog returns a group's catalog for any of its members.
func (e *Engine) ListCatalog(groupID, userID int64, kind string) ([]model.CatalogEntry, error) {
	if kind != "" && !validKind(kind) {
		return nil, fmt.Errorf("unknown catalog kind %q: %w", kind, ErrValidation)
	}

	g, err := e.groups.GetByID(groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("group %d: %w", groupID, ErrNotFound)
	}
	if g.AdminID != userID {
		m, err := e.members.Get(groupID, userID)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, fmt.Errorf("catalog is member-only: %w", ErrUnauthorized)
		}
	}
	return e.catalog.ListByGroup(groupID, kind)
}

func (e *Engine) requireGroupAdmin(groupID, adminID int64) error {
	g, err := e.groups.GetByID(groupID)
	if err != nil {
		return err
	}
	if g == nil {
		return fmt.Errorf("group %d: %w", groupID, ErrNotFound)
	}
	if g.AdminID != adminID {
		return fmt.Errorf("only the group admin may manage the catalog: %w", ErrUnauthorized)
	}
	return nil
}
