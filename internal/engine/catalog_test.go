package engine

import (
	"errors"
	"testing"

	"github.com/merithub/merit/internal/model"
)

func TestCreateCatalogEntry(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	g := newGroup(t, e, admin.ID, 10)

	entry, err := e.CreateCatalogEntry(g.ID, admin.ID, model.KindTask, "Mow the lawn", "back yard too", 15, true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if entry.Kind != model.KindTask || entry.Points != 15 || !entry.Active {
		t.Errorf("entry = %+v", entry)
	}
	if entry.CreatedBy != admin.ID {
		t.Errorf("created_by = %d, want %d", entry.CreatedBy, admin.ID)
	}
}

func TestCreateCatalogEntryValidation(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)

	if _, err := e.CreateCatalogEntry(g.ID, admin.ID, model.KindTask, "", "", 10, true); !errors.Is(err, ErrValidation) {
		t.Errorf("empty title: err = %v, want ErrValidation", err)
	}
	if _, err := e.CreateCatalogEntry(g.ID, admin.ID, model.KindTask, "X", "", 0, true); !errors.Is(err, ErrValidation) {
		t.Errorf("zero points: err = %v, want ErrValidation", err)
	}
	if _, err := e.CreateCatalogEntry(g.ID, admin.ID, "bonus", "X", "", 10, true); !errors.Is(err, ErrValidation) {
		t.Errorf("bad kind: err = %v, want ErrValidation", err)
	}
	if _, err := e.CreateCatalogEntry(g.ID, user.ID, model.KindTask, "X", "", 10, true); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("non-admin: err = %v, want ErrUnauthorized", err)
	}
}

func TestUpdateCatalogEntry(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	g := newGroup(t, e, admin.ID, 10)
	entry := newCatalogEntry(t, e, g.ID, admin.ID, model.KindPrize, 10)

	updated, err := e.UpdateCatalogEntry(entry.ID, admin.ID, "Bigger prize", "now better", 20, false)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Bigger prize" || updated.Points != 20 || updated.Active {
		t.Errorf("updated = %+v", updated)
	}
}

func TestUpdateCatalogEntryNotFound(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	newGroup(t, e, admin.ID, 10)

	if _, err := e.UpdateCatalogEntry(999, admin.ID, "X", "", 10, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteCatalogEntry(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	entry := newCatalogEntry(t, e, g.ID, admin.ID, model.KindTask, 10)

	if err := e.DeleteCatalogEntry(entry.ID, user.ID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("non-admin delete: err = %v, want ErrUnauthorized", err)
	}

	if err := e.DeleteCatalogEntry(entry.ID, admin.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := e.catalog.GetByID(entry.ID); got != nil {
		t.Error("entry should be gone")
	}
}

func TestListCatalog(t *testing.T) {
	e := setupEngine(t)
	admin := newUser(t, e, "admin@example.com")
	user := newUser(t, e, "user@example.com")
	outsider := newUser(t, e, "outsider@example.com")
	g := newGroup(t, e, admin.ID, 10)
	addMember(t, e, g.ID, admin.ID, user.ID)
	newCatalogEntry(t, e, g.ID, admin.ID, model.KindTask, 10)
	newCatalogEntry(t, e, g.ID, admin.ID, model.KindPrize, 20)

	if _, err := e.ListCatalog(g.ID, outsider.ID, ""); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("outsider: err = %v, want ErrUnauthorized", err)
	}

	all, err := e.ListCatalog(g.ID, user.ID, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d entries, want 2", len(all))
	}

	prizes, err := e.ListCatalog(g.ID, user.ID, model.KindPrize)
	if err != nil {
		t.Fatalf("list prizes: %v", err)
	}
	if len(prizes) != 1 || prizes[0].Kind != model.KindPrize {
		t.Errorf("prizes = %+v, want one prize", prizes)
	}

	if _, err := e.ListCatalog(g.ID, user.ID, "bonus"); !errors.Is(err, ErrValidation) {
		t.Errorf("bad kind: err = %v, want ErrValidation", err)
	}
}
