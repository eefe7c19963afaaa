package store

import (
	"testing"

	"github.com/merithub/merit/internal/model"
)

func TestGroupGetByCode(t *testing.T) {
	db := setupTestDB(t)
	s := NewGroupStore(db)
	admin := insertUser(t, db, "admin@example.com")
	id := insertGroup(t, db, admin, "join-me")

	g, err := s.GetByCode("join-me")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if g == nil || g.ID != id {
		t.Fatalf("group = %+v, want id %d", g, id)
	}

	missing, err := s.GetByCode("nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown code")
	}
}

func TestGroupListForUser(t *testing.T) {
	db := setupTestDB(t)
	s := NewGroupStore(db)
	admin := insertUser(t, db, "admin@example.com")
	user := insertUser(t, db, "user@example.com")

	g1 := insertGroup(t, db, admin, "")
	g2 := insertGroup(t, db, admin, "")
	insertGroup(t, db, admin, "") // user not a member here

	insertMember(t, db, g1, user, model.RoleMember, true)
	insertMember(t, db, g2, user, model.RoleMember, false) // deactivated still listed

	groups, err := s.ListForUser(user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("got %d groups, want 2", len(groups))
	}
}

func TestMemberCountActive(t *testing.T) {
	db := setupTestDB(t)
	s := NewMemberStore(db)
	admin := insertUser(t, db, "admin@example.com")
	a := insertUser(t, db, "a@example.com")
	b := insertUser(t, db, "b@example.com")
	g := insertGroup(t, db, admin, "")

	insertMember(t, db, g, admin, model.RoleAdmin, true)
	insertMember(t, db, g, a, model.RoleMember, true)
	insertMember(t, db, g, b, model.RoleMember, false)

	n, err := s.CountActive(g)
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	if n != 2 {
		t.Errorf("active = %d, want 2", n)
	}
}
