package engine

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/merithub/merit/internal/database"
	"github.com/merithub/merit/internal/model"
)

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "merit.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, nil, logger)
}

func newUser(t *testing.T, e *Engine, email string) *model.User {
	t.Helper()
	u, err := e.users.Ensure(email, "Test User")
	if err != nil {
		t.Fatalf("ensure user %s: %v", email, err)
	}
	return u
}

func newGroup(t *testing.T, e *Engine, adminID, maxMembers int64) *model.Group {
	t.Helper()
	g, err := e.CreateGroup(adminID, "Test Group", maxMembers, true)
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return g
}

// addMember runs the join-request flow to put userID in the group as an
// active regular member.
func addMember(t *testing.T, e *Engine, groupID, adminID, userID int64) {
	t.Helper()
	jr, err := e.SubmitJoinRequest(groupID, userID)
	if err != nil {
		t.Fatalf("submit join request: %v", err)
	}
	if _, err := e.ApproveJoinRequest(jr.ID, adminID); err != nil {
		t.Fatalf("approve join request: %v", err)
	}
}

func newCatalogEntry(t *testing.T, e *Engine, groupID, adminID int64, kind string, points int64) *model.CatalogEntry {
	t.Helper()
	entry, err := e.CreateCatalogEntry(groupID, adminID, kind, "Entry "+kind, "", points, true)
	if err != nil {
		t.Fatalf("create catalog entry: %v", err)
	}
	return entry
}

func seedPoints(t *testing.T, e *Engine, groupID, adminID, userID, amount int64) {
	t.Helper()
	if _, err := e.AwardPoints(groupID, adminID, userID, amount, "seed"); err != nil {
		t.Fatalf("award points: %v", err)
	}
}
