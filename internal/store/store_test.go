package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/merithub/merit/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "merit.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO users (email, name) VALUES (?, ?)`, email, "Test User")
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func insertGroup(t *testing.T, db *sql.DB, adminID int64, code string) int64 {
	t.Helper()
	var codeVal any
	if code != "" {
		codeVal = code
	}
	res, err := db.Exec(
		`INSERT INTO groups (name, code, admin_id, member_count, max_members) VALUES ('Test Group', ?, ?, 1, 10)`,
		codeVal, adminID,
	)
	if err != nil {
		t.Fatalf("insert group: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func insertMember(t *testing.T, db *sql.DB, groupID, userID int64, role string, active bool) {
	t.Helper()
	a := 0
	if active {
		a = 1
	}
	_, err := db.Exec(
		`INSERT INTO members (group_id, user_id, role, active) VALUES (?, ?, ?, ?)`,
		groupID, userID, role, a,
	)
	if err != nil {
		t.Fatalf("insert member: %v", err)
	}
}
