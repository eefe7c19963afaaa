// Package engine implements the group membership and points ledger core:
// the append-only points ledger with its cached projection, the membership
// state machine, the approval workflows that turn pending requests into
// committed ledger transactions, and the catalog registry they validate
// against. Every multi-record mutation runs inside a single store
// transaction; balance and capacity checks are conditional writes, never
// separate reads.
package engine

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/merithub/merit/internal/notify"
	"github.com/merithub/merit/internal/store"
)

type Engine struct {
	db       *sql.DB
	logger   *slog.Logger
	notifier notify.Notifier

	users    *store.UserStore
	groups   *store.GroupStore
	members  *store.MemberStore
	invites  *store.InvitationStore
	joins    *store.JoinRequestStore
	ledger   *store.LedgerStore
	catalog  *store.CatalogStore
	requests *store.RequestStore
}

func New(db *sql.DB, notifier notify.Notifier, logger *slog.Logger) *Engine {
	return &Engine{
		db:       db,
		logger:   logger,
		notifier: notifier,
		users:    store.NewUserStore(db),
		groups:   store.NewGroupStore(db),
		members:  store.NewMemberStore(db),
		invites:  store.NewInvitationStore(db),
		joins:    store.NewJoinRequestStore(db),
		ledger:   store.NewLedgerStore(db),
		catalog:  store.NewCatalogStore(db),
		requests: store.NewRequestStore(db),
	}
}

// inTx runs fn inside one transaction. A store-level lock collision is
// surfaced as ErrConflict so the caller can retry; a failed begin means the
// store itself is unavailable.
func (e *Engine) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return mapStoreErr(err)
	}
	if err := tx.Commit(); err != nil {
		return mapStoreErr(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// mapStoreErr converts SQLite lock contention into the retryable ErrConflict.
// Typed engine errors pass through untouched.
func mapStoreErr(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (e *Engine) publish(ev notify.Event) {
	if e.notifier != nil {
		e.notifier.Publish(ev)
	}
}

// groupRow is the subset of a group the workflows read inside transactions.
type groupRow struct {
	ID          int64
	AdminID     int64
	MemberCount int64
	MaxMembers  int64
}

func groupForUpdate(tx *sql.Tx, id int64) (*groupRow, error) {
	var g groupRow
	g.ID = id
	err := tx.QueryRow(
		`SELECT admin_id, member_count, max_members FROM groups WHERE id = ?`, id,
	).Scan(&g.AdminID, &g.MemberCount, &g.MaxMembers)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("group %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	return &g, nil
}

// memberState reports whether a membership row exists and whether it is
// active. Role is empty when no row exists.
func memberState(tx *sql.Tx, groupID, userID int64) (exists, active bool, role string, err error) {
	var a int
	err = tx.QueryRow(
		`SELECT active, role FROM members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	).Scan(&a, &role)
	if err == sql.ErrNoRows {
		return false, false, "", nil
	}
	if err != nil {
		return false, false, "", fmt.Errorf("get member state: %w", err)
	}
	return true, a != 0, role, nil
}

// claimGroupSeat increments member_count if the group has room. The capacity
// check and the increment are one statement, so concurrent claims cannot
// both pass on the last seat.
func claimGroupSeat(tx *sql.Tx, groupID int64) error {
	res, err := tx.Exec(
		`UPDATE groups SET member_count = member_count + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND member_count < max_members`,
		groupID,
	)
	if err != nil {
		return fmt.Errorf("claim seat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim seat rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %d: %w", groupID, ErrGroupFull)
	}
	return nil
}

func releaseGroupSeat(tx *sql.Tx, groupID int64) error {
	_, err := tx.Exec(
		`UPDATE groups SET member_count = member_count - 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		groupID,
	)
	if err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}
