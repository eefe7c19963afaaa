package engine

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/merithub/merit/internal/model"
	"github.com/merithub/merit/internal/notify"
)

// CreateGroup creates a group with the caller as its admin and first active
// member. Joinable groups get a unique join code; invitation-only groups
// have none.
func (e *Engine) CreateGroup(adminID int64, name string, maxMembers int64, joinable bool) (*model.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("group name is required: %w", ErrValidation)
	}
	if maxMembers < 1 {
		return nil, fmt.Errorf("max members must be at least 1: %w", ErrValidation)
	}

	var groupID int64
	err := e.inTx(func(tx *sql.Tx) error {
		var code any
		if joinable {
			code = uuid.NewString()
		}

		res, err := tx.Exec(
			`INSERT INTO groups (name, code, admin_id, member_count, max_members) VALUES (?, ?, ?, 1, ?)`,
			name, code, adminID, maxMembers,
		)
		if err != nil {
			return fmt.Errorf("insert group: %w", err)
		}
		groupID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		if _, err := tx.Exec(
			`INSERT INTO members (group_id, user_id, role, active) VALUES (?, ?, ?, 1)`,
			groupID, adminID, model.RoleAdmin,
		); err != nil {
			return fmt.Errorf("insert admin member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.groups.GetByID(groupID)
}

// SubmitJoinRequest creates a pending join request. Any existing membership
// row blocks it, active or not: deactivated members are readmitted by the
// admin reactivating them, not by rejoining.
func (e *Engine) SubmitJoinRequest(groupID, userID int64) (*model.JoinRequest, error) {
	var requestID int64
	err := e.inTx(func(tx *sql.Tx) error {
		g, err := groupForUpdate(tx, groupID)
		if err != nil {
			return err
		}

		exists, _, _, err := memberState(tx, groupID, userID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("user %d in group %d: %w", userID, groupID, ErrAlreadyMember)
		}

		var pending int
		if err := tx.QueryRow(
			`SELECT COUNT(*) FROM join_requests WHERE group_id = ? AND user_id = ? AND status = 'pending'`,
			groupID, userID,
		).Scan(&pending); err != nil {
			return fmt.Errorf("check pending join request: %w", err)
		}
		if pending > 0 {
			return fmt.Errorf("join request: %w", ErrDuplicatePending)
		}

		if g.MemberCount >= g.MaxMembers {
			return fmt.Errorf("group %d: %w", groupID, ErrGroupFull)
		}

		res, err := tx.Exec(
			`INSERT INTO join_requests (group_id, user_id) VALUES (?, ?)`,
			groupID, userID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("join request: %w", ErrDuplicatePending)
			}
			return fmt.Errorf("insert join request: %w", err)
		}
		requestID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(notify.Event{
		Type:    notify.EventJoinRequestSubmitted,
		GroupID: groupID,
		Title:   "New join request",
	})
	return e.joins.GetByID(requestID)
}

// ApproveJoinRequest re-validates capacity and membership, creates the
// member, claims a seat, and flips the request, all in one transaction.
func (e *Engine) ApproveJoinRequest(requestID, adminID int64) (*model.JoinRequest, error) {
	var groupID, userID int64
	err := e.inTx(func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRow(
			`SELECT group_id, user_id, status FROM join_requests WHERE id = ?`, requestID,
		).Scan(&groupID, &userID, &status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("join request %d: %w", requestID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get join request: %w", err)
		}

		g, err := groupForUpdate(tx, groupID)
		if err != nil {
			return err
		}
		if g.AdminID != adminID {
			return fmt.Errorf("only the group admin may approve: %w", ErrUnauthorized)
		}
		if status != model.JoinRequestPending {
			return fmt.Errorf("join request %d: %w", requestID, ErrAlreadyProcessed)
		}

		exists, _, _, err := memberState(tx, groupID, userID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("user %d in group %d: %w", userID, groupID, ErrAlreadyMember)
		}

		if err := claimGroupSeat(tx, groupID); err != nil {
			return err
		}

		if _, err := tx.Exec(
			`INSERT INTO members (group_id, user_id, role, active) VALUES (?, ?, ?, 1)`,
			groupID, userID, model.RoleMember,
		); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("user %d in group %d: %w", userID, groupID, ErrAlreadyMember)
			}
			return fmt.Errorf("insert member: %w", err)
		}

		return flipJoinRequest(tx, requestID, model.JoinRequestApproved, adminID)
	})
	if err != nil {
		return nil, err
	}

	e.publish(notify.Event{
		Type:    notify.EventJoinRequestApproved,
		GroupID: groupID,
		UserID:  userID,
		Title:   "Join request approved",
	})
	return e.joins.GetByID(requestID)
}

// RejectJoinRequest flips the request to rejected. No membership effect.
func (e *Engine) RejectJoinRequest(requestID, adminID int64) (*model.JoinRequest, error) {
	var groupID, userID int64
	err := e.inTx(func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRow(
			`SELECT group_id, user_id, status FROM join_requests WHERE id = ?`, requestID,
		).Scan(&groupID, &userID, &status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("join request %d: %w", requestID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get join request: %w", err)
		}

		g, err := groupForUpdate(tx, groupID)
		if err != nil {
			return err
		}
		if g.AdminID != adminID {
			return fmt.Errorf("only the group admin may reject: %w", ErrUnauthorized)
		}
		if status != model.JoinRequestPending {
			return fmt.Errorf("join request %d: %w", requestID, ErrAlreadyProcessed)
		}

		return flipJoinRequest(tx, requestID, model.JoinRequestRejected, adminID)
	})
	if err != nil {
		return nil, err
	}

	e.publish(notify.Event{
		Type:    notify.EventJoinRequestRejected,
		GroupID: groupID,
		UserID:  userID,
		Title:   "Join request rejected",
	})
	return e.joins.GetByID(requestID)
}

// flipJoinRequest moves a pending join request to a terminal state. The
// status predicate makes a second concurrent decision lose cleanly.
func flipJoinRequest(tx *sql.Tx, requestID int64, status string, adminID int64) error {
	res, err := tx.Exec(
		`UPDATE join_requests SET status = ?, processed_at = CURRENT_TIMESTAMP, processed_by = ?
		 WHERE id = ? AND status = 'pending'`,
		status, adminID, requestID,
	)
	if err != nil {
		return fmt.Errorf("flip join request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("flip rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("join request %d: %w", requestID, ErrAlreadyProcessed)
	}
	return nil
}

// DeactivateMember soft-deactivates a member and releases their seat. Admins
// cannot target themselves or another admin.
func (e *Engine) DeactivateMember(groupID, userID, adminID int64) (*model.Member, error) {
	if userID == adminID {
		return nil, fmt.Errorf("cannot deactivate yourself: %w", ErrValidation)
	}

	err := e.inTx(func(tx *sql.Tx) error {
		g, err := groupForUpdate(tx, groupID)
		if err != nil {
			return err
		}
		if g.AdminID != adminID {
			return fmt.Errorf("only the group admin may deactivate members: %w", ErrUnauthorized)
		}

		exists, active, role, err := memberState(tx, groupID, userID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("member %d in group %d: %w", userID, groupID, ErrNotFound)
		}
		if role == model.RoleAdmin {
			return fmt.Errorf("cannot deactivate an admin: %w", ErrValidation)
		}
		if !active {
			return fmt.Errorf("member is already deactivated: %w", ErrValidation)
		}

		if _, err := tx.Exec(
			`UPDATE members SET active = 0, deactivated_at = CURRENT_TIMESTAMP, deactivated_by = ?, reactivated_at = NULL
			 WHERE group_id = ? AND user_id = ?`,
			adminID, groupID, userID,
		); err != nil {
			return fmt.Errorf("deactivate member: %w", err)
		}
		return releaseGroupSeat(tx, groupID)
	})
	if err != nil {
		return nil, err
	}

	e.publish(notify.Event{
		Type:    notify.EventMemberDeactivated,
		GroupID: groupID,
		UserID:  userID,
		Title:   "Membership deactivated",
	})
	return e.members.Get(groupID, userID)
}

// ActivateMember reverses a deactivation, re-checking capacity.
func (e *Engine) ActivateMember(groupID, userID, adminID int64) (*model.Member, error) {
	err := e.inTx(func(tx *sql.Tx) error {
		g, err := groupForUpdate(tx, groupID)
		if err != nil {
			return err
		}
		if g.AdminID != adminID {
			return fmt.Errorf("only the group admin may activate members: %w", ErrUnauthorized)
		}

		exists, active, _, err := memberState(tx, groupID, userID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("member %d in group %d: %w", userID, groupID, ErrNotFound)
		}
		if active {
			return fmt.Errorf("member is already active: %w", ErrValidation)
		}

		if err := claimGroupSeat(tx, groupID); err != nil {
			return err
		}

		if _, err := tx.Exec(
			`UPDATE members SET active = 1, deactivated_at = NULL, deactivated_by = NULL, reactivated_at = CURRENT_TIMESTAMP
			 WHERE group_id = ? AND user_id = ?`,
			groupID, userID,
		); err != nil {
			return fmt.Errorf("activate member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(notify.Event{
		Type:    notify.EventMemberActivated,
		GroupID: groupID,
		UserID:  userID,
		Title:   "Membership reactivated",
	})
	return e.members.Get(groupID, userID)
}
