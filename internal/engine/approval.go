package engine

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/merithub/merit/internal/model"
	"github.com/merithub/merit/internal/notify"
)

// SubmitTaskCompletion creates a pending earn request for the caller.
func (e *Engine) SubmitTaskCompletion(groupID, userID, entryID int64) (*model.Request, error) {
	return e.submitRequest(groupID, userID, entryID, model.KindTask)
}

// SubmitPrizeApplication creates a pending redeem request for the caller.
// The balance pre-check here is advisory; approval re-validates at commit.
func (e *Engine) SubmitPrizeApplication(groupID, userID, entryID int64) (*model.Request, error) {
	return e.submitRequest(groupID, userID, entryID, model.KindPrize)
}

// SubmitPenalty creates a pending penalty request against a member. Only the
// group admin may issue penalties; the deduction happens on approval.
func (e *Engine) SubmitPenalty(groupID, adminID, targetUserID, entryID int64) (*model.Request, error) {
	g, err := e.groups.GetByID(groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("group %d: %w", groupID, ErrNotFound)
	}
	if g.AdminID != adminID {
		return nil, fmt.Errorf("only the group admin may issue penalties: %w", ErrUnauthorized)
	}
	return e.submitRequest(groupID, targetUserID, entryID, model.KindPenalty)
}

// submitRequest validates the catalog entry and the member, snapshots title
// and points, and creates the pending request, all in one transaction so a
// duplicate check cannot race its insert.
func (e *Engine) submitRequest(groupID, userID, entryID int64, kind string) (*model.Request, error) {
	var requestID int64
	err := e.inTx(func(tx *sql.Tx) error {
		var entryGroup int64
		var entryKind, title string
		var points int64
		var active int
		err := tx.QueryRow(
			`SELECT group_id, kind, title, points, active FROM catalog_entries WHERE id = ?`, entryID,
		).Scan(&entryGroup, &entryKind, &title, &points, &active)
		if err == sql.ErrNoRows {
			return fmt.Errorf("catalog entry %d: %w", entryID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get catalog entry: %w", err)
		}
		if entryGroup != groupID || entryKind != kind {
			return fmt.Errorf("catalog entry %d: %w", entryID, ErrNotFound)
		}
		if active == 0 {
			return fmt.Errorf("catalog entry is inactive: %w", ErrValidation)
		}

		exists, memberActive, _, err := memberState(tx, groupID, userID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("member %d in group %d: %w", userID, groupID, ErrNotFound)
		}
		if !memberActive {
			return fmt.Errorf("member is deactivated: %w", ErrValidation)
		}

		if kind == model.KindPrize {
			var available int64
			if err := tx.QueryRow(
				`SELECT points_earned - points_redeemed FROM members WHERE group_id = ? AND user_id = ?`,
				groupID, userID,
			).Scan(&available); err != nil {
				return fmt.Errorf("get member balance: %w", err)
			}
			if available < points {
				return fmt.Errorf("prize costs %d, member has %d: %w", points, available, ErrInsufficientBalance)
			}

			var pending int
			if err := tx.QueryRow(
				`SELECT COUNT(*) FROM requests WHERE user_id = ? AND catalog_entry_id = ? AND status = 'pending'`,
				userID, entryID,
			).Scan(&pending); err != nil {
				return fmt.Errorf("check pending request: %w", err)
			}
			if pending > 0 {
				return fmt.Errorf("prize application: %w", ErrDuplicatePending)
			}
		}

		res, err := tx.Exec(
			`INSERT INTO requests (group_id, user_id, kind, catalog_entry_id, title, points) VALUES (?, ?, ?, ?, ?, ?)`,
			groupID, userID, kind, entryID, title, points,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("prize application: %w", ErrDuplicatePending)
			}
			return fmt.Errorf("insert request: %w", err)
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
		Type:    notify.EventRequestSubmitted,
		GroupID: groupID,
		Title:   "New pending request",
	})
	return e.requests.GetByID(requestID)
}

// ApproveRequest commits a pending request: the ledger transaction, the
// member aggregate, and the terminal status flip happen atomically. Balance
// conditions are re-validated at commit time; a failed re-validation leaves
// the request pending so the admin can retry or reject it. Approvals are not
// ordered: a later-submitted request approved first may legitimately exhaust
// the balance an earlier one needs.
func (e *Engine) ApproveRequest(requestID, adminID int64) (*model.Request, error) {
	var groupID, userID int64
	err := e.inTx(func(tx *sql.Tx) error {
		var kind, title, status string
		var points int64
		err := tx.QueryRow(
			`SELECT group_id, user_id, kind, title, points, status FROM requests WHERE id = ?`, requestID,
		).Scan(&groupID, &userID, &kind, &title, &points, &status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("request %d: %w", requestID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get request: %w", err)
		}

		g, err := groupForUpdate(tx, groupID)
		if err != nil {
			return err
		}
		if g.AdminID != adminID {
			return fmt.Errorf("only the group admin may approve: %w", ErrUnauthorized)
		}
		if status != model.RequestPending {
			return fmt.Errorf("request %d: %w", requestID, ErrAlreadyProcessed)
		}

		switch kind {
		case model.KindTask:
			if _, err := recordTransaction(tx, userID, model.TxEarn, points, title); err != nil {
				return err
			}
			if err := creditMember(tx, groupID, userID, points); err != nil {
				return err
			}
		case model.KindPrize:
			if _, err := recordTransaction(tx, userID, model.TxRedeem, points, title); err != nil {
				return err
			}
			if err := debitMember(tx, groupID, userID, points); err != nil {
				return err
			}
		case model.KindPenalty:
			if _, err := recordTransaction(tx, userID, model.TxPenalty, points, title); err != nil {
				return err
			}
			if err := debitMember(tx, groupID, userID, points); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown request kind %q: %w", kind, ErrValidation)
		}

		return flipRequest(tx, requestID, model.RequestApproved, adminID, "")
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("request approved", "request_id", requestID, "group_id", groupID, "user_id", userID, "admin_id", adminID)
	e.publish(notify.Event{
		Type:    notify.EventRequestApproved,
		GroupID: groupID,
		UserID:  userID,
		Title:   "Request approved",
	})
	return e.requests.GetByID(requestID)
}

// RejectRequest flips a pending request to rejected. No ledger effect.
func (e *Engine) RejectRequest(requestID, adminID int64, reason string) (*model.Request, error) {
	reason = strings.TrimSpace(reason)

	var groupID, userID int64
	err := e.inTx(func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRow(
			`SELECT group_id, user_id, status FROM requests WHERE id = ?`, requestID,
		).Scan(&groupID, &userID, &status)
		if err == sql.ErrNoRows {
			return fmt.Errorf("request %d: %w", requestID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get request: %w", err)
		}

		g, err := groupForUpdate(tx, groupID)
		if err != nil {
			return err
		}
		if g.AdminID != adminID {
			return fmt.Errorf("only the group admin may reject: %w", ErrUnauthorized)
		}
		if status != model.RequestPending {
			return fmt.Errorf("request %d: %w", requestID, ErrAlreadyProcessed)
		}

		return flipRequest(tx, requestID, model.RequestRejected, adminID, reason)
	})
	if err != nil {
		return nil, err
	}

	e.publish(notify.Event{
		Type:    notify.EventRequestRejected,
		GroupID: groupID,
		UserID:  userID,
		Title:   "Request rejected",
		Body:    reason,
	})
	return e.requests.GetByID(requestID)
}

// flipRequest moves a pending request to a terminal state. The status
// predicate is the optimistic-concurrency token: a second concurrent
// decision affects zero rows and fails AlreadyProcessed.
func flipRequest(tx *sql.Tx, requestID int64, status string, adminID int64, reason string) error {
	res, err := tx.Exec(
		`UPDATE requests SET status = ?, processed_at = CURRENT_TIMESTAMP, processed_by = ?, rejection_reason = ?
		 WHERE id = ? AND status = 'pending'`,
		status, adminID, reason, requestID,
	)
	if err != nil {
		return fmt.Errorf("flip request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("flip rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("request %d: %w", requestID, ErrAlreadyProcessed)
	}
	return nil
}
