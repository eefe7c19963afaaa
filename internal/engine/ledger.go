package engine

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/merithub/merit/internal/model"
	"github.com/merithub/merit/internal/notify"
)

// recordTransaction appends a ledger entry and maintains the user projection
// in the same transaction. It is only ever called from inside a workflow
// commit; no other code path writes the projection fields.
//
// earn adds to current_points and total_earned; redeem subtracts from
// current_points and adds to total_redeemed; penalty subtracts from
// current_points only, a deduction outside the earn/redeem totals.
func recordTransaction(tx *sql.Tx, userID int64, txType string, amount int64, description string) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive: %w", ErrValidation)
	}

	var res sql.Result
	var err error
	switch txType {
	case model.TxEarn:
		res, err = tx.Exec(
			`UPDATE users SET current_points = current_points + ?, total_earned = total_earned + ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			amount, amount, userID,
		)
	case model.TxRedeem:
		res, err = tx.Exec(
			`UPDATE users SET current_points = current_points - ?, total_redeemed = total_redeemed + ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND current_points >= ?`,
			amount, amount, userID, amount,
		)
	case model.TxPenalty:
		res, err = tx.Exec(
			`UPDATE users SET current_points = current_points - ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ? AND current_points >= ?`,
			amount, userID, amount,
		)
	default:
		return 0, fmt.Errorf("unknown transaction type %q: %w", txType, ErrValidation)
	}
	if err != nil {
		return 0, fmt.Errorf("update projection: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("projection rows: %w", err)
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM users WHERE id = ?`, userID).Scan(&exists); err != nil {
			return 0, fmt.Errorf("check user: %w", err)
		}
		if exists == 0 {
			return 0, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return 0, fmt.Errorf("user %d: %w", userID, ErrInsufficientBalance)
	}

	ins, err := tx.Exec(
		`INSERT INTO points_transactions (user_id, type, amount, description) VALUES (?, ?, ?, ?)`,
		userID, txType, amount, description,
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := ins.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// creditMember adds earned points to the member aggregate. The member must
// be active.
func creditMember(tx *sql.Tx, groupID, userID, amount int64) error {
	res, err := tx.Exec(
		`UPDATE members SET points_earned = points_earned + ?
		 WHERE group_id = ? AND user_id = ? AND active = 1`,
		amount, groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("credit member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit rows: %w", err)
	}
	if n == 0 {
		return memberWriteFailure(tx, groupID, userID, false)
	}
	return nil
}

// debitMember charges the member aggregate. The balance guard is part of the
// statement, so a concurrent debit cannot drive the member balance negative.
func debitMember(tx *sql.Tx, groupID, userID, amount int64) error {
	res, err := tx.Exec(
		`UPDATE members SET points_redeemed = points_redeemed + ?
		 WHERE group_id = ? AND user_id = ? AND active = 1
		   AND points_earned - points_redeemed >= ?`,
		amount, groupID, userID, amount,
	)
	if err != nil {
		return fmt.Errorf("debit member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit rows: %w", err)
	}
	if n == 0 {
		return memberWriteFailure(tx, groupID, userID, true)
	}
	return nil
}

func memberWriteFailure(tx *sql.Tx, groupID, userID int64, balanceGuarded bool) error {
	var active int
	err := tx.QueryRow(
		`SELECT active FROM members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	).Scan(&active)
	if err == sql.ErrNoRows {
		return fmt.Errorf("member %d in group %d: %w", userID, groupID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check member: %w", err)
	}
	if active == 0 {
		return fmt.Errorf("member is deactivated: %w", ErrValidation)
	}
	if balanceGuarded {
		return fmt.Errorf("member %d in group %d: %w", userID, groupID, ErrInsufficientBalance)
	}
	return fmt.Errorf("member update had no effect: %w", ErrConflict)
}

// AwardPoints is the admin-direct shortcut: it behaves as an auto-approved
// task completion, committing the earn and the member aggregate in one
// transaction without creating a request.
func (e *Engine) AwardPoints(groupID, adminID, userID, amount int64, description string) (*model.PointsTransaction, error) {
	if strings.TrimSpace(description) == "" {
		description = "points awarded"
	}

	var txID int64
	err := e.inTx(func(tx *sql.Tx) error {
		g, err := groupForUpdate(tx, groupID)
		if err != nil {
			return err
		}
		if g.AdminID != adminID {
			return fmt.Errorf("only the group admin may award points: %w", ErrUnauthorized)
		}

		txID, err = recordTransaction(tx, userID, model.TxEarn, amount, description)
		if err != nil {
			return err
		}
		return creditMember(tx, groupID, userID, amount)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("points awarded", "group_id", groupID, "user_id", userID, "amount", amount, "admin_id", adminID)
	e.publish(notify.Event{
		Type:    notify.EventPointsAwarded,
		GroupID: groupID,
		UserID:  userID,
		Title:   "Points awarded",
		Body:    description,
	})
	return e.ledger.GetByID(txID)
}

// Balance returns the cached projection for a user. The append-only log is
// not replayed here; it backs audit and reconciliation only.
func (e *Engine) Balance(userID int64) (*model.User, error) {
	u, err := e.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return u, nil
}

// History returns the user's ledger entries, newest first.
func (e *Engine) History(userID int64) ([]model.PointsTransaction, error) {
	return e.ledger.ListByUser(userID)
}

// GroupBalances returns the member aggregates for a group. The caller must
// belong to the group.
func (e *Engine) GroupBalances(groupID, userID int64) ([]model.Member, error) {
	m, err := e.members.Get(groupID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("user %d in group %d: %w", userID, groupID, ErrUnauthorized)
	}
	return e.members.ListByGroup(groupID)
}
