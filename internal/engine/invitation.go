package engine

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/merithub/merit/internal/model"
	"github.com/merithub/merit/internal/notify"
)

// invitationTTL is the fixed acceptance window. Expiry is applied lazily
// when an invitation is read or acted on; there is no background sweep.
const invitationTTL = 7 * 24 * time.Hour

// SendInvitation creates a pending invitation with a fresh code.
func (e *Engine) SendInvitation(groupID, adminID int64, email string) (*model.Invitation, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("invitee email is required: %w", ErrValidation)
	}

	g, err := e.groups.GetByID(groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("group %d: %w", groupID, ErrNotFound)
	}
	if g.AdminID != adminID {
		return nil, fmt.Errorf("only the group admin may invite: %w", ErrUnauthorized)
	}

	var invitationID int64
	err = e.inTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`INSERT INTO invitations (group_id, admin_id, invitee_email, code, expires_at) VALUES (?, ?, ?, ?, ?)`,
			groupID, adminID, email, uuid.NewString(), time.Now().UTC().Add(invitationTTL),
		)
		if err != nil {
			return fmt.Errorf("insert invitation: %w", err)
		}
		invitationID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(notify.Event{
		Type:    notify.EventInvitationSent,
		GroupID: groupID,
		Title:   "Invitation sent",
		Body:    email,
	})
	return e.invites.GetByID(invitationID)
}

// GetInvitation reads an invitation by code, applying lazy expiry.
func (e *Engine) GetInvitation(code string) (*model.Invitation, error) {
	inv, err := e.invites.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("invitation: %w", ErrNotFound)
	}
	if inv.Lapsed(time.Now().UTC()) {
		if err := e.expireInvitation(inv.ID); err != nil {
			return nil, err
		}
		inv.Status = model.InvitationExpired
	}
	return inv, nil
}

func (e *Engine) expireInvitation(id int64) error {
	_, err := e.db.Exec(
		`UPDATE invitations SET status = 'expired' WHERE id = ? AND status = 'pending'`, id,
	)
	if err != nil {
		return fmt.Errorf("expire invitation: %w", err)
	}
	return nil
}

// AcceptInvitation creates the membership atomically with the status flip,
// running the same capacity and duplicate checks as join-request approval.
func (e *Engine) AcceptInvitation(code string, userID int64) (*model.Member, error) {
	var groupID int64
	var lapsed bool
	err := e.inTx(func(tx *sql.Tx) error {
		var invitationID int64
		var status string
		var expiresAt time.Time
		err := tx.QueryRow(
			`SELECT id, group_id, status, expires_at FROM invitations WHERE code = ?`, code,
		).Scan(&invitationID, &groupID, &status, &expiresAt)
		if err == sql.ErrNoRows {
			return fmt.Errorf("invitation: %w", ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("get invitation: %w", err)
		}

		if status == model.InvitationPending && time.Now().UTC().After(expiresAt) {
			// Commit the lazy expiry flip, then report ErrExpired.
			if _, err := tx.Exec(
				`UPDATE invitations SET status = 'expired' WHERE id = ? AND status = 'pending'`,
				invitationID,
			); err != nil {
				return fmt.Errorf("expire invitation: %w", err)
			}
			lapsed = true
			return nil
		}
		if status != model.InvitationPending {
			return fmt.Errorf("invitation: %w", ErrAlreadyProcessed)
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

		res, err := tx.Exec(
			`UPDATE invitations SET status = 'accepted' WHERE id = ? AND status = 'pending'`,
			invitationID,
		)
		if err != nil {
			return fmt.Errorf("accept invitation: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("accept rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("invitation: %w", ErrAlreadyProcessed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if lapsed {
		return nil, fmt.Errorf("invitation: %w", ErrExpired)
	}

	e.publish(notify.Event{
		Type:    notify.EventInvitationAccepted,
		GroupID: groupID,
		UserID:  userID,
		Title:   "Invitation accepted",
	})
	return e.members.Get(groupID, userID)
}

// DeclineInvitation flips a pending invitation to declined. Only the invitee
// may decline; holding the code is not enough on its own.
func (e *Engine) DeclineInvitation(code, email string) (*model.Invitation, error) {
	inv, err := e.GetInvitation(code)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(inv.InviteeEmail, email) {
		return nil, fmt.Errorf("invitation is addressed to someone else: %w", ErrUnauthorized)
	}
	if inv.Status == model.InvitationExpired {
		return nil, fmt.Errorf("invitation: %w", ErrExpired)
	}
	if inv.Status != model.InvitationPending {
		return nil, fmt.Errorf("invitation: %w", ErrAlreadyProcessed)
	}

	res, err := e.db.Exec(
		`UPDATE invitations SET status = 'declined' WHERE id = ? AND status = 'pending'`, inv.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("decline invitation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("decline rows: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("invitation: %w", ErrAlreadyProcessed)
	}
	return e.invites.GetByID(inv.ID)
}

// CancelInvitation removes a still-pending invitation. Terminal invitations
// stay for the audit trail.
func (e *Engine) CancelInvitation(invitationID, adminID int64) error {
	inv, err := e.invites.GetByID(invitationID)
	if err != nil {
		return err
	}
	if inv == nil {
		return fmt.Errorf("invitation %d: %w", invitationID, ErrNotFound)
	}

	g, err := e.groups.GetByID(inv.GroupID)
	if err != nil {
		return err
	}
	if g == nil || g.AdminID != adminID {
		return fmt.Errorf("only the group admin may cancel invitations: %w", ErrUnauthorized)
	}
	if inv.Status != model.InvitationPending {
		return fmt.Errorf("invitation %d: %w", invitationID, ErrAlreadyProcessed)
	}

	if _, err := e.db.Exec(`DELETE FROM invitations WHERE id = ? AND status = 'pending'`, invitationID); err != nil {
		return fmt.Errorf("cancel invitation: %w", err)
	}
	return nil
}

// ResendInvitation issues a fresh code and window for a pending or expired
// invitation.
func (e *Engine) ResendInvitation(invitationID, adminID int64) (*model.Invitation, error) {
	inv, err := e.invites.GetByID(invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("invitation %d: %w", invitationID, ErrNotFound)
	}

	g, err := e.groups.GetByID(inv.GroupID)
	if err != nil {
		return nil, err
	}
	if g == nil || g.AdminID != adminID {
		return nil, fmt.Errorf("only the group admin may resend invitations: %w", ErrUnauthorized)
	}
	if inv.Status == model.InvitationAccepted || inv.Status == model.InvitationDeclined {
		return nil, fmt.Errorf("invitation %d: %w", invitationID, ErrAlreadyProcessed)
	}

	// The status predicate re-validates at write time; the read above can go
	// stale if an accept or decline lands in between.
	res, err := e.db.Exec(
		`UPDATE invitations SET status = 'pending', code = ?, expires_at = ?
		 WHERE id = ? AND status IN ('pending', 'expired')`,
		uuid.NewString(), time.Now().UTC().Add(invitationTTL), invitationID,
	)
	if err != nil {
		return nil, fmt.Errorf("resend invitation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("resend rows: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("invitation %d: %w", invitationID, ErrAlreadyProcessed)
	}

	e.publish(notify.Event{
		Type:    notify.EventInvitationSent,
		GroupID: inv.GroupID,
		Title:   "Invitation resent",
		Body:    inv.InviteeEmail,
	})
	return e.invites.GetByID(invitationID)
}
