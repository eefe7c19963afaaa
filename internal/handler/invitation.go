package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/merithub/merit/internal/auth"
	"github.com/merithub/merit/internal/engine"
	"github.com/merithub/merit/internal/model"
	"github.com/merithub/merit/internal/store"
)

type InvitationHandler struct {
	engine  *engine.Engine
	invites *store.InvitationStore
	logger  *slog.Logger
}

func NewInvitationHandler(e *engine.Engine, is *store.InvitationStore, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{engine: e, invites: is, logger: logger}
}

type sendInvitationRequest struct {
	Email string `json:"email"`
}

func (h *InvitationHandler) Send(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req sendInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	var inv *model.Invitation
	err = withRetry(r.Context(), func() error {
		var e error
		inv, e = h.engine.SendInvitation(groupID, auth.UserID(r.Context()), req.Email)
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, inv)
}

func (h *InvitationHandler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	invitations, err := h.invites.ListByGroup(groupID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invitations")
		return
	}
	if invitations == nil {
		invitations = []model.Invitation{}
	}
	writeJSON(w, http.StatusOK, invitations)
}

// ListMine returns invitations addressed to the caller's email.
func (h *InvitationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.FromContext(r.Context())

	invitations, err := h.invites.ListByEmail(p.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invitations")
		return
	}
	if invitations == nil {
		invitations = []model.Invitation{}
	}
	writeJSON(w, http.StatusOK, invitations)
}

// Get resolves an invitation by code, flipping it to expired first if its
// acceptance window has lapsed.
func (h *InvitationHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	inv, err := h.engine.GetInvitation(code)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, inv)
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	var member *model.Member
	err := withRetry(r.Context(), func() error {
		var e error
		member, e = h.engine.AcceptInvitation(code, auth.UserID(r.Context()))
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, member)
}

func (h *InvitationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	p, _ := auth.FromContext(r.Context())

	var inv *model.Invitation
	err := withRetry(r.Context(), func() error {
		var e error
		inv, e = h.engine.DeclineInvitation(code, p.Email)
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, inv)
}

func (h *InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	err = withRetry(r.Context(), func() error {
		return h.engine.CancelInvitation(id, auth.UserID(r.Context()))
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *InvitationHandler) Resend(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var inv *model.Invitation
	err = withRetry(r.Context(), func() error {
		var e error
		inv, e = h.engine.ResendInvitation(id, auth.UserID(r.Context()))
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, inv)
}
