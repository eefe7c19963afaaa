package handler

import (
	"log/slog"
	"net/http"

	"github.com/merithub/merit/internal/auth"
	"github.com/merithub/merit/internal/engine"
	"github.com/merithub/merit/internal/model"
	"github.com/merithub/merit/internal/store"
)

type JoinRequestHandler struct {
	engine *engine.Engine
	joins  *store.JoinRequestStore
	logger *slog.Logger
}

func NewJoinRequestHandler(e *engine.Engine, js *store.JoinRequestStore, logger *slog.Logger) *JoinRequestHandler {
	return &JoinRequestHandler{engine: e, joins: js, logger: logger}
}

// Submit creates a pending join request for the caller against a joinable
// group.
func (h *JoinRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var jr *model.JoinRequest
	err = withRetry(r.Context(), func() error {
		var e error
		jr, e = h.engine.SubmitJoinRequest(groupID, auth.UserID(r.Context()))
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, jr)
}

func (h *JoinRequestHandler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	requests, err := h.joins.ListByGroup(groupID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list join requests")
		return
	}
	if requests == nil {
		requests = []model.JoinRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *JoinRequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	requests, err := h.joins.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list join requests")
		return
	}
	if requests == nil {
		requests = []model.JoinRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *JoinRequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var jr *model.JoinRequest
	err = withRetry(r.Context(), func() error {
		var e error
		jr, e = h.engine.ApproveJoinRequest(id, auth.UserID(r.Context()))
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jr)
}

func (h *JoinRequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var jr *model.JoinRequest
	err = withRetry(r.Context(), func() error {
		var e error
		jr, e = h.engine.RejectJoinRequest(id, auth.UserID(r.Context()))
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jr)
}
