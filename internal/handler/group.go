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

type GroupHandler struct {
	engine *engine.Engine
	groups *store.GroupStore
	logger *slog.Logger
}

func NewGroupHandler(e *engine.Engine, gs *store.GroupStore, logger *slog.Logger) *GroupHandler {
	return &GroupHandler{engine: e, groups: gs, logger: logger}
}

type createGroupRequest struct {
	Name       string `json:"name"`
	MaxMembers int64  `json:"max_members"`
	Joinable   bool   `json:"joinable"`
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	group, err := h.engine.CreateGroup(auth.UserID(r.Context()), req.Name, req.MaxMembers, req.Joinable)
	if err != nil {
		h.logger.Error("create group failed", "error", err)
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	group, err := h.groups.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get group")
		return
	}
	if group == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// Lookup resolves a joinable group by its share code.
func (h *GroupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	group, err := h.groups.GetByCode(code)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to look up group")
		return
	}
	if group == nil {
		writeError(w, http.StatusNotFound, "group not found")
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// ListMine returns the groups the caller belongs to.
func (h *GroupHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListForUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list groups")
		return
	}
	if groups == nil {
		groups = []model.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *GroupHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	members, err := h.engine.GroupBalances(id, auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *GroupHandler) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var member *model.Member
	err = withRetry(r.Context(), func() error {
		var e error
		member, e = h.engine.DeactivateMember(groupID, userID, auth.UserID(r.Context()))
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

func (h *GroupHandler) ActivateMember(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var member *model.Member
	err = withRetry(r.Context(), func() error {
		var e error
		member, e = h.engine.ActivateMember(groupID, userID, auth.UserID(r.Context()))
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, member)
}

type awardPointsRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// AwardPoints lets the group admin credit a member directly, outside the
// request workflow.
func (h *GroupHandler) AwardPoints(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req awardPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var txn *model.PointsTransaction
	err = withRetry(r.Context(), func() error {
		var e error
		txn, e = h.engine.AwardPoints(groupID, auth.UserID(r.Context()), userID, req.Amount, req.Description)
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, txn)
}
