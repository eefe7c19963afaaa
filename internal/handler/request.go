package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/merithub/merit/internal/auth"
	"github.com/merithub/merit/internal/engine"
	"github.com/merithub/merit/internal/model"
	"github.com/merithub/merit/internal/store"
)

type RequestHandler struct {
	engine   *engine.Engine
	requests *store.RequestStore
	logger   *slog.Logger
}

func NewRequestHandler(e *engine.Engine, rs *store.RequestStore, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{engine: e, requests: rs, logger: logger}
}

type submitRequestBody struct {
	CatalogEntryID int64 `json:"catalog_entry_id"`
	// UserID is the penalized member. Only read for penalty submissions.
	UserID int64 `json:"user_id"`
}

func (h *RequestHandler) SubmitTask(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, model.KindTask)
}

func (h *RequestHandler) SubmitPrize(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, model.KindPrize)
}

func (h *RequestHandler) SubmitPenalty(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, model.KindPenalty)
}

func (h *RequestHandler) submit(w http.ResponseWriter, r *http.Request, kind string) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var body submitRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	caller := auth.UserID(r.Context())

	var req *model.Request
	err = withRetry(r.Context(), func() error {
		var e error
		switch kind {
		case model.KindTask:
			req, e = h.engine.SubmitTaskCompletion(groupID, caller, body.CatalogEntryID)
		case model.KindPrize:
			req, e = h.engine.SubmitPrizeApplication(groupID, caller, body.CatalogEntryID)
		case model.KindPenalty:
			req, e = h.engine.SubmitPenalty(groupID, caller, body.UserID, body.CatalogEntryID)
		}
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

func (h *RequestHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req *model.Request
	err = withRetry(r.Context(), func() error {
		var e error
		req, e = h.engine.ApproveRequest(id, auth.UserID(r.Context()))
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

type rejectRequestBody struct {
	Reason string `json:"reason"`
}

func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var body rejectRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var req *model.Request
	err = withRetry(r.Context(), func() error {
		var e error
		req, e = h.engine.RejectRequest(id, auth.UserID(r.Context()), body.Reason)
		return e
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	q := r.URL.Query()
	requests, err := h.requests.ListByGroup(groupID, q.Get("status"), q.Get("kind"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}

func (h *RequestHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requests.ListByUser(auth.UserID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []model.Request{}
	}
	writeJSON(w, http.StatusOK, requests)
}
