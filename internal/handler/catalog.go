package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/merithub/merit/internal/auth"
	"github.com/merithub/merit/internal/engine"
	"github.com/merithub/merit/internal/model"
)

type CatalogHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewCatalogHandler(e *engine.Engine, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{engine: e, logger: logger}
}

type catalogEntryRequest struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int64  `json:"points"`
	Active      bool   `json:"active"`
}

func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req catalogEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	entry, err := h.engine.CreateCatalogEntry(groupID, auth.UserID(r.Context()), req.Kind, req.Title, req.Description, req.Points, req.Active)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	groupID, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	entries, err := h.engine.ListCatalog(groupID, auth.UserID(r.Context()), r.URL.Query().Get("kind"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if entries == nil {
		entries = []model.CatalogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req catalogEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	entry, err := h.engine.UpdateCatalogEntry(id, auth.UserID(r.Context()), req.Title, req.Description, req.Points, req.Active)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.engine.DeleteCatalogEntry(id, auth.UserID(r.Context())); err != nil {
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
