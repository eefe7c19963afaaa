package handler

import (
	"log/slog"
	"net/http"

	"github.com/merithub/merit/internal/auth"
	"github.com/merithub/merit/internal/engine"
	"github.com/merithub/merit/internal/model"
)

type LedgerHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

func NewLedgerHandler(e *engine.Engine, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{engine: e, logger: logger}
}

// Balance returns the caller's cached points projection.
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user, err := h.engine.Balance(auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"current_points": user.CurrentPoints,
		"total_earned":   user.TotalEarned,
		"total_redeemed": user.TotalRedeemed,
	})
}

// History returns the caller's ledger entries, newest first.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	txns, err := h.engine.History(auth.UserID(r.Context()))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if txns == nil {
		txns = []model.PointsTransaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}
