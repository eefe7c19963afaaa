package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/merithub/merit/internal/config"
	"github.com/merithub/merit/internal/engine"
	"github.com/merithub/merit/internal/handler"
	"github.com/merithub/merit/internal/middleware"
	"github.com/merithub/merit/internal/notify"
	"github.com/merithub/merit/internal/store"
	ws "github.com/merithub/merit/internal/websocket"
)

type Server struct {
	db     *sql.DB
	cfg    config.Config
	hub    *ws.Hub
	logger *slog.Logger

	userStore *store.UserStore

	groupH   *handler.GroupHandler
	joinH    *handler.JoinRequestHandler
	inviteH  *handler.InvitationHandler
	catalogH *handler.CatalogHandler
	requestH *handler.RequestHandler
	ledgerH  *handler.LedgerHandler
	pushH    *handler.PushHandler
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	groupStore := store.NewGroupStore(db)
	inviteStore := store.NewInvitationStore(db)
	joinStore := store.NewJoinRequestStore(db)
	requestStore := store.NewRequestStore(db)
	pushStore := store.NewPushStore(db)

	notifiers := notify.Multi{newHubNotifier(hub)}

	var pushH *handler.PushHandler
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		wp := notify.NewWebPush(pushStore, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, logger.With("component", "webpush"))
		notifiers = append(notifiers, wp)
		pushH = handler.NewPushHandler(pushStore, cfg.VAPIDPublicKey, logger.With("component", "push_handler"))
	}

	eng := engine.New(db, notifiers, logger.With("component", "engine"))

	return &Server{
		db:        db,
		cfg:       cfg,
		hub:       hub,
		logger:    logger,
		userStore: userStore,
		groupH:    handler.NewGroupHandler(eng, groupStore, logger.With("component", "group")),
		joinH:     handler.NewJoinRequestHandler(eng, joinStore, logger.With("component", "join_request")),
		inviteH:   handler.NewInvitationHandler(eng, inviteStore, logger.With("component", "invitation")),
		catalogH:  handler.NewCatalogHandler(eng, logger.With("component", "catalog")),
		requestH:  handler.NewRequestHandler(eng, requestStore, logger.With("component", "request")),
		ledgerH:   handler.NewLedgerHandler(eng, logger.With("component", "ledger")),
		pushH:     pushH,
	}
}

// newHubNotifier adapts engine events onto the websocket hub so connected
// group members see changes as they happen.
func newHubNotifier(hub *ws.Hub) notify.Func {
	return func(ev notify.Event) {
		hub.Broadcast(ws.Message{
			Type:    ev.Type,
			GroupID: ev.GroupID,
			UserID:  ev.UserID,
			Extra: map[string]any{
				"title": ev.Title,
				"body":  ev.Body,
			},
		})
	}
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.cfg.JWTSecret, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Group routes
	mux.HandleFunc("POST /api/groups", s.groupH.Create)
	mux.HandleFunc("GET /api/groups", s.groupH.ListMine)
	mux.HandleFunc("GET /api/groups/lookup", s.groupH.Lookup)
	mux.HandleFunc("GET /api/groups/{id}", s.groupH.Get)
	mux.HandleFunc("GET /api/groups/{id}/members", s.groupH.ListMembers)
	mux.HandleFunc("POST /api/groups/{id}/members/{user_id}/deactivate", s.groupH.DeactivateMember)
	mux.HandleFunc("POST /api/groups/{id}/members/{user_id}/activate", s.groupH.ActivateMember)
	mux.HandleFunc("POST /api/groups/{id}/members/{user_id}/award", s.groupH.AwardPoints)

	// Join request routes
	mux.HandleFunc("POST /api/groups/{id}/join-requests", s.joinH.Submit)
	mux.HandleFunc("GET /api/groups/{id}/join-requests", s.joinH.ListByGroup)
	mux.HandleFunc("GET /api/join-requests", s.joinH.ListMine)
	mux.HandleFunc("POST /api/join-requests/{id}/approve", s.joinH.Approve)
	mux.HandleFunc("POST /api/join-requests/{id}/reject", s.joinH.Reject)

	// Invitation routes
	mux.HandleFunc("POST /api/groups/{id}/invitations", s.inviteH.Send)
	mux.HandleFunc("GET /api/groups/{id}/invitations", s.inviteH.ListByGroup)
	mux.HandleFunc("GET /api/invitations", s.inviteH.ListMine)
	mux.HandleFunc("GET /api/invitations/{code}", s.inviteH.Get)
	mux.HandleFunc("POST /api/invitations/{code}/accept", s.inviteH.Accept)
	mux.HandleFunc("POST /api/invitations/{code}/decline", s.inviteH.Decline)
	mux.HandleFunc("DELETE /api/invitations/{id}", s.inviteH.Cancel)
	mux.HandleFunc("POST /api/invitations/{id}/resend", s.inviteH.Resend)

	// Catalog routes
	mux.HandleFunc("POST /api/groups/{id}/catalog", s.catalogH.Create)
	mux.HandleFunc("GET /api/groups/{id}/catalog", s.catalogH.List)
	mux.HandleFunc("PUT /api/catalog/{id}", s.catalogH.Update)
	mux.HandleFunc("DELETE /api/catalog/{id}", s.catalogH.Delete)

	// Approval workflow routes
	mux.HandleFunc("POST /api/groups/{id}/requests/task", s.requestH.SubmitTask)
	mux.HandleFunc("POST /api/groups/{id}/requests/prize", s.requestH.SubmitPrize)
	mux.HandleFunc("POST /api/groups/{id}/requests/penalty", s.requestH.SubmitPenalty)
	mux.HandleFunc("GET /api/groups/{id}/requests", s.requestH.ListByGroup)
	mux.HandleFunc("GET /api/requests", s.requestH.ListMine)
	mux.HandleFunc("POST /api/requests/{id}/approve", s.requestH.Approve)
	mux.HandleFunc("POST /api/requests/{id}/reject", s.requestH.Reject)

	// Ledger routes
	mux.HandleFunc("GET /api/me/balance", s.ledgerH.Balance)
	mux.HandleFunc("GET /api/me/transactions", s.ledgerH.History)

	// Push notification routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "ws_handler")))
}
