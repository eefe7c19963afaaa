package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/merithub/merit/internal/model"
	"github.com/merithub/merit/internal/store"
)

// payload is the JSON sent to the push service.
type payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

// WebPush sends events to the affected user's registered push subscriptions.
type WebPush struct {
	subs       *store.PushStore
	publicKey  string
	privateKey string
	logger     *slog.Logger
}

func NewWebPush(subs *store.PushStore, publicKey, privateKey string, logger *slog.Logger) *WebPush {
	return &WebPush{subs: subs, publicKey: publicKey, privateKey: privateKey, logger: logger}
}

// VAPIDPublicKey returns the public key for client-side subscription.
func (w *WebPush) VAPIDPublicKey() string {
	return w.publicKey
}

// Publish delivers the event asynchronously to every subscription the
// affected user has registered. Group-wide events carry no user and are not
// pushed; the websocket hub covers those.
func (w *WebPush) Publish(ev Event) {
	if ev.UserID == 0 {
		return
	}
	go w.deliver(ev)
}

func (w *WebPush) deliver(ev Event) {
	subs, err := w.subs.ListByUser(ev.UserID)
	if err != nil {
		w.logger.Error("list subscriptions", "user_id", ev.UserID, "error", err)
		return
	}

	for i := range subs {
		if err := w.send(&subs[i], ev); err != nil {
			w.logger.Warn("push delivery failed", "endpoint", subs[i].Endpoint, "error", err)
		}
	}
}

func (w *WebPush) send(sub *model.PushSubscription, ev Event) error {
	data, err := json.Marshal(payload{Title: ev.Title, Body: ev.Body, Tag: ev.Type})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  w.publicKey,
		VAPIDPrivateKey: w.privateKey,
		Subscriber:      "mailto:noreply@merit.app",
		TTL:             86400,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		// Subscription is dead, drop it.
		return w.subs.DeleteByEndpoint(sub.Endpoint)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}
