// Package notify implements the notification fan-out service: one
// durable notification row per recipient, followed by a best-effort
// real-time push.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/Deekshith9238/testingfhm/domain/market"
	"github.com/Deekshith9238/testingfhm/modules/store"
)

// Pusher delivers best-effort real-time messages. The push hub
// implements it; the fan-out service is the only component that
// reaches it.
type Pusher interface {
	SendToUser(userID string, payload any)
	SendToUsers(userIDs []string, payload any)
}

// PushPayload is the wire shape delivered over the push channel.
type PushPayload struct {
	Type    market.NotificationType `json:"type"`
	Title   string                  `json:"title"`
	Message string                  `json:"message"`
	Data    PayloadData             `json:"data"`
}

// PayloadData carries the structured part of a notification.
type PayloadData struct {
	TaskID     string `json:"taskId"`
	ProviderID string `json:"providerId,omitempty"`
}

// Fanout persists notifications and attempts their real-time delivery.
type Fanout struct {
	notifications *store.NotificationRepository
	directory     *store.DirectoryRepository
	pusher        Pusher
	group         singleflight.Group
	logger        *slog.Logger
}

// NewFanout creates a new fan-out service.
func NewFanout(notifications *store.NotificationRepository, directory *store.DirectoryRepository, pusher Pusher) *Fanout {
	return &Fanout{
		notifications: notifications,
		directory:     directory,
		pusher:        pusher,
		logger:        slog.Default().With("module", "notify"),
	}
}

// Notify persists one notification row per recipient, then pushes the
// payload to the recipients whose row was persisted. The push happens
// off the calling path and its outcome never affects the persisted
// rows: at-least-persisted, best-effort delivery. A persistence failure
// for one recipient is logged and does not stop the fan-out to the
// others. Fan-out order across recipients is unspecified.
func (f *Fanout) Notify(ctx context.Context, recipientIDs []string, typ market.NotificationType, title, message string, data PayloadData) []*market.Notification {
	raw, err := json.Marshal(data)
	if err != nil {
		f.logger.Error("failed to marshal notification data", "error", err)
		raw = nil
	}

	persisted := make([]*market.Notification, 0, len(recipientIDs))
	delivered := make([]string, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		n := &market.Notification{
			ID:          uuid.New().String(),
			RecipientID: recipientID,
			Type:        typ,
			Title:       title,
			Message:     message,
			Data:        raw,
			CreatedAt:   time.Now(),
		}
		if err := f.notifications.Create(ctx, n); err != nil {
			f.logger.Error("failed to persist notification",
				"recipientID", recipientID, "type", typ, "error", err)
			continue
		}
		persisted = append(persisted, n)
		delivered = append(delivered, recipientID)
	}

	if f.pusher != nil && len(delivered) > 0 {
		payload := PushPayload{Type: typ, Title: title, Message: message, Data: data}
		go f.pusher.SendToUsers(delivered, payload)
	}

	return persisted
}

// EligibleProviders resolves the providers of a category. Concurrent
// lookups for the same category during a fan-out burst are collapsed
// into a single query.
func (f *Fanout) EligibleProviders(ctx context.Context, categoryID string) ([]*market.ServiceProvider, error) {
	v, err, _ := f.group.Do(categoryID, func() (any, error) {
		return f.directory.ProvidersByCategory(ctx, categoryID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*market.ServiceProvider), nil
}
