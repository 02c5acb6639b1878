package twitch

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Its-donkey/kappopher/helix"
)

const webhookProcessingTimeout = 5 * time.Second

// WebhookHandler verifies and unwraps EventSub webhook deliveries and feeds
// chat messages to onChat. Events for other broadcasters are dropped; a
// conduit outlives config changes, so stale subscriptions can linger.
type WebhookHandler struct {
	handler       *helix.EventSubWebhookHandler
	broadcasterID string
	onChat        func(ctx context.Context, sender, text string)
}

func NewWebhookHandler(secret, broadcasterID string, onChat func(ctx context.Context, sender, text string)) *WebhookHandler {
	wh := &WebhookHandler{
		broadcasterID: broadcasterID,
		onChat:        onChat,
	}

	wh.handler = helix.NewEventSubWebhookHandler(
		helix.WithWebhookSecret(secret),
		helix.WithNotificationHandler(wh.handleNotification),
		helix.WithVerificationHandler(func(msg *helix.EventSubWebhookMessage) bool {
			slog.Info("EventSub webhook verification", "subscription_type", msg.SubscriptionType)
			return true
		}),
		helix.WithRevocationHandler(func(msg *helix.EventSubWebhookMessage) {
			slog.Info("EventSub subscription revoked", "type", msg.SubscriptionType, "reason", helix.GetRevocationReason(msg.Subscription))
		}),
	)

	return wh
}

func (wh *WebhookHandler) handleNotification(msg *helix.EventSubWebhookMessage) {
	if msg.SubscriptionType != helix.EventSubTypeChannelChatMessage {
		return
	}

	event, err := helix.ParseEventSubEvent[helix.ChannelChatMessageEvent](msg)
	if err != nil {
		slog.Error("Failed to parse chat message event", "error", err)
		return
	}

	if event.BroadcasterUserID != wh.broadcasterID {
		slog.Debug("Skipping chat message for other broadcaster", "broadcaster", event.BroadcasterUserID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessingTimeout)
	defer cancel()

	wh.onChat(ctx, event.ChatterUserID, event.Message.Text)
}

func (wh *WebhookHandler) HandleEventSub(w http.ResponseWriter, r *http.Request) {
	wh.handler.ServeHTTP(w, r)
}
