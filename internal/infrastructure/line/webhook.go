package line

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/parcel-notify/internal/domain"
)

// ParseEvents verifies the X-Line-Signature header against the channel secret
// and reduces the payload to inbound events. A bad signature is reported as
// domain.ErrUnauthorized, an unreadable body as domain.ErrBadRequest.
func (c *Client) ParseEvents(r *http.Request) ([]domain.InboundEvent, error) {
	cb, err := webhook.ParseRequest(c.secret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			return nil, fmt.Errorf("webhook signature: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("webhook body: %v: %w", err, domain.ErrBadRequest)
	}
	events := make([]domain.InboundEvent, 0, len(cb.Events))
	for _, ev := range cb.Events {
		events = append(events, toInbound(ev))
	}
	return events, nil
}

func toInbound(ev webhook.EventInterface) domain.InboundEvent {
	switch e := ev.(type) {
	case webhook.FollowEvent:
		return domain.InboundEvent{
			ID:         e.WebhookEventId,
			Type:       domain.EventFollow,
			ReplyToken: e.ReplyToken,
			UserID:     userID(e.Source),
			Redelivery: redelivery(e.DeliveryContext),
		}
	case webhook.MessageEvent:
		in := domain.InboundEvent{
			ID:         e.WebhookEventId,
			Type:       domain.EventIgnored,
			ReplyToken: e.ReplyToken,
			UserID:     userID(e.Source),
			Redelivery: redelivery(e.DeliveryContext),
		}
		if m, ok := e.Message.(webhook.TextMessageContent); ok {
			in.Type = domain.EventText
			in.Text = m.Text
		}
		return in
	default:
		return domain.InboundEvent{Type: domain.EventIgnored}
	}
}

// userID returns the sender for one-to-one chats only.
func userID(src webhook.SourceInterface) string {
	if s, ok := src.(webhook.UserSource); ok {
		return s.UserId
	}
	return ""
}

func redelivery(dc *webhook.DeliveryContext) bool {
	return dc != nil && dc.IsRedelivery
}
