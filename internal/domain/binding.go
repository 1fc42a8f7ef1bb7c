package domain

import "time"

// Binding links one apartment to one messaging-platform identity.
type Binding struct {
	ApartmentKey ApartmentKey `json:"apartment_no" dynamodbav:"apartment_no"`
	RecipientID  string       `json:"line_user_id" dynamodbav:"line_user_id"`
	BoundAt      time.Time    `json:"bound_at" dynamodbav:"bound_at"`
}

// InboundEventType enumerates the chat events the binding flow reacts to.
type InboundEventType string

const (
	EventFollow  InboundEventType = "follow"
	EventText    InboundEventType = "text"
	EventIgnored InboundEventType = "ignored"
)

// InboundEvent is a chat-platform event reduced to what the binding flow needs.
// UserID is empty for group and room sources.
type InboundEvent struct {
	ID         string
	Type       InboundEventType
	ReplyToken string
	UserID     string
	Text       string
	Redelivery bool
}
