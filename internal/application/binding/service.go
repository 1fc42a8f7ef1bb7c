package binding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parcel-notify/internal/domain"
)

// Outcome names the terminal branch an inbound event ended in.
type Outcome string

const (
	OutcomeWelcomed      Outcome = "welcomed"
	OutcomeInvalidFormat Outcome = "invalid_format"
	OutcomeNotFound      Outcome = "not_found"
	OutcomeBindFailed    Outcome = "bind_failed"
	OutcomeBound         Outcome = "bound"
	OutcomeIgnored       Outcome = "ignored"
	OutcomeDuplicate     Outcome = "duplicate"
)

const (
	WelcomeMessage = "Welcome to the building parcel notification service!\n" +
		"Send your apartment number to link this account.\n" +
		"Examples: 14F-1 or A-14-1"
	FormatErrorMessage = "That apartment number doesn't look right. Please send something like 14F-1 or A-14-1."
	RetryMessage       = "Binding failed, please try again later."
	notFoundMessage    = "Apartment %s was not found. Please check the number and try again."
	boundMessage       = "Linked! Package notifications for %s will now be sent to this account."
)

type Service interface {
	Handle(ctx context.Context, ev domain.InboundEvent) (Outcome, error)
}

type store interface {
	ApartmentExists(ctx context.Context, key domain.ApartmentKey) (bool, error)
	BindApartmentToUser(ctx context.Context, key domain.ApartmentKey, userID string) (bool, error)
}

// Replier answers an inbound event.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Deduper reports whether an event id is seen for the first time.
type Deduper interface {
	FirstSeen(ctx context.Context, id string) (bool, error)
}

type ServiceDeps struct {
	Store   store
	Replier Replier
	Dedup   Deduper // optional
	Log     *zap.Logger
}

type service struct {
	store   store
	replier Replier
	dedup   Deduper
	log     *zap.Logger
}

func NewService(deps ServiceDeps) Service {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &service{store: deps.Store, replier: deps.Replier, dedup: deps.Dedup, log: log}
}

// Handle runs one event through the binding flow. Every branch replies at
// most once and ends; nothing is carried over to the next message.
func (s *service) Handle(ctx context.Context, ev domain.InboundEvent) (Outcome, error) {
	if ev.UserID == "" || ev.Type == domain.EventIgnored {
		return OutcomeIgnored, nil
	}
	if s.seen(ctx, ev) {
		return OutcomeDuplicate, nil
	}

	switch ev.Type {
	case domain.EventFollow:
		return s.reply(ctx, ev, OutcomeWelcomed, WelcomeMessage)
	case domain.EventText:
		return s.bind(ctx, ev)
	default:
		return OutcomeIgnored, nil
	}
}

func (s *service) bind(ctx context.Context, ev domain.InboundEvent) (Outcome, error) {
	key := domain.NormalizeApartmentKey(ev.Text)
	if !key.Valid() {
		return s.reply(ctx, ev, OutcomeInvalidFormat, FormatErrorMessage)
	}

	exists, err := s.store.ApartmentExists(ctx, key)
	if err != nil {
		s.log.Error("apartment lookup failed", zap.String("apartment", string(key)), zap.Error(err))
		return s.reply(ctx, ev, OutcomeBindFailed, RetryMessage)
	}
	if !exists {
		return s.reply(ctx, ev, OutcomeNotFound, fmt.Sprintf(notFoundMessage, key))
	}

	ok, err := s.store.BindApartmentToUser(ctx, key, ev.UserID)
	if err != nil || !ok {
		s.log.Error("bind failed",
			zap.String("apartment", string(key)),
			zap.String("user_id", ev.UserID),
			zap.Bool("apartment_found", ok),
			zap.Error(err),
		)
		return s.reply(ctx, ev, OutcomeBindFailed, RetryMessage)
	}
	s.log.Info("apartment bound", zap.String("apartment", string(key)), zap.String("user_id", ev.UserID))
	return s.reply(ctx, ev, OutcomeBound, fmt.Sprintf(boundMessage, key))
}

// seen reports a repeated delivery. The id is marked before the event is
// handled, so a delivery whose reply failed is not handled again; the bind
// has already been stored by then. De-dup errors are logged and the event
// is processed anyway; binding is idempotent.
func (s *service) seen(ctx context.Context, ev domain.InboundEvent) bool {
	if s.dedup == nil || ev.ID == "" {
		return false
	}
	first, err := s.dedup.FirstSeen(ctx, ev.ID)
	if err != nil {
		s.log.Warn("event de-dup unavailable", zap.String("event_id", ev.ID), zap.Error(err))
		return false
	}
	if !first {
		s.log.Info("duplicate event skipped", zap.String("event_id", ev.ID), zap.Bool("redelivery", ev.Redelivery))
	}
	return !first
}

func (s *service) reply(ctx context.Context, ev domain.InboundEvent, outcome Outcome, text string) (Outcome, error) {
	if err := s.replier.Reply(ctx, ev.ReplyToken, text); err != nil {
		return outcome, fmt.Errorf("reply %s: %w", outcome, err)
	}
	return outcome, nil
}
