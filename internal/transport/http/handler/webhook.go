package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/parcel-notify/internal/application/binding"
	"github.com/parcel-notify/internal/domain"
)

const eventTimeout = 30 * time.Second

// EventParser verifies a webhook request and extracts its events.
type EventParser interface {
	ParseEvents(r *http.Request) ([]domain.InboundEvent, error)
}

// WebhookHandler acknowledges webhook deliveries immediately and runs the
// binding flow for each event in the background.
type WebhookHandler struct {
	parser EventParser
	svc    binding.Service
	log    *zap.Logger
	wg     sync.WaitGroup
}

func NewWebhookHandler(parser EventParser, svc binding.Service, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{parser: parser, svc: svc, log: log}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	events, err := h.parser.ParseEvents(r)
	if err != nil {
		h.log.Warn("webhook rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, "INVALID_WEBHOOK", "invalid webhook request")
		return
	}
	w.WriteHeader(http.StatusOK)

	// The request context ends with this handler; events keep its values only.
	base := context.WithoutCancel(r.Context())
	for _, ev := range events {
		ev := ev
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			ctx, cancel := context.WithTimeout(base, eventTimeout)
			defer cancel()
			h.handle(ctx, ev)
		}()
	}
}

func (h *WebhookHandler) handle(ctx context.Context, ev domain.InboundEvent) {
	defer func() {
		if p := recover(); p != nil {
			h.log.Error("webhook event panic", zap.Any("panic", p), zap.String("event_id", ev.ID))
		}
	}()
	outcome, err := h.svc.Handle(ctx, ev)
	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.String("type", string(ev.Type)),
		zap.String("outcome", string(outcome)),
	}
	if err != nil {
		h.log.Error("webhook event failed", append(fields, zap.Error(err))...)
		return
	}
	h.log.Debug("webhook event handled", fields...)
}

// Wait blocks until every in-flight event has been handled.
func (h *WebhookHandler) Wait() {
	h.wg.Wait()
}
