package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parcel-notify/internal/domain"
)

type Request struct {
	Apartment string  `json:"apartment"`
	Count     *int    `json:"count"`
	Note      *string `json:"note"`
}

type Service interface {
	Dispatch(ctx context.Context, req Request) (*domain.DispatchResult, error)
}

type store interface {
	ApartmentExists(ctx context.Context, key domain.ApartmentKey) (bool, error)
	GetUserIDsByApartment(ctx context.Context, key domain.ApartmentKey) ([]string, error)
	AddNotification(ctx context.Context, rec *domain.NotificationRecord) error
}

// Pusher delivers one text message to one recipient.
type Pusher interface {
	Push(ctx context.Context, to, text string) error
}

type ServiceDeps struct {
	Store       store
	Pusher      Pusher
	Concurrency int
	Log         *zap.Logger
	Now         func() time.Time
}

type service struct {
	store       store
	pusher      Pusher
	concurrency int
	log         *zap.Logger
	now         func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:       deps.Store,
		pusher:      deps.Pusher,
		concurrency: deps.Concurrency,
		log:         deps.Log,
		now:         deps.Now,
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Dispatch pushes a parcel notice to every account bound to the apartment and
// records one ledger row. Each recipient gets exactly one attempt; a failed
// send is captured in the result rather than returned as an error.
func (s *service) Dispatch(ctx context.Context, req Request) (*domain.DispatchResult, error) {
	if strings.TrimSpace(req.Apartment) == "" {
		return nil, domain.ErrMissingApartment
	}
	key, err := domain.ParseApartmentKey(req.Apartment)
	if err != nil {
		return nil, err
	}
	exists, err := s.store.ApartmentExists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("check apartment: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("apartment %s: %w", key, domain.ErrApartmentNotFound)
	}

	userIDs, err := s.store.GetUserIDsByApartment(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	// Once recipients are known the send and its ledger row must complete
	// even if the caller goes away.
	work := context.WithoutCancel(ctx)
	if len(userIDs) == 0 {
		if err := s.record(work, key, req, domain.NotificationNoBinding, nil); err != nil {
			return nil, err
		}
		s.log.Info("dispatch skipped, no binding", zap.String("apartment", string(key)))
		return nil, fmt.Errorf("apartment %s: %w", key, domain.ErrNotBound)
	}

	text := ComposeMessage(req.Count, req.Note)
	result := &domain.DispatchResult{Status: domain.DispatchOK, Results: s.fanOut(work, userIDs, text)}

	status := domain.NotificationOK
	var detail *string
	if failed := result.Failed(); failed > 0 {
		status = domain.NotificationPartialFail
		result.Status = domain.DispatchPartial
		b, err := json.Marshal(result.Results)
		if err != nil {
			return nil, fmt.Errorf("encode results: %w", err)
		}
		d := string(b)
		detail = &d
	}
	if err := s.record(work, key, req, status, detail); err != nil {
		return nil, err
	}

	s.log.Info("dispatch finished",
		zap.String("apartment", string(key)),
		zap.String("status", string(result.Status)),
		zap.Int("recipients", len(result.Results)),
		zap.Int("failed", result.Failed()),
	)
	return result, nil
}

// fanOut sends text to every recipient with bounded concurrency. Results keep
// the order of userIDs.
func (s *service) fanOut(ctx context.Context, userIDs []string, text string) []domain.RecipientResult {
	results := make([]domain.RecipientResult, len(userIDs))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, uid := range userIDs {
		i, uid := i, uid
		g.Go(func() error {
			err := s.pusher.Push(ctx, uid, text)
			res := domain.RecipientResult{UserID: uid, OK: err == nil, At: s.now().UTC()}
			if err != nil {
				res.Error = errorDetail(err)
				s.log.Warn("push failed", zap.String("user_id", uid), zap.Error(err))
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *service) record(ctx context.Context, key domain.ApartmentKey, req Request, status domain.NotificationStatus, detail *string) error {
	rec := &domain.NotificationRecord{
		ApartmentKey: &key,
		Count:        req.Count,
		Note:         nonEmpty(req.Note),
		Status:       status,
		Error:        detail,
		SentAt:       s.now().UTC(),
	}
	if err := s.store.AddNotification(ctx, rec); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	return nil
}

// errorDetail prefers the gateway's response body over the error text.
func errorDetail(err error) any {
	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) && len(gwErr.Payload) > 0 {
		return gwErr.Payload
	}
	return err.Error()
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// ComposeMessage builds the notice text. A positive count is spelled out; a
// non-blank note replaces the default pickup reminder.
func ComposeMessage(count *int, note *string) string {
	var b strings.Builder
	if count != nil && *count > 0 {
		fmt.Fprintf(&b, "📦 You have %d packages at the management office", *count)
	} else {
		b.WriteString("📦 You have a new package at the management office")
	}
	if note != nil && strings.TrimSpace(*note) != "" {
		b.WriteString(". Note: ")
		b.WriteString(strings.TrimSpace(*note))
	} else {
		b.WriteString(", please pick it up soon.")
	}
	return b.String()
}
