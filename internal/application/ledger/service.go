package ledger

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/parcel-notify/internal/domain"
)

// DefaultRetentionDays applies when a purge request names no threshold.
const DefaultRetentionDays = 45

type PurgeResult struct {
	Deleted int64     `json:"deleted"`
	Cutoff  time.Time `json:"cutoff"`
	Archive string    `json:"archive,omitempty"`
}

type Service interface {
	Purge(ctx context.Context, days int) (*PurgeResult, error)
}

type store interface {
	ListNotificationsBefore(ctx context.Context, cutoff time.Time) ([]domain.NotificationRecord, error)
	PurgeNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Archiver keeps a copy of ledger rows before they are purged.
type Archiver interface {
	Archive(ctx context.Context, recs []domain.NotificationRecord, cutoff time.Time) (string, error)
}

type ServiceDeps struct {
	Store    store
	Archiver Archiver // optional
	Log      *zap.Logger
	Now      func() time.Time
}

type service struct {
	store    store
	archiver Archiver
	log      *zap.Logger
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{store: deps.Store, archiver: deps.Archiver, log: deps.Log, now: deps.Now}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Purge deletes ledger rows sent more than days calendar days ago. When an
// archiver is configured the rows are archived first and a failed archive
// leaves the ledger untouched.
func (s *service) Purge(ctx context.Context, days int) (*PurgeResult, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days=%d: %w", days, domain.ErrInvalidDays)
	}
	res := &PurgeResult{Cutoff: s.now().UTC().AddDate(0, 0, -days)}

	if s.archiver != nil {
		recs, err := s.store.ListNotificationsBefore(ctx, res.Cutoff)
		if err != nil {
			return nil, fmt.Errorf("list expired notifications: %w", err)
		}
		if len(recs) > 0 {
			url, err := s.archiver.Archive(ctx, recs, res.Cutoff)
			if err != nil {
				return nil, fmt.Errorf("archive notifications: %w", err)
			}
			res.Archive = url
		}
	}

	deleted, err := s.store.PurgeNotificationsBefore(ctx, res.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("purge notifications: %w", err)
	}
	res.Deleted = deleted
	s.log.Info("ledger purged",
		zap.Int("days", days),
		zap.Time("cutoff", res.Cutoff),
		zap.Int64("deleted", deleted),
		zap.String("archive", res.Archive),
	)
	return res, nil
}
