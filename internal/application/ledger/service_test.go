package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/parcel-notify/internal/domain"
	"github.com/parcel-notify/internal/infrastructure/memory"
)

type mockArchiver struct{ mock.Mock }

func (m *mockArchiver) Archive(ctx context.Context, recs []domain.NotificationRecord, cutoff time.Time) (string, error) {
	args := m.Called(ctx, recs, cutoff)
	return args.String(0), args.Error(1)
}

var now = time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC)

func ledgerWithAges(t *testing.T, ages ...time.Duration) *memory.Store {
	t.Helper()
	st := memory.NewStore()
	for _, age := range ages {
		rec := &domain.NotificationRecord{Status: domain.NotificationOK, SentAt: now.Add(-age)}
		require.NoError(t, st.AddNotification(context.Background(), rec))
	}
	return st
}

const day = 24 * time.Hour

func TestPurge_RemovesOnlyOlderRows(t *testing.T) {
	st := ledgerWithAges(t, 46*day, 45*day+time.Minute, 45*day-time.Minute, 10*day, time.Hour)
	svc := NewService(ServiceDeps{Store: st, Now: func() time.Time { return now }})

	res, err := svc.Purge(context.Background(), 45)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Deleted)
	assert.Equal(t, now.AddDate(0, 0, -45), res.Cutoff)
	assert.Empty(t, res.Archive)

	left := st.Notifications()
	require.Len(t, left, 3)
	for _, r := range left {
		assert.False(t, r.SentAt.Before(res.Cutoff))
	}
}

func TestPurge_RejectsNonPositiveDays(t *testing.T) {
	st := ledgerWithAges(t, 100*day)
	svc := NewService(ServiceDeps{Store: st, Now: func() time.Time { return now }})

	for _, days := range []int{0, -3} {
		_, err := svc.Purge(context.Background(), days)
		assert.ErrorIs(t, err, domain.ErrInvalidDays)
	}
	assert.Len(t, st.Notifications(), 1)
}

func TestPurge_ArchivesBeforeDeleting(t *testing.T) {
	st := ledgerWithAges(t, 50*day, day)
	arch := new(mockArchiver)
	arch.On("Archive", mock.Anything, mock.MatchedBy(func(recs []domain.NotificationRecord) bool {
		return len(recs) == 1
	}), now.AddDate(0, 0, -45)).Return("s3://ledger/ledger-archive/x.jsonl", nil)
	svc := NewService(ServiceDeps{Store: st, Archiver: arch, Now: func() time.Time { return now }})

	res, err := svc.Purge(context.Background(), 45)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Deleted)
	assert.Equal(t, "s3://ledger/ledger-archive/x.jsonl", res.Archive)
	arch.AssertExpectations(t)
}

func TestPurge_ArchiveFailureKeepsRows(t *testing.T) {
	st := ledgerWithAges(t, 50*day)
	arch := new(mockArchiver)
	arch.On("Archive", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("bucket missing"))
	svc := NewService(ServiceDeps{Store: st, Archiver: arch, Now: func() time.Time { return now }})

	_, err := svc.Purge(context.Background(), 45)
	assert.ErrorContains(t, err, "bucket missing")
	assert.Len(t, st.Notifications(), 1)
}

func TestPurge_NothingToArchive(t *testing.T) {
	st := ledgerWithAges(t, day)
	arch := new(mockArchiver)
	svc := NewService(ServiceDeps{Store: st, Archiver: arch, Now: func() time.Time { return now }})

	res, err := svc.Purge(context.Background(), 45)
	require.NoError(t, err)
	assert.Zero(t, res.Deleted)
	arch.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything, mock.Anything)
}
