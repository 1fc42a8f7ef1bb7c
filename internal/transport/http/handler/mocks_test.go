package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/parcel-notify/internal/application/apartment"
	"github.com/parcel-notify/internal/application/auth"
	"github.com/parcel-notify/internal/application/binding"
	"github.com/parcel-notify/internal/application/dispatch"
	"github.com/parcel-notify/internal/application/ledger"
	"github.com/parcel-notify/internal/domain"
	jwtinfra "github.com/parcel-notify/internal/infrastructure/jwt"
)

type mockApartmentSvc struct{ mock.Mock }

func (m *mockApartmentSvc) List(ctx context.Context) ([]domain.Apartment, error) {
	args := m.Called(ctx)
	apts, _ := args.Get(0).([]domain.Apartment)
	return apts, args.Error(1)
}
func (m *mockApartmentSvc) Seed(ctx context.Context, apts []domain.Apartment) (*apartment.SeedResult, error) {
	args := m.Called(ctx, apts)
	res, _ := args.Get(0).(*apartment.SeedResult)
	return res, args.Error(1)
}
func (m *mockApartmentSvc) SeedDefaults(ctx context.Context) (*apartment.SeedResult, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*apartment.SeedResult)
	return res, args.Error(1)
}
func (m *mockApartmentSvc) LoadSeedFile(ctx context.Context, path string) (*apartment.SeedResult, error) {
	args := m.Called(ctx, path)
	res, _ := args.Get(0).(*apartment.SeedResult)
	return res, args.Error(1)
}
func (m *mockApartmentSvc) Remove(ctx context.Context, raw string) error {
	return m.Called(ctx, raw).Error(0)
}

type mockDispatchSvc struct{ mock.Mock }

func (m *mockDispatchSvc) Dispatch(ctx context.Context, req dispatch.Request) (*domain.DispatchResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*domain.DispatchResult)
	return res, args.Error(1)
}

type mockLedgerSvc struct{ mock.Mock }

func (m *mockLedgerSvc) Purge(ctx context.Context, days int) (*ledger.PurgeResult, error) {
	args := m.Called(ctx, days)
	res, _ := args.Get(0).(*ledger.PurgeResult)
	return res, args.Error(1)
}

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) CheckCredentials(username, password string) bool {
	return m.Called(username, password).Bool(0)
}
func (m *mockAuthSvc) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*auth.LoginResult)
	return res, args.Error(1)
}
func (m *mockAuthSvc) VerifyBearer(token string) (*jwtinfra.Claims, error) {
	args := m.Called(token)
	c, _ := args.Get(0).(*jwtinfra.Claims)
	return c, args.Error(1)
}
func (m *mockAuthSvc) SessionsEnabled() bool { return m.Called().Bool(0) }

type mockParser struct{ mock.Mock }

func (m *mockParser) ParseEvents(r *http.Request) ([]domain.InboundEvent, error) {
	args := m.Called(r)
	evs, _ := args.Get(0).([]domain.InboundEvent)
	return evs, args.Error(1)
}

// recordingBinding captures handled events; it is safe for concurrent use.
type recordingBinding struct {
	mu     sync.Mutex
	events []domain.InboundEvent
	block  chan struct{}
}

func (b *recordingBinding) Handle(_ context.Context, ev domain.InboundEvent) (binding.Outcome, error) {
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return binding.OutcomeBound, nil
}

func (b *recordingBinding) handled() []domain.InboundEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.InboundEvent(nil), b.events...)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
