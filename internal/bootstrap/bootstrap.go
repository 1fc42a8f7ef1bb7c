// Package bootstrap assembles stores, gateways and services from config so
// the API server and the admin CLI wire things the same way.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/parcel-notify/internal/application/apartment"
	"github.com/parcel-notify/internal/application/auth"
	"github.com/parcel-notify/internal/application/binding"
	"github.com/parcel-notify/internal/application/dispatch"
	"github.com/parcel-notify/internal/application/ledger"
	"github.com/parcel-notify/internal/config"
	"github.com/parcel-notify/internal/domain"
	"github.com/parcel-notify/internal/infrastructure/dedup"
	"github.com/parcel-notify/internal/infrastructure/dynamo"
	jwtinfra "github.com/parcel-notify/internal/infrastructure/jwt"
	"github.com/parcel-notify/internal/infrastructure/line"
	"github.com/parcel-notify/internal/infrastructure/memory"
	s3infra "github.com/parcel-notify/internal/infrastructure/s3"
	"github.com/parcel-notify/internal/infrastructure/sns"
	"github.com/parcel-notify/internal/infrastructure/sqlstore"
)

const localDedupEntries = 100_000

// Store is the union of what the services need from persistence. Every
// backend under infrastructure/ satisfies it.
type Store interface {
	ListApartments(ctx context.Context) ([]domain.Apartment, error)
	CountApartments(ctx context.Context) (int, error)
	ApartmentExists(ctx context.Context, key domain.ApartmentKey) (bool, error)
	UpsertApartment(ctx context.Context, apt domain.Apartment) (bool, error)
	DeleteApartment(ctx context.Context, key domain.ApartmentKey) (bool, error)
	BindApartmentToUser(ctx context.Context, key domain.ApartmentKey, userID string) (bool, error)
	GetUserIDsByApartment(ctx context.Context, key domain.ApartmentKey) ([]string, error)
	AddNotification(ctx context.Context, rec *domain.NotificationRecord) error
	ListNotificationsBefore(ctx context.Context, cutoff time.Time) ([]domain.NotificationRecord, error)
	PurgeNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*sqlstore.Store)(nil)
	_ Store = (*dynamo.Store)(nil)
	_ Store = (*memory.Store)(nil)
)

// OpenStore connects the backend selected by STORE_DRIVER and brings its
// schema up to date.
func OpenStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (Store, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres, config.StoreSQLite:
		driver, dsn := sqlstore.DriverPostgres, cfg.DatabaseURL
		if cfg.StoreDriver == config.StoreSQLite {
			driver, dsn = sqlstore.DriverSQLite, cfg.DBPath
		}
		st, err := sqlstore.Open(ctx, driver, dsn, cfg.DBMaxConns)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
		log.Info("sql store ready", zap.String("driver", driver))
		return st, nil
	case config.StoreDynamo:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("dynamodb client: %w", err)
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables, log)
		log.Info("dynamodb store ready", zap.String("endpoint", cfg.AWSEndpointURL))
		return dynamo.NewStore(client, cfg.DynamoTables), nil
	case config.StoreMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewPusher picks the outbound gateway for dispatch. Replies always go
// through LINE because reply tokens are only valid there.
func NewPusher(ctx context.Context, cfg *config.Config, lineClient *line.Client) (dispatch.Pusher, error) {
	switch cfg.MessagingProvider {
	case config.ProviderSNS:
		s, err := sns.NewSender(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("sns sender: %w", err)
		}
		return s, nil
	case config.ProviderLINE:
		return lineClient, nil
	default:
		return nil, fmt.Errorf("unknown messaging provider %q", cfg.MessagingProvider)
	}
}

// NewDeduper returns a Redis-backed de-dup store when REDIS_ADDR is set and
// an in-process cache otherwise. The returned func releases it.
func NewDeduper(ctx context.Context, cfg *config.Config, log *zap.Logger) (binding.Deduper, func(), error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			// De-dup fails open, so an unreachable Redis only costs duplicate replies.
			log.Warn("redis unreachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		return dedup.NewRedis(client, cfg.DedupTTL), func() { _ = client.Close() }, nil
	}
	l, err := dedup.NewLocal(localDedupEntries, cfg.DedupTTL)
	if err != nil {
		return nil, nil, err
	}
	return l, l.Close, nil
}

// NewArchiver returns nil when no archive bucket is configured.
func NewArchiver(ctx context.Context, cfg *config.Config) (ledger.Archiver, error) {
	if cfg.S3ArchiveBucket == "" {
		return nil, nil
	}
	client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return s3infra.NewStore(client, cfg.S3ArchiveBucket), nil
}

// App holds every assembled service.
type App struct {
	Store      Store
	Line       *line.Client
	Apartments apartment.Service
	Dispatch   dispatch.Service
	Binding    binding.Service
	Ledger     ledger.Service
	Auth       auth.Service

	closers []func()
}

// New opens the store and builds all services on top of it.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	st, err := OpenStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	app := &App{Store: st}
	app.closers = append(app.closers, func() {
		if err := st.Close(); err != nil {
			log.Warn("close store", zap.Error(err))
		}
	})

	if err := app.wire(ctx, cfg, log); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	a.Line = line.NewClient(cfg.ChannelAccessToken, cfg.ChannelSecret, cfg.LineAPIEndpoint, cfg.GatewayTimeout)

	pusher, err := NewPusher(ctx, cfg, a.Line)
	if err != nil {
		return err
	}
	deduper, release, err := NewDeduper(ctx, cfg, log)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, release)
	archiver, err := NewArchiver(ctx, cfg)
	if err != nil {
		return err
	}

	authDeps := auth.ServiceDeps{Username: cfg.AdminUser, Password: cfg.AdminPass, Log: log.Named("auth")}
	if cfg.AdminJWTSecret != "" {
		p, err := jwtinfra.NewProvider(cfg.AdminJWTSecret, cfg.JWTExpiry)
		if err != nil {
			return err
		}
		authDeps.Tokens = p
	}

	a.Apartments = apartment.NewService(a.Store, log.Named("apartment"))
	a.Dispatch = dispatch.NewService(dispatch.ServiceDeps{
		Store:       a.Store,
		Pusher:      pusher,
		Concurrency: cfg.DispatchConcurrency,
		Log:         log.Named("dispatch"),
	})
	a.Binding = binding.NewService(binding.ServiceDeps{
		Store:   a.Store,
		Replier: a.Line,
		Dedup:   deduper,
		Log:     log.Named("binding"),
	})
	a.Ledger = ledger.NewService(ledger.ServiceDeps{
		Store:    a.Store,
		Archiver: archiver,
		Log:      log.Named("ledger"),
	})
	a.Auth = auth.NewService(authDeps)
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
