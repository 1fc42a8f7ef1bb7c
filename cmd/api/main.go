package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/parcel-notify/internal/bootstrap"
	"github.com/parcel-notify/internal/config"
	"github.com/parcel-notify/internal/pkg/logger"
	transporthttp "github.com/parcel-notify/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "parcel-notify")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := cfg.Validate(); err != nil {
		zlog.Fatal("invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()

	if cfg.SeedFile != "" {
		res, err := app.Apartments.LoadSeedFile(ctx, cfg.SeedFile)
		if err != nil {
			zlog.Fatal("seed file", zap.String("path", cfg.SeedFile), zap.Error(err))
		}
		zlog.Info("seed file loaded", zap.Int("inserted", res.Inserted), zap.Int("existing", res.Existing))
	}
	if _, err := app.Apartments.SeedDefaults(ctx); err != nil {
		zlog.Fatal("seed defaults", zap.Error(err))
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Apartments: app.Apartments,
		Dispatch:   app.Dispatch,
		Binding:    app.Binding,
		Ledger:     app.Ledger,
		Auth:       app.Auth,
		Webhook:    app.Line,
		Health:     app.Store,
		Log:        zlog,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("server starting",
			zap.String("port", cfg.AppPort),
			zap.String("env", cfg.AppEnv),
			zap.String("store", cfg.StoreDriver),
			zap.String("provider", cfg.MessagingProvider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("forced shutdown", zap.Error(err))
	}
	// In-flight webhook events still need the store and gateways.
	router.Drain()
	zlog.Info("server stopped")
}
