package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/parcel-notify/internal/config"
	"github.com/parcel-notify/internal/transport/http/handler"
	appmiddleware "github.com/parcel-notify/internal/transport/http/middleware"
)

// Router is the application HTTP handler. Drain must be called after the
// server stops accepting requests.
type Router struct {
	http.Handler
	webhook  *handler.WebhookHandler
	limiters []*appmiddleware.RateLimiter
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) *Router {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(log.Named("http")))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 for login and admin; webhook bursts are larger.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	adminRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	webhookRL := appmiddleware.NewRateLimiter(rate.Limit(20), 50)
	adminOnly := appmiddleware.AdminAuth(deps.Auth, log.Named("auth"))

	healthH := handler.NewHealthHandler(deps.Health)
	webhookH := handler.NewWebhookHandler(deps.Webhook, deps.Binding, log.Named("webhook"))
	sessionH := handler.NewSessionHandler(deps.Auth, log)
	apartmentH := handler.NewApartmentHandler(deps.Apartments, log)
	notifyH := handler.NewNotifyHandler(deps.Dispatch, log)
	cleanupH := handler.NewCleanupHandler(deps.Ledger, log)

	// ── Public routes (no auth) ──────────────────────────────────────────
	r.Get("/health", healthH.Live)
	r.Get("/health/ready", healthH.Ready)
	r.With(webhookRL.Limit).Post("/webhook", webhookH.Receive)

	r.Route("/api", func(r chi.Router) {
		r.With(sensitiveRL.Limit).Post("/sessions", sessionH.Login)

		// ── Admin routes ─────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(adminRL.Limit)
			r.Use(adminOnly)

			r.Get("/apartments", apartmentH.List)
			r.Post("/apartments", apartmentH.Create)
			r.Delete("/apartments/{key}", apartmentH.Delete)
			r.Post("/notify", notifyH.Notify)
			r.Post("/admin/cleanup", cleanupH.Cleanup)
		})
	})

	return &Router{
		Handler:  r,
		webhook:  webhookH,
		limiters: []*appmiddleware.RateLimiter{sensitiveRL, adminRL, webhookRL},
	}
}

// Drain waits for background webhook work and stops limiter cleanup.
func (rt *Router) Drain() {
	rt.webhook.Wait()
	for _, l := range rt.limiters {
		l.Stop()
	}
}
