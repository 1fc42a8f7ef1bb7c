package http

import (
	"go.uber.org/zap"

	"github.com/parcel-notify/internal/application/apartment"
	"github.com/parcel-notify/internal/application/auth"
	"github.com/parcel-notify/internal/application/binding"
	"github.com/parcel-notify/internal/application/dispatch"
	"github.com/parcel-notify/internal/application/ledger"
	"github.com/parcel-notify/internal/transport/http/handler"
)

// Deps holds everything the router needs. Services are built by the
// bootstrap package; the router only maps them onto routes.
type Deps struct {
	Apartments apartment.Service
	Dispatch   dispatch.Service
	Binding    binding.Service
	Ledger     ledger.Service
	Auth       auth.Service

	// Webhook verifies signatures and decodes chat events.
	Webhook handler.EventParser
	// Health is pinged by the readiness probe.
	Health handler.Pinger

	Log *zap.Logger
}
