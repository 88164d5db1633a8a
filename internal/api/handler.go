package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"panel-backend/internal/account"
	"panel-backend/internal/analytics"
	"panel-backend/internal/approvals"
	"panel-backend/internal/coupons"
	"panel-backend/internal/deploy"
	"panel-backend/internal/store"
	"panel-backend/internal/tickets"
)

// Services bundles the domain services the handlers call into.
type Services struct {
	Accounts  *account.Service
	Approvals *approvals.Service
	Analytics *analytics.Service
	Coupons   *coupons.Service
	Deploy    *deploy.Service
	Tickets   *tickets.Service
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	webpush *webpush.Options
	Services
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, webpushOptions *webpush.Options, services Services) *Handler {
	return &Handler{
		store:    s,
		webpush:  webpushOptions,
		Services: services,
	}
}
