// Package httptransport is the thin HTTP layer. Handlers decode requests,
// delegate to domain services, and translate domain errors into JSON
// responses; business logic stays out of this package.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"subgate/internal/platform/health"
	"subgate/internal/platform/middleware"
)

// Handler carries the domain services the HTTP surface delegates to.
type Handler struct {
	identity     IdentityService
	catalog      CatalogService
	subscription SubscriptionService
	access       AccessService
	usage        UsageReader
	logger       *slog.Logger
}

// NewHandler constructs the HTTP handler set.
func NewHandler(
	identity IdentityService,
	catalog CatalogService,
	subscription SubscriptionService,
	access AccessService,
	usage UsageReader,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		identity:     identity,
		catalog:      catalog,
		subscription: subscription,
		access:       access,
		usage:        usage,
		logger:       logger,
	}
}

// NewRouter wires all endpoints with the middleware stack.
func NewRouter(h *Handler, auth middleware.Authenticator, checks *health.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	// Public endpoints
	r.Post("/register/", h.handleRegister)
	r.Post("/login/", h.handleLogin)

	checks.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authenticated endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(auth, logger))

		r.Put("/subscribe/", h.handleSubscribe)
		r.Get("/see-plan/", h.handleSeePlan)
		r.Get("/usage-statistics/", h.handleUsageStatistics)
		r.Get("/services/{service_name}", h.handleServiceAccess)

		// Admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logger))

			r.Put("/admin/change-plan/", h.handleAdminChangePlan)

			r.Post("/admin/create-plan/", h.handleCreatePlan)
			r.Delete("/admin/delete-plan/{name}", h.handleDeletePlan)
			r.Put("/admin/update-plan/{old_name}", h.handleUpdatePlan)

			r.Post("/admin/add-service/", h.handleAddService)
			r.Delete("/admin/delete-service/{name}", h.handleDeleteService)
			r.Put("/admin/update-service/{old_name}", h.handleUpdateService)
			r.Post("/admin/associate-service/{name}", h.handleAssociateService)
		})
	})

	return r
}
