package api

import (
	"karma_server/api/admin"
	"karma_server/api/catalog"
	"karma_server/api/health"
	"karma_server/api/middleware"
	"karma_server/api/payments"
	"karma_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type routerManager struct {
	catalogRoutes *catalog.CatalogRoutesManager
	healthRoutes  *health.HealthRoutesManager
	adminRoutes   *admin.AdminRoutesManager
	paymentRoutes *payments.PaymentRoutesManager
}

func NewRouterManager(logger *gecho.Logger, sm *services.ServiceManager, mw *middleware.Middleware) *routerManager {
	return &routerManager{
		catalogRoutes: catalog.NewCatalogRoutesManager(logger, sm.CatalogService),
		healthRoutes:  health.NewHealthRoutesManager(sm.HealthService),
		adminRoutes:   admin.NewAdminRoutesManager(logger, sm.AdminService, mw),
		paymentRoutes: payments.NewPaymentRoutesManager(logger, sm.PaymentService),
	}
}

func (rm *routerManager) RegisterRoutes(r chi.Router) {
	rm.catalogRoutes.RegisterRoutes(r)
	rm.healthRoutes.RegisterRoutes(r)
	rm.adminRoutes.RegisterRoutes(r)
	rm.paymentRoutes.RegisterRoutes(r)
}
