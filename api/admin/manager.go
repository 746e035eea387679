package admin

import (
	"karma_server/api/middleware"
	"karma_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type AdminRoutesManager struct {
	logger       *gecho.Logger
	adminService *services.AdminService
	mw           *middleware.Middleware
}

func NewAdminRoutesManager(logger *gecho.Logger, adminService *services.AdminService, mw *middleware.Middleware) *AdminRoutesManager {
	return &AdminRoutesManager{
		logger:       logger,
		adminService: adminService,
		mw:           mw,
	}
}

func (ar *AdminRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(ar.mw.AdminAuthMiddleware)

		r.Post("/categories", ar.CreateCategory)
		r.Put("/categories/{id}", ar.RenameCategory)
		r.Delete("/categories/{id}", ar.DeleteCategory)

		r.Post("/titles", ar.CreateTitle)
		r.Put("/titles/{id}", ar.RenameTitle)
		r.Delete("/titles/{id}", ar.DeleteTitle)
		r.Get("/titles/{id}/products", ar.ListProducts)

		r.Post("/products", ar.CreateProduct)
		r.Put("/products/{id}", ar.RenameProduct)
		r.Put("/products/{id}/photo", ar.SetProductPhoto)
		r.Post("/products/{id}/active", ar.ToggleProductActive)
		r.Delete("/products/{id}", ar.DeleteProduct)

		r.Get("/sizes", ar.ListSizes)
		r.Post("/sizes", ar.CreateSize)
		r.Post("/sizes/seed", ar.SeedSizes)
		r.Put("/sizes/{id}", ar.RenameSize)
		r.Put("/sizes/{id}/price", ar.UpdateSizePrice)
		r.Delete("/sizes/{id}", ar.DeleteSize)

		r.Post("/links", ar.LinkProductSize)
		r.Delete("/links", ar.UnlinkProductSize)

		r.Get("/orders", ar.ListOrders)
		r.Get("/orders/{id}", ar.GetOrder)
		r.Put("/orders/{id}/status", ar.UpdateOrderStatus)

		r.Get("/stats", ar.GetStats)

		r.Get("/settings", ar.GetSettings)
		r.Put("/settings", ar.UpdateSettings)
	})
}
