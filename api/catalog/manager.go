package catalog

import (
	"karma_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type CatalogRoutesManager struct {
	logger         *gecho.Logger
	catalogService *services.CatalogService
}

func NewCatalogRoutesManager(logger *gecho.Logger, catalogService *services.CatalogService) *CatalogRoutesManager {
	return &CatalogRoutesManager{
		logger:         logger,
		catalogService: catalogService,
	}
}

func (cr *CatalogRoutesManager) RegisterRoutes(r chi.Router) {
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/categories", cr.ListCategories)
		r.Get("/categories/{id}/titles", cr.ListTitles)
		r.Get("/titles/{id}/products", cr.ListProducts)
		r.Get("/products/{id}/sizes", cr.ListProductSizes)
	})
}
