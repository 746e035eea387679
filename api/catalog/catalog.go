package catalog

import (
	"net/http"

	"karma_server/handling"

	"github.com/MonkyMars/gecho"
)

func (cr *CatalogRoutesManager) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := cr.catalogService.ListCategories(r.Context())
	if err != nil {
		handling.HandleError(err, "Failed to list categories", cr.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(categories), gecho.Send())
}

func (cr *CatalogRoutesManager) ListTitles(w http.ResponseWriter, r *http.Request) {
	categoryID, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid category id", cr.logger, w)
		return
	}

	titles, err := cr.catalogService.ListTitles(r.Context(), categoryID)
	if err != nil {
		handling.HandleError(err, "Failed to list titles", cr.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(titles), gecho.Send())
}

// ListProducts returns one page of active products under a title
func (cr *CatalogRoutesManager) ListProducts(w http.ResponseWriter, r *http.Request) {
	titleID, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid title id", cr.logger, w)
		return
	}
	page, err := handling.ParsePage(r)
	if err != nil {
		handling.HandleError(err, "Invalid page", cr.logger, w)
		return
	}

	products, err := cr.catalogService.ListActiveProducts(r.Context(), titleID, page)
	if err != nil {
		handling.HandleError(err, "Failed to list products", cr.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(products), gecho.Send())
}

func (cr *CatalogRoutesManager) ListProductSizes(w http.ResponseWriter, r *http.Request) {
	productID, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid product id", cr.logger, w)
		return
	}

	if _, err := cr.catalogService.GetActiveProduct(r.Context(), productID); err != nil {
		handling.HandleError(err, "Failed to fetch product", cr.logger, w)
		return
	}

	sizes, err := cr.catalogService.ListProductSizes(r.Context(), productID)
	if err != nil {
		handling.HandleError(err, "Failed to list sizes", cr.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(sizes), gecho.Send())
}
