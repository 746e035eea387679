package admin

import (
	"net/http"

	"karma_server/api/middleware"
	"karma_server/handling"
	"karma_server/lib"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
)

// ListProducts includes inactive products, unlike the public catalog
func (ar *AdminRoutesManager) ListProducts(w http.ResponseWriter, r *http.Request) {
	titleID, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid title id", ar.logger, w)
		return
	}

	products, err := ar.adminService.ListProducts(r.Context(), middleware.ActorID(r.Context()), titleID)
	if err != nil {
		handling.HandleError(err, "Failed to list products", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(products), gecho.Send())
}

func (ar *AdminRoutesManager) CreateProduct(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.CreateProductRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	product, err := ar.adminService.CreateProduct(r.Context(), middleware.ActorID(r.Context()), body.TitleID, body.Name, body.PhotoRef)
	if err != nil {
		handling.HandleError(err, "Failed to create product", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(product),
		gecho.WithMessage("Product created successfully"),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) RenameProduct(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid product id", ar.logger, w)
		return
	}
	body, err := lib.ExtractAndValidateBody[structs.NameRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	if err := ar.adminService.RenameProduct(r.Context(), middleware.ActorID(r.Context()), id, body.Name); err != nil {
		handling.HandleError(err, "Failed to rename product", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Product renamed successfully"), gecho.Send())
}

func (ar *AdminRoutesManager) SetProductPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid product id", ar.logger, w)
		return
	}
	body, err := lib.ExtractAndValidateBody[structs.PhotoRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	if err := ar.adminService.SetProductPhoto(r.Context(), middleware.ActorID(r.Context()), id, body.PhotoRef); err != nil {
		handling.HandleError(err, "Failed to update product photo", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Product photo updated successfully"), gecho.Send())
}

func (ar *AdminRoutesManager) ToggleProductActive(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid product id", ar.logger, w)
		return
	}

	active, err := ar.adminService.ToggleProductActive(r.Context(), middleware.ActorID(r.Context()), id)
	if err != nil {
		handling.HandleError(err, "Failed to toggle product", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(map[string]bool{"is_active": active}),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid product id", ar.logger, w)
		return
	}

	if err := ar.adminService.DeleteProduct(r.Context(), middleware.ActorID(r.Context()), id); err != nil {
		handling.HandleError(err, "Failed to delete product", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Product deleted successfully"), gecho.Send())
}
