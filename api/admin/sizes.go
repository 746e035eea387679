package admin

import (
	"net/http"

	"karma_server/api/middleware"
	"karma_server/handling"
	"karma_server/lib"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
)

func (ar *AdminRoutesManager) ListSizes(w http.ResponseWriter, r *http.Request) {
	sizes, err := ar.adminService.ListSizes(r.Context(), middleware.ActorID(r.Context()))
	if err != nil {
		handling.HandleError(err, "Failed to list sizes", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(sizes), gecho.Send())
}

func (ar *AdminRoutesManager) CreateSize(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.CreateSizeRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}
	price, err := lib.ParsePrice(body.Price)
	if err != nil {
		handling.HandleError(err, "Invalid price", ar.logger, w)
		return
	}

	size, err := ar.adminService.CreateSize(r.Context(), middleware.ActorID(r.Context()), body.Name, price)
	if err != nil {
		handling.HandleError(err, "Failed to create size", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(size),
		gecho.WithMessage("Size created successfully"),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) SeedSizes(w http.ResponseWriter, r *http.Request) {
	created, err := ar.adminService.SeedDefaultSizes(r.Context(), middleware.ActorID(r.Context()))
	if err != nil {
		handling.HandleError(err, "Failed to seed sizes", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(map[string]int{"created": created}),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) RenameSize(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid size id", ar.logger, w)
		return
	}
	body, err := lib.ExtractAndValidateBody[structs.NameRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	if err := ar.adminService.RenameSize(r.Context(), middleware.ActorID(r.Context()), id, body.Name); err != nil {
		handling.HandleError(err, "Failed to rename size", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Size renamed successfully"), gecho.Send())
}

func (ar *AdminRoutesManager) UpdateSizePrice(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid size id", ar.logger, w)
		return
	}
	body, err := lib.ExtractAndValidateBody[structs.PriceRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}
	price, err := lib.ParsePrice(body.Price)
	if err != nil {
		handling.HandleError(err, "Invalid price", ar.logger, w)
		return
	}

	if err := ar.adminService.UpdateSizePrice(r.Context(), middleware.ActorID(r.Context()), id, price); err != nil {
		handling.HandleError(err, "Failed to update size price", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Size price updated successfully"), gecho.Send())
}

func (ar *AdminRoutesManager) DeleteSize(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid size id", ar.logger, w)
		return
	}

	if err := ar.adminService.DeleteSize(r.Context(), middleware.ActorID(r.Context()), id); err != nil {
		handling.HandleError(err, "Failed to delete size", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Size deleted successfully"), gecho.Send())
}

func (ar *AdminRoutesManager) LinkProductSize(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.LinkRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	if err := ar.adminService.LinkProductSize(r.Context(), middleware.ActorID(r.Context()), body.ProductID, body.SizeID); err != nil {
		handling.HandleError(err, "Failed to link size", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Size linked successfully"), gecho.Send())
}

func (ar *AdminRoutesManager) UnlinkProductSize(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.LinkRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	if err := ar.adminService.UnlinkProductSize(r.Context(), middleware.ActorID(r.Context()), body.ProductID, body.SizeID); err != nil {
		handling.HandleError(err, "Failed to unlink size", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Size unlinked successfully"), gecho.Send())
}
