package admin

import (
	"net/http"

	"karma_server/api/middleware"
	"karma_server/handling"
	"karma_server/lib"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
)

func (ar *AdminRoutesManager) CreateCategory(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.NameRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	category, err := ar.adminService.CreateCategory(r.Context(), middleware.ActorID(r.Context()), body.Name)
	if err != nil {
		handling.HandleError(err, "Failed to create category", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(category),
		gecho.WithMessage("Category created successfully"),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid category id", ar.logger, w)
		return
	}
	body, err := lib.ExtractAndValidateBody[structs.NameRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	if err := ar.adminService.RenameCategory(r.Context(), middleware.ActorID(r.Context()), id, body.Name); err != nil {
		handling.HandleError(err, "Failed to rename category", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Category renamed successfully"), gecho.Send())
}

func (ar *AdminRoutesManager) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid category id", ar.logger, w)
		return
	}

	if err := ar.adminService.DeleteCategory(r.Context(), middleware.ActorID(r.Context()), id); err != nil {
		handling.HandleError(err, "Failed to delete category", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Category deleted successfully"), gecho.Send())
}

func (ar *AdminRoutesManager) CreateTitle(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.CreateTitleRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	title, err := ar.adminService.CreateTitle(r.Context(), middleware.ActorID(r.Context()), body.CategoryID, body.Name)
	if err != nil {
		handling.HandleError(err, "Failed to create title", ar.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(title),
		gecho.WithMessage("Title created successfully"),
		gecho.Send(),
	)
}

func (ar *AdminRoutesManager) RenameTitle(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid title id", ar.logger, w)
		return
	}
	body, err := lib.ExtractAndValidateBody[structs.NameRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	if err := ar.adminService.RenameTitle(r.Context(), middleware.ActorID(r.Context()), id, body.Name); err != nil {
		handling.HandleError(err, "Failed to rename title", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Title renamed successfully"), gecho.Send())
}

func (ar *AdminRoutesManager) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseID(r, "id")
	if err != nil {
		handling.HandleError(err, "Invalid title id", ar.logger, w)
		return
	}

	if err := ar.adminService.DeleteTitle(r.Context(), middleware.ActorID(r.Context()), id); err != nil {
		handling.HandleError(err, "Failed to delete title", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("Title deleted successfully"), gecho.Send())
}
