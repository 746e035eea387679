package admin

import (
	"net/http"

	"karma_server/api/middleware"
	"karma_server/handling"
	"karma_server/lib"
	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/MonkyMars/gecho"
)

func (ar *AdminRoutesManager) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := ar.adminService.GetSettings(r.Context(), middleware.ActorID(r.Context()))
	if err != nil {
		handling.HandleError(err, "Failed to fetch settings", ar.logger, w)
		return
	}

	gecho.Success(w, gecho.WithData(settings), gecho.Send())
}

// UpdateSettings applies only the fields present in the body. An empty media
// reference clears both photo and video.
func (ar *AdminRoutesManager) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, err := lib.ExtractAndValidateBody[structs.SettingsRequest](r)
	if err != nil {
		handling.HandleError(err, "Invalid request body", ar.logger, w)
		return
	}

	ctx := r.Context()
	actorID := middleware.ActorID(ctx)

	var settings *tables.Settings
	if body.DescriptionText != nil {
		if settings, err = ar.adminService.UpdateDescription(ctx, actorID, *body.DescriptionText); err != nil {
			handling.HandleError(err, "Failed to update description", ar.logger, w)
			return
		}
	}
	if (body.PhotoRef != nil && *body.PhotoRef == "") || (body.VideoRef != nil && *body.VideoRef == "") {
		if settings, err = ar.adminService.ClearDescriptionMedia(ctx, actorID); err != nil {
			handling.HandleError(err, "Failed to clear media", ar.logger, w)
			return
		}
	}
	if body.PhotoRef != nil && *body.PhotoRef != "" {
		if settings, err = ar.adminService.SetDescriptionPhoto(ctx, actorID, *body.PhotoRef); err != nil {
			handling.HandleError(err, "Failed to update photo", ar.logger, w)
			return
		}
	}
	if body.VideoRef != nil && *body.VideoRef != "" {
		if settings, err = ar.adminService.SetDescriptionVideo(ctx, actorID, *body.VideoRef); err != nil {
			handling.HandleError(err, "Failed to update video", ar.logger, w)
			return
		}
	}

	if settings == nil {
		if settings, err = ar.adminService.GetSettings(ctx, actorID); err != nil {
			handling.HandleError(err, "Failed to fetch settings", ar.logger, w)
			return
		}
	}

	gecho.Success(w,
		gecho.WithData(settings),
		gecho.WithMessage("Settings updated successfully"),
		gecho.Send(),
	)
}
