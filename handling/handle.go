package handling

import (
	"errors"
	"net/http"

	"karma_server/lib"

	"github.com/MonkyMars/gecho"
)

// HandleError translates service errors into gecho responses. Unknown errors
// are logged and answered with msg as a 500.
func HandleError(err error, msg string, logger *gecho.Logger, w http.ResponseWriter) error {
	switch {
	case errors.Is(err, lib.ErrNotFound):
		return gecho.NotFound(w, gecho.WithMessage(err.Error())).Send()
	case errors.Is(err, lib.ErrValidation),
		errors.Is(err, lib.ErrEmptyCart),
		errors.Is(err, lib.ErrNoPendingInput):
		return gecho.BadRequest(w, gecho.WithMessage(err.Error())).Send()
	case errors.Is(err, lib.ErrDuplicate),
		errors.Is(err, lib.ErrInvalidTransition),
		errors.Is(err, lib.ErrOrderInProgress):
		return gecho.Conflict(w, gecho.WithMessage(err.Error())).Send()
	case errors.Is(err, lib.ErrForbidden):
		return gecho.Forbidden(w, gecho.WithMessage("Access denied")).Send()
	case errors.Is(err, lib.ErrInvalidToken), errors.Is(err, lib.ErrExpiredToken):
		return gecho.Unauthorized(w, gecho.WithMessage("Invalid or missing access token")).Send()
	case errors.Is(err, lib.ErrExternalService):
		logger.Warn("External service failed", gecho.Field("error", err), gecho.Field("msg", msg))
		return gecho.ServiceUnavailable(w, gecho.WithMessage("Payment provider is unavailable, please try again later")).Send()
	}

	logger.Error("An error occurred", gecho.Field("error", err), gecho.Field("msg", msg), gecho.WithCallerSkip(3))
	return gecho.InternalServerError(w, gecho.WithMessage(msg)).Send()
}
