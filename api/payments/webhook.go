package payments

import (
	"errors"
	"net/http"

	"karma_server/handling"
	"karma_server/lib"
	"karma_server/structs"

	"github.com/MonkyMars/gecho"
)

// Webhook accepts gateway notifications. The body is only used to find the
// payment; its status is always re-read from the gateway.
func (pr *PaymentRoutesManager) Webhook(w http.ResponseWriter, r *http.Request) {
	notification, err := lib.ExtractAndValidatePayload[structs.PaymentNotification](r)
	if err != nil {
		handling.HandleError(err, "Invalid notification", pr.logger, w)
		return
	}

	err = pr.paymentService.HandleNotification(r.Context(), notification)
	if errors.Is(err, lib.ErrNotFound) {
		// unknown payments are acknowledged so the gateway stops redelivering
		pr.logger.Warn("Notification for unknown payment",
			gecho.Field("payment_id", notification.Object.ID),
		)
		err = nil
	}
	if err != nil {
		handling.HandleError(err, "Failed to process notification", pr.logger, w)
		return
	}

	gecho.Success(w, gecho.WithMessage("ok"), gecho.Send())
}
