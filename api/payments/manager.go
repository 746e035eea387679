package payments

import (
	"karma_server/services"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

type PaymentRoutesManager struct {
	logger         *gecho.Logger
	paymentService *services.PaymentService
}

func NewPaymentRoutesManager(logger *gecho.Logger, paymentService *services.PaymentService) *PaymentRoutesManager {
	return &PaymentRoutesManager{
		logger:         logger,
		paymentService: paymentService,
	}
}

func (pr *PaymentRoutesManager) RegisterRoutes(r chi.Router) {
	r.Post("/payments/webhook", pr.Webhook)
}
