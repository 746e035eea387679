package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"karma_server/lib"
	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/MonkyMars/gecho"
)

// PaidHook is called once per order when it moves to paid
type PaidHook func(ctx context.Context, order *tables.Order)

// PaymentService ties the gateway to order persistence
type PaymentService struct {
	logger  *gecho.Logger
	cfg     *structs.PaymentConfig
	gateway PaymentGateway
	orders  *OrderService
	email   *EmailService

	mu    sync.RWMutex
	hooks []PaidHook
}

func NewPaymentService(logger *gecho.Logger, cfg *structs.Config, gateway PaymentGateway, orders *OrderService, email *EmailService) *PaymentService {
	return &PaymentService{
		logger:  logger,
		cfg:     cfg.Payment,
		gateway: gateway,
		orders:  orders,
		email:   email,
	}
}

// OnPaid registers a hook run after an order transitions to paid
func (ps *PaymentService) OnPaid(hook PaidHook) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.hooks = append(ps.hooks, hook)
}

// CreateLink requests a payment for a pending order and stores it on the order
func (ps *PaymentService) CreateLink(ctx context.Context, order *tables.Order, idempotencyKey string) (*structs.Payment, error) {
	description := fmt.Sprintf("Заказ #%d", order.ID)

	payment, err := ps.gateway.CreatePayment(ctx, order.TotalPrice, description, idempotencyKey)
	if err != nil {
		return nil, err
	}

	if err := ps.orders.AttachPayment(ctx, order.ID, payment.ID, payment.ConfirmationURL); err != nil {
		return nil, err
	}
	order.PaymentID = payment.ID
	order.PaymentURL = payment.ConfirmationURL

	return payment, nil
}

// Confirm reads the remote status and marks the order paid when it succeeded.
// Any other status leaves the order untouched.
func (ps *PaymentService) Confirm(ctx context.Context, orderID int64, paymentID string) (structs.PaymentStatus, error) {
	status, err := ps.gateway.GetPaymentStatus(ctx, paymentID)
	if err != nil {
		return "", err
	}
	if status != structs.PaymentStatusSucceeded {
		ps.logger.Debug("Payment not settled yet",
			gecho.Field("order_id", orderID),
			gecho.Field("payment_id", paymentID),
			gecho.Field("status", status),
		)
		return status, nil
	}

	changed, err := ps.orders.MarkPaid(ctx, orderID)
	if err != nil {
		return status, err
	}
	if changed {
		ps.afterPaid(ctx, orderID)
	}
	return status, nil
}

func (ps *PaymentService) afterPaid(ctx context.Context, orderID int64) {
	order, err := ps.orders.GetByID(ctx, orderID)
	if err != nil {
		ps.logger.Error("Failed to load paid order", gecho.Field("error", err), gecho.Field("order_id", orderID))
		return
	}

	if err := ps.email.SendOrderPaidEmail(order); err != nil {
		ps.logger.Warn("Failed to notify operators", gecho.Field("error", err), gecho.Field("order_id", orderID))
	}

	ps.mu.RLock()
	hooks := append([]PaidHook(nil), ps.hooks...)
	ps.mu.RUnlock()
	for _, hook := range hooks {
		hook(ctx, order)
	}
}

// HandleNotification processes a gateway callback. The payload is not trusted,
// the status is always re-read from the gateway.
func (ps *PaymentService) HandleNotification(ctx context.Context, notification *structs.PaymentNotification) error {
	paymentID := notification.Object.ID
	order, err := ps.orders.GetByPaymentID(ctx, paymentID)
	if err != nil {
		return err
	}
	if !IsUnsettled(order) {
		return nil
	}

	status, err := ps.Confirm(ctx, order.ID, paymentID)
	if err != nil {
		return err
	}
	ps.logger.Info("Payment notification handled",
		gecho.Field("order_id", order.ID),
		gecho.Field("payment_id", paymentID),
		gecho.Field("event", notification.Event),
		gecho.Field("status", status),
	)
	return nil
}

// ReconcilePending re-checks recent unpaid orders that have a payment, cancelled
// ones included, and returns how many of them were marked paid
func (ps *PaymentService) ReconcilePending(ctx context.Context) (int, error) {
	maxAge := ps.cfg.ReconcileMaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	orders, err := ps.orders.ListAwaitingPayment(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	paid := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			return paid, ctx.Err()
		}
		status, err := ps.Confirm(ctx, order.ID, order.PaymentID)
		if err != nil {
			// a single unreachable payment must not stop the sweep
			if errors.Is(err, lib.ErrExternalService) || errors.Is(err, lib.ErrNotFound) {
				ps.logger.Warn("Skipping payment during reconciliation",
					gecho.Field("error", err),
					gecho.Field("order_id", order.ID),
				)
				continue
			}
			return paid, err
		}
		if status == structs.PaymentStatusSucceeded {
			paid++
		}
	}

	if paid > 0 {
		ps.logger.Info("Reconciled payments", gecho.Field("paid", paid), gecho.Field("checked", len(orders)))
	}
	return paid, nil
}

// StartReconciler runs ReconcilePending on an interval until ctx is done.
// It does nothing unless reconciliation is enabled.
func (ps *PaymentService) StartReconciler(ctx context.Context) {
	if !ps.cfg.ReconcileEnabled {
		return
	}
	interval := ps.cfg.ReconcileInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		ps.logger.Info("Payment reconciler started", gecho.Field("interval", interval.String()))
		for {
			select {
			case <-ctx.Done():
				ps.logger.Info("Payment reconciler stopped")
				return
			case <-ticker.C:
				if _, err := ps.ReconcilePending(ctx); err != nil && !errors.Is(err, context.Canceled) {
					ps.logger.Error("Payment reconciliation failed", gecho.Field("error", err))
				}
			}
		}
	}()
}
