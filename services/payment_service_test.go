package services

import (
	"context"
	"testing"
	"time"

	"karma_server/lib"
	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOrderWithPayment(t *testing.T, env *testEnv) *tables.Order {
	t.Helper()
	ctx := context.Background()
	order, err := env.services.OrderService.CreatePendingOrder(ctx, testDraft(1, 1))
	require.NoError(t, err)
	_, err = env.services.PaymentService.CreateLink(ctx, order, "key")
	require.NoError(t, err)
	return order
}

func TestReconcilePending(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	payments := env.services.PaymentService

	var hooked []int64
	payments.OnPaid(func(_ context.Context, order *tables.Order) {
		hooked = append(hooked, order.ID)
	})

	settled := pendingOrderWithPayment(t, env)
	waiting := pendingOrderWithPayment(t, env)
	env.gateway.setStatus(settled.PaymentID, structs.PaymentStatusSucceeded)

	paid, err := payments.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, paid)
	assert.Equal(t, []int64{settled.ID}, hooked)

	order, err := env.services.OrderService.GetByID(ctx, waiting.ID)
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusPending, order.Status)

	// already paid orders are not listed again
	paid, err = payments.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Zero(t, paid)
	assert.Len(t, hooked, 1)
}

func TestReconcileSkipsUnreachablePayments(t *testing.T) {
	env := newTestEnv(t)
	pendingOrderWithPayment(t, env)
	env.gateway.statusErr = lib.ErrExternalService

	paid, err := env.services.PaymentService.ReconcilePending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, paid)
}

func TestHandleNotificationRechecksGateway(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	payments := env.services.PaymentService
	order := pendingOrderWithPayment(t, env)

	notification := &structs.PaymentNotification{Type: "notification", Event: "payment.succeeded"}
	notification.Object.ID = order.PaymentID
	notification.Object.Status = "succeeded"

	// the gateway still says pending, so the payload is not trusted
	require.NoError(t, payments.HandleNotification(ctx, notification))
	stored, err := env.services.OrderService.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusPending, stored.Status)

	env.gateway.setStatus(order.PaymentID, structs.PaymentStatusSucceeded)
	require.NoError(t, payments.HandleNotification(ctx, notification))
	stored, err = env.services.OrderService.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusPaid, stored.Status)

	notification.Object.ID = "unknown"
	assert.ErrorIs(t, payments.HandleNotification(ctx, notification), lib.ErrNotFound)
}

func TestStartReconcilerDisabledIsNoop(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	env.services.PaymentService.StartReconciler(ctx)
	<-ctx.Done()
}

// cancelAfterCheckout leaves a cancelled order whose payment link was issued
func cancelAfterCheckout(t *testing.T, env *testEnv) *tables.Order {
	t.Helper()
	ctx := context.Background()
	checkout := env.services.CheckoutService
	productID, sizeIDs := env.seedCatalog(t)

	_, err := checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[0])
	require.NoError(t, err)
	_, err = checkout.ChooseDelivery(ctx, buyerID, "post")
	require.NoError(t, err)
	res, err := checkout.ConfirmOrder(ctx, buyerID)
	require.NoError(t, err)
	_, err = checkout.Cancel(ctx, buyerID)
	require.NoError(t, err)

	order, err := env.services.OrderService.GetByID(ctx, res.Order.ID)
	require.NoError(t, err)
	require.Equal(t, tables.OrderStatusCancelled, order.Status)
	require.NotEmpty(t, order.PaymentID)
	return order
}

func TestNotificationSettlesCancelledOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(cfg *structs.Config) { cfg.Shop.CollectCustomerDetails = false })
	payments := env.services.PaymentService

	var hooked []int64
	payments.OnPaid(func(_ context.Context, order *tables.Order) {
		hooked = append(hooked, order.ID)
	})

	order := cancelAfterCheckout(t, env)
	env.gateway.setStatus(order.PaymentID, structs.PaymentStatusSucceeded)

	notification := &structs.PaymentNotification{Type: "notification", Event: "payment.succeeded"}
	notification.Object.ID = order.PaymentID
	require.NoError(t, payments.HandleNotification(ctx, notification))

	stored, err := env.services.OrderService.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusPaid, stored.Status)
	assert.Equal(t, []int64{order.ID}, hooked)

	// a repeated notification changes nothing
	require.NoError(t, payments.HandleNotification(ctx, notification))
	assert.Len(t, hooked, 1)
}

func TestReconcileSettlesCancelledOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(cfg *structs.Config) { cfg.Shop.CollectCustomerDetails = false })
	payments := env.services.PaymentService

	var hooked []int64
	payments.OnPaid(func(_ context.Context, order *tables.Order) {
		hooked = append(hooked, order.ID)
	})

	order := cancelAfterCheckout(t, env)

	// an unpaid cancelled order stays cancelled
	paid, err := payments.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Zero(t, paid)

	env.gateway.setStatus(order.PaymentID, structs.PaymentStatusSucceeded)
	paid, err = payments.ReconcilePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, paid)
	assert.Equal(t, []int64{order.ID}, hooked)

	stored, err := env.services.OrderService.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusPaid, stored.Status)
}
