package services

import (
	"context"
	"fmt"
	"testing"

	"karma_server/lib"
	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buyerID int64 = 1001

func TestCheckoutWithCustomerDetails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	checkout := env.services.CheckoutService
	productID, sizeIDs := env.seedCatalog(t)

	res, err := checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[0])
	require.NoError(t, err)
	assert.Equal(t, structs.StateWaitingName, res.State)
	assert.True(t, res.Session.Subtotal.Equal(decimal.NewFromInt(2490)))
	assert.True(t, res.Session.Discount.Equal(decimal.NewFromInt(249)))

	// invalid input keeps the state
	res, err = checkout.SubmitText(ctx, buyerID, "Иван")
	assert.ErrorIs(t, err, lib.ErrValidation)
	assert.Equal(t, structs.StateWaitingName, res.State)

	res, err = checkout.SubmitText(ctx, buyerID, "Иван Петров")
	require.NoError(t, err)
	assert.Equal(t, structs.StateWaitingPhone, res.State)

	_, err = checkout.SubmitText(ctx, buyerID, "+799912345")
	assert.ErrorIs(t, err, lib.ErrValidation)
	res, err = checkout.SubmitText(ctx, buyerID, "+79991234567")
	require.NoError(t, err)
	assert.Equal(t, structs.StateWaitingAddress, res.State)

	_, err = checkout.SubmitText(ctx, buyerID, "Москва")
	assert.ErrorIs(t, err, lib.ErrValidation)
	res, err = checkout.SubmitText(ctx, buyerID, "Москва, ул. Ленина 1, кв. 5, 101000")
	require.NoError(t, err)
	assert.Equal(t, structs.StateChoosingDelivery, res.State)
	assert.Len(t, res.Methods, 2)

	_, err = checkout.ChooseDelivery(ctx, buyerID, "teleport")
	assert.ErrorIs(t, err, lib.ErrValidation)

	res, err = checkout.ChooseDelivery(ctx, buyerID, "post")
	require.NoError(t, err)
	assert.Equal(t, structs.StateConfirmingOrder, res.State)
	assert.Equal(t, "2751", DisplayPrice(res.Session.FinalPrice))

	res, err = checkout.ConfirmOrder(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, structs.StateAwaitingPayment, res.State)
	require.NotNil(t, res.Order)
	assert.Equal(t, "https://pay.example/pay-1", res.Session.PaymentURL)
	assert.True(t, env.gateway.amounts[0].Equal(decimal.NewFromInt(2751)))

	order, err := env.services.OrderService.GetByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusPending, order.Status)
	assert.Equal(t, "pay-1", order.PaymentID)
	assert.Equal(t, "Иван Петров", order.Items[0].CustomerName)
	assert.Equal(t, "Почта России", order.DeliveryMethod)

	// not settled yet
	res, err = checkout.CheckPayment(ctx, buyerID)
	require.NoError(t, err)
	assert.False(t, res.Paid)
	assert.Equal(t, structs.StateAwaitingPayment, res.State)
	assert.Equal(t, structs.PaymentStatusPending, res.Status)

	env.gateway.setStatus("pay-1", structs.PaymentStatusWaitingForCapture)
	res, err = checkout.CheckPayment(ctx, buyerID)
	require.NoError(t, err)
	assert.False(t, res.Paid)

	order, err = env.services.OrderService.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusPending, order.Status)

	env.gateway.setStatus("pay-1", structs.PaymentStatusSucceeded)
	res, err = checkout.CheckPayment(ctx, buyerID)
	require.NoError(t, err)
	assert.True(t, res.Paid)
	assert.Equal(t, structs.StatePaid, res.State)
	assert.Equal(t, tables.OrderStatusPaid, res.Order.Status)

	session, err := checkout.Current(ctx, buyerID)
	require.NoError(t, err)
	assert.Nil(t, session, "session is cleared after payment")
}

func TestCheckoutWithoutCustomerDetails(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(cfg *structs.Config) { cfg.Shop.CollectCustomerDetails = false })
	checkout := env.services.CheckoutService
	productID, sizeIDs := env.seedCatalog(t)

	res, err := checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[0])
	require.NoError(t, err)
	assert.Equal(t, structs.StateChoosingDelivery, res.State)

	_, err = checkout.SubmitText(ctx, buyerID, "Иван Петров")
	assert.ErrorIs(t, err, lib.ErrNoPendingInput)

	res, err = checkout.ChooseDelivery(ctx, buyerID, "pickup")
	require.NoError(t, err)
	assert.True(t, res.Session.FinalPrice.Equal(decimal.NewFromInt(2241)))

	res, err = checkout.ConfirmOrder(ctx, buyerID)
	require.NoError(t, err)
	assert.Empty(t, res.Order.Items[0].CustomerName)
}

func TestSelectUnknownProductKeepsSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	checkout := env.services.CheckoutService
	productID, sizeIDs := env.seedCatalog(t)

	_, err := checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[0])
	require.NoError(t, err)

	_, err = checkout.SelectSize(ctx, buyerID, "buyer", 999, sizeIDs[0])
	assert.ErrorIs(t, err, lib.ErrNotFound)

	require.NoError(t, env.services.CatalogService.UnlinkProductSize(ctx, productID, sizeIDs[1]))
	_, err = checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[1])
	assert.ErrorIs(t, err, lib.ErrNotFound)

	session, err := checkout.Current(ctx, buyerID)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, structs.StateWaitingName, session.State)
	assert.Equal(t, sizeIDs[0], session.Items[0].SizeID)
}

func TestGatewayFailureDoesNotDuplicateOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(cfg *structs.Config) { cfg.Shop.CollectCustomerDetails = false })
	checkout := env.services.CheckoutService
	productID, sizeIDs := env.seedCatalog(t)

	_, err := checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[0])
	require.NoError(t, err)
	_, err = checkout.ChooseDelivery(ctx, buyerID, "post")
	require.NoError(t, err)

	env.gateway.createErr = fmt.Errorf("%w: boom", lib.ErrExternalService)
	_, err = checkout.ConfirmOrder(ctx, buyerID)
	assert.ErrorIs(t, err, lib.ErrExternalService)

	session, err := checkout.Current(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, structs.StateConfirmingOrder, session.State)
	firstOrder := session.OrderID
	require.NotZero(t, firstOrder)

	env.gateway.createErr = nil
	res, err := checkout.ConfirmOrder(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, firstOrder, res.Order.ID)
	assert.Equal(t, session.IdempotencyKey, env.gateway.keys[0])

	recent, err := env.services.OrderService.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestCancelMarksPendingOrderCancelled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(cfg *structs.Config) { cfg.Shop.CollectCustomerDetails = false })
	checkout := env.services.CheckoutService
	productID, sizeIDs := env.seedCatalog(t)

	_, err := checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[0])
	require.NoError(t, err)
	_, err = checkout.ChooseDelivery(ctx, buyerID, "post")
	require.NoError(t, err)
	res, err := checkout.ConfirmOrder(ctx, buyerID)
	require.NoError(t, err)

	_, err = checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[1])
	assert.ErrorIs(t, err, lib.ErrOrderInProgress)

	cancelled, err := checkout.Cancel(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, structs.StateCancelled, cancelled.State)

	order, err := env.services.OrderService.GetByID(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusCancelled, order.Status)

	session, err := checkout.Current(ctx, buyerID)
	require.NoError(t, err)
	assert.Nil(t, session)

	// cancelling without a session is harmless
	_, err = checkout.Cancel(ctx, buyerID)
	assert.NoError(t, err)
}

func TestMultiItemCart(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(cfg *structs.Config) {
		cfg.Shop.MultiItemCart = true
		cfg.Shop.CollectCustomerDetails = false
	})
	checkout := env.services.CheckoutService
	productID, sizeIDs := env.seedCatalog(t)

	_, err := checkout.StartCheckout(ctx, buyerID)
	assert.ErrorIs(t, err, lib.ErrEmptyCart)

	res, err := checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[0])
	require.NoError(t, err)
	assert.Equal(t, structs.StateSelectingSize, res.State)
	res, err = checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[1])
	require.NoError(t, err)

	cart, err := checkout.ViewCart(ctx, buyerID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(2490+4790)))

	cart, err = checkout.RemoveCartItem(ctx, buyerID, 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(2490)))

	_, err = checkout.RemoveCartItem(ctx, buyerID, 5)
	assert.ErrorIs(t, err, lib.ErrNotFound)

	res, err = checkout.StartCheckout(ctx, buyerID)
	require.NoError(t, err)
	assert.Equal(t, structs.StateChoosingDelivery, res.State)

	require.NoError(t, checkout.ClearCart(ctx, buyerID))
	cart, err = checkout.ViewCart(ctx, buyerID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestChangingDeliveryAfterFailedPaymentDropsStaleOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(cfg *structs.Config) { cfg.Shop.CollectCustomerDetails = false })
	checkout := env.services.CheckoutService
	productID, sizeIDs := env.seedCatalog(t)

	_, err := checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[0])
	require.NoError(t, err)
	_, err = checkout.ChooseDelivery(ctx, buyerID, "post")
	require.NoError(t, err)

	env.gateway.createErr = lib.ErrExternalService
	_, err = checkout.ConfirmOrder(ctx, buyerID)
	require.Error(t, err)
	session, err := checkout.Current(ctx, buyerID)
	require.NoError(t, err)
	stale := session.OrderID

	_, err = checkout.ChooseDelivery(ctx, buyerID, "pickup")
	require.NoError(t, err)

	order, err := env.services.OrderService.GetByID(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusCancelled, order.Status)
}

// flakyStore fails Save once failSave is set
type flakyStore struct {
	*MemorySessionStore
	failSave bool
}

func (fs *flakyStore) Save(ctx context.Context, session *structs.Session) error {
	if fs.failSave {
		return fmt.Errorf("session store unavailable")
	}
	return fs.MemorySessionStore.Save(ctx, session)
}

func TestConfirmCancelsOrderWhenSessionIsLost(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(cfg *structs.Config) { cfg.Shop.CollectCustomerDetails = false })
	productID, sizeIDs := env.seedCatalog(t)

	store := &flakyStore{MemorySessionStore: NewMemorySessionStore()}
	sm := env.services
	checkout := NewCheckoutService(testLogger(), env.cfg, sm.CatalogService, sm.OrderService, sm.PaymentService, store)

	_, err := checkout.SelectSize(ctx, buyerID, "buyer", productID, sizeIDs[0])
	require.NoError(t, err)
	_, err = checkout.ChooseDelivery(ctx, buyerID, "post")
	require.NoError(t, err)

	store.failSave = true
	_, err = checkout.ConfirmOrder(ctx, buyerID)
	require.Error(t, err)

	orders, err := sm.OrderService.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, tables.OrderStatusCancelled, orders[0].Status)
	assert.Empty(t, env.gateway.keys, "no payment is requested for an orphaned order")
}
