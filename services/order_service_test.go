package services

import (
	"context"
	"strings"
	"testing"

	"karma_server/database"
	"karma_server/lib"
	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDraft(productID, sizeID int64) *structs.OrderDraft {
	return &structs.OrderDraft{
		UserID:   7,
		Username: "buyer",
		Items: []tables.OrderItem{{
			ProductID:       productID,
			SizeID:          sizeID,
			ProductName:     "Какаши",
			SizeName:        "25см",
			Price:           decimal.NewFromInt(2490),
			CustomerName:    "Иван Петров",
			CustomerPhone:   "+79991234567",
			CustomerAddress: "Москва, ул. Ленина 1, кв. 5, 101000",
		}},
		DeliveryMethod: "Почта России",
		DeliveryPrice:  decimal.NewFromInt(510),
		DiscountAmount: decimal.NewFromInt(249),
		TotalPrice:     decimal.NewFromInt(2751),
	}
}

func TestOrderSnapshotSurvivesCatalogChanges(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	catalog := env.services.CatalogService
	orders := env.services.OrderService
	productID, sizeIDs := env.seedCatalog(t)

	order, err := orders.CreatePendingOrder(ctx, testDraft(productID, sizeIDs[0]))
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusPending, order.Status)

	require.NoError(t, catalog.RenameProduct(ctx, productID, "Другое имя"))
	require.NoError(t, catalog.UpdateSizePrice(ctx, sizeIDs[0], decimal.NewFromInt(9999)))
	require.NoError(t, catalog.DeleteProduct(ctx, productID))

	stored, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Какаши", stored.Items[0].ProductName)
	assert.Equal(t, "25см", stored.Items[0].SizeName)
	assert.True(t, stored.Items[0].Price.Equal(decimal.NewFromInt(2490)))
	assert.True(t, stored.TotalPrice.Equal(decimal.NewFromInt(2751)))
}

func TestCreatePendingOrderRejectsEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.services.OrderService.CreatePendingOrder(context.Background(), &structs.OrderDraft{UserID: 1})
	assert.ErrorIs(t, err, lib.ErrEmptyCart)
}

func TestOrderStatusTransitions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	orders := env.services.OrderService

	order, err := orders.CreatePendingOrder(ctx, testDraft(1, 1))
	require.NoError(t, err)

	err = orders.UpdateStatus(ctx, order.ID, tables.OrderStatusShipped)
	assert.ErrorIs(t, err, lib.ErrInvalidTransition)

	changed, err := orders.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = orders.MarkPaid(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, changed, "second confirmation must be a no-op")

	// a paid order is not cancelled
	changed, err = orders.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, orders.UpdateStatus(ctx, order.ID, tables.OrderStatusShipped))
	require.NoError(t, orders.UpdateStatus(ctx, order.ID, tables.OrderStatusDelivered))

	err = orders.UpdateStatus(ctx, order.ID, "lost")
	assert.ErrorIs(t, err, lib.ErrValidation)

	stored, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, tables.OrderStatusDelivered, stored.Status)
}

func TestCancelPendingOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	orders := env.services.OrderService

	order, err := orders.CreatePendingOrder(ctx, testDraft(1, 1))
	require.NoError(t, err)

	changed, err := orders.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	// no payment link was ever issued, so nothing can settle it
	_, err = orders.MarkPaid(ctx, order.ID)
	assert.ErrorIs(t, err, lib.ErrInvalidTransition)

	// operators cannot revive a cancelled order either
	err = orders.UpdateStatus(ctx, order.ID, tables.OrderStatusPaid)
	assert.ErrorIs(t, err, lib.ErrInvalidTransition)
}

func TestListRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	orders := env.services.OrderService

	var ids []int64
	for range 3 {
		order, err := orders.CreatePendingOrder(ctx, testDraft(1, 1))
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}

	recent, err := orders.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)
}

func TestStatsSumsPaidOrders(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	orders := env.services.OrderService
	env.seedCatalog(t)

	paid, err := orders.CreatePendingOrder(ctx, testDraft(1, 1))
	require.NoError(t, err)
	_, err = orders.MarkPaid(ctx, paid.ID)
	require.NoError(t, err)

	draft := testDraft(1, 1)
	draft.TotalPrice = decimal.NewFromInt(1000)
	_, err = orders.CreatePendingOrder(ctx, draft)
	require.NoError(t, err)

	stats, err := env.services.AdminService.Stats(ctx, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Categories)
	assert.Equal(t, 1, stats.Titles)
	assert.Equal(t, 1, stats.Products)
	assert.Equal(t, 2, stats.Sizes)
	assert.Equal(t, 2, stats.Orders)
	assert.Equal(t, 1, stats.PaidOrders)
	assert.True(t, stats.PaidRevenue.Equal(decimal.NewFromInt(2751)), stats.PaidRevenue.String())
}

func TestCustomerDetailsAreEncryptedAtRest(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(cfg *structs.Config) {
		cfg.Encryption.Key = strings.Repeat("k", 32)
	})
	orders := env.services.OrderService

	order, err := orders.CreatePendingOrder(ctx, testDraft(1, 1))
	require.NoError(t, err)

	raw, err := database.FindByID[tables.Order](ctx, env.db, order.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw.Items[0].CustomerPhone, "enc:"))
	assert.NotContains(t, raw.Items[0].CustomerAddress, "Москва")

	stored, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "+79991234567", stored.Items[0].CustomerPhone)
	assert.Equal(t, "Иван Петров", stored.Items[0].CustomerName)
}

func TestInvalidEncryptionKey(t *testing.T) {
	cfg := testConfig()
	cfg.Encryption.Key = "short"
	_, err := NewOrderService(testLogger(), cfg, nil)
	assert.Error(t, err)
}
