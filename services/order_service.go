package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"karma_server/database"
	"karma_server/lib"
	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// paidStatuses are the statuses of orders whose money has been received
var paidStatuses = []tables.OrderStatus{
	tables.OrderStatusPaid,
	tables.OrderStatusShipped,
	tables.OrderStatusDelivered,
}

var statusTransitions = map[tables.OrderStatus][]tables.OrderStatus{
	tables.OrderStatusPending:   {tables.OrderStatusPaid, tables.OrderStatusCancelled},
	tables.OrderStatusPaid:      {tables.OrderStatusShipped},
	tables.OrderStatusShipped:   {tables.OrderStatusDelivered},
	tables.OrderStatusDelivered: {},
	tables.OrderStatusCancelled: {},
}

type OrderService struct {
	logger *gecho.Logger
	db     *database.DB
	cipher *lib.Cipher
}

func NewOrderService(logger *gecho.Logger, cfg *structs.Config, db *database.DB) (*OrderService, error) {
	cipher, err := lib.NewCipher(cfg.Encryption.Key)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	return &OrderService{
		logger: logger,
		db:     db,
		cipher: cipher,
	}, nil
}

// CreatePendingOrder persists the draft with status pending
func (os *OrderService) CreatePendingOrder(ctx context.Context, draft *structs.OrderDraft) (*tables.Order, error) {
	if len(draft.Items) == 0 {
		return nil, lib.ErrEmptyCart
	}

	items, err := os.sealItems(draft.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt customer details: %w", err)
	}

	now := time.Now().UTC()
	order, err := database.Query[tables.Order](os.db).Insert(ctx, &tables.Order{
		UserID:         draft.UserID,
		Username:       draft.Username,
		Items:          items,
		DeliveryMethod: draft.DeliveryMethod,
		DeliveryPrice:  draft.DeliveryPrice,
		DiscountAmount: draft.DiscountAmount,
		TotalPrice:     draft.TotalPrice,
		Status:         tables.OrderStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		os.logger.Error("Failed to create order", gecho.Field("error", err), gecho.Field("user_id", draft.UserID))
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	ordersCreated.Inc()
	os.logger.Info("Order created",
		gecho.Field("order_id", order.ID),
		gecho.Field("user_id", draft.UserID),
		gecho.Field("total", draft.TotalPrice.String()),
	)

	order.Items = draft.Items
	return order, nil
}

// AttachPayment stores the remote payment on a pending order
func (os *OrderService) AttachPayment(ctx context.Context, orderID int64, paymentID, paymentURL string) error {
	affected, err := database.Query[tables.Order](os.db).
		Where("id", orderID).
		Where("status", tables.OrderStatusPending).
		Update(ctx, map[string]any{
			"payment_id":  paymentID,
			"payment_url": paymentURL,
			"updated_at":  time.Now().UTC(),
		})
	if err != nil {
		return fmt.Errorf("failed to attach payment: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: pending order %d", lib.ErrNotFound, orderID)
	}

	os.logger.Info("Payment attached to order", gecho.Field("order_id", orderID), gecho.Field("payment_id", paymentID))
	return nil
}

// MarkPaid moves an order to paid once the gateway reports its payment
// succeeded. A cancelled order whose payment link was issued is settled too,
// the money has been captured either way. It reports false without error when
// the order was already paid, so concurrent confirmations act only once.
func (os *OrderService) MarkPaid(ctx context.Context, orderID int64) (bool, error) {
	changed, err := os.transition(ctx, orderID, tables.OrderStatusPaid, canSettle)
	if err != nil {
		return false, err
	}
	if changed {
		paymentsConfirmed.Inc()
		os.logger.Info("Order marked as paid", gecho.Field("order_id", orderID))
	}
	return changed, nil
}

// Cancel moves a pending order to cancelled. Orders in any other status are left alone.
func (os *OrderService) Cancel(ctx context.Context, orderID int64) (bool, error) {
	changed, err := os.transition(ctx, orderID, tables.OrderStatusCancelled, allowedTransition(tables.OrderStatusCancelled))
	if errors.Is(err, lib.ErrInvalidTransition) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if changed {
		os.logger.Info("Order cancelled", gecho.Field("order_id", orderID))
	}
	return changed, nil
}

// UpdateStatus applies an operator status change, validating the transition
func (os *OrderService) UpdateStatus(ctx context.Context, orderID int64, next tables.OrderStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: unknown status %q", lib.ErrValidation, next)
	}
	changed, err := os.transition(ctx, orderID, next, allowedTransition(next))
	if err != nil {
		return err
	}
	if changed {
		os.logger.Info("Order status updated", gecho.Field("order_id", orderID), gecho.Field("status", next))
	}
	return nil
}

// transition performs a status change permitted by allowed. Re-applying the
// current status is a no-op that reports false.
func (os *OrderService) transition(ctx context.Context, orderID int64, next tables.OrderStatus, allowed func(*tables.Order) bool) (bool, error) {
	var changed bool
	err := database.Transaction(ctx, os.db, func(ctx context.Context, tx bun.Tx) error {
		order, err := findOne[tables.Order](ctx, tx, "order", orderID)
		if err != nil {
			return err
		}
		if order.Status == next {
			return nil
		}
		if !allowed(order) {
			return fmt.Errorf("%w: %s -> %s", lib.ErrInvalidTransition, order.Status, next)
		}

		affected, err := database.Query[tables.Order](tx).
			Where("id", orderID).
			Where("status", order.Status).
			Update(ctx, map[string]any{
				"status":     next,
				"updated_at": time.Now().UTC(),
			})
		if err != nil {
			return err
		}
		changed = affected > 0
		return nil
	})
	return changed, err
}

func isValidStatusTransition(current, next tables.OrderStatus) bool {
	allowed, exists := statusTransitions[current]
	return exists && slices.Contains(allowed, next)
}

func allowedTransition(next tables.OrderStatus) func(*tables.Order) bool {
	return func(order *tables.Order) bool {
		return isValidStatusTransition(order.Status, next)
	}
}

// canSettle lets a captured payment override a local cancellation
func canSettle(order *tables.Order) bool {
	if order.Status == tables.OrderStatusCancelled {
		return order.PaymentID != ""
	}
	return isValidStatusTransition(order.Status, tables.OrderStatusPaid)
}

// unsettledStatuses are the statuses whose issued payment may still succeed
var unsettledStatuses = []string{
	string(tables.OrderStatusPending),
	string(tables.OrderStatusCancelled),
}

// IsUnsettled reports whether a succeeded payment would still change the order
func IsUnsettled(order *tables.Order) bool {
	return slices.Contains(unsettledStatuses, string(order.Status))
}

func (os *OrderService) GetByID(ctx context.Context, orderID int64) (*tables.Order, error) {
	order, err := findOne[tables.Order](ctx, os.db, "order", orderID)
	if err != nil {
		return nil, err
	}
	return os.open(order)
}

func (os *OrderService) GetByPaymentID(ctx context.Context, paymentID string) (*tables.Order, error) {
	order, err := database.Query[tables.Order](os.db).Where("payment_id", paymentID).First(ctx)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order for payment %s", lib.ErrNotFound, paymentID)
	}
	return os.open(order)
}

// ListRecent returns the latest orders, newest first
func (os *OrderService) ListRecent(ctx context.Context, limit int) ([]tables.Order, error) {
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	orders, err := database.Query[tables.Order](os.db).
		OrderBy("created_at", database.DESC).
		OrderBy("id", database.DESC).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, err
	}
	return os.openAll(orders)
}

// ListAwaitingPayment returns pending or cancelled orders created after since
// that have a payment link, which the customer may still use
func (os *OrderService) ListAwaitingPayment(ctx context.Context, since time.Time) ([]tables.Order, error) {
	orders, err := database.Query[tables.Order](os.db).
		WhereIn("status", unsettledStatuses).
		WhereOp("payment_id", "<>", "").
		WhereOp("created_at", ">=", since.UTC()).
		OrderBy("id", database.ASC).
		All(ctx)
	if err != nil {
		return nil, err
	}
	return os.openAll(orders)
}

// Stats fills the order part of the statistics
func (os *OrderService) Stats(ctx context.Context, stats *structs.Stats) error {
	var err error
	if stats.Orders, err = database.CountAll[tables.Order](ctx, os.db); err != nil {
		return err
	}
	if stats.PaidOrders, err = database.Query[tables.Order](os.db).WhereIn("status", paidStatusStrings()).Count(ctx); err != nil {
		return err
	}

	var revenue decimal.NullDecimal
	err = database.WithRetry(ctx, func() error {
		return os.db.NewSelect().
			Model((*tables.Order)(nil)).
			ColumnExpr("SUM(total_price)").
			Where("status IN (?)", bun.In(paidStatusStrings())).
			Scan(ctx, &revenue)
	})
	if err != nil {
		return fmt.Errorf("failed to sum revenue: %w", err)
	}
	stats.PaidRevenue = decimal.Zero
	if revenue.Valid {
		stats.PaidRevenue = revenue.Decimal
	}
	return nil
}

func paidStatusStrings() []string {
	out := make([]string, 0, len(paidStatuses))
	for _, s := range paidStatuses {
		out = append(out, string(s))
	}
	return out
}

func (os *OrderService) sealItems(items []tables.OrderItem) ([]tables.OrderItem, error) {
	sealed := make([]tables.OrderItem, len(items))
	for i, item := range items {
		var err error
		if item.CustomerName, err = os.cipher.Seal(item.CustomerName); err != nil {
			return nil, err
		}
		if item.CustomerPhone, err = os.cipher.Seal(item.CustomerPhone); err != nil {
			return nil, err
		}
		if item.CustomerAddress, err = os.cipher.Seal(item.CustomerAddress); err != nil {
			return nil, err
		}
		sealed[i] = item
	}
	return sealed, nil
}

func (os *OrderService) open(order *tables.Order) (*tables.Order, error) {
	for i := range order.Items {
		item := &order.Items[i]
		var err error
		if item.CustomerName, err = os.cipher.Open(item.CustomerName); err != nil {
			return nil, fmt.Errorf("failed to decrypt order %d: %w", order.ID, err)
		}
		if item.CustomerPhone, err = os.cipher.Open(item.CustomerPhone); err != nil {
			return nil, fmt.Errorf("failed to decrypt order %d: %w", order.ID, err)
		}
		if item.CustomerAddress, err = os.cipher.Open(item.CustomerAddress); err != nil {
			return nil, fmt.Errorf("failed to decrypt order %d: %w", order.ID, err)
		}
	}
	return order, nil
}

func (os *OrderService) openAll(orders []tables.Order) ([]tables.Order, error) {
	for i := range orders {
		if _, err := os.open(&orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}
