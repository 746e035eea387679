package services

import (
	"context"
	"fmt"
	"slices"

	"karma_server/lib"
	"karma_server/structs"
	"karma_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutService drives a user from size selection to a paid order.
// Sessions are created on the first selection and removed on payment or cancel.
type CheckoutService struct {
	logger   *gecho.Logger
	cfg      *structs.ShopConfig
	catalog  *CatalogService
	orders   *OrderService
	payments *PaymentService
	sessions SessionStore
}

func NewCheckoutService(logger *gecho.Logger, cfg *structs.Config, catalog *CatalogService, orders *OrderService, payments *PaymentService, sessions SessionStore) *CheckoutService {
	return &CheckoutService{
		logger:   logger,
		cfg:      cfg.Shop,
		catalog:  catalog,
		orders:   orders,
		payments: payments,
		sessions: sessions,
	}
}

// Current returns the user's session or nil when there is none
func (cs *CheckoutService) Current(ctx context.Context, userID int64) (*structs.Session, error) {
	return cs.sessions.Get(ctx, userID)
}

// DeliveryMethods lists the configured delivery options
func (cs *CheckoutService) DeliveryMethods() []structs.DeliveryMethod {
	return cs.cfg.DeliveryMethods
}

func (cs *CheckoutService) result(session *structs.Session) *structs.CheckoutResult {
	res := &structs.CheckoutResult{State: session.State, Session: session}
	if session.State == structs.StateChoosingDelivery {
		res.Methods = cs.cfg.DeliveryMethods
	}
	return res
}

func (cs *CheckoutService) save(ctx context.Context, session *structs.Session) error {
	if err := cs.sessions.Save(ctx, session); err != nil {
		cs.logger.Error("Failed to save session", gecho.Field("error", err), gecho.Field("user_id", session.UserID))
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// active loads a session that can still be edited
func (cs *CheckoutService) active(ctx context.Context, userID int64) (*structs.Session, error) {
	session, err := cs.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.State == structs.StatePaid || session.State == structs.StateCancelled {
		return nil, nil
	}
	return session, nil
}

// afterSelection is the first state once the cart is final
func (cs *CheckoutService) afterSelection() structs.CheckoutState {
	if cs.cfg.CollectCustomerDetails {
		return structs.StateWaitingName
	}
	return structs.StateChoosingDelivery
}

// recalculate refreshes subtotal, discount and final price from the items
func (cs *CheckoutService) recalculate(session *structs.Session) {
	subtotal := decimal.Zero
	for _, item := range session.Items {
		subtotal = subtotal.Add(item.Price)
	}
	session.Subtotal = subtotal
	session.Discount = ComputeDiscount(subtotal, cs.cfg.DiscountPercent)
	session.FinalPrice = ComputeFinal(session.Subtotal, session.Discount, session.DeliveryPrice)
}

// resetDelivery forgets the chosen delivery and any stale unpaid order
func (cs *CheckoutService) resetDelivery(ctx context.Context, session *structs.Session) error {
	session.DeliveryMethod = ""
	session.DeliveryLabel = ""
	session.DeliveryPrice = decimal.Zero
	return cs.dropOrder(ctx, session)
}

// dropOrder cancels an order created for the session that never got paid.
// Its snapshot no longer matches what the user is buying.
func (cs *CheckoutService) dropOrder(ctx context.Context, session *structs.Session) error {
	if session.OrderID != 0 {
		if _, err := cs.orders.Cancel(ctx, session.OrderID); err != nil {
			return err
		}
	}
	session.OrderID = 0
	session.IdempotencyKey = ""
	session.PaymentID = ""
	session.PaymentURL = ""
	return nil
}

// SelectSize puts a product at a size into the cart. With a single item cart
// the selection is replaced and checkout starts right away.
func (cs *CheckoutService) SelectSize(ctx context.Context, userID int64, username string, productID, sizeID int64) (*structs.CheckoutResult, error) {
	session, err := cs.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session != nil && session.State == structs.StateAwaitingPayment {
		return nil, lib.ErrOrderInProgress
	}

	product, err := cs.catalog.GetActiveProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	size, err := cs.catalog.GetSize(ctx, sizeID)
	if err != nil {
		return nil, err
	}
	linked, err := cs.catalog.IsLinked(ctx, productID, sizeID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, fmt.Errorf("%w: product %d is not offered in size %d", lib.ErrNotFound, productID, sizeID)
	}

	if session == nil {
		session = &structs.Session{UserID: userID}
	}
	session.Username = username
	if err := cs.resetDelivery(ctx, session); err != nil {
		return nil, err
	}

	item := tables.OrderItem{
		ProductID:   product.ID,
		SizeID:      size.ID,
		ProductName: product.Name,
		SizeName:    size.Name,
		Price:       size.Price,
	}
	if cs.cfg.MultiItemCart {
		session.Items = append(session.Items, item)
		session.State = structs.StateSelectingSize
	} else {
		session.Items = []tables.OrderItem{item}
		session.State = cs.afterSelection()
	}
	cs.recalculate(session)

	if err := cs.save(ctx, session); err != nil {
		return nil, err
	}

	cs.logger.Debug("Size selected",
		gecho.Field("user_id", userID),
		gecho.Field("product_id", productID),
		gecho.Field("size_id", sizeID),
		gecho.Field("items", len(session.Items)),
	)
	return cs.result(session), nil
}

// ViewCart returns the current cart, empty when there is no session
func (cs *CheckoutService) ViewCart(ctx context.Context, userID int64) (*structs.Session, error) {
	session, err := cs.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &structs.Session{UserID: userID, State: structs.StateSelectingSize}, nil
	}
	return session, nil
}

// RemoveCartItem drops the item at index and returns the user to selection
func (cs *CheckoutService) RemoveCartItem(ctx context.Context, userID int64, index int) (*structs.Session, error) {
	session, err := cs.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, lib.ErrEmptyCart
	}
	if session.State == structs.StateAwaitingPayment {
		return nil, lib.ErrOrderInProgress
	}
	if index < 0 || index >= len(session.Items) {
		return nil, fmt.Errorf("%w: no cart item %d", lib.ErrNotFound, index)
	}

	session.Items = slices.Delete(session.Items, index, index+1)
	if err := cs.resetDelivery(ctx, session); err != nil {
		return nil, err
	}
	session.State = structs.StateSelectingSize
	cs.recalculate(session)

	if len(session.Items) == 0 {
		if err := cs.sessions.Delete(ctx, userID); err != nil {
			return nil, err
		}
		return &structs.Session{UserID: userID, State: structs.StateSelectingSize}, nil
	}
	if err := cs.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ClearCart empties the cart. An unpaid order must be cancelled instead.
func (cs *CheckoutService) ClearCart(ctx context.Context, userID int64) error {
	session, err := cs.active(ctx, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	if session.State == structs.StateAwaitingPayment {
		return lib.ErrOrderInProgress
	}
	if err := cs.dropOrder(ctx, session); err != nil {
		return err
	}
	return cs.sessions.Delete(ctx, userID)
}

// StartCheckout moves a filled cart out of selection
func (cs *CheckoutService) StartCheckout(ctx context.Context, userID int64) (*structs.CheckoutResult, error) {
	session, err := cs.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || len(session.Items) == 0 {
		return nil, lib.ErrEmptyCart
	}
	if session.State == structs.StateAwaitingPayment {
		return nil, lib.ErrOrderInProgress
	}

	if err := cs.resetDelivery(ctx, session); err != nil {
		return nil, err
	}
	session.State = cs.afterSelection()
	cs.recalculate(session)

	if err := cs.save(ctx, session); err != nil {
		return nil, err
	}
	return cs.result(session), nil
}

// SubmitText feeds free text to the detail step the session is waiting on.
// Invalid input returns a validation error and leaves the state unchanged.
func (cs *CheckoutService) SubmitText(ctx context.Context, userID int64, text string) (*structs.CheckoutResult, error) {
	session, err := cs.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, lib.ErrNoPendingInput
	}

	switch session.State {
	case structs.StateWaitingName:
		name, err := ValidateCustomerName(text)
		if err != nil {
			return cs.result(session), err
		}
		session.Customer.Name = name
		session.State = structs.StateWaitingPhone
	case structs.StateWaitingPhone:
		phone, err := ValidatePhone(text)
		if err != nil {
			return cs.result(session), err
		}
		session.Customer.Phone = phone
		session.State = structs.StateWaitingAddress
	case structs.StateWaitingAddress:
		address, err := ValidateAddress(text)
		if err != nil {
			return cs.result(session), err
		}
		session.Customer.Address = address
		session.State = structs.StateChoosingDelivery
	default:
		return nil, lib.ErrNoPendingInput
	}

	if err := cs.save(ctx, session); err != nil {
		return nil, err
	}
	return cs.result(session), nil
}

// ChooseDelivery fixes the delivery price and the final amount
func (cs *CheckoutService) ChooseDelivery(ctx context.Context, userID int64, code string) (*structs.CheckoutResult, error) {
	session, err := cs.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || len(session.Items) == 0 {
		return nil, lib.ErrEmptyCart
	}
	if session.State != structs.StateChoosingDelivery && session.State != structs.StateConfirmingOrder {
		return nil, fmt.Errorf("%w: delivery cannot be chosen in state %s", lib.ErrInvalidTransition, session.State)
	}

	method, ok := cs.cfg.DeliveryMethod(code)
	if !ok {
		return nil, fmt.Errorf("%w: unknown delivery method %q", lib.ErrValidation, code)
	}

	if err := cs.dropOrder(ctx, session); err != nil {
		return nil, err
	}
	session.DeliveryMethod = method.Code
	session.DeliveryLabel = method.Label
	session.DeliveryPrice = method.Price
	cs.recalculate(session)
	session.State = structs.StateConfirmingOrder

	if err := cs.save(ctx, session); err != nil {
		return nil, err
	}
	return cs.result(session), nil
}

// ConfirmOrder persists a pending order and requests a payment link. When the
// gateway fails the order and idempotency key are kept so a retry neither
// duplicates the order nor the payment.
func (cs *CheckoutService) ConfirmOrder(ctx context.Context, userID int64) (*structs.CheckoutResult, error) {
	session, err := cs.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || len(session.Items) == 0 {
		return nil, lib.ErrEmptyCart
	}
	if session.State != structs.StateConfirmingOrder {
		return nil, fmt.Errorf("%w: order cannot be confirmed in state %s", lib.ErrInvalidTransition, session.State)
	}

	var order *tables.Order
	if session.OrderID != 0 {
		order, err = cs.orders.GetByID(ctx, session.OrderID)
		if err != nil {
			return nil, err
		}
	} else {
		order, err = cs.orders.CreatePendingOrder(ctx, cs.draft(session))
		if err != nil {
			return nil, err
		}
		session.OrderID = order.ID
		session.IdempotencyKey = uuid.NewString()
		if err := cs.save(ctx, session); err != nil {
			// without the session nothing refers to the order any more
			if _, cancelErr := cs.orders.Cancel(ctx, order.ID); cancelErr != nil {
				cs.logger.Error("Failed to cancel orphaned order",
					gecho.Field("error", cancelErr),
					gecho.Field("order_id", order.ID),
				)
			}
			return nil, err
		}
	}

	payment, err := cs.payments.CreateLink(ctx, order, session.IdempotencyKey)
	if err != nil {
		cs.logger.Warn("Payment link not created",
			gecho.Field("error", err),
			gecho.Field("order_id", order.ID),
			gecho.Field("user_id", userID),
		)
		return nil, err
	}

	session.PaymentID = payment.ID
	session.PaymentURL = payment.ConfirmationURL
	session.State = structs.StateAwaitingPayment
	if err := cs.save(ctx, session); err != nil {
		return nil, err
	}

	res := cs.result(session)
	res.Order = order
	res.Status = payment.Status
	return res, nil
}

func (cs *CheckoutService) draft(session *structs.Session) *structs.OrderDraft {
	items := make([]tables.OrderItem, len(session.Items))
	for i, item := range session.Items {
		item.CustomerName = session.Customer.Name
		item.CustomerPhone = session.Customer.Phone
		item.CustomerAddress = session.Customer.Address
		items[i] = item
	}
	return &structs.OrderDraft{
		UserID:         session.UserID,
		Username:       session.Username,
		Items:          items,
		DeliveryMethod: session.DeliveryLabel,
		DeliveryPrice:  session.DeliveryPrice,
		DiscountAmount: session.Discount,
		TotalPrice:     session.FinalPrice,
	}
}

// CheckPayment asks the gateway about the session's payment. Only a succeeded
// payment ends the session, anything else keeps it awaiting payment.
func (cs *CheckoutService) CheckPayment(ctx context.Context, userID int64) (*structs.CheckoutResult, error) {
	session, err := cs.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.State != structs.StateAwaitingPayment || session.PaymentID == "" {
		return nil, lib.ErrNoPendingInput
	}

	status, err := cs.payments.Confirm(ctx, session.OrderID, session.PaymentID)
	if err != nil {
		return nil, err
	}

	if status != structs.PaymentStatusSucceeded {
		res := cs.result(session)
		res.Status = status
		return res, nil
	}

	order, err := cs.orders.GetByID(ctx, session.OrderID)
	if err != nil {
		return nil, err
	}
	if err := cs.sessions.Delete(ctx, userID); err != nil {
		return nil, err
	}

	session.State = structs.StatePaid
	return &structs.CheckoutResult{
		State:   structs.StatePaid,
		Session: session,
		Order:   order,
		Paid:    true,
		Status:  status,
	}, nil
}

// Cancel clears the session from any state. A pending order created for it is
// marked cancelled, a paid one is left alone.
func (cs *CheckoutService) Cancel(ctx context.Context, userID int64) (*structs.CheckoutResult, error) {
	session, err := cs.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &structs.CheckoutResult{State: structs.StateCancelled}, nil
	}

	if session.OrderID != 0 {
		if _, err := cs.orders.Cancel(ctx, session.OrderID); err != nil {
			return nil, err
		}
	}
	if err := cs.sessions.Delete(ctx, userID); err != nil {
		return nil, err
	}

	cs.logger.Info("Checkout cancelled", gecho.Field("user_id", userID), gecho.Field("order_id", session.OrderID))
	session.State = structs.StateCancelled
	return &structs.CheckoutResult{State: structs.StateCancelled, Session: session}, nil
}

// Forget removes a session once its order was paid out of band
func (cs *CheckoutService) Forget(ctx context.Context, userID, orderID int64) error {
	session, err := cs.sessions.Get(ctx, userID)
	if err != nil || session == nil || session.OrderID != orderID {
		return err
	}
	return cs.sessions.Delete(ctx, userID)
}
