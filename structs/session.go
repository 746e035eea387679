package structs

import (
	"time"

	"karma_server/structs/tables"

	"github.com/shopspring/decimal"
)

// CheckoutState is a step of the per-user purchase flow
type CheckoutState string

const (
	StateSelectingSize    CheckoutState = "selecting_size"
	StateWaitingName      CheckoutState = "waiting_name"
	StateWaitingPhone     CheckoutState = "waiting_phone"
	StateWaitingAddress   CheckoutState = "waiting_address"
	StateChoosingDelivery CheckoutState = "choosing_delivery"
	StateConfirmingOrder  CheckoutState = "confirming_order"
	StateAwaitingPayment  CheckoutState = "awaiting_payment"
	StatePaid             CheckoutState = "paid"
	StateCancelled        CheckoutState = "cancelled"
)

// CustomerDetails are collected only when the flow asks for them
type CustomerDetails struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Session is the per-user cart and checkout progress. It lives from the first
// selection until the order is paid or the user cancels.
type Session struct {
	UserID   int64         `json:"user_id"`
	Username string        `json:"username,omitempty"`
	State    CheckoutState `json:"state"`

	Items    []tables.OrderItem `json:"items"`
	Customer CustomerDetails    `json:"customer"`

	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	DeliveryMethod string          `json:"delivery_method,omitempty"`
	DeliveryLabel  string          `json:"delivery_label,omitempty"`
	DeliveryPrice  decimal.Decimal `json:"delivery_price"`
	FinalPrice     decimal.Decimal `json:"final_price"`

	OrderID        int64  `json:"order_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	PaymentID      string `json:"payment_id,omitempty"`
	PaymentURL     string `json:"payment_url,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// CheckoutResult is returned by every workflow step so the transport can
// render the next screen.
type CheckoutResult struct {
	State   CheckoutState    `json:"state"`
	Session *Session         `json:"session,omitempty"`
	Order   *tables.Order    `json:"order,omitempty"`
	Paid    bool             `json:"paid"`
	Status  PaymentStatus    `json:"payment_status,omitempty"`
	Methods []DeliveryMethod `json:"delivery_methods,omitempty"`
}

// PaymentStatus mirrors the gateway's payment states
type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusWaitingForCapture PaymentStatus = "waiting_for_capture"
	PaymentStatusSucceeded         PaymentStatus = "succeeded"
	PaymentStatusCanceled          PaymentStatus = "canceled"
)

// Payment is a remote payment as seen by the gateway
type Payment struct {
	ID              string        `json:"id"`
	Status          PaymentStatus `json:"status"`
	ConfirmationURL string        `json:"confirmation_url"`
}
