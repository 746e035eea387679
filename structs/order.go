package structs

import (
	"karma_server/structs/tables"

	"github.com/shopspring/decimal"
)

// OrderDraft carries everything needed to persist a pending order
type OrderDraft struct {
	UserID         int64
	Username       string
	Items          []tables.OrderItem
	DeliveryMethod string
	DeliveryPrice  decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalPrice     decimal.Decimal
}

// Stats is the aggregate view shown to operators
type Stats struct {
	Categories  int             `json:"categories"`
	Titles      int             `json:"titles"`
	Products    int             `json:"products"`
	Sizes       int             `json:"sizes"`
	Orders      int             `json:"orders"`
	PaidOrders  int             `json:"paid_orders"`
	PaidRevenue decimal.Decimal `json:"paid_revenue"`
}

type UpdateOrderStatusRequest struct {
	Status tables.OrderStatus `json:"status" validate:"required,oneof=pending paid shipped delivered cancelled"`
}

// PaymentNotification is the webhook body sent by the gateway
type PaymentNotification struct {
	Type   string `json:"type"`
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id" validate:"required"`
		Status string `json:"status"`
	} `json:"object"`
}
