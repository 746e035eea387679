package tables

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`
	ID            int64  `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64  `bun:"user_id,notnull" json:"user_id"`
	Username      string `bun:"username" json:"username,omitempty"`

	// Snapshot of what was bought, detached from the live catalog
	Items []OrderItem `bun:"items,type:jsonb,notnull" json:"items"`

	// Pricing
	DeliveryMethod string          `bun:"delivery_method,notnull" json:"delivery_method"`
	DeliveryPrice  decimal.Decimal `bun:"delivery_price,type:numeric(12,2),notnull" json:"delivery_price"`
	DiscountAmount decimal.Decimal `bun:"discount_amount,type:numeric(12,2),notnull" json:"discount_amount"`
	TotalPrice     decimal.Decimal `bun:"total_price,type:numeric(12,2),notnull" json:"total_price"`

	// Payment
	PaymentURL string `bun:"payment_url" json:"payment_url,omitempty"`
	PaymentID  string `bun:"payment_id" json:"payment_id,omitempty"`

	Status    OrderStatus `bun:"status,notnull,default:'pending'" json:"status"`
	CreatedAt time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time   `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// OrderItem is the price-time copy of a product and size. Customer fields are
// only filled when the flow collects them.
type OrderItem struct {
	ProductID   int64           `json:"product_id"`
	SizeID      int64           `json:"size_id"`
	ProductName string          `json:"product_name"`
	SizeName    string          `json:"size_name"`
	Price       decimal.Decimal `json:"price"`

	CustomerName    string `json:"customer_name,omitempty"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	CustomerAddress string `json:"customer_address,omitempty"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid reports whether s is a known order status
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}
