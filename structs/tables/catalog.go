package tables

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Category groups titles. Names are unique.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull,unique" json:"name"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Title groups products inside a single category.
type Title struct {
	bun.BaseModel `bun:"table:titles,alias:t"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	CategoryID    int64     `bun:"category_id,notnull" json:"category_id"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Product is an orderable item. Inactive products stay in storage but are
// hidden from customer browsing.
type Product struct {
	bun.BaseModel `bun:"table:products,alias:p"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Name          string    `bun:"name,notnull" json:"name"`
	PhotoRef      string    `bun:"photo_ref" json:"photo_ref,omitempty"` // opaque media handle
	TitleID       int64     `bun:"title_id,notnull" json:"title_id"`
	IsActive      bool      `bun:"is_active,notnull,default:true" json:"is_active"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Size is a global variant dimension carrying the price.
type Size struct {
	bun.BaseModel `bun:"table:sizes,alias:s"`
	ID            int64           `bun:"id,pk,autoincrement" json:"id"`
	Name          string          `bun:"name,notnull,unique" json:"name"`
	Price         decimal.Decimal `bun:"price,type:numeric(12,2),notnull" json:"price"`
	CreatedAt     time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// ProductSize marks a product as orderable at a size. The pair is unique.
type ProductSize struct {
	bun.BaseModel `bun:"table:product_sizes,alias:ps"`
	ID            int64 `bun:"id,pk,autoincrement" json:"id"`
	ProductID     int64 `bun:"product_id,notnull,unique:product_size_pair" json:"product_id"`
	SizeID        int64 `bun:"size_id,notnull,unique:product_size_pair" json:"size_id"`
}
