package database

import (
	"context"
	"fmt"

	"karma_server/structs/tables"

	"github.com/uptrace/bun"
)

var models = []any{
	(*tables.Category)(nil),
	(*tables.Title)(nil),
	(*tables.Product)(nil),
	(*tables.Size)(nil),
	(*tables.ProductSize)(nil),
	(*tables.Order)(nil),
	(*tables.Settings)(nil),
}

type index struct {
	model  any
	name   string
	column string
}

var indexes = []index{
	{(*tables.Title)(nil), "idx_titles_category_id", "category_id"},
	{(*tables.Product)(nil), "idx_products_title_id", "title_id"},
	{(*tables.ProductSize)(nil), "idx_product_sizes_size_id", "size_id"},
	{(*tables.Order)(nil), "idx_orders_created_at", "created_at"},
	{(*tables.Order)(nil), "idx_orders_payment_id", "payment_id"},
}

// CreateSchema creates missing tables and indexes. Existing tables are left
// untouched; this is a bootstrap, not a migration tool.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}

	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.column).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
