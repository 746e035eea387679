package database

import (
	"context"
	"fmt"

	"karma_server/lib"

	"github.com/uptrace/bun"
)

// Transaction executes fn within a database transaction. The transaction is
// rolled back when fn returns an error or panics.
func Transaction(ctx context.Context, db bun.IDB, fn func(ctx context.Context, tx bun.Tx) error) error {
	return db.RunInTx(ctx, nil, fn)
}

// Pagination represents pagination parameters
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PaginationResult wraps paginated data with metadata
type PaginationResult[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TotalPages is never less than one so an empty listing still has a page to show
func TotalPages(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// Paginate applies pagination to a query builder and returns results with metadata.
// Pages past the end are clamped to the last page.
func Paginate[T any](ctx context.Context, q *QueryBuilder[T], page, pageSize int) (*PaginationResult[T], error) {
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	total, err := q.Clone().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	totalPages := TotalPages(total, pageSize)
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	data, err := q.Clone().Limit(pageSize).Offset((page - 1) * pageSize).All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get paginated data: %w", err)
	}

	return &PaginationResult[T]{
		Data: data,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// FindByID loads a record by primary key, returning lib.ErrNotFound when absent
func FindByID[T any](ctx context.Context, db bun.IDB, id int64) (*T, error) {
	record, err := Query[T](db).Where("id", id).First(ctx)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, lib.ErrNotFound
	}
	return record, nil
}

// UpdateByID updates a record by id, returning lib.ErrNotFound when nothing matched
func UpdateByID[T any](ctx context.Context, db bun.IDB, id int64, data map[string]any) error {
	affected, err := Query[T](db).Where("id", id).Update(ctx, data)
	if err != nil {
		return lib.MapDBError(err)
	}
	if affected == 0 {
		return lib.ErrNotFound
	}
	return nil
}

// CountAll counts every row of a table
func CountAll[T any](ctx context.Context, db bun.IDB) (int, error) {
	return Query[T](db).Count(ctx)
}
