package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

func (q *QueryBuilder[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if q.timeout > 0 {
		return context.WithTimeout(ctx, q.timeout)
	}
	return ctx, func() {}
}

// All executes the query and returns all matching records with automatic retry
func (q *QueryBuilder[T]) All(ctx context.Context) ([]T, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var data []T
	err := WithRetry(ctx, func() error {
		data = nil // Reset on retry
		return q.buildSelect(&data).Scan(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute select query: %w (took %v)", err, time.Since(start))
	}

	return data, nil
}

// First returns the first matching record, or nil when there is none
func (q *QueryBuilder[T]) First(ctx context.Context) (*T, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	data := new(T)
	err := WithRetry(ctx, func() error {
		return q.buildSelect(data).Limit(1).Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to execute first query: %w (took %v)", err, time.Since(start))
	}

	return data, nil
}

// Count returns the number of matching records, ignoring limit and offset
func (q *QueryBuilder[T]) Count(ctx context.Context) (int, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var count int
	err := WithRetry(ctx, func() error {
		var err error
		count, err = applyWheres(q.db.NewSelect().Model((*T)(nil)), q.wheres).Count(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute count query: %w (took %v)", err, time.Since(start))
	}

	return count, nil
}

// Exists checks if any records match the query
func (q *QueryBuilder[T]) Exists(ctx context.Context) (bool, error) {
	count, err := q.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert inserts a new record and returns it with its generated id
func (q *QueryBuilder[T]) Insert(ctx context.Context, data *T) (*T, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	err := WithRetry(ctx, func() error {
		_, err := q.db.NewInsert().Model(data).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute insert query: %w (took %v)", err, time.Since(start))
	}

	return data, nil
}

// InsertMany inserts multiple records. When onConflict is set it is appended as
// an ON clause, e.g. "CONFLICT (a, b) DO NOTHING". Returns the inserted row count.
func (q *QueryBuilder[T]) InsertMany(ctx context.Context, data []T, onConflict string) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var affected int64
	err := WithRetry(ctx, func() error {
		query := q.db.NewInsert().Model(&data)
		if onConflict != "" {
			query = query.On(onConflict)
		}
		res, err := query.Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute bulk insert query: %w (took %v)", err, time.Since(start))
	}

	return int(affected), nil
}

// Update sets the given columns on every matching record
func (q *QueryBuilder[T]) Update(ctx context.Context, data map[string]any) (int, error) {
	if len(q.wheres) == 0 {
		return 0, errors.New("refusing to update without conditions")
	}

	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var affected int64
	err := WithRetry(ctx, func() error {
		query := applyWheres(q.db.NewUpdate().Model((*T)(nil)), q.wheres)
		for key, value := range data {
			query = query.Set("? = ?", bun.Ident(key), value)
		}
		res, err := query.Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute update query: %w (took %v)", err, time.Since(start))
	}

	return int(affected), nil
}

// Delete removes every matching record
func (q *QueryBuilder[T]) Delete(ctx context.Context) (int, error) {
	if len(q.wheres) == 0 {
		return 0, errors.New("refusing to delete without conditions")
	}

	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var affected int64
	err := WithRetry(ctx, func() error {
		res, err := applyWheres(q.db.NewDelete().Model((*T)(nil)), q.wheres).Exec(ctx)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to execute delete query: %w (took %v)", err, time.Since(start))
	}

	return int(affected), nil
}

// IDs returns the primary keys of every matching record
func (q *QueryBuilder[T]) IDs(ctx context.Context) ([]int64, error) {
	start := time.Now()
	ctx, cancel := q.withTimeout(ctx)
	defer cancel()

	var ids []int64
	err := WithRetry(ctx, func() error {
		ids = nil
		return applyWheres(q.db.NewSelect().Model((*T)(nil)).Column("id"), q.wheres).Scan(ctx, &ids)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select ids: %w (took %v)", err, time.Since(start))
	}

	return ids, nil
}
