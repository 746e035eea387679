package database

import (
	"time"

	"github.com/uptrace/bun"
)

// OrderDirection represents sort direction
type OrderDirection string

const (
	ASC  OrderDirection = "ASC"
	DESC OrderDirection = "DESC"
)

// WhereClause represents a WHERE condition
type WhereClause struct {
	Column   string
	Operator string
	Value    any
	IsRaw    bool
	RawSQL   string
	RawArgs  []any
}

// OrderClause represents an ORDER BY clause
type OrderClause struct {
	Column    string
	Direction OrderDirection
}

// QueryBuilder provides a fluent, type-safe API over bun for a single table.
// It works on a *DB as well as inside a transaction.
type QueryBuilder[T any] struct {
	db        bun.IDB
	wheres    []*WhereClause
	orders    []*OrderClause
	limitVal  *int
	offsetVal *int
	timeout   time.Duration
}

// Query creates a new QueryBuilder instance
func Query[T any](db bun.IDB) *QueryBuilder[T] {
	return &QueryBuilder[T]{db: db}
}

// Where adds an equality condition
func (q *QueryBuilder[T]) Where(column string, value any) *QueryBuilder[T] {
	return q.WhereOp(column, "=", value)
}

// WhereOp adds a condition with an explicit comparison operator
func (q *QueryBuilder[T]) WhereOp(column, operator string, value any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, &WhereClause{Column: column, Operator: operator, Value: value})
	return q
}

// WhereIn adds an IN condition. An empty list matches nothing.
func (q *QueryBuilder[T]) WhereIn(column string, values any) *QueryBuilder[T] {
	if isEmptySlice(values) {
		return q.WhereRaw("1 = 0")
	}
	q.wheres = append(q.wheres, &WhereClause{Column: column, Operator: "IN", Value: values})
	return q
}

// WhereRaw adds a raw SQL condition with bun placeholders
func (q *QueryBuilder[T]) WhereRaw(sql string, args ...any) *QueryBuilder[T] {
	q.wheres = append(q.wheres, &WhereClause{IsRaw: true, RawSQL: sql, RawArgs: args})
	return q
}

// OrderBy adds an ORDER BY clause
func (q *QueryBuilder[T]) OrderBy(column string, direction OrderDirection) *QueryBuilder[T] {
	q.orders = append(q.orders, &OrderClause{Column: column, Direction: direction})
	return q
}

// Limit sets the maximum number of rows
func (q *QueryBuilder[T]) Limit(limit int) *QueryBuilder[T] {
	q.limitVal = &limit
	return q
}

// Offset sets the number of rows to skip
func (q *QueryBuilder[T]) Offset(offset int) *QueryBuilder[T] {
	q.offsetVal = &offset
	return q
}

// Timeout bounds every statement run by this builder
func (q *QueryBuilder[T]) Timeout(d time.Duration) *QueryBuilder[T] {
	q.timeout = d
	return q
}

// Clone copies the builder so a base query can be reused for count and page
func (q *QueryBuilder[T]) Clone() *QueryBuilder[T] {
	clone := *q
	clone.wheres = append([]*WhereClause(nil), q.wheres...)
	clone.orders = append([]*OrderClause(nil), q.orders...)
	return &clone
}

type whereable[Q any] interface {
	Where(query string, args ...any) Q
}

func applyWheres[Q whereable[Q]](query Q, wheres []*WhereClause) Q {
	for _, w := range wheres {
		switch {
		case w.IsRaw:
			query = query.Where(w.RawSQL, w.RawArgs...)
		case w.Operator == "IN":
			query = query.Where("? IN (?)", bun.Ident(w.Column), bun.In(w.Value))
		default:
			query = query.Where("? "+w.Operator+" ?", bun.Ident(w.Column), w.Value)
		}
	}
	return query
}

func (q *QueryBuilder[T]) buildSelect(model any) *bun.SelectQuery {
	query := applyWheres(q.db.NewSelect().Model(model), q.wheres)
	for _, o := range q.orders {
		query = query.OrderExpr("? "+string(o.Direction), bun.Ident(o.Column))
	}
	if q.limitVal != nil {
		query = query.Limit(*q.limitVal)
	}
	if q.offsetVal != nil {
		query = query.Offset(*q.offsetVal)
	}
	return query
}

func isEmptySlice(values any) bool {
	switch v := values.(type) {
	case []int64:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	case nil:
		return true
	}
	return false
}
