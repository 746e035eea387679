package lib

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Lookup and storage errors
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Input errors
var (
	ErrValidation        = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderInProgress   = errors.New("an unpaid order is already in progress")
	ErrNoPendingInput    = errors.New("nothing is waiting for input")
)

// Access errors
var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// ErrExternalService marks failures of a remote dependency such as the payment gateway
var ErrExternalService = errors.New("external service unavailable")

// MapDBError converts driver errors into the package sentinels. Unknown errors
// are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code { // SQLSTATE
		case "23505": // unique_violation
			return ErrDuplicate
		case "P0002": // no_data_found
			return ErrNotFound
		}
		return err
	}

	// sqlite drivers only expose the message
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}
