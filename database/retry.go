package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"karma_server/lib"

	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultRetryConfig returns sensible defaults for retry behavior
func DefaultRetryConfig() lib.RetryConfig {
	return lib.RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		EnableRetry:  true,
	}
}

// isRetryableError determines if an error should trigger a retry. Constraint
// violations, syntax errors and missing rows are never retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Don't retry context errors (timeout, cancellation)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, sql.ErrNoRows) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001", // serialization_failure
			pgErr.Code == "40P01", // deadlock_detected
			pgErr.Code == "57P03": // cannot_connect_now
			return true
		case strings.HasPrefix(pgErr.Code, "08"), // connection exceptions
			strings.HasPrefix(pgErr.Code, "53"): // insufficient resources
			return true
		default:
			return false
		}
	}

	errMsg := strings.ToLower(err.Error())

	// sqlite lock contention
	if strings.Contains(errMsg, "database is locked") ||
		strings.Contains(errMsg, "sqlite_busy") {
		return true
	}

	for _, transient := range transientMessages {
		if strings.Contains(errMsg, transient) {
			return true
		}
	}
	return false
}

var transientMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"unexpected eof",
	"connection closed",
	"bad connection",
	"too many clients",
	"server is not accepting",
	"temporary failure",
}

// WithRetry wraps a database operation with retry logic
func WithRetry(ctx context.Context, fn func() error) error {
	return lib.RetryWithBackoff(ctx, DefaultRetryConfig(), isRetryableError, fn)
}
