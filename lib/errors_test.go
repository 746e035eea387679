package lib

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapDBError(t *testing.T) {
	assert.Nil(t, MapDBError(nil))
	assert.ErrorIs(t, MapDBError(fmt.Errorf("scan: %w", sql.ErrNoRows)), ErrNotFound)
	assert.ErrorIs(t, MapDBError(&pgconn.PgError{Code: "23505"}), ErrDuplicate)
	assert.ErrorIs(t, MapDBError(errors.New("constraint failed: UNIQUE constraint failed: sizes.name (2067)")), ErrDuplicate)

	other := errors.New("boom")
	assert.Equal(t, other, MapDBError(other))
}
