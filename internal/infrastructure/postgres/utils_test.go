package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("timeout")))
	assert.False(t, isUniqueViolation(nil))
}

func TestIsLockNotAvailable(t *testing.T) {
	assert.True(t, isLockNotAvailable(fmt.Errorf("scan: %w", &pgconn.PgError{Code: "55P03"})))
	assert.False(t, isLockNotAvailable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isLockNotAvailable(nil))
}
