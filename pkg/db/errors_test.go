package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolationPostgres(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "idx_order_hashes_order_id"}

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "order_id"))
	assert.False(t, IsUniqueViolation(err, "order_hash_key"))
}

func TestIsUniqueViolationIgnoresOtherSQLStates(t *testing.T) {
	err := &pgconn.PgError{Code: "23503", ConstraintName: "fk_order"}
	assert.False(t, IsUniqueViolation(err, ""))
}

func TestIsUniqueViolationSQLiteText(t *testing.T) {
	err := errors.New("UNIQUE constraint failed: order_hashes.order_id")

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "order_id"))
	assert.False(t, IsUniqueViolation(fmt.Errorf("disk I/O error"), ""))
}

func TestIsUniqueViolationNil(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil, "order_id"))
}
