package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolationSQLState = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation. When
// name is non-empty, the violated constraint/column must also reference it.
// Works for Postgres (SQLSTATE 23505) and for the SQLite error text the
// repository tests run against.
func IsUniqueViolation(err error, name string) bool {
	if err == nil {
		return false
	}

	msg := err.Error()

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		if pgxErr.Code != uniqueViolationSQLState {
			return false
		}
		return name == "" || strings.Contains(pgxErr.ConstraintName, name)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) != uniqueViolationSQLState {
			return false
		}
		return name == "" || strings.Contains(pqErr.Constraint, name)
	}

	unique := strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
	if !unique {
		return false
	}
	return name == "" || strings.Contains(msg, name)
}
