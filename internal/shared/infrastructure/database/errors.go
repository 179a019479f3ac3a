package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// ErrNoRows is the backend-neutral "row not found".
var ErrNoRows = errors.New("no rows in result set")

// IsNoRows reports whether err means a single-row query matched nothing,
// whichever backend produced it.
func IsNoRows(err error) bool {
	for _, target := range []error{ErrNoRows, pgx.ErrNoRows, sql.ErrNoRows} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsUniqueViolation reports whether err is a unique constraint violation
// raised by either supported driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}

// ConstraintName returns the violated constraint for PostgreSQL errors.
// SQLite does not report constraint names, so "" is returned.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
