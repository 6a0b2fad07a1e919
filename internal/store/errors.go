package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrorKind is a closed classification of persistence failures. Callers
// match on it instead of inspecting driver-specific error codes.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindNotFound
	KindUniqueViolation
	KindForeignKeyViolation
	KindNotNullViolation
	KindInvalidFormat
)

// Classify maps a persistence error onto ErrorKind. Postgres error codes
// follow the SQLSTATE standard: 23505 unique, 23503 foreign key, 23502
// not-null, 22P02 invalid text representation.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return KindOther
	}
	switch pgErr.Code {
	case "23505":
		return KindUniqueViolation
	case "23503":
		return KindForeignKeyViolation
	case "23502":
		return KindNotNullViolation
	case "22P02":
		return KindInvalidFormat
	}
	return KindOther
}
