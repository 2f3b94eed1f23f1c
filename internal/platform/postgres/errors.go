package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/pgaccess/internal/store"
)

// PostgreSQL error codes
const (
	// uniqueViolationCode is the PostgreSQL error code for unique constraint violations
	uniqueViolationCode = "23505"

	// foreignKeyViolationCode is the PostgreSQL error code for foreign key violations
	foreignKeyViolationCode = "23503"

	// checkViolationCode is the PostgreSQL error code for check constraint violations
	checkViolationCode = "23514"

	// notNullViolationCode is the PostgreSQL error code for not null violations
	notNullViolationCode = "23502"
)

// MapError maps a driver error onto the store error taxonomy.
// Every non-nil result wraps store.ErrStatement and the original error;
// constraint violations additionally wrap store.ErrDuplicate or
// store.ErrInvalidEntity.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %w", store.ErrStatement, err)
	}

	switch {
	case IsUniqueViolation(err):
		return fmt.Errorf("%w: %w: %w", store.ErrStatement, store.ErrDuplicate, err)
	case IsForeignKeyViolation(err):
		return fmt.Errorf(
			"%w: %w: foreign key violation (%s): %w",
			store.ErrStatement,
			store.ErrInvalidEntity,
			pgErr.ConstraintName,
			err,
		)
	case pgErr.Code == checkViolationCode:
		return fmt.Errorf(
			"%w: %w: check constraint violation (%s): %w",
			store.ErrStatement,
			store.ErrInvalidEntity,
			pgErr.ConstraintName,
			err,
		)
	case pgErr.Code == notNullViolationCode:
		return fmt.Errorf(
			"%w: %w: not null violation (%s): %w",
			store.ErrStatement,
			store.ErrInvalidEntity,
			pgErr.ColumnName,
			err,
		)
	}

	return fmt.Errorf("%w: %w", store.ErrStatement, err)
}

// IsUniqueViolation checks if the given error is a PostgreSQL unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// IsForeignKeyViolation checks if the given error is a PostgreSQL foreign key constraint violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolationCode
}
