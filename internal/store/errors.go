package store

import (
	"errors"
	"fmt"

	"github.com/phrazzld/pgaccess/internal/redact"
)

// Common store errors used across all store implementations.
var (
	// ErrConnection is returned when the database connection could not be
	// established. It is carried by ConnectionError.
	ErrConnection = errors.New("database connection failed")

	// ErrStatement is returned when a statement fails to bind, prepare or
	// execute. Check the wrapped error for the driver's diagnostic.
	ErrStatement = errors.New("statement failed")

	// ErrResolution is returned when a type name given for hydration has no
	// usable definition.
	ErrResolution = errors.New("type resolution failed")

	// ErrDuplicate is returned alongside ErrStatement when a statement would
	// violate a unique constraint.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned alongside ErrStatement when a statement
	// violates a foreign key, check or not-null constraint.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTxActive is returned by Begin when a transaction is already open.
	ErrTxActive = errors.New("transaction already active")

	// ErrNoTx is returned by Commit and Rollback without an open transaction.
	ErrNoTx = errors.New("no active transaction")

	// ErrClosed is returned by operations on a closed access layer.
	ErrClosed = errors.New("connection closed")
)

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The type name the operation was hydrating (may be empty)
	Operation string // The operation that failed (e.g., "select", "insert")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	entity := e.Entity
	if entity == "" {
		entity = "untyped row"
	}
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// ConnectionError reports a failure to establish the database connection.
// It matches ErrConnection with errors.Is.
type ConnectionError struct {
	Host     string
	Port     int
	Database string
	Err      error
}

// Error implements the error interface for ConnectionError. Credentials the
// driver echoes back are redacted; Unwrap still yields the original error.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%v: %s:%d/%s: %s", ErrConnection, e.Host, e.Port, e.Database, redact.Error(e.Err))
}

// Unwrap returns the driver error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrConnection) true for every ConnectionError.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

// IsConnectionError reports whether err is or wraps a connection failure.
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsDuplicateError reports whether err is or wraps a unique violation.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
