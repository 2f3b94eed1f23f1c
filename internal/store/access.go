package store

import (
	"context"
	"fmt"
)

// Transactor exposes the driver's transaction primitives without nesting
// or savepoints.
type Transactor interface {
	// Begin opens a transaction. Returns ErrTxActive if one is already open.
	Begin(ctx context.Context) error
	// Commit commits the open transaction. Returns ErrNoTx if there is none.
	Commit(ctx context.Context) error
	// Rollback aborts the open transaction. Returns ErrNoTx if there is none.
	Rollback(ctx context.Context) error
}

// AccessLayer is the data access contract: parameterized CRUD over a single
// connection. Every method blocks until its round trip completes.
type AccessLayer interface {
	Transactor

	// Select runs query and hydrates one instance of typ per result row, in
	// result order. No matching rows yields an empty, non-nil slice.
	// Returns an error wrapping ErrResolution if typ cannot be resolved.
	Select(ctx context.Context, typ, query string, params Params) ([]Record, error)

	// SelectOne returns the first result row, or nil if there is none.
	SelectOne(ctx context.Context, query string, params Params) (*Row, error)

	// Insert executes insert unless exists is non-empty and matches at least
	// one row, in which case it returns false without touching the table.
	// This is a guard, not an upsert.
	Insert(ctx context.Context, typ string, insert, exists Statement) (bool, error)

	// Update executes update and, when exists is non-empty, returns the first
	// row exists matches afterwards. If exists matches nothing beforehand the
	// update is skipped. Without exists the result is always nil.
	Update(ctx context.Context, typ string, update, exists Statement) (Record, error)

	// Delete executes stmt and reports true once it ran, whatever the number
	// of affected rows.
	Delete(ctx context.Context, stmt Statement) (bool, error)

	// LastInsertID returns lastval(), or currval(sequence) when a sequence
	// name is given.
	LastInsertID(ctx context.Context, sequence string) (int64, error)
}

// SelectAs runs Select and asserts every record to T.
func SelectAs[T Record](
	ctx context.Context,
	a AccessLayer,
	typ, query string,
	params Params,
) ([]T, error) {
	records, err := a.Select(ctx, typ, query, params)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		v, ok := rec.(T)
		if !ok {
			var zero T
			return nil, NewStoreError(
				typ,
				"select",
				fmt.Sprintf("record is %T, not %T", rec, zero),
				ErrResolution,
			)
		}
		out = append(out, v)
	}
	return out, nil
}
