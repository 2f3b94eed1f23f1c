package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/pgaccess/internal/registry"
	"github.com/phrazzld/pgaccess/internal/store"
)

// bind turns params into pgx strict named arguments: a placeholder without
// a value, or a value without a placeholder, fails the statement before it
// reaches the server.
func bind(params store.Params) pgx.StrictNamedArgs {
	return pgx.StrictNamedArgs(params.Normalized())
}

// Select implements store.AccessLayer.Select.
func (d *DB) Select(ctx context.Context, typ, query string, params store.Params) ([]store.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.selectRecords(ctx, "select", typ, query, params)
}

// selectRecords runs query and hydrates every row into typ. Callers must hold d.mu.
func (d *DB) selectRecords(
	ctx context.Context,
	op, typ, query string,
	params store.Params,
) ([]store.Record, error) {
	q, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}

	loadable := d.registry.EnsureLoadable(typ, true)

	rows, err := q.Query(ctx, query, bind(params))
	if err != nil {
		return nil, d.statementError(typ, op, "execute query", query, err)
	}

	// The statement ran; an unknown type surfaces here, before any row is
	// hydrated, whatever the row count.
	if !loadable {
		rows.Close()
		return nil, store.NewStoreError(typ, op, "no definition for type",
			fmt.Errorf("%w: %w", store.ErrResolution, registry.ErrUnknownType))
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Record, error) {
		return d.hydrate(op, typ, row)
	})
	if err != nil {
		var storeErr *store.StoreError
		if errors.As(err, &storeErr) {
			return nil, err
		}
		return nil, d.statementError(typ, op, "read rows", query, err)
	}

	return records, nil
}

// hydrate builds a fresh instance of typ and scans row into it through the
// record's column table. Result columns the record does not list are skipped.
func (d *DB) hydrate(op, typ string, row pgx.CollectableRow) (store.Record, error) {
	inst, err := d.registry.Resolve(typ, false)
	if err != nil {
		return nil, store.NewStoreError(typ, op, "instantiate type",
			fmt.Errorf("%w: %w", store.ErrResolution, err))
	}

	rec, ok := inst.(store.Record)
	if !ok {
		return nil, store.NewStoreError(typ, op,
			fmt.Sprintf("%T does not implement store.Record", inst), store.ErrResolution)
	}

	fields := rec.Columns()
	fds := row.FieldDescriptions()
	dest := make([]any, len(fds))
	for i, fd := range fds {
		// A nil destination tells pgx to skip the column.
		dest[i] = fields[fd.Name]
	}

	if err := row.Scan(dest...); err != nil {
		return nil, store.NewStoreError(typ, op, "scan row", MapError(err))
	}
	return rec, nil
}

// SelectOne implements store.AccessLayer.SelectOne.
func (d *DB) SelectOne(ctx context.Context, query string, params store.Params) (*store.Row, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, query, bind(params))
	if err != nil {
		return nil, d.statementError("", "select_one", "execute query", query, err)
	}

	row, err := pgx.CollectOneRow(rows, toRow)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, d.statementError("", "select_one", "read row", query, err)
	}
	return row, nil
}

// toRow converts the current result row into an ordered store.Row.
func toRow(row pgx.CollectableRow) (*store.Row, error) {
	values, err := row.Values()
	if err != nil {
		return nil, err
	}

	fds := row.FieldDescriptions()
	columns := make([]string, len(fds))
	for i, fd := range fds {
		columns[i] = fd.Name
	}
	return store.NewRow(columns, values), nil
}

// Insert implements store.AccessLayer.Insert.
func (d *DB) Insert(ctx context.Context, typ string, insert, exists store.Statement) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !exists.Empty() {
		existing, err := d.selectRecords(ctx, "insert", typ, exists.SQL, exists.Params)
		if err != nil {
			return false, err
		}
		if len(existing) > 0 {
			d.logger.Debug("insert skipped, row already exists",
				slog.String("type", typ),
				slog.Int("existing", len(existing)))
			return false, nil
		}
	}

	if _, err := d.exec(ctx, "insert", typ, insert); err != nil {
		return false, err
	}
	return true, nil
}

// Update implements store.AccessLayer.Update.
//
// Without an existence statement the result is always nil, even when rows
// were changed. Callers that need the updated row must pass one.
func (d *DB) Update(ctx context.Context, typ string, update, exists store.Statement) (store.Record, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !exists.Empty() {
		before, err := d.selectRecords(ctx, "update", typ, exists.SQL, exists.Params)
		if err != nil {
			return nil, err
		}
		if len(before) == 0 {
			d.logger.Debug("update skipped, no matching row", slog.String("type", typ))
			return nil, nil
		}
	}

	if _, err := d.exec(ctx, "update", typ, update); err != nil {
		return nil, err
	}

	if exists.Empty() {
		return nil, nil
	}

	after, err := d.selectRecords(ctx, "update", typ, exists.SQL, exists.Params)
	if err != nil {
		return nil, err
	}
	if len(after) == 0 {
		return nil, nil
	}
	return after[0], nil
}

// Delete implements store.AccessLayer.Delete.
//
// The result is true whenever the statement executed; zero and many
// affected rows are not told apart.
func (d *DB) Delete(ctx context.Context, stmt store.Statement) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.exec(ctx, "delete", "", stmt); err != nil {
		return false, err
	}
	return true, nil
}

// exec runs a statement that returns no rows. Callers must hold d.mu.
func (d *DB) exec(ctx context.Context, op, typ string, stmt store.Statement) (pgconn.CommandTag, error) {
	q, err := d.acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}

	tag, err := q.Exec(ctx, stmt.SQL, bind(stmt.Params))
	if err != nil {
		return pgconn.CommandTag{}, d.statementError(typ, op, "execute statement", stmt.SQL, err)
	}

	d.logger.Debug("statement executed",
		slog.String("operation", op),
		slog.String("type", typ),
		slog.Int64("rows_affected", tag.RowsAffected()))
	return tag, nil
}
