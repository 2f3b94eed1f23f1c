package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/pgaccess/internal/store"
)

// Begin implements store.Transactor.Begin. Nested transactions are refused
// with store.ErrTxActive rather than emulated with savepoints.
func (d *DB) Begin(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tx != nil {
		return store.ErrTxActive
	}
	if _, err := d.acquire(ctx); err != nil {
		return err
	}

	tx, err := d.conn.Begin(ctx)
	if err != nil {
		return d.statementError("", "begin", "begin transaction", "BEGIN", err)
	}
	d.tx = tx
	return nil
}

// Commit implements store.Transactor.Commit. The transaction is finished
// whether or not the commit succeeds.
func (d *DB) Commit(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.takeTx()
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return d.statementError("", "commit", "commit transaction", "COMMIT", err)
	}
	return nil
}

// Rollback implements store.Transactor.Rollback.
func (d *DB) Rollback(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.takeTx()
	if err != nil {
		return err
	}
	if err := tx.Rollback(ctx); err != nil {
		return d.statementError("", "rollback", "roll back transaction", "ROLLBACK", err)
	}
	return nil
}

// takeTx detaches the open transaction. Callers must hold d.mu.
func (d *DB) takeTx() (pgx.Tx, error) {
	if d.closed {
		return nil, store.ErrClosed
	}
	if d.tx == nil {
		return nil, store.ErrNoTx
	}
	tx := d.tx
	d.tx = nil
	return tx, nil
}

// LastInsertID implements store.AccessLayer.LastInsertID.
func (d *DB) LastInsertID(ctx context.Context, sequence string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	query := "SELECT lastval()"
	var params store.Params
	if sequence != "" {
		query = "SELECT currval(@sequence)"
		params = store.Params{"sequence": sequence}
	}

	q, err := d.acquire(ctx)
	if err != nil {
		return 0, err
	}

	rows, err := q.Query(ctx, query, bind(params))
	if err != nil {
		return 0, d.statementError("", "last_insert_id", "execute query", query, err)
	}

	id, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, d.statementError("", "last_insert_id", "read value", query, err)
	}
	return id, nil
}
