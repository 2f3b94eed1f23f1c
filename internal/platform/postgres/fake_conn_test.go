package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/pgaccess/internal/platform/postgres"
)

// call records one statement sent to a fakeConn.
type call struct {
	kind string // "query" or "exec"
	sql  string
	args map[string]any
	inTx bool
}

// result is what a handler answers for a statement.
type result struct {
	columns []string
	rows    [][]any
	tag     string
	err     error
}

// handlerFunc answers a statement with its bound arguments.
type handlerFunc func(sql string, args map[string]any) result

// fakeConn is a scripted postgres.Conn. Named arguments are checked with
// the same rewriter pgx uses, so missing or extra parameters fail just like
// they would against a server.
type fakeConn struct {
	mu sync.Mutex

	handler handlerFunc
	calls   []call

	beginErr error
	closeErr error

	begins    int
	commits   int
	rollbacks int
	closed    bool
	tx        *fakeTx
}

func newFakeConn(handler handlerFunc) *fakeConn {
	if handler == nil {
		handler = func(string, map[string]any) result { return result{} }
	}
	return &fakeConn{handler: handler}
}

// connector returns a Connector that hands out c and counts connections.
func (c *fakeConn) connector(connects *int) postgres.Connector {
	return func(ctx context.Context, cfg *pgx.ConnConfig) (postgres.Conn, error) {
		if connects != nil {
			*connects++
		}
		return c, nil
	}
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	res, err := c.run(ctx, "exec", sql, args, false)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag(res.tag), nil
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	res, err := c.run(ctx, "query", sql, args, false)
	if err != nil {
		return nil, err
	}
	return newFakeRows(res.columns, res.rows), nil
}

func (c *fakeConn) Begin(ctx context.Context) (pgx.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.beginErr != nil {
		return nil, c.beginErr
	}
	c.begins++
	c.tx = &fakeTx{conn: c}
	return c.tx, nil
}

func (c *fakeConn) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return c.closeErr
}

func (c *fakeConn) run(ctx context.Context, kind, sql string, args []any, inTx bool) (result, error) {
	named, err := expandArgs(ctx, sql, args)
	if err != nil {
		return result{}, err
	}

	c.mu.Lock()
	c.calls = append(c.calls, call{kind: kind, sql: sql, args: named, inTx: inTx})
	handler := c.handler
	c.mu.Unlock()

	res := handler(sql, named)
	if res.err != nil {
		return result{}, res.err
	}
	return res, nil
}

// recorded returns a copy of the recorded calls.
func (c *fakeConn) recorded() []call {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]call(nil), c.calls...)
}

// count returns how many recorded statements contain fragment.
func (c *fakeConn) count(kind, fragment string) int {
	n := 0
	for _, rc := range c.recorded() {
		if rc.kind == kind && strings.Contains(rc.sql, fragment) {
			n++
		}
	}
	return n
}

// expandArgs validates named arguments the way pgx does before execution.
func expandArgs(ctx context.Context, sql string, args []any) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	rewriter, ok := args[0].(pgx.QueryRewriter)
	if !ok {
		return nil, fmt.Errorf("expected named arguments, got %T", args[0])
	}
	if _, _, err := rewriter.RewriteQuery(ctx, nil, sql, args[1:]); err != nil {
		return nil, err
	}

	switch named := args[0].(type) {
	case pgx.StrictNamedArgs:
		return map[string]any(named), nil
	case pgx.NamedArgs:
		return map[string]any(named), nil
	}
	return nil, nil
}

// fakeTx routes statements back to its connection, flagged as transactional.
type fakeTx struct {
	pgx.Tx

	conn        *fakeConn
	commitErr   error
	rollbackErr error
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	res, err := t.conn.run(ctx, "exec", sql, args, true)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag(res.tag), nil
}

func (t *fakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	res, err := t.conn.run(ctx, "query", sql, args, true)
	if err != nil {
		return nil, err
	}
	return newFakeRows(res.columns, res.rows), nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()

	t.conn.commits++
	return t.commitErr
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.conn.mu.Lock()
	defer t.conn.mu.Unlock()

	t.conn.rollbacks++
	return t.rollbackErr
}

// fakeRows is an in-memory pgx.Rows.
type fakeRows struct {
	fields []pgconn.FieldDescription
	rows   [][]any
	pos    int
	err    error
	closed bool
}

func newFakeRows(columns []string, rows [][]any) *fakeRows {
	fields := make([]pgconn.FieldDescription, len(columns))
	for i, name := range columns {
		fields[i] = pgconn.FieldDescription{Name: name}
	}
	return &fakeRows{fields: fields, rows: rows}
}

func (r *fakeRows) Close() { r.closed = true }

func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(r.rows)))
}

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return r.fields }

func (r *fakeRows) Next() bool {
	if r.closed || r.pos >= len(r.rows) {
		r.closed = true
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("number of field descriptions must equal number of destinations, got %d and %d",
			len(row), len(dest))
	}

	for i, d := range dest {
		if d == nil {
			continue
		}
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("destination %d is not a pointer", i)
		}
		target := dv.Elem()
		if row[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(row[i])
		switch {
		case v.Type().AssignableTo(target.Type()):
		case v.Type().ConvertibleTo(target.Type()):
			v = v.Convert(target.Type())
		default:
			return fmt.Errorf("can't scan %T into %s", row[i], target.Type())
		}
		target.Set(v)
	}
	return nil
}

func (r *fakeRows) Values() ([]any, error) {
	return append([]any(nil), r.rows[r.pos-1]...), nil
}

func (r *fakeRows) RawValues() [][]byte { return nil }

func (r *fakeRows) Conn() *pgx.Conn { return nil }

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
