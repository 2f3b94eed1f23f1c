package postgres

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/pgaccess/internal/config"
	"github.com/phrazzld/pgaccess/internal/redact"
	"github.com/phrazzld/pgaccess/internal/registry"
	"github.com/phrazzld/pgaccess/internal/store"
)

// DB implements store.AccessLayer over a single PostgreSQL connection.
//
// The connection is opened on first use (or eagerly by Open) and held until
// Close. pgx connections are not safe for concurrent use, so every operation
// holds the DB's mutex for its full round trip.
type DB struct {
	mu sync.Mutex

	cfg       config.DatabaseConfig
	registry  *registry.Registry
	connector Connector
	logger    *slog.Logger

	conn    Conn
	tx      pgx.Tx
	connErr error
	closed  bool
}

// Ensure DB implements store.AccessLayer interface
var _ store.AccessLayer = (*DB)(nil)

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger. A nil logger leaves the default in place.
func WithLogger(logger *slog.Logger) Option {
	return func(d *DB) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithConnector replaces the function used to open the connection.
func WithConnector(connector Connector) Option {
	return func(d *DB) {
		if connector != nil {
			d.connector = connector
		}
	}
}

// New creates a DB without connecting. The connection is established by the
// first operation; if that fails, the failure is kept and returned by that
// operation and every later one. Err exposes it.
func New(cfg config.DatabaseConfig, reg *registry.Registry, opts ...Option) *DB {
	if reg == nil {
		panic("registry cannot be nil")
	}

	d := &DB{
		cfg:       cfg,
		registry:  reg,
		connector: connectPgx,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.logger = d.logger.With(
		slog.String("component", "access_layer"),
		slog.String("session_id", uuid.NewString()),
	)
	return d
}

// Open creates a DB and connects immediately. A connection failure is
// returned as a *store.ConnectionError.
func Open(ctx context.Context, cfg config.DatabaseConfig, reg *registry.Registry, opts ...Option) (*DB, error) {
	d := New(cfg, reg, opts...)

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.connect(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Err returns the recorded connection failure, if any.
func (d *DB) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.connErr
}

// Close rolls back any open transaction and closes the connection.
// Closing twice is a no-op.
func (d *DB) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	if d.tx != nil {
		if err := d.tx.Rollback(ctx); err != nil {
			d.logger.Warn("failed to roll back open transaction on close",
				slog.String("error", redact.Error(err)))
		}
		d.tx = nil
	}

	if d.conn == nil {
		return nil
	}

	err := d.conn.Close(ctx)
	d.conn = nil
	if err != nil {
		return MapError(err)
	}

	d.logger.Info("database connection closed")
	return nil
}

// connect opens the connection. Callers must hold d.mu.
func (d *DB) connect(ctx context.Context) error {
	if d.connErr != nil {
		return d.connErr
	}

	pc, err := ConnConfig(d.cfg)
	if err == nil {
		var conn Conn
		conn, err = d.connector(ctx, pc)
		if err == nil {
			d.conn = conn
			d.logger.Info("database connection established",
				slog.String("host", d.cfg.Host),
				slog.Int("port", d.cfg.Port),
				slog.String("database", d.cfg.Name))
			return nil
		}
	}

	d.connErr = &store.ConnectionError{
		Host:     d.cfg.Host,
		Port:     d.cfg.Port,
		Database: d.cfg.Name,
		Err:      err,
	}
	d.logger.Error("database connection failed",
		slog.String("host", d.cfg.Host),
		slog.Int("port", d.cfg.Port),
		slog.String("database", d.cfg.Name),
		slog.String("error", redact.Error(err)))
	return d.connErr
}

// acquire returns the executor for the next statement: the open transaction
// if there is one, the connection otherwise. Callers must hold d.mu.
func (d *DB) acquire(ctx context.Context) (store.DBTX, error) {
	if d.closed {
		return nil, store.ErrClosed
	}
	if d.conn == nil {
		if err := d.connect(ctx); err != nil {
			return nil, err
		}
	}
	if d.tx != nil {
		return d.tx, nil
	}
	return d.conn, nil
}

// statementError logs a failed statement and wraps it for the caller.
func (d *DB) statementError(typ, op, message, query string, err error) error {
	d.logger.Error("statement failed",
		slog.String("operation", op),
		slog.String("type", typ),
		slog.String("query", query),
		slog.String("error", redact.Error(err)))
	return store.NewStoreError(typ, op, message, MapError(err))
}
