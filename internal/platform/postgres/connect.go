package postgres

import (
	"context"
	"math"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/phrazzld/pgaccess/internal/config"
	"github.com/phrazzld/pgaccess/internal/store"
)

// clientEncoding is the session character set. It is a fixed contract,
// not a configuration option.
const clientEncoding = "UTF8"

// Conn is the subset of *pgx.Conn the access layer uses.
type Conn interface {
	store.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

// Connector establishes a connection from a parsed configuration.
type Connector func(ctx context.Context, cfg *pgx.ConnConfig) (Conn, error)

// connectPgx is the default Connector.
func connectPgx(ctx context.Context, cfg *pgx.ConnConfig) (Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ConnConfig converts database settings into a pgx connection config.
//
// The session always requests UTF8, and statements are prepared as unnamed
// statements on every execution so that nothing is cached between calls.
func ConnConfig(cfg config.DatabaseConfig) (*pgx.ConnConfig, error) {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}

	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	if cfg.ConnectTimeout > 0 {
		// connect_timeout is whole seconds; round up so sub-second values still apply.
		q.Set("connect_timeout", strconv.Itoa(int(math.Ceil(cfg.ConnectTimeout.Seconds()))))
	}
	u.RawQuery = q.Encode()

	pc, err := pgx.ParseConfig(u.String())
	if err != nil {
		return nil, err
	}

	if pc.RuntimeParams == nil {
		pc.RuntimeParams = make(map[string]string)
	}
	pc.RuntimeParams["client_encoding"] = clientEncoding
	pc.DefaultQueryExecMode = pgx.QueryExecModeDescribeExec

	return pc, nil
}
