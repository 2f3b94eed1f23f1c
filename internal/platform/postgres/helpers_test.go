package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/pgaccess/internal/config"
	"github.com/phrazzld/pgaccess/internal/platform/logger"
	"github.com/phrazzld/pgaccess/internal/platform/postgres"
	"github.com/phrazzld/pgaccess/internal/registry"
)

const (
	selectUserByEmail = "SELECT id, email, name FROM users WHERE email = @email"
	insertUser        = "INSERT INTO users (email, name) VALUES (@email, @name)"
	updateUserName    = "UPDATE users SET name = @name WHERE email = @email"
	deleteUserByEmail = "DELETE FROM users WHERE email = @email"
)

// user is the record type the tests hydrate into.
type user struct {
	ID    int64
	Email string
	Name  string
}

func (u *user) Columns() map[string]any {
	return map[string]any{
		"id":    &u.ID,
		"email": &u.Email,
		"name":  &u.Name,
	}
}

// mailer is registered but cannot be hydrated.
type mailer struct{}

func newTestRegistry() *registry.Registry {
	reg := registry.New()
	reg.MustRegister(
		registry.Definition{
			Name:     "User",
			Location: registry.LocationRecords,
			New:      func() any { return &user{} },
		},
		registry.Definition{
			Name:     "Mailer",
			Location: registry.LocationInfrastructure,
			New:      func() any { return &mailer{} },
		},
	)
	return reg
}

func testConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Name:           "app",
		Host:           "db.internal",
		User:           "app",
		Password:       "s3cret",
		Port:           5432,
		SSLMode:        "disable",
		ConnectTimeout: 2 * time.Second,
	}
}

// newTestDB returns a DB wired to conn. Options given by the caller win.
func newTestDB(t *testing.T, conn *fakeConn, opts ...postgres.Option) (*postgres.DB, *logger.TestLogBuffer) {
	t.Helper()

	log, logBuf := logger.GetTestLogger(t)
	all := append([]postgres.Option{
		postgres.WithConnector(conn.connector(nil)),
		postgres.WithLogger(log),
	}, opts...)

	db := postgres.New(testConfig(), newTestRegistry(), all...)
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	return db, logBuf
}

// usersTable answers the users statements above from memory.
type usersTable struct {
	rows   [][]any
	nextID int64
}

func (u *usersTable) handle(sql string, args map[string]any) result {
	switch sql {
	case selectUserByEmail:
		var out [][]any
		for _, row := range u.rows {
			if row[1] == args["email"] {
				out = append(out, append([]any(nil), row...))
			}
		}
		return result{columns: []string{"id", "email", "name"}, rows: out}

	case insertUser:
		for _, row := range u.rows {
			if row[1] == args["email"] {
				return result{err: &pgconn.PgError{
					Code:           "23505",
					Message:        "duplicate key value violates unique constraint",
					ConstraintName: "users_email_key",
				}}
			}
		}
		u.nextID++
		u.rows = append(u.rows, []any{u.nextID, args["email"], args["name"]})
		return result{tag: "INSERT 0 1"}

	case updateUserName:
		n := 0
		for _, row := range u.rows {
			if row[1] == args["email"] {
				row[2] = args["name"]
				n++
			}
		}
		return result{tag: fmt.Sprintf("UPDATE %d", n)}

	case deleteUserByEmail:
		kept := u.rows[:0]
		for _, row := range u.rows {
			if row[1] != args["email"] {
				kept = append(kept, row)
			}
		}
		n := len(u.rows) - len(kept)
		u.rows = kept
		return result{tag: fmt.Sprintf("DELETE %d", n)}

	case "SELECT lastval()", "SELECT currval(@sequence)":
		return result{columns: []string{"id"}, rows: [][]any{{u.nextID}}}
	}

	return result{err: fmt.Errorf("unexpected statement: %s", sql)}
}
