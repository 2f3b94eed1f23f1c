//go:build integration

package testdb

import (
	"context"
	"testing"
	"time"

	"github.com/phrazzld/pgaccess/internal/platform/logger"
	"github.com/phrazzld/pgaccess/internal/platform/postgres"
	"github.com/phrazzld/pgaccess/internal/redact"
	"github.com/phrazzld/pgaccess/internal/registry"
	"github.com/phrazzld/pgaccess/internal/store"
)

// TestTimeout bounds schema setup and cleanup.
const TestTimeout = 30 * time.Second

// Tables lists the tables Open truncates, in dependency order.
var Tables = []string{"users"}

// Open returns a connected DB against the test database with a migrated
// schema and empty tables. The DB is closed when the test ends.
func Open(t *testing.T, reg *registry.Registry) *postgres.DB {
	t.Helper()

	cfg := Config(t)
	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	pc, err := postgres.ConnConfig(cfg)
	if err != nil {
		t.Fatalf("invalid test database settings: %s", redact.Error(err))
	}
	if err := ApplyMigrations(ctx, t, pc); err != nil {
		t.Fatalf("failed to prepare schema: %s", redact.Error(err))
	}

	log, _ := logger.GetTestLogger(t)
	db, err := postgres.Open(ctx, cfg, reg, postgres.WithLogger(log))
	if err != nil {
		t.Fatalf("failed to connect to test database: %s", redact.Error(err))
	}
	t.Cleanup(func() {
		if err := db.Close(context.Background()); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
	})

	CleanTables(t, db)
	return db
}

// CleanTables empties Tables and resets their sequences.
func CleanTables(t *testing.T, db store.AccessLayer) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), TestTimeout)
	defer cancel()

	for _, table := range Tables {
		stmt := store.Statement{SQL: "TRUNCATE TABLE " + table + " RESTART IDENTITY CASCADE"}
		if _, err := db.Delete(ctx, stmt); err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}

// WithTx runs fn inside a transaction on db and rolls it back afterwards,
// so nothing fn writes outlives the test.
func WithTx(t *testing.T, db store.AccessLayer, fn func(t *testing.T)) {
	t.Helper()

	ctx := context.Background()
	if err := db.Begin(ctx); err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}

	defer func() {
		if err := db.Rollback(ctx); err != nil {
			t.Logf("warning: failed to roll back transaction: %v", err)
		}
	}()

	fn(t)
}
