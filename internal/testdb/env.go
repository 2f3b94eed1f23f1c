//go:build integration

package testdb

import (
	"net/url"
	"os"
	"strconv"
	"testing"

	"github.com/phrazzld/pgaccess/internal/config"
)

// Environment variables consulted for the test database, in order.
const (
	EnvTestDatabaseURL = "PGACCESS_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// DatabaseURL returns the first test database URL found in the environment.
func DatabaseURL() string {
	for _, name := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// SkipIfUnavailable skips t when no test database is configured.
func SkipIfUnavailable(t *testing.T) {
	t.Helper()

	if DatabaseURL() == "" {
		t.Skipf("%s not set, skipping integration test", EnvDatabaseURL)
	}
}

// Config converts the test database URL into database settings.
func Config(t *testing.T) config.DatabaseConfig {
	t.Helper()
	SkipIfUnavailable(t)

	u, err := url.Parse(DatabaseURL())
	if err != nil {
		t.Fatalf("invalid test database URL: %v", err)
	}

	port := 5432
	if p := u.Port(); p != "" {
		if port, err = strconv.Atoi(p); err != nil {
			t.Fatalf("invalid port in test database URL: %v", err)
		}
	}
	password, _ := u.User.Password()

	return config.DatabaseConfig{
		Name:     trimSlash(u.Path),
		Host:     u.Hostname(),
		User:     u.User.Username(),
		Password: password,
		Port:     port,
		SSLMode:  u.Query().Get("sslmode"),
	}
}

func trimSlash(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}
