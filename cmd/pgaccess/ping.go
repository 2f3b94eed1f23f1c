package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/phrazzld/pgaccess/internal/config"
	"github.com/phrazzld/pgaccess/internal/platform/logger"
	"github.com/phrazzld/pgaccess/internal/platform/postgres"
	"github.com/phrazzld/pgaccess/internal/registry"
	"github.com/phrazzld/pgaccess/internal/store"
)

const serverInfoQuery = `SELECT version() AS version,
       current_database() AS database,
       current_setting('client_encoding') AS encoding`

// serverInfo is what ping reports about the server.
type serverInfo struct {
	Version  string
	Database string
	Encoding string
}

func (s *serverInfo) Columns() map[string]any {
	return map[string]any{
		"version":  &s.Version,
		"database": &s.Database,
		"encoding": &s.Encoding,
	}
}

func newRegistry() *registry.Registry {
	reg := registry.New()
	reg.MustRegister(registry.Definition{
		Name:     "ServerInfo",
		Location: registry.LocationInfrastructure,
		New:      func() any { return &serverInfo{} },
	})
	return reg
}

func newPingCmd() *cobra.Command {
	var (
		explicit config.DatabaseConfig
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Connect to the database and report server details",
		Long: `Connect to the configured database and report server details.

Connection settings given as flags are used only when they are complete
(name, host, user and port); otherwise the configured settings are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := initializeApp(explicit)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			return runPing(ctx, cmd.OutOrStdout(), cfg.Database)
		},
	}

	cmd.Flags().StringVar(&explicit.Name, "name", "", "Database name")
	cmd.Flags().StringVar(&explicit.Host, "host", "", "Database host")
	cmd.Flags().StringVar(&explicit.User, "user", "", "Database user")
	cmd.Flags().StringVar(&explicit.Password, "password", "", "Database password")
	cmd.Flags().IntVar(&explicit.Port, "port", 0, "Database port")
	cmd.Flags().StringVar(&explicit.SSLMode, "ssl-mode", "", "SSL mode (disable, prefer, require, ...)")
	cmd.Flags().DurationVar(&explicit.ConnectTimeout, "connect-timeout", 5*time.Second, "Connection timeout")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout for the check")

	return cmd
}

// initializeApp loads configuration, with explicit taking the place of the
// configured database settings when complete, and sets up logging.
func initializeApp(explicit config.DatabaseConfig) (*config.Config, error) {
	cfg, err := config.LoadWithOverride(explicit)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	_, err = logger.Setup(logger.LoggerConfig{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Debug("configuration loaded",
		slog.String("host", cfg.Database.Host),
		slog.Int("port", cfg.Database.Port),
		slog.String("database", cfg.Database.Name),
		slog.String("log_level", cfg.Log.Level))

	return cfg, nil
}

// runPing opens a connection with dbCfg and writes the server details to out.
func runPing(ctx context.Context, out io.Writer, dbCfg config.DatabaseConfig, opts ...postgres.Option) error {
	db, err := postgres.Open(ctx, dbCfg, newRegistry(), opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			slog.Warn("failed to close database connection", slog.String("error", err.Error()))
		}
	}()

	infos, err := store.SelectAs[*serverInfo](ctx, db, "ServerInfo", serverInfoQuery, nil)
	if err != nil {
		return fmt.Errorf("failed to query server details: %w", err)
	}
	if len(infos) == 0 {
		return fmt.Errorf("server returned no details")
	}

	info := infos[0]
	fmt.Fprintf(out, "connected to %s on %s:%d\n", info.Database, dbCfg.Host, dbCfg.Port)
	fmt.Fprintf(out, "server: %s\n", info.Version)
	fmt.Fprintf(out, "client encoding: %s\n", info.Encoding)
	return nil
}
