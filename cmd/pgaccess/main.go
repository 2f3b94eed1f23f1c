// Package main implements the pgaccess command, a small operator tool for
// checking database settings through the access layer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "pgaccess",
		Short:        "pgaccess - PostgreSQL access layer tools",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newPingCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pgaccess %s (commit: %s, built: %s)\n", version, commit, date)
		},
	})

	return rootCmd
}
