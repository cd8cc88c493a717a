// Package cli implements collegectl, the operator tool for keys, tokens and accounts.
package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type globals struct {
	driver   string
	dsn      string
	logLevel string
	logger   *slog.Logger
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewRootCmd creates the root cobra command for collegectl.
func NewRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "collegectl",
		Short: "Operator tool for the college API",
		Long:  "collegectl generates signing secrets, issues and inspects bearer tokens, and seeds accounts.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			g.logger = newLogger(cmd.ErrOrStderr(), g.logLevel)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&g.driver, "database-driver", envOr("DATABASE_DRIVER", "sqlite"), "Database driver, sqlite or postgres (or DATABASE_DRIVER env)")
	root.PersistentFlags().StringVar(&g.dsn, "database-url", envOr("DATABASE_URL", "college.db"), "SQLite path or Postgres URL (or DATABASE_URL env)")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newKeygenCmd(),
		newTokenCmd(),
		newUserCmd(g),
	)
	return root
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}
