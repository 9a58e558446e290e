package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sessiontree/sessiontree"
	"github.com/sessiontree/sessiontree/internal/config"
	"github.com/sessiontree/sessiontree/internal/obslog"
)

var (
	flagDBPath   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "sessiontreectl",
	Short: "Administer a sessiontree event store",
	Long: `sessiontreectl initializes and inspects a sessiontree database: the
append-only event log, session heads, and the projection/search/fork
operations built on top of it.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "path to the sessiontree database (default: config search path)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "debug, info, warn, or error")

	rootCmd.AddGroup(
		&cobra.Group{ID: "sessions", Title: "Sessions:"},
		&cobra.Group{ID: "query", Title: "Query:"},
		&cobra.Group{ID: "admin", Title: "Admin:"},
	)
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// FatalError prints a formatted error to stderr and exits with status 1.
func FatalError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// openTree resolves the database path (flag, then config search path) and
// opens it, returning a ready-to-use Tree. Callers must Close it.
func openTree() *sessiontree.Tree {
	dbPath := flagDBPath
	var logFile string
	if dbPath == "" {
		loader, err := config.Load()
		if err != nil {
			FatalError("loading config: %v", err)
		}
		cfg := loader.Get()
		dbPath = cfg.DBPath
		logFile = cfg.LogFile
	}

	level := parseLevel(flagLogLevel)
	var log obslog.Logger
	if logFile != "" {
		log = obslog.NewFile(logFile, level)
	} else {
		log = obslog.NewInteractive(level)
	}

	tree, err := sessiontree.Open(sessiontree.Options{
		DBPath:        dbPath,
		EnableWAL:     true,
		BusyTimeoutMs: 5000,
		Log:           log,
	})
	if err != nil {
		FatalError("opening %s: %v", dbPath, err)
	}
	return tree
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
