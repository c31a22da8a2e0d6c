package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/grovecli/grove/internal/config"
	"github.com/grovecli/grove/internal/debug"
	"github.com/grovecli/grove/internal/storage"
	"github.com/grovecli/grove/internal/storage/sqlite"
	"github.com/grovecli/grove/internal/telemetry"
)

var (
	dbPath     string
	actorFlag  string
	jsonOutput bool
	verbose    bool
	quiet      bool

	cfg      *config.Config
	store    storage.Storage
	counters *telemetry.Counters

	// sessionID tags every bud and event created by this invocation so
	// related writes can be grouped in the activity log.
	sessionID string

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

// getActor returns the actor for audit trails.
// Priority: --actor flag > GROVE_ACTOR env > git config user.name > $USER > config default.
func getActor() string {
	if actorFlag != "" {
		return actorFlag
	}
	if env := os.Getenv("GROVE_ACTOR"); env != "" {
		return env
	}
	if out, err := exec.Command("git", "config", "user.name").Output(); err == nil {
		if gitUser := strings.TrimSpace(string(out)); gitUser != "" {
			return gitUser
		}
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	if cfg != nil && cfg.Actor != "" {
		return cfg.Actor
	}
	return "unknown"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: config db-path)")
	rootCmd.PersistentFlags().StringVar(&actorFlag, "actor", "", "Actor name for audit trail (default: $GROVE_ACTOR, git user.name, $USER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")

	rootCmd.AddGroup(&cobra.Group{ID: "buds", Title: "Working With Buds:"})
	rootCmd.AddGroup(&cobra.Group{ID: "views", Title: "Views & Reports:"})
	rootCmd.AddGroup(&cobra.Group{ID: "deps", Title: "Dependencies & Structure:"})
	rootCmd.AddGroup(&cobra.Group{ID: "signals", Title: "Signals & Sync:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})
}

var rootCmd = &cobra.Command{
	Use:   "gv",
	Short: "gv - Hierarchical personal task engine",
	Long:  `Groves hold trunks, trunks hold branches, branches hold buds. A personal tracker with first-class dependencies and a garden-cycle lifecycle.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("gv version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupSignalContext()
		debug.SetVerbose(verbose)
		debug.SetQuiet(quiet)
		sessionID = uuid.NewString()

		var err error
		cfg, err = config.Load("")
		if err != nil {
			FatalError("%v", err)
		}

		if err := telemetry.Init(rootCtx, "gv", Version); err != nil {
			debug.Logf("telemetry init: %v", err)
		}
		counters = telemetry.NewCounters()

		if isNoDbCommand(cmd) {
			return
		}

		path := dbPath
		if path == "" {
			path = cfg.DBPath
		}
		store, err = sqlite.Open(rootCtx, path)
		if err != nil {
			FatalError("failed to open database %s: %v", path, err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			if err := store.Close(); err != nil {
				debug.Logf("close store: %v", err)
			}
		}
		telemetry.Shutdown(context.Background())
		if rootCancel != nil {
			rootCancel()
		}
	},
}

// setupSignalContext installs the interrupt-aware context every command
// threads through storage calls.
func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// isNoDbCommand reports whether the command runs without opening a store.
// Note gv tidy config is database-backed; only the root-level config
// command qualifies.
func isNoDbCommand(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return true
	}
	return cmd == configCmd
}

func main() {
	rootCmd.InitDefaultHelpCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
