// Package app contains the Cobra command tree for devinsight.
package app

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/devinsight/internal/config"
	"github.com/blackwell-systems/devinsight/internal/logging"
	"github.com/blackwell-systems/devinsight/internal/output"
	"github.com/blackwell-systems/devinsight/internal/store"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "devinsight",
	Short: "Explain the structure of a source repository",
	Long: `devinsight reads a local source tree and reports what kind of project
it is: backend, frontend, ML or monorepo, the framework and architecture in
use, HTTP routes, controllers and models, frontend pages and state, ML
pipeline stages, and a short narrative of how execution flows.

Analysis is heuristic and bounded by a wall-clock budget. When the budget
runs out a shallow partial result is returned instead.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("devinsight", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  analyze   Analyze a source tree and print its structure")
		fmt.Println("  history   List or show archived analyses")
		fmt.Println("  watch     Re-analyze on file changes and alert on structural shifts")
		fmt.Println("  mcp       Run an MCP stdio server exposing analysis tools")
		fmt.Println("  doctor    Check configuration and archive health")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/devinsight/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}

// loadConfig loads configuration and applies the color preference.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagNoColor || !cfg.Output.Color {
		output.SetNoColor(true)
	} else {
		output.AutoColor()
	}
	return cfg, nil
}

// newLogger builds the stderr logger; --verbose forces debug level.
func newLogger(cfg *config.Config) *logrus.Logger {
	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	return logging.New(level, os.Stderr)
}

// openArchive opens the configured archive, or returns nil when archiving
// is disabled.
func openArchive(cfg *config.Config) (*store.DB, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	db, err := store.Open(cfg.Archive.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	return db, nil
}
