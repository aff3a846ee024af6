package app

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/devinsight/internal/analysis"
	"github.com/blackwell-systems/devinsight/internal/mcp"
)

var mcpBudget time.Duration

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server exposing analysis tools",
	Long: `Start a Model Context Protocol stdio server so an assistant can analyze
repositories on demand. The server exposes four tools:

  analyze_repository  Full analysis of a local directory (archived when enabled)
  classify_project    Project type and roots only
  list_analyses       Recently archived analyses
  get_analysis        One archived analysis by ID

Add to an MCP client configuration:
  {"mcpServers":{"devinsight":{"command":"devinsight","args":["mcp"]}}}`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().DurationVar(&mcpBudget, "budget", 0, "Per-call analysis budget (default from config)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// stdout carries the protocol; logs go to stderr only.
	log := newLogger(cfg)

	db, err := openArchive(cfg)
	if err != nil {
		log.WithError(err).Warn("archive unavailable; archive tools disabled")
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	budget := cfg.Analysis.Budget()
	if mcpBudget > 0 {
		budget = mcpBudget
	}

	srv := mcp.NewServer(mcp.Options{
		Analysis: analysis.OptionsFromConfig(cfg.Analysis),
		Budget:   budget,
		Archive:  db,
		Version:  appVersion,
		Logger:   log,
	})
	if err := srv.Run(cmd.Context(), os.Stdin, os.Stdout); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
