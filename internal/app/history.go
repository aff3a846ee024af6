package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/devinsight/internal/config"
	"github.com/blackwell-systems/devinsight/internal/output"
	"github.com/blackwell-systems/devinsight/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived analyses",
	Long: `List analyses stored in the archive, newest first. Use 'history show <id>'
to print one archived analysis in full.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one archived analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of analyses to list (0 for all)")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

// requireArchive opens the archive or explains why there is none.
func requireArchive() (*config.Config, *store.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := openArchive(cfg)
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		return nil, nil, fmt.Errorf("archive is disabled (set archive.enabled in config)")
	}
	return cfg, db, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	_, db, err := requireArchive()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	records, err := db.ListAnalyses(historyLimit)
	if err != nil {
		return fmt.Errorf("listing analyses: %w", err)
	}

	if flagJSON {
		if records == nil {
			records = []store.Record{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	fmt.Println(output.Section("Analysis History"))
	fmt.Println()
	if len(records) == 0 {
		fmt.Println(output.List(nil, 0, "No archived analyses. Run 'devinsight analyze' first."))
		fmt.Println()
		return nil
	}

	tbl := output.NewTable("ID", "When", "Source", "Type", "Framework", "Routes", "")
	for _, r := range records {
		partial := ""
		if r.Partial {
			partial = output.StyleWarning.Render("partial")
		}
		tbl.AddRow(
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Source,
			r.ProjectType,
			r.Framework,
			fmt.Sprintf("%d", r.RouteCount),
			partial,
		)
	}
	tbl.Print()
	fmt.Println()
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	cfg, db, err := requireArchive()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	rec, err := db.GetAnalysis(args[0])
	if err != nil {
		return fmt.Errorf("loading analysis: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no analysis with id %q", args[0])
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}
	tableCellWidth = cfg.Output.Width / 2
	renderAnalysis(rec.Result, rec.Partial, rec.ID)
	return nil
}
