package app

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/devinsight/internal/analysis"
	"github.com/blackwell-systems/devinsight/internal/output"
	"github.com/blackwell-systems/devinsight/internal/source"
	"github.com/blackwell-systems/devinsight/internal/watcher"
)

var (
	analyzeBudget    time.Duration
	analyzeDepth     int
	analyzeNoArchive bool
	analyzeNoTree    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a source tree and print its structure",
	Long: `Analyze walks the tree at path (default: current directory), classifies
the project, and extracts backend routes, controllers and models, frontend
pages and state management, and ML pipeline stages. Every root of a
monorepo is analyzed independently.

If the wall-clock budget expires, a shallow partial result is printed
instead and marked as partial. Results are archived unless --no-archive
is set or archiving is disabled in config.

Examples:
  devinsight analyze                 # analyze the current directory
  devinsight analyze ./shop --json   # machine-readable output
  devinsight analyze --budget 5s     # tighter budget`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().DurationVar(&analyzeBudget, "budget", 0, "Wall-clock budget (default from config, e.g. 30s)")
	analyzeCmd.Flags().IntVar(&analyzeDepth, "depth", 0, "Maximum scan depth (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeNoArchive, "no-archive", false, "Do not store the result in the archive")
	analyzeCmd.Flags().BoolVar(&analyzeNoTree, "no-tree", false, "Omit the folder tree from terminal output")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	budget := cfg.Analysis.Budget()
	if analyzeBudget > 0 {
		budget = analyzeBudget
	}
	opts := analysis.OptionsFromConfig(cfg.Analysis)
	if analyzeDepth > 0 {
		opts.MaxDepth = analyzeDepth
	}
	opts.Source = source.Resolve(path).ID
	opts.Logger = log

	res, partial, err := analysis.Analyze(cmd.Context(), path, budget, opts)
	if err != nil {
		return err
	}

	var (
		id      string
		changes []watcher.Alert
	)
	if !analyzeNoArchive {
		db, err := openArchive(cfg)
		if err != nil {
			log.WithError(err).Warn("archive unavailable")
		} else if db != nil {
			if prev, err := db.LatestForSource(res.Source); err == nil && prev != nil {
				changes = watcher.Compare(
					watcher.StateFromResult(prev.Result, prev.Partial),
					watcher.StateFromResult(res, partial),
				)
			}
			id, err = db.InsertAnalysis(res)
			if err != nil {
				log.WithError(err).Warn("archiving analysis failed")
			}
			_ = db.Close()
		}
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	tableCellWidth = cfg.Output.Width / 2
	renderAnalysis(res, partial, id)
	renderChanges(changes)
	return nil
}

// tableCellWidth caps table cells in terminal output; set from output.width.
var tableCellWidth int

func newTable(headers ...string) *output.Table {
	tbl := output.NewTable(headers...)
	tbl.SetMaxCellWidth(tableCellWidth)
	return tbl
}

// renderAnalysis prints every section of a result.
func renderAnalysis(res analysis.Result, partial bool, id string) {
	renderOverview(res, partial, id)
	renderBackend(res.Backend)
	renderFrontend(res)
	renderML(res)
	renderRootErrors(res.Errors)

	fmt.Println(output.Section("Explanation"))
	fmt.Println()
	fmt.Println(output.Indent(res.Explanation.Summary, 1))
	fmt.Println()
	fmt.Println(output.Indent(res.Explanation.ExecutionFlow, 1))

	if !analyzeNoTree {
		fmt.Println(output.Section("Folder Tree"))
		fmt.Println()
		fmt.Println(output.Indent(res.Explanation.FolderTreeText, 1))
	}
	fmt.Println()
}

func renderOverview(res analysis.Result, partial bool, id string) {
	fmt.Println(output.Section("Overview"))
	fmt.Println()
	fmt.Println(output.KeyValue("Path", res.Path))
	if res.Source != "" && res.Source != res.Path {
		fmt.Println(output.KeyValue("Source", res.Source))
	}
	fmt.Println(output.KeyValue("Project type", string(res.Classification.ProjectType)))
	fmt.Println(output.KeyValue("Language", res.Language))
	fmt.Println(output.KeyValue("Framework", res.Framework))
	fmt.Println(output.KeyValue("Architecture", res.Architecture))
	fmt.Println(output.KeyValue("Entry point", res.EntryPoint))
	if res.ReadmeSummary != "" {
		fmt.Println(output.KeyValue("README", res.ReadmeSummary))
	}
	if id != "" {
		fmt.Println(output.KeyValue("Archive ID", id))
	}
	if partial {
		fmt.Println()
		fmt.Printf(" %s\n", output.StyleWarning.Render("Partial result: the analysis budget expired before completion."))
	}

	cls := res.Classification
	if cls.IsMonorepo || len(cls.FrontendRoots)+len(cls.BackendRoots)+len(cls.MLRoots) > 1 {
		fmt.Println()
		tbl := newTable("Kind", "Root")
		addRoots(tbl, "backend", cls.BackendRoots)
		addRoots(tbl, "frontend", cls.FrontendRoots)
		addRoots(tbl, "ml", cls.MLRoots)
		tbl.Print()
	}
	if len(cls.Workspaces) > 0 {
		fmt.Println(output.KeyValue("Workspaces", strings.Join(cls.Workspaces, ", ")))
	}
}

func addRoots(tbl *output.Table, kind string, roots []string) {
	for _, r := range roots {
		tbl.AddRow(output.StyleKind[kind].Render(kind), r)
	}
}

func renderBackend(mods []analysis.BackendModule) {
	for _, m := range mods {
		fmt.Println(output.Section(fmt.Sprintf("Backend: %s", m.Root)))
		fmt.Println()
		fmt.Println(output.KeyValue("Framework", m.Framework))
		fmt.Println(output.KeyValue("Architecture", m.Architecture))
		fmt.Println(output.KeyValue("Entry point", m.EntryPoint))
		if m.ApplicationName != "" {
			fmt.Println(output.KeyValue("Application", m.ApplicationName))
		}
		if m.ApplicationConfig != "" {
			fmt.Println(output.KeyValue("Config", m.ApplicationConfig))
		}
		fmt.Println()

		if len(m.Routes) > 0 {
			tbl := newTable("Method", "Path", "Handler", "File")
			for _, r := range m.Routes {
				tbl.AddRow(r.Method, r.Path, r.Handler, r.SourceFile)
			}
			tbl.Print()
		} else {
			fmt.Println(output.List(nil, 0, "No routes found"))
		}

		if len(m.Controllers) > 0 {
			fmt.Println()
			tbl := newTable("Controller", "Methods", "File")
			for _, c := range m.Controllers {
				tbl.AddRow(c.Name, strings.Join(c.Methods, ", "), c.File)
			}
			tbl.Print()
		}
		if len(m.Models) > 0 {
			fmt.Println()
			tbl := newTable("Model", "Schema", "File")
			for _, md := range m.Models {
				tbl.AddRow(md.Name, md.SchemaSummary, md.File)
			}
			tbl.Print()
		}
		if len(m.Services) > 0 {
			fmt.Println()
			tbl := newTable("Service", "File")
			for _, s := range m.Services {
				tbl.AddRow(s.Name, s.File)
			}
			tbl.Print()
		}
	}
}

func renderFrontend(res analysis.Result) {
	for _, m := range res.Frontend {
		fmt.Println(output.Section(fmt.Sprintf("Frontend: %s", m.Root)))
		fmt.Println()
		fmt.Println(output.KeyValue("Framework", m.Framework))
		fmt.Println(output.KeyValue("Entry point", m.EntryPoint))
		fmt.Println(output.KeyValue("Render mode", m.RenderMode))
		fmt.Println(output.KeyValue("State", strings.Join(m.StateManagement, ", ")))
		fmt.Println(output.KeyValue("Components", fmt.Sprintf("%d", len(m.Components))))
		fmt.Println()
		if len(m.Routes) > 0 {
			tbl := newTable("Type", "Path", "File")
			for _, r := range m.Routes {
				tbl.AddRow(r.Type, r.Path, r.File)
			}
			tbl.Print()
		} else {
			fmt.Println(output.List(m.Pages, 10, "No pages found"))
		}
	}
}

func renderML(res analysis.Result) {
	for _, m := range res.ML {
		fmt.Println(output.Section(fmt.Sprintf("ML: %s", m.Root)))
		fmt.Println()
		fmt.Println(output.KeyValue("Libraries", strings.Join(m.Libs, ", ")))
		fmt.Println(output.KeyValue("Training", fmt.Sprintf("%d script(s)", len(m.TrainingScripts))))
		fmt.Println(output.KeyValue("Inference", fmt.Sprintf("%d script(s)", len(m.InferenceScripts))))
		fmt.Println(output.KeyValue("Notebooks", fmt.Sprintf("%d", len(m.Notebooks))))
		fmt.Println(output.KeyValue("Datasets", strings.Join(m.DatasetFolders, ", ")))
		fmt.Println()
		fmt.Println(output.Indent(m.PipelineExplanation, 1))
	}
}

func renderRootErrors(errs []analysis.RootError) {
	if len(errs) == 0 {
		return
	}
	fmt.Println(output.Section("Errors"))
	fmt.Println()
	for _, e := range errs {
		fmt.Printf(" %s %s: %s\n", output.StyleError.Render("✗"), output.StyleBold.Render(e.Root+" ("+e.Kind+")"), e.Error)
	}
}

// renderChanges lists differences from the previous archived analysis of
// the same source.
func renderChanges(changes []watcher.Alert) {
	if len(changes) == 0 {
		return
	}
	fmt.Println(output.Section("Changes Since Last Analysis"))
	fmt.Println()
	for _, c := range changes {
		printAlert(c)
	}
	fmt.Println()
}
