package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/devinsight/internal/config"
	"github.com/blackwell-systems/devinsight/internal/output"
	"github.com/blackwell-systems/devinsight/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and archive health",
	Long: `Run a series of health checks against your devinsight configuration
and analysis archive. Prints a pass/fail line for each check and a summary
of how many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var checks []doctorCheck

	// 1. Config file: explicit, default location, or built-in defaults.
	checks = append(checks, checkConfigFile(flagConfig))

	// 2. Config values: every Validate problem is a failed check.
	checks = append(checks, checkConfigValues(cfg)...)

	// 3. Archive: opens, migrates, and answers a query.
	checks = append(checks, checkArchive(cfg))

	// 4. Watch daemon: PID file exists and process is running.
	checks = append(checks, checkWatchDaemon())

	// 5. Desktop notifications for watch --notify.
	checks = append(checks, checkNotifier())

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	if flagJSON {
		out := doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Println(output.Section("Doctor"))
	fmt.Println()

	for _, c := range checks {
		renderDoctorCheck(c)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Printf(" %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render(summary))
	}

	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Printf("  %s  %-30s %s\n", indicator, label, detail)
}

// checkConfigFile reports which config file is in effect. A missing default
// file passes since built-in defaults apply.
func checkConfigFile(explicit string) doctorCheck {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return doctorCheck{Name: "Config file", Passed: false, Message: fmt.Sprintf("not found: %s", explicit)}
		}
		return doctorCheck{Name: "Config file", Passed: true, Message: explicit}
	}
	path := filepath.Join(config.ConfigDir(), config.DefaultConfigFile)
	if _, err := os.Stat(path); err != nil {
		return doctorCheck{Name: "Config file", Passed: true, Message: "using built-in defaults"}
	}
	return doctorCheck{Name: "Config file", Passed: true, Message: path}
}

// checkConfigValues turns each validation problem into a failed check.
func checkConfigValues(cfg *config.Config) []doctorCheck {
	problems := cfg.Validate()
	if len(problems) == 0 {
		return []doctorCheck{{
			Name:    "Config values",
			Passed:  true,
			Message: fmt.Sprintf("budget %s, depth %d/%d", cfg.Analysis.Budget(), cfg.Analysis.PartialDepth, cfg.Analysis.MaxDepth),
		}}
	}
	checks := make([]doctorCheck, 0, len(problems))
	for _, p := range problems {
		checks = append(checks, doctorCheck{Name: "Config values", Passed: false, Message: p})
	}
	return checks
}

// checkArchive verifies the SQLite archive opens and reports its size.
func checkArchive(cfg *config.Config) doctorCheck {
	if !cfg.Archive.Enabled {
		return doctorCheck{Name: "Analysis archive", Passed: true, Message: "disabled"}
	}
	db, err := store.Open(cfg.Archive.DBPath)
	if err != nil {
		return doctorCheck{Name: "Analysis archive", Passed: false, Message: err.Error()}
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return doctorCheck{Name: "Analysis archive", Passed: false, Message: fmt.Sprintf("ping: %v", err)}
	}
	version, err := db.SchemaVersion()
	if err != nil {
		return doctorCheck{Name: "Analysis archive", Passed: false, Message: fmt.Sprintf("schema: %v", err)}
	}
	records, err := db.ListAnalyses(0)
	if err != nil {
		return doctorCheck{Name: "Analysis archive", Passed: false, Message: fmt.Sprintf("query: %v", err)}
	}
	return doctorCheck{
		Name:    "Analysis archive",
		Passed:  true,
		Message: fmt.Sprintf("%s (schema v%d, %d analyses)", cfg.Archive.DBPath, version, len(records)),
	}
}

// checkWatchDaemon checks whether the watch daemon PID file exists and the process is running.
func checkWatchDaemon() doctorCheck {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return doctorCheck{
			Name:    "Watch daemon",
			Passed:  true,
			Message: "not running",
		}
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return doctorCheck{
			Name:    "Watch daemon",
			Passed:  false,
			Message: fmt.Sprintf("invalid PID in file: %q", pidStr),
		}
	}

	if !processExists(pid) {
		return doctorCheck{
			Name:    "Watch daemon",
			Passed:  false,
			Message: fmt.Sprintf("PID %d is not running (stale PID file)", pid),
		}
	}

	return doctorCheck{
		Name:    "Watch daemon",
		Passed:  true,
		Message: fmt.Sprintf("running (PID %d)", pid),
	}
}

// checkNotifier reports whether desktop notifications can be delivered.
func checkNotifier() doctorCheck {
	var tool string
	switch runtime.GOOS {
	case "darwin":
		tool = "osascript"
	case "linux":
		tool = "notify-send"
	default:
		return doctorCheck{Name: "Desktop notifications", Passed: true, Message: "stderr fallback"}
	}
	if _, err := exec.LookPath(tool); err != nil {
		return doctorCheck{
			Name:    "Desktop notifications",
			Passed:  false,
			Message: fmt.Sprintf("%s not found; alerts fall back to stderr", tool),
		}
	}
	return doctorCheck{Name: "Desktop notifications", Passed: true, Message: tool}
}
