// Package analysis runs the full repository analysis: it classifies the
// tree, fans out per-root analyzers, synthesizes the explanation, and
// bounds the whole run by a wall-clock budget.
package analysis

import (
	"errors"
	"time"

	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/explain"
	"github.com/blackwell-systems/devinsight/internal/extract"
	"github.com/blackwell-systems/devinsight/internal/frontend"
	"github.com/blackwell-systems/devinsight/internal/ml"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// ErrNotDirectory is returned when the analyzed path is not a readable
// directory. It is the only condition Analyze refuses.
var ErrNotDirectory = errors.New("not a directory")

// BackendModule is the analysis of one backend root.
type BackendModule = extract.Module

// RootError records a per-root analyzer failure. Sibling roots are still
// analyzed.
type RootError struct {
	Root  string `json:"root"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Root kinds used in RootError.
const (
	KindBackend  = "backend"
	KindFrontend = "frontend"
	KindML       = "ml"
	KindPipeline = "pipeline"
)

// Result is the aggregate of one analysis.
type Result struct {
	Source         string                       `json:"source,omitempty"`
	Path           string                       `json:"path"`
	Language       string                       `json:"language"`
	Framework      string                       `json:"framework"`
	Architecture   string                       `json:"architecture"`
	EntryPoint     string                       `json:"entryPoint"`
	ReadmeSummary  string                       `json:"readmeSummary,omitempty"`
	Classification detect.ProjectClassification `json:"classification"`
	Backend        []BackendModule              `json:"backend"`
	Frontend       []frontend.Module            `json:"frontend"`
	ML             []ml.Module                  `json:"ml"`
	Errors         []RootError                  `json:"errors,omitempty"`
	FolderTree     []scanner.TreeNode           `json:"folderTree"`
	Explanation    explain.Explanation          `json:"explanation"`
	Partial        bool                         `json:"partial"`
	CreatedAt      time.Time                    `json:"createdAt"`
}

// RouteCount returns the number of backend routes across all roots.
func (r Result) RouteCount() int {
	n := 0
	for _, be := range r.Backend {
		n += len(be.Routes)
	}
	return n
}

func newResult(path string) Result {
	return Result{
		Path:         path,
		Language:     scanner.UnknownLanguage,
		Framework:    detect.FrameworkUnknown,
		Architecture: detect.ArchFlat,
		EntryPoint:   detect.EntryNotDetected,
		Classification: detect.ProjectClassification{
			ProjectType:   detect.Unknown,
			FrontendRoots: []string{},
			BackendRoots:  []string{},
			MLRoots:       []string{},
		},
		Backend:    []BackendModule{},
		Frontend:   []frontend.Module{},
		ML:         []ml.Module{},
		FolderTree: []scanner.TreeNode{},
		CreatedAt:  time.Now().UTC(),
	}
}

// explainInput maps a result onto the synthesizer input.
func explainInput(r Result) explain.Input {
	return explain.Input{
		Language:       r.Language,
		Framework:      r.Framework,
		Architecture:   r.Architecture,
		Classification: r.Classification,
		Backends:       r.Backend,
		Frontends:      r.Frontend,
		MLs:            r.ML,
		Tree:           r.FolderTree,
	}
}
