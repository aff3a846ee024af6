package detect

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// ProjectType names the overall shape of a source tree.
type ProjectType string

// Project types, in the order the detector considers them.
const (
	BackendOnly  ProjectType = "Backend Only"
	FrontendOnly ProjectType = "Frontend Only"
	Fullstack    ProjectType = "Fullstack"
	MLProject    ProjectType = "ML Project"
	Monorepo     ProjectType = "Monorepo"
	Unknown      ProjectType = "Unknown"
)

// ProjectClassification is the result of project-type detection.
type ProjectClassification struct {
	ProjectType   ProjectType `json:"projectType"`
	FrontendRoots []string    `json:"frontendRoots"`
	BackendRoots  []string    `json:"backendRoots"`
	MLRoots       []string    `json:"mlRoots"`
	IsMonorepo    bool        `json:"isMonorepo"`

	// Workspaces lists declared package-manager workspace globs. It is
	// informational and never changes IsMonorepo.
	Workspaces []string `json:"workspaces,omitempty"`
}

// Canonical sub-root names checked for monorepo layouts.
var (
	FrontendRootNames = []string{"client", "frontend", "web", "apps/web", "packages/web"}
	BackendRootNames  = []string{"server", "api", "backend", "apps/api", "packages/api"}
)

var (
	backendDeps      = []string{"express", "koa", "fastify", "@nestjs/core"}
	backendMarkers   = []string{"routes", "controllers", "models", "app.js", "server.js", "index.js"}
	frontendDeps     = []string{"react", "vue", "@angular/core", "next", "svelte"}
	frontendMarkers  = []string{"src", "components", "pages", "app"}
	notebookSkipDirs = map[string]bool{"node_modules": true, ".git": true}
)

// notebookSubdirLimit bounds how many subdirectories are searched for
// notebooks during detection.
const notebookSubdirLimit = 5

// Indicators are the per-root boolean signals the detector combines.
type Indicators struct {
	HasPackageJSON bool
	Backend        bool
	Frontend       bool
	PythonManifest bool
	Notebooks      bool
	TrainScript    bool
}

// ML reports whether any data-science signal is present.
func (in Indicators) ML() bool {
	return in.PythonManifest || in.Notebooks || in.TrainScript
}

// ReadIndicators computes the indicator set for root. Backend and frontend
// indicators require a package.json.
func ReadIndicators(root string) Indicators {
	var in Indicators
	pkg := ReadPackageJSON(root)
	in.HasPackageJSON = scanner.Exists(root, "package.json")

	if in.HasPackageJSON {
		in.Backend = pkg.HasDep(backendDeps...) || anyExists(root, backendMarkers)
		in.Frontend = pkg.HasDep(frontendDeps...) || anyExists(root, frontendMarkers)
	}

	in.PythonManifest = scanner.Exists(root, "requirements.txt") || scanner.Exists(root, "pyproject.toml")
	in.Notebooks, in.TrainScript = scanTopLevelML(root)
	return in
}

func scanTopLevelML(root string) (notebooks, trainScript bool) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false, false
	}
	subdirs := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if notebookSkipDirs[name] || subdirs >= notebookSubdirLimit {
				continue
			}
			subdirs++
			if dirHasNotebook(filepath.Join(root, name)) {
				notebooks = true
			}
			continue
		}
		if strings.HasSuffix(name, ".ipynb") {
			notebooks = true
		}
		if strings.HasSuffix(name, ".py") && strings.Contains(strings.ToLower(name), "train") {
			trainScript = true
		}
	}
	return notebooks, trainScript
}

func dirHasNotebook(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".ipynb") {
			return true
		}
	}
	return false
}

// DetectProjectType classifies root and enumerates its sub-roots.
func DetectProjectType(root string) (cls ProjectClassification) {
	defer func() {
		if r := recover(); r != nil {
			cls = unknownClassification()
		}
	}()

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return unknownClassification()
	}

	in := ReadIndicators(root)
	workspaces := ReadWorkspaces(root)

	var frontendRoots, backendRoots []string
	for _, name := range FrontendRootNames {
		if scanner.IsDir(root, name) {
			frontendRoots = append(frontendRoots, name)
		}
	}
	for _, name := range BackendRootNames {
		if scanner.IsDir(root, name) {
			backendRoots = append(backendRoots, name)
		}
	}

	isMonorepo := len(frontendRoots)+len(backendRoots) >= 2 ||
		(len(frontendRoots) >= 1 && len(backendRoots) >= 1)
	rootAtProject := in.HasPackageJSON && (in.Backend || in.Frontend)

	var mlRoots []string
	if in.ML() {
		mlRoots = []string{"."}
	}

	build := func(t ProjectType, fe, be, ml []string, mono bool) ProjectClassification {
		return ProjectClassification{
			ProjectType:   t,
			FrontendRoots: nonNil(fe),
			BackendRoots:  nonNil(be),
			MLRoots:       nonNil(ml),
			IsMonorepo:    mono,
			Workspaces:    workspaces,
		}
	}

	if rootAtProject && !isMonorepo {
		switch {
		case in.Backend && !in.Frontend:
			return build(BackendOnly, nil, []string{"."}, nil, false)
		case in.Frontend && !in.Backend:
			return build(FrontendOnly, []string{"."}, nil, nil, false)
		default:
			return build(Fullstack, []string{"."}, []string{"."}, mlRoots, false)
		}
	}

	if isMonorepo {
		if len(frontendRoots) == 0 && in.Frontend {
			frontendRoots = []string{"."}
		}
		if len(backendRoots) == 0 && in.Backend {
			backendRoots = []string{"."}
		}
		return build(Monorepo, frontendRoots, backendRoots, mlRoots, true)
	}

	if in.ML() {
		return build(MLProject, nil, nil, []string{"."}, false)
	}
	if in.Backend {
		return build(BackendOnly, nil, []string{"."}, nil, false)
	}
	if in.Frontend {
		return build(FrontendOnly, []string{"."}, nil, nil, false)
	}
	return build(Unknown, nil, nil, nil, false)
}

func unknownClassification() ProjectClassification {
	return ProjectClassification{
		ProjectType:   Unknown,
		FrontendRoots: []string{},
		BackendRoots:  []string{},
		MLRoots:       []string{},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func anyExists(root string, rels []string) bool {
	for _, r := range rels {
		if scanner.Exists(root, r) {
			return true
		}
	}
	return false
}
