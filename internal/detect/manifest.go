// Package detect holds the fingerprint heuristics that classify a source
// tree: project type and monorepo roots, framework, architecture, entry
// point and README summary. Every function degrades to an explicit
// fallback value instead of returning an error.
package detect

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// PackageJSON is the subset of a package.json manifest the detectors use.
type PackageJSON struct {
	Name            string            `json:"name"`
	Main            any               `json:"main"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Workspaces      json.RawMessage   `json:"workspaces"`
}

// ReadPackageJSON parses root/package.json. It returns nil when the file is
// missing or malformed.
func ReadPackageJSON(root string) *PackageJSON {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}
	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}
	return &pkg
}

// HasDep reports whether any of names is a dependency or devDependency.
func (p *PackageJSON) HasDep(names ...string) bool {
	if p == nil {
		return false
	}
	for _, n := range names {
		if _, ok := p.Dependencies[n]; ok {
			return true
		}
		if _, ok := p.DevDependencies[n]; ok {
			return true
		}
	}
	return false
}

// MainField returns the "main" entry when it is a non-empty string.
func (p *PackageJSON) MainField() string {
	if p == nil {
		return ""
	}
	s, _ := p.Main.(string)
	return s
}

// ReadWorkspaces returns the workspace globs declared by package.json
// ("workspaces" as an array or as {"packages": [...]}) and
// pnpm-workspace.yaml, deduplicated and sorted.
func ReadWorkspaces(root string) []string {
	seen := make(map[string]bool)

	if pkg := ReadPackageJSON(root); pkg != nil && len(pkg.Workspaces) > 0 {
		var list []string
		if err := json.Unmarshal(pkg.Workspaces, &list); err != nil {
			var obj struct {
				Packages []string `json:"packages"`
			}
			if json.Unmarshal(pkg.Workspaces, &obj) == nil {
				list = obj.Packages
			}
		}
		for _, w := range list {
			seen[w] = true
		}
	}

	if data, err := os.ReadFile(filepath.Join(root, "pnpm-workspace.yaml")); err == nil {
		var ws struct {
			Packages []string `yaml:"packages"`
		}
		if yaml.Unmarshal(data, &ws) == nil {
			for _, w := range ws.Packages {
				seen[w] = true
			}
		}
	}

	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// requirementSep ends the package name in a requirements.txt line.
var requirementSep = regexp.MustCompile(`\s*(==|>=|<=|~=|!=|>|<|\[|;|@|\s)`)

// ReadRequirements returns the lowercased package names in
// root/requirements.txt, skipping comments and pip options.
func ReadRequirements(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "requirements.txt"))
	if err != nil {
		return nil
	}
	var deps []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		if loc := requirementSep.FindStringIndex(line); loc != nil {
			line = line[:loc[0]]
		}
		if line != "" {
			deps = append(deps, strings.ToLower(line))
		}
	}
	return deps
}

type pyproject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

var (
	pyNameRe   = regexp.MustCompile(`^[A-Za-z0-9_.\-]+`)
	pyQuotedRe = regexp.MustCompile(`["']([a-zA-Z0-9_\-]+)`)
)

// ReadPyproject returns the lowercased dependency names declared in
// root/pyproject.toml under [project] or [tool.poetry]. A file that does
// not parse as TOML falls back to collecting quoted names after a
// "dependencies" line.
func ReadPyproject(root string) []string {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		return nil
	}

	var doc pyproject
	if err := toml.Unmarshal(data, &doc); err != nil {
		return scanPyprojectLines(string(data))
	}

	var deps []string
	add := func(spec string) {
		if name := pyNameRe.FindString(strings.TrimSpace(spec)); name != "" {
			deps = append(deps, strings.ToLower(name))
		}
	}
	for _, d := range doc.Project.Dependencies {
		add(d)
	}
	for _, group := range doc.Project.OptionalDependencies {
		for _, d := range group {
			add(d)
		}
	}
	for name := range doc.Tool.Poetry.Dependencies {
		if !strings.EqualFold(name, "python") {
			add(name)
		}
	}
	for name := range doc.Tool.Poetry.DevDependencies {
		add(name)
	}
	sort.Strings(deps)
	return deps
}

func scanPyprojectLines(content string) []string {
	var deps []string
	inDeps := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "dependencies") || strings.Contains(line, "dependencies =") {
			inDeps = true
		}
		if !inDeps {
			continue
		}
		if m := pyQuotedRe.FindStringSubmatch(line); m != nil {
			deps = append(deps, strings.ToLower(m[1]))
		}
	}
	return deps
}

// ReadPythonDeps merges requirements.txt and pyproject.toml dependencies.
func ReadPythonDeps(root string) []string {
	return append(ReadRequirements(root), ReadPyproject(root)...)
}
