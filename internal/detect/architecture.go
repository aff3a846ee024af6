package detect

import (
	"regexp"
	"strings"

	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// Architecture labels.
const (
	ArchMLPipeline     = "ML pipeline"
	ArchMicroservices  = "Microservices"
	ArchMVC            = "MVC"
	ArchLayered        = "Layered / Service-based"
	ArchComponentBased = "Component-based"
	ArchRCM            = "Route-Controller-Model"
	ArchBasic          = "Basic structured"
	ArchFlat           = "Basic / Flat"
)

var (
	dataDirNames = map[string]bool{
		"data": true, "datasets": true, "dataset": true, "raw_data": true, "inputs": true,
	}
	serviceUnitRe = regexp.MustCompile(`(?i)^(api|[\w.-]*(service|svc)|[\w.-]+[-_]api)$`)
	unitMarkers   = map[string]bool{
		"package.json": true, "pom.xml": true, "build.gradle": true, "go.mod": true,
		"requirements.txt": true, "pyproject.toml": true, "Dockerfile": true,
		"routes": true, "controllers": true,
	}
)

// ClassifyArchitecture maps a folder tree to a named architectural style.
func ClassifyArchitecture(nodes []scanner.TreeNode) string {
	return classify(scanner.Flatten(nodes), countServiceUnits(nodes))
}

// ClassifyPaths classifies a flat path list. Without directory structure
// the Microservices rule never fires.
func ClassifyPaths(paths []string) string {
	return classify(paths, 0)
}

func classify(paths []string, serviceUnits int) string {
	lower := make([]string, len(paths))
	for i, p := range paths {
		lower[i] = strings.ToLower(p)
	}
	has := func(sub string) bool {
		for _, p := range lower {
			if strings.Contains(p, sub) {
				return true
			}
		}
		return false
	}

	controllers := has("controllers")
	models := has("models")
	views := has("views")
	routes := has("routes")
	services := has("services")
	repositories := has("repositories")
	components := has("components")
	pages := has("pages")

	switch {
	case hasDataSegment(lower) && (has("train") || has("preprocess")):
		return ArchMLPipeline
	case serviceUnits >= 2 && (routes || controllers):
		return ArchMicroservices
	case controllers && models && (views || routes):
		return ArchMVC
	case controllers && services && (models || repositories):
		return ArchLayered
	case components && (pages || routes):
		return ArchComponentBased
	case routes && (controllers || models):
		return ArchRCM
	case controllers || models || routes:
		return ArchBasic
	case components:
		return ArchComponentBased
	default:
		return ArchFlat
	}
}

func hasDataSegment(lowerPaths []string) bool {
	for _, p := range lowerPaths {
		for _, seg := range strings.Split(p, "/") {
			if dataDirNames[seg] {
				return true
			}
		}
	}
	return false
}

// countServiceUnits counts directories named like a service that carry
// their own manifest or routing directory.
func countServiceUnits(nodes []scanner.TreeNode) int {
	count := 0
	var walk func([]scanner.TreeNode)
	walk = func(ns []scanner.TreeNode) {
		for _, n := range ns {
			if !n.IsDir() {
				continue
			}
			if serviceUnitRe.MatchString(n.Name) && isServiceUnit(n) {
				count++
			}
			walk(n.Children)
		}
	}
	walk(nodes)
	return count
}

func isServiceUnit(n scanner.TreeNode) bool {
	for _, c := range n.Children {
		if unitMarkers[c.Name] {
			return true
		}
	}
	return false
}
