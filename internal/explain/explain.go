// Package explain turns an aggregated analysis into a readable summary and
// an execution-flow narrative. It makes no classification decisions of
// its own beyond picking a narrative template.
package explain

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/extract"
	"github.com/blackwell-systems/devinsight/internal/frontend"
	"github.com/blackwell-systems/devinsight/internal/ml"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// Explanation is the human-readable part of an analysis.
type Explanation struct {
	Summary        string `json:"summary"`
	ExecutionFlow  string `json:"executionFlow"`
	FolderTreeText string `json:"folderTreeText"`
}

// Input is everything the narrative is built from.
type Input struct {
	Language       string
	Framework      string
	Architecture   string
	Classification detect.ProjectClassification
	Backends       []extract.Module
	Frontends      []frontend.Module
	MLs            []ml.Module
	Tree           []scanner.TreeNode
}

// Template names a narrative shape.
type Template string

const (
	TemplateBackend     Template = "backend"
	TemplateFrontend    Template = "frontend"
	TemplateML          Template = "ml"
	TemplateIntegration Template = "integration"
	TemplateUnknown     Template = "unknown"
)

// maxDetailItems caps each list in a per-root detail block.
const maxDetailItems = 10

// EmptyTreeText stands in for a tree with no visible entries.
const EmptyTreeText = "."

// Synthesize builds the explanation for in.
func Synthesize(in Input) Explanation {
	tree := scanner.RenderTree(in.Tree)
	if tree == "" {
		tree = EmptyTreeText
	}

	var flow strings.Builder
	switch Choose(in) {
	case TemplateIntegration:
		writeIntegration(&flow, in)
	case TemplateBackend:
		writeBackend(&flow, in)
	case TemplateFrontend:
		flow.WriteString("Frontend flow:\n")
		flow.WriteString(in.Frontends[0].ExecutionFlow)
	case TemplateML:
		flow.WriteString(in.MLs[0].PipelineExplanation)
	default:
		flow.WriteString("No recognizable application structure was detected; see the folder tree for the layout.\n")
	}
	writeDetails(&flow, in)

	return Explanation{
		Summary:        summary(in),
		ExecutionFlow:  flow.String(),
		FolderTreeText: tree,
	}
}

// Choose selects the narrative template from the project type and the
// modules that were actually produced.
func Choose(in Input) Template {
	hasBE, hasFE, hasML := len(in.Backends) > 0, len(in.Frontends) > 0, len(in.MLs) > 0
	switch in.Classification.ProjectType {
	case detect.Fullstack, detect.Monorepo:
		if hasBE && hasFE {
			return TemplateIntegration
		}
	case detect.BackendOnly:
		if hasBE {
			return TemplateBackend
		}
	case detect.FrontendOnly:
		if hasFE {
			return TemplateFrontend
		}
	case detect.MLProject:
		if hasML {
			return TemplateML
		}
	case detect.Unknown:
		return TemplateUnknown
	}
	switch {
	case hasBE:
		return TemplateBackend
	case hasFE:
		return TemplateFrontend
	case hasML:
		return TemplateML
	}
	return TemplateUnknown
}

func summary(in Input) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Project built using %s. Framework: %s. Architecture: %s.\n", in.Language, in.Framework, in.Architecture)
	cls := in.Classification
	fmt.Fprintf(&sb, "Project type: %s.", cls.ProjectType)
	if cls.IsMonorepo {
		var roots []string
		if len(cls.FrontendRoots) > 0 {
			roots = append(roots, "frontend ("+strings.Join(cls.FrontendRoots, ", ")+")")
		}
		if len(cls.BackendRoots) > 0 {
			roots = append(roots, "backend ("+strings.Join(cls.BackendRoots, ", ")+")")
		}
		if len(cls.MLRoots) > 0 {
			roots = append(roots, "ML ("+strings.Join(cls.MLRoots, ", ")+")")
		}
		if len(roots) > 0 {
			fmt.Fprintf(&sb, " Roots: %s.", strings.Join(roots, "; "))
		}
	}
	return sb.String()
}

func writeBackend(sb *strings.Builder, in Input) {
	be := in.Backends[0]
	sb.WriteString("Backend request flow:\n")
	fmt.Fprintf(sb, "1. App starts from %s.\n", be.EntryPoint)
	fmt.Fprintf(sb, "2. Routes (%d) receive client requests.\n", len(be.Routes))
	fmt.Fprintf(sb, "3. Controllers (%d) process the request logic.\n", len(be.Controllers))
	fmt.Fprintf(sb, "4. Models (%d) interact with the database.\n", len(be.Models))
	sb.WriteString("5. Response is sent back to the client.\n")
}

func writeIntegration(sb *strings.Builder, in Input) {
	fe, be := in.Frontends[0], in.Backends[0]
	sb.WriteString("Full-stack flow:\n")
	fmt.Fprintf(sb, "1. The %s frontend (%s) boots from %s and renders the UI.\n", fe.Framework, fe.RenderMode, fe.EntryPoint)
	sb.WriteString("2. User actions trigger HTTP requests to the backend API.\n")
	fmt.Fprintf(sb, "3. The %s backend starts from %s; its routes (%d) dispatch to controllers (%d).\n",
		be.Framework, be.EntryPoint, len(be.Routes), len(be.Controllers))
	fmt.Fprintf(sb, "4. Controllers read and write data through models (%d).\n", len(be.Models))
	sb.WriteString("5. Responses flow back to the frontend, which updates state and re-renders.\n")
}

func writeDetails(sb *strings.Builder, in Input) {
	for _, be := range in.Backends {
		fmt.Fprintf(sb, "\n[backend: %s] %s, %s\n", be.Root, be.Framework, be.Architecture)
		routes := make([]string, len(be.Routes))
		for i, r := range be.Routes {
			routes[i] = fmt.Sprintf("%s %s -> %s (%s)", r.Method, r.Path, r.Handler, r.SourceFile)
		}
		writeList(sb, "Routes", routes)
		controllers := make([]string, len(be.Controllers))
		for i, c := range be.Controllers {
			controllers[i] = fmt.Sprintf("%s [%s]", c.Name, strings.Join(c.Methods, ", "))
		}
		writeList(sb, "Controllers", controllers)
		models := make([]string, len(be.Models))
		for i, m := range be.Models {
			models[i] = fmt.Sprintf("%s (%s)", m.Name, m.SchemaSummary)
		}
		writeList(sb, "Models", models)
		writeTree(sb, be.FolderTree)
	}
	for _, fe := range in.Frontends {
		fmt.Fprintf(sb, "\n[frontend: %s] %s, %s\n", fe.Root, fe.Framework, fe.RenderMode)
		routes := make([]string, len(fe.Routes))
		for i, r := range fe.Routes {
			routes[i] = r.Path
			if r.Component != "" {
				routes[i] += " -> " + r.Component
			}
		}
		writeList(sb, "Routes", routes)
		fmt.Fprintf(sb, "Components: %d, Pages: %d\n", len(fe.Components), len(fe.Pages))
		fmt.Fprintf(sb, "State: %s\n", strings.Join(fe.StateManagement, ", "))
	}
	for _, m := range in.MLs {
		libs := "none detected"
		if len(m.Libs) > 0 {
			libs = strings.Join(m.Libs, ", ")
		}
		fmt.Fprintf(sb, "\n[ml: %s] libraries: %s\n", m.Root, libs)
		writeList(sb, "Training", m.TrainingScripts)
		writeList(sb, "Notebooks", m.Notebooks)
	}
}

// writeTree renders a root's folder tree indented under a "Tree:" label,
// capped at maxDetailItems lines.
func writeTree(sb *strings.Builder, nodes []scanner.TreeNode) {
	text := scanner.RenderTree(nodes)
	if text == "" {
		sb.WriteString("Tree: none\n")
		return
	}
	lines := strings.Split(text, "\n")
	sb.WriteString("Tree:\n")
	for i, line := range lines {
		if i == maxDetailItems {
			fmt.Fprintf(sb, "  ... and %d more\n", len(lines)-maxDetailItems)
			break
		}
		fmt.Fprintf(sb, "  %s\n", line)
	}
}

func writeList(sb *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(sb, "%s: none\n", label)
		return
	}
	fmt.Fprintf(sb, "%s:\n", label)
	shown := items
	if len(shown) > maxDetailItems {
		shown = shown[:maxDetailItems]
	}
	for _, item := range shown {
		fmt.Fprintf(sb, "  - %s\n", item)
	}
	if extra := len(items) - len(shown); extra > 0 {
		fmt.Fprintf(sb, "  ... and %d more\n", extra)
	}
}
