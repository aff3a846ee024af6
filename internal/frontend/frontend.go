// Package frontend inspects a client application root: its framework,
// entry file, components, pages, navigation routes, state management and
// render mode.
package frontend

import (
	"context"
	"fmt"
	"strings"

	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// Route is one navigable client route.
type Route struct {
	Type      string   `json:"type"`
	Path      string   `json:"path"`
	File      string   `json:"file"`
	Component string   `json:"component,omitempty"`
	Params    []string `json:"params,omitempty"`
}

// Module is the analysis of one frontend root.
type Module struct {
	Root            string   `json:"root"`
	Framework       string   `json:"framework"`
	EntryPoint      string   `json:"entryPoint"`
	Components      []string `json:"components"`
	Pages           []string `json:"pages"`
	Routes          []Route  `json:"routes"`
	StateManagement []string `json:"stateManagement"`
	RenderMode      string   `json:"renderMode"`
	ExecutionFlow   string   `json:"executionFlow"`
}

// Labels used in Module.
const (
	NoStateDetected = "None detected"
	RenderSSR       = "SSR"
	RenderNextSPA   = "SPA (Next.js)"
	RenderNuxt      = "SSR (Nuxt)"
	RenderCSR       = "CSR"
	RenderSPA       = "SPA"
)

const (
	maxComponents   = 500
	maxPages        = 300
	maxStateFiles   = 80
	stateReadLimit  = 6000
	maxStateDirDeep = 4
)

var (
	componentExts = []string{".jsx", ".tsx", ".vue", ".js", ".ts"}
	componentDirs = []string{"components", "src/components", "src/Components", "components/ui", "src/components/ui"}
	pageDirs      = []string{"pages", "src/pages", "app", "src/app", "views", "src/views"}
	pageIndexes   = []string{"index.jsx", "index.tsx", "index.vue", "page.jsx", "page.tsx"}
	stateExts     = []string{".js", ".jsx", ".ts", ".tsx", ".vue", ".svelte"}

	entryCandidates = []string{
		"src/main.jsx", "src/main.tsx", "src/main.js", "src/index.jsx", "src/index.tsx", "src/index.js",
		"src/App.jsx", "src/App.tsx", "index.jsx", "index.tsx", "main.jsx", "main.tsx",
	}
)

// frameworkSignatures is checked in order; the first dependency hit wins.
var frameworkSignatures = []struct {
	deps  []string
	label string
}{
	{[]string{"next"}, "Next.js"},
	{[]string{"nuxt", "nuxt3"}, "Nuxt.js"},
	{[]string{"react", "react-dom"}, "React"},
	{[]string{"vue"}, "Vue.js"},
	{[]string{"@angular/core"}, "Angular"},
	{[]string{"svelte"}, "Svelte"},
	{[]string{"vite"}, "Vite"},
}

var stateSignatures = []struct {
	deps  []string
	label string
}{
	{[]string{"redux", "@reduxjs/toolkit"}, "Redux"},
	{[]string{"react-redux"}, "React-Redux"},
	{[]string{"mobx", "mobx-react"}, "MobX"},
	{[]string{"zustand"}, "Zustand"},
	{[]string{"recoil"}, "Recoil"},
	{[]string{"jotai"}, "Jotai"},
	{[]string{"vuex"}, "Vuex"},
	{[]string{"pinia"}, "Pinia"},
}

// Empty returns the module reported for a root that cannot be analyzed.
func Empty(root string) Module {
	return Module{
		Root:            root,
		Framework:       detect.FrameworkUnknown,
		EntryPoint:      detect.EntryNotDetected,
		Components:      []string{},
		Pages:           []string{},
		Routes:          []Route{},
		StateManagement: []string{},
		RenderMode:      RenderSPA,
	}
}

// Analyze inspects the frontend at root. files is the root's relative file
// list and read returns file text by relative path. A missing root yields
// Empty.
func Analyze(ctx context.Context, root string, files []string, read scanner.ReadFunc) (m Module) {
	defer func() {
		if r := recover(); r != nil {
			m = Empty(root)
		}
	}()
	if !scanner.IsDir(root, ".") {
		return Empty(root)
	}
	if read == nil {
		read = func(string, int) string { return "" }
	}

	pkg := detect.ReadPackageJSON(root)
	m = Module{
		Root:       root,
		Framework:  Framework(pkg),
		EntryPoint: entryPoint(root, pkg),
		Components: components(files),
		Pages:      pages(files),
	}
	m.Routes = Routes(ctx, pkg, files, read)
	m.StateManagement = stateManagement(ctx, pkg, files, read)
	m.RenderMode = renderMode(pkg, files, read)
	m.ExecutionFlow = ExecutionFlow(m)
	return m
}

// Framework maps manifest dependencies to a frontend framework label.
func Framework(pkg *detect.PackageJSON) string {
	if pkg == nil {
		return detect.FrameworkUnknown
	}
	for _, s := range frameworkSignatures {
		if pkg.HasDep(s.deps...) {
			return s.label
		}
	}
	return detect.FrameworkUnknown
}

func entryPoint(root string, pkg *detect.PackageJSON) string {
	for _, c := range entryCandidates {
		if scanner.Exists(root, c) {
			return c
		}
	}
	if main := pkg.MainField(); main != "" && scanner.Exists(root, main) {
		return main
	}
	return detect.EntryNotDetected
}

func components(files []string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, d := range componentDirs {
		for _, f := range underPrefix(files, d) {
			if len(out) >= maxComponents {
				return out
			}
			if seen[f] || !scanner.HasExt(f, componentExts...) {
				continue
			}
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// pages lists the files directly inside a pages directory plus the index
// or page file of each immediate subdirectory.
func pages(files []string) []string {
	out := []string{}
	for _, d := range pageDirs {
		for _, f := range underPrefix(files, d) {
			if len(out) >= maxPages {
				return out
			}
			rest := strings.TrimPrefix(f, d+"/")
			parts := strings.Split(rest, "/")
			switch {
			case len(parts) == 1 && scanner.HasExt(rest, componentExts...):
				out = append(out, f)
			case len(parts) == 2 && contains(pageIndexes, parts[1]):
				out = append(out, f)
			}
		}
	}
	return out
}

func stateManagement(ctx context.Context, pkg *detect.PackageJSON, files []string, read scanner.ReadFunc) []string {
	var state []string
	add := func(label string) {
		if !contains(state, label) {
			state = append(state, label)
		}
	}
	for _, s := range stateSignatures {
		if pkg.HasDep(s.deps...) {
			add(s.label)
		}
	}

	scanned := 0
	for _, f := range srcFirst(files) {
		if scanned >= maxStateFiles || ctx.Err() != nil {
			break
		}
		if strings.Count(strings.TrimPrefix(f, "src/"), "/") > maxStateDirDeep || !scanner.HasExt(f, stateExts...) {
			continue
		}
		scanned++
		text := read(f, stateReadLimit)
		if strings.Contains(text, "createContext") {
			add("Context API")
		}
		if strings.Contains(text, "createStore") || strings.Contains(text, "configureStore") {
			add("Redux")
		}
	}
	if len(state) == 0 {
		return []string{NoStateDetected}
	}
	return state
}

var serverDataFuncs = []string{"getServerSideProps", "getStaticProps"}

func renderMode(pkg *detect.PackageJSON, files []string, read scanner.ReadFunc) string {
	switch {
	case pkg.HasDep("next"):
		for _, d := range []string{"pages", "src/pages"} {
			for _, f := range underPrefix(files, d) {
				text := read(f, 0)
				for _, fn := range serverDataFuncs {
					if strings.Contains(text, fn) {
						return RenderSSR
					}
				}
			}
		}
		return RenderNextSPA
	case pkg.HasDep("nuxt", "nuxt3"):
		return RenderNuxt
	case pkg.HasDep("vite") && !pkg.HasDep("react-router", "react-router-dom", "vue-router"):
		return RenderCSR
	}
	return RenderSPA
}

// ExecutionFlow narrates how the frontend boots and responds to the user.
func ExecutionFlow(m Module) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "1. Entry: %s mounts the root component.\n", m.EntryPoint)
	fmt.Fprintf(&sb, "2. Render mode: %s.\n", m.RenderMode)
	if len(m.Routes) > 0 {
		fmt.Fprintf(&sb, "3. Routes (%d): navigation maps URLs to pages/components.\n", len(m.Routes))
	}
	if len(m.Components) > 0 {
		fmt.Fprintf(&sb, "4. Components (%d): reusable UI pieces.\n", len(m.Components))
	}
	if len(m.StateManagement) > 0 && m.StateManagement[0] != NoStateDetected {
		fmt.Fprintf(&sb, "5. State: %s.\n", strings.Join(m.StateManagement, ", "))
	}
	sb.WriteString("6. User interactions update state and re-render the UI.\n")
	return sb.String()
}

func underPrefix(files []string, dir string) []string {
	var out []string
	prefix := dir + "/"
	for _, f := range files {
		if strings.HasPrefix(f, prefix) {
			out = append(out, f)
		}
	}
	return out
}

// srcFirst orders files under src/ ahead of the rest.
func srcFirst(files []string) []string {
	out := make([]string, 0, len(files))
	out = append(out, underPrefix(files, "src")...)
	for _, f := range files {
		if !strings.HasPrefix(f, "src/") {
			out = append(out, f)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
