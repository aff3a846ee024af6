// Package extract recovers routes, controller modules and data models from
// backend source text using pattern heuristics. Each server ecosystem gets
// its own Extractor; all of them produce the same entity shapes.
package extract

import (
	"context"

	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// Route binds an HTTP method and path to a handler name.
type Route struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	Handler    string `json:"handler"`
	SourceFile string `json:"sourceFile"`
}

// Key is the deduplication key for a route.
func (r Route) Key() string {
	return r.Method + ":" + r.Path
}

// ControllerModule is a source file exposing request handlers.
type ControllerModule struct {
	Name    string   `json:"name"`
	File    string   `json:"file"`
	Methods []string `json:"methods"`
}

// ModelDefinition summarizes a schema or entity.
type ModelDefinition struct {
	Name          string `json:"name"`
	File          string `json:"file"`
	SchemaSummary string `json:"schemaSummary"`
}

// Service is a business-logic component found by annotation.
type Service struct {
	Name string `json:"name"`
	File string `json:"file"`
}

// Entities is everything an extractor recovers from one root.
type Entities struct {
	Routes            []Route            `json:"routes"`
	Controllers       []ControllerModule `json:"controllers"`
	Models            []ModelDefinition  `json:"models"`
	Services          []Service          `json:"services,omitempty"`
	ApplicationConfig string             `json:"applicationConfig,omitempty"`
	ApplicationName   string             `json:"applicationName,omitempty"`
}

// Module is the analysis of one backend root.
type Module struct {
	Root         string `json:"root"`
	Framework    string `json:"framework"`
	Architecture string `json:"architecture"`
	EntryPoint   string `json:"entryPoint"`
	Entities
	FolderTree []scanner.TreeNode `json:"folderTree"`
}

// Source is the input to an extractor: a root, its relative file list and
// a reader for file text.
type Source struct {
	Root  string
	Files []string
	Read  scanner.ReadFunc
}

func (s Source) read(rel string, limit int) string {
	if s.Read == nil {
		return ""
	}
	return s.Read(rel, limit)
}

// Extractor recovers entities from one source root.
type Extractor interface {
	// Name identifies the ecosystem, e.g. "express" or "spring".
	Name() string

	// Extract never fails; unreadable files contribute nothing. It stops
	// early when ctx is done and returns what it has.
	Extract(ctx context.Context, src Source) Entities
}

// ForFramework selects the extractor for a detected framework label.
func ForFramework(framework string) Extractor {
	if framework == detect.FrameworkSpringBoot {
		return Spring{}
	}
	return Express{}
}

// Model summary fallbacks.
const (
	SchemaNotParsed = "Schema detected (fields not parsed)"
	EntityNoFields  = "Entity"
)
