package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/extract"
	"github.com/blackwell-systems/devinsight/internal/frontend"
	"github.com/blackwell-systems/devinsight/internal/logging"
	"github.com/blackwell-systems/devinsight/internal/ml"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// maxParallelRoots bounds how many roots are analyzed at once.
const maxParallelRoots = 4

// backendAnalyzer builds each backend root's module. Tests replace it.
var backendAnalyzer = analyzeBackend

// Modules is the per-root output of Orchestrate.
type Modules struct {
	Backend  []BackendModule
	Frontend []frontend.Module
	ML       []ml.Module
	Errors   []RootError
}

// Orchestrate analyzes every root named in cls under project. A root whose
// analyzer panics is recorded in Errors and left out; its siblings are
// unaffected. ML roots without any ML signal are dropped. Each list is
// sorted by root.
func Orchestrate(ctx context.Context, project string, cls detect.ProjectClassification, opts Options) Modules {
	log := logging.OrDiscard(opts.Logger)
	cache := scanner.NewTextCache(opts.CacheEntries, opts.MaxFileBytes)

	var (
		mu  sync.Mutex
		out = Modules{
			Backend:  []BackendModule{},
			Frontend: []frontend.Module{},
			ML:       []ml.Module{},
		}
	)

	var g errgroup.Group
	g.SetLimit(maxParallelRoots)

	run := func(kind, root string, fn func(ctx context.Context, abs string)) {
		g.Go(func() error {
			ctx, span := startSpan(ctx, "analysis.root",
				attribute.String("root", root),
				attribute.String("kind", kind),
			)
			defer span.End()
			defer func() {
				if r := recover(); r != nil {
					msg := fmt.Sprint(r)
					recordFailure(span, msg)
					log.WithField("root", root).WithField("kind", kind).Warnf("analyzer failed: %s", msg)
					mu.Lock()
					out.Errors = append(out.Errors, RootError{Root: root, Kind: kind, Error: msg})
					mu.Unlock()
				}
			}()
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx, rootPath(project, root))
			return nil
		})
	}

	for _, root := range cls.BackendRoots {
		run(KindBackend, root, func(ctx context.Context, abs string) {
			m := backendAnalyzer(ctx, abs, opts, cache)
			m.Root = root
			mu.Lock()
			out.Backend = append(out.Backend, m)
			mu.Unlock()
		})
	}
	for _, root := range cls.FrontendRoots {
		run(KindFrontend, root, func(ctx context.Context, abs string) {
			files := scanner.GetAllFiles(ctx, abs, opts.scanOptions(0))
			m := frontend.Analyze(ctx, abs, files, cache.Reader(abs))
			m.Root = root
			mu.Lock()
			out.Frontend = append(out.Frontend, m)
			mu.Unlock()
		})
	}
	for _, root := range cls.MLRoots {
		run(KindML, root, func(ctx context.Context, abs string) {
			files := scanner.GetAllFiles(ctx, abs, opts.scanOptions(0))
			m := ml.Analyze(ctx, abs, files)
			if !m.Relevant() {
				log.WithField("root", root).Debug("no ML signals; dropping root")
				return
			}
			m.Root = root
			mu.Lock()
			out.ML = append(out.ML, m)
			mu.Unlock()
		})
	}
	_ = g.Wait()

	sort.Slice(out.Backend, func(i, j int) bool { return out.Backend[i].Root < out.Backend[j].Root })
	sort.Slice(out.Frontend, func(i, j int) bool { return out.Frontend[i].Root < out.Frontend[j].Root })
	sort.Slice(out.ML, func(i, j int) bool { return out.ML[i].Root < out.ML[j].Root })
	sort.Slice(out.Errors, func(i, j int) bool {
		if out.Errors[i].Root != out.Errors[j].Root {
			return out.Errors[i].Root < out.Errors[j].Root
		}
		return out.Errors[i].Kind < out.Errors[j].Kind
	})
	return out
}

// analyzeBackend builds the module for one backend root: its own tree,
// framework, architecture, entry point and extracted entities.
func analyzeBackend(ctx context.Context, abs string, opts Options, cache *scanner.TextCache) BackendModule {
	tree := scanner.Scan(ctx, abs, opts.scanOptions(opts.MaxDepth))
	framework := detect.DetectFramework(abs)
	src := extract.Source{
		Root:  abs,
		Files: scanner.GetAllFiles(ctx, abs, opts.scanOptions(0)),
		Read:  cache.Reader(abs),
	}
	if tree == nil {
		tree = []scanner.TreeNode{}
	}
	return BackendModule{
		Framework:    framework,
		Architecture: detect.ClassifyArchitecture(tree),
		EntryPoint:   detect.DetectEntryPoint(abs),
		Entities:     extract.ForFramework(framework).Extract(ctx, src),
		FolderTree:   tree,
	}
}

func rootPath(project, root string) string {
	if root == "." || root == "" {
		return project
	}
	return filepath.Join(project, filepath.FromSlash(root))
}
