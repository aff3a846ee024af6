package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/explain"
	"github.com/blackwell-systems/devinsight/internal/logging"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// Run is the state threaded through the pipeline stages of one analysis.
type Run struct {
	Root   string
	Opts   Options
	Result Result
}

// Stage is one named step of the full pipeline.
type Stage struct {
	Name string
	Do   func(ctx context.Context, r *Run)
}

// DefaultStages returns the full pipeline in execution order.
func DefaultStages() []Stage {
	return []Stage{
		{Name: "scan", Do: scanStage},
		{Name: "detect", Do: detectStage},
		{Name: "classify", Do: classifyStage},
		{Name: "orchestrate", Do: orchestrateStage},
		{Name: "explain", Do: explainStage},
	}
}

// runStages executes the configured stages against root. It stops between
// stages once ctx is done. A panicking stage is recorded as a pipeline
// error and the remaining stages still run.
func runStages(ctx context.Context, root string, opts Options) Result {
	stages := opts.Stages
	if stages == nil {
		stages = DefaultStages()
	}
	log := logging.OrDiscard(opts.Logger)

	r := &Run{Root: root, Opts: opts, Result: newResult(root)}
	r.Result.Source = opts.Source
	for _, st := range stages {
		if ctx.Err() != nil {
			break
		}
		start := time.Now()
		runStage(ctx, st, r)
		log.WithField("stage", st.Name).WithField("elapsed", time.Since(start)).Debug("stage done")
	}
	return r.Result
}

func runStage(ctx context.Context, st Stage, r *Run) {
	defer func() {
		if p := recover(); p != nil {
			msg := fmt.Sprintf("%s: %v", st.Name, p)
			logging.OrDiscard(r.Opts.Logger).WithField("stage", st.Name).Warnf("stage failed: %v", p)
			r.Result.Errors = append(r.Result.Errors, RootError{Root: ".", Kind: KindPipeline, Error: msg})
		}
	}()
	st.Do(ctx, r)
}

func scanStage(ctx context.Context, r *Run) {
	if tree := scanner.Scan(ctx, r.Root, r.Opts.scanOptions(r.Opts.MaxDepth)); tree != nil {
		r.Result.FolderTree = tree
	}
	r.Result.Language = scanner.DetectLanguage(r.Root)
}

func detectStage(_ context.Context, r *Run) {
	r.Result.Framework = detect.DetectFramework(r.Root)
	r.Result.Architecture = detect.ClassifyArchitecture(r.Result.FolderTree)
	r.Result.EntryPoint = detect.DetectEntryPoint(r.Root)
	r.Result.ReadmeSummary = detect.ReadmeSummary(r.Root)
}

func classifyStage(_ context.Context, r *Run) {
	r.Result.Classification = detect.DetectProjectType(r.Root)
}

func orchestrateStage(ctx context.Context, r *Run) {
	mods := Orchestrate(ctx, r.Root, r.Result.Classification, r.Opts)
	r.Result.Backend = mods.Backend
	r.Result.Frontend = mods.Frontend
	r.Result.ML = mods.ML
	r.Result.Errors = append(r.Result.Errors, mods.Errors...)
}

func explainStage(_ context.Context, r *Run) {
	r.Result.Explanation = explain.Synthesize(explainInput(r.Result))
}
