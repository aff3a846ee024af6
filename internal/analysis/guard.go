package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/explain"
	"github.com/blackwell-systems/devinsight/internal/logging"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// PartialFlow replaces the execution flow of a partial result.
const PartialFlow = "Analysis exceeded its time budget; only a shallow scan and project-type detection are shown.\n"

// Analyze runs the full pipeline on path, bounded by budget. When the
// budget expires first, the in-flight run is cancelled, its eventual
// output discarded, and a shallow Partial result returned with partial
// set. The only error is ErrNotDirectory (or a path that cannot be made
// absolute); every other failure degrades inside the result.
func Analyze(ctx context.Context, path string, budget time.Duration, opts Options) (Result, bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{}, false, fmt.Errorf("resolving %s: %w", path, err)
	}
	if !scanner.IsDir(abs, ".") {
		return Result{}, false, fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	budget = budgetOrDefault(budget)
	log := logging.OrDiscard(opts.Logger).WithField("path", abs)

	ctx, span := startSpan(ctx, "analysis.Analyze",
		attribute.String("path", abs),
		attribute.Int64("budget_ms", budget.Milliseconds()),
	)
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	// Buffered so a run that finishes after the deadline does not block.
	done := make(chan Result, 1)
	go func() {
		done <- runStages(runCtx, abs, opts)
	}()

	timer := time.NewTimer(budget)
	defer timer.Stop()

	started := time.Now()
	select {
	case res := <-done:
		if runCtx.Err() == nil {
			log.WithField("elapsed", time.Since(started)).Debug("analysis complete")
			span.SetAttributes(attribute.String("project_type", string(res.Classification.ProjectType)))
			return res, false, nil
		}
		// The run noticed the deadline and stopped early; its output is
		// incomplete.
	case <-timer.C:
	case <-ctx.Done():
	}
	cancel()

	log.WithField("budget", budget).Warn("analysis budget exceeded; returning partial result")
	span.SetAttributes(attribute.Bool("partial", true))
	return Partial(context.WithoutCancel(ctx), abs, opts), true, nil
}

// Partial returns a shallow result for root: a tree limited to the
// partial depth, the language and the project-type classification. Its
// folder tree text is never empty.
func Partial(ctx context.Context, root string, opts Options) Result {
	res := newResult(root)
	res.Source = opts.Source
	res.Partial = true
	if tree := scanner.Scan(ctx, root, opts.scanOptions(opts.partialDepth())); tree != nil {
		res.FolderTree = tree
	}
	res.Language = scanner.DetectLanguage(root)
	res.Classification = detect.DetectProjectType(root)
	res.Explanation = explain.Synthesize(explainInput(res))
	res.Explanation.ExecutionFlow = PartialFlow
	return res
}
