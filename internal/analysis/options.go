package analysis

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/devinsight/internal/config"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// Options bounds one analysis.
type Options struct {
	// MaxDepth limits the full tree scan.
	MaxDepth int

	// PartialDepth limits the scan used for a partial result.
	PartialDepth int

	MaxFileBytes int64
	IgnoreGlobs  []string

	// CacheEntries sizes the per-analysis file text cache.
	CacheEntries int

	// Source identifies the analyzed tree in the result, e.g. its git
	// remote. Empty leaves Result.Source unset.
	Source string

	Logger logrus.FieldLogger

	// Stages replaces the full pipeline. Nil runs DefaultStages.
	Stages []Stage
}

// OptionsFromConfig builds Options from the analysis config section.
func OptionsFromConfig(a config.Analysis) Options {
	return Options{
		MaxDepth:     a.MaxDepth,
		PartialDepth: a.PartialDepth,
		MaxFileBytes: a.MaxFileBytes,
		IgnoreGlobs:  a.IgnoreGlobs,
		CacheEntries: a.TextCacheEntries,
	}
}

func (o Options) scanOptions(depth int) scanner.Options {
	return scanner.Options{
		MaxDepth:     depth,
		MaxFileBytes: o.MaxFileBytes,
		IgnoreGlobs:  o.IgnoreGlobs,
	}
}

func (o Options) partialDepth() int {
	if o.PartialDepth > 0 {
		return o.PartialDepth
	}
	return config.DefaultAnalysis.PartialDepth
}

// budgetOrDefault returns budget, or the configured default when it is
// not positive.
func budgetOrDefault(budget time.Duration) time.Duration {
	if budget > 0 {
		return budget
	}
	return time.Duration(config.DefaultBudgetMS) * time.Millisecond
}
