// Package watcher re-analyzes a source tree when its files change and
// emits alerts when the detected structure shifts.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/devinsight/internal/analysis"
	"github.com/blackwell-systems/devinsight/internal/logging"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// WatchState captures the parts of an analysis that alerts compare.
type WatchState struct {
	Timestamp     time.Time
	ProjectType   string
	Framework     string
	Architecture  string
	BackendRoots  []string
	FrontendRoots []string
	RouteCount    int
	ErrorCount    int
	Partial       bool

	// routes holds METHOD:path keys across backend roots.
	routes map[string]bool
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// Options configures a Watcher.
type Options struct {
	Analysis analysis.Options
	Budget   time.Duration

	// Debounce is how long the tree must be quiet before re-analysis.
	Debounce time.Duration

	// PollInterval is used when file notifications are unavailable.
	PollInterval time.Duration

	Logger logrus.FieldLogger
}

const (
	defaultDebounce     = 2 * time.Second
	defaultPollInterval = 30 * time.Second
)

// Watcher re-analyzes root on change and emits alerts when notable
// differences from the previous analysis are detected.
type Watcher struct {
	root          string
	opts          Options
	log           logrus.FieldLogger
	previous      *WatchState
	alertFn       func(Alert)     // callback for emitting alerts
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts
}

// New creates a Watcher for the tree at root.
func New(root string, opts Options, alertFn func(Alert)) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	return &Watcher{
		root:          root,
		opts:          opts,
		log:           logging.OrDiscard(opts.Logger).WithField("root", root),
		alertFn:       alertFn,
		lastAlertKeys: make(map[string]bool),
	}
}

// Run takes an initial snapshot, then re-checks after each burst of file
// changes. Without file notifications it polls. Blocks until ctx is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	initial, err := w.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	w.previous = initial

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.log.WithError(err).Warn("file notifications unavailable; polling")
		return w.poll(ctx)
	}
	defer fw.Close()
	if err := w.addTree(fw, w.root); err != nil {
		return fmt.Errorf("watching %s: %w", w.root, err)
	}

	// Stopped until the first event arrives.
	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.ignored(ev.Name) {
				continue
			}
			if ev.Op&fsnotify.Create == fsnotify.Create && scanner.IsDir(ev.Name, ".") {
				if err := w.addTree(fw, ev.Name); err != nil {
					w.log.WithError(err).WithField("dir", ev.Name).Debug("could not watch new directory")
				}
			}
			debounce.Reset(w.opts.Debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("file watcher error")
		case <-debounce.C:
			w.emit(w.Check(ctx))
		}
	}
}

func (w *Watcher) poll(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.emit(w.Check(ctx))
		}
	}
}

func (w *Watcher) emit(alerts []Alert) {
	if w.alertFn == nil {
		return
	}
	for _, a := range alerts {
		w.alertFn(a)
	}
}

// addTree watches dir and every non-ignored directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != dir && scanner.IsIgnoredDir(d.Name()) {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
}

// ignored reports whether a changed path lies under an ignored directory.
func (w *Watcher) ignored(name string) bool {
	rel, err := filepath.Rel(w.root, name)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if scanner.IsIgnoredDir(seg) {
			return true
		}
	}
	return false
}

// Check performs a single check cycle: takes a new snapshot, compares against
// the previous state, updates the previous state, and returns any alerts.
// Identical alerts are suppressed until the underlying data changes.
func (w *Watcher) Check(ctx context.Context) []Alert {
	curr, err := w.Snapshot(ctx)
	if err != nil {
		return []Alert{{
			Level:   "warning",
			Title:   "Analysis failed",
			Message: fmt.Sprintf("Could not analyze %s: %v", w.root, err),
			Time:    time.Now(),
		}}
	}

	var raw []Alert
	if w.previous != nil {
		raw = Compare(w.previous, curr)
	}

	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys

	w.previous = curr
	return alerts
}

// Snapshot analyzes the tree and reduces the result to a WatchState.
func (w *Watcher) Snapshot(ctx context.Context) (*WatchState, error) {
	opts := w.opts.Analysis
	opts.Logger = w.log
	res, partial, err := analysis.Analyze(ctx, w.root, w.opts.Budget, opts)
	if err != nil {
		return nil, err
	}
	return StateFromResult(res, partial), nil
}

// StateFromResult reduces an analysis result to the fields alerts compare.
func StateFromResult(res analysis.Result, partial bool) *WatchState {
	st := &WatchState{
		Timestamp:     time.Now(),
		ProjectType:   string(res.Classification.ProjectType),
		Framework:     res.Framework,
		Architecture:  res.Architecture,
		BackendRoots:  sortedCopy(res.Classification.BackendRoots),
		FrontendRoots: sortedCopy(res.Classification.FrontendRoots),
		RouteCount:    res.RouteCount(),
		ErrorCount:    len(res.Errors),
		Partial:       partial,
		routes:        make(map[string]bool),
	}
	for _, be := range res.Backend {
		for _, r := range be.Routes {
			st.routes[r.Key()] = true
		}
	}
	return st
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
