package watcher

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// maxListedRoutes caps the route keys named in one alert message.
const maxListedRoutes = 5

// Compare detects notable changes between two watch states and returns alerts.
// It checks for critical, warning, and info-level changes.
func Compare(prev, curr *WatchState) []Alert {
	var alerts []Alert

	alerts = append(alerts, compareCritical(prev, curr)...)
	alerts = append(alerts, compareWarning(prev, curr)...)
	alerts = append(alerts, compareInfo(prev, curr)...)

	return alerts
}

// compareCritical detects critical-level changes.
func compareCritical(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := time.Now()

	if curr.ProjectType != prev.ProjectType {
		alerts = append(alerts, Alert{
			Level:   "critical",
			Title:   "Project type changed",
			Message: fmt.Sprintf("%s -> %s", prev.ProjectType, curr.ProjectType),
			Time:    now,
		})
	}

	if curr.ErrorCount > prev.ErrorCount {
		alerts = append(alerts, Alert{
			Level:   "critical",
			Title:   "Analyzer failures",
			Message: fmt.Sprintf("%d root(s) failed to analyze (was %d)", curr.ErrorCount, prev.ErrorCount),
			Time:    now,
		})
	}

	return alerts
}

// compareWarning detects warning-level changes.
func compareWarning(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := time.Now()

	if curr.Framework != prev.Framework {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Framework changed",
			Message: fmt.Sprintf("%s -> %s", prev.Framework, curr.Framework),
			Time:    now,
		})
	}

	if curr.Architecture != prev.Architecture {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Architecture changed",
			Message: fmt.Sprintf("%s -> %s", prev.Architecture, curr.Architecture),
			Time:    now,
		})
	}

	if removed := diffKeys(prev.routes, curr.routes); len(removed) > 0 {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   fmt.Sprintf("Routes removed: %d", len(removed)),
			Message: listKeys(removed),
			Time:    now,
		})
	}

	if curr.Partial && !prev.Partial {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Analysis exceeded budget",
			Message: "Only a partial result was produced; consider a larger budget or more ignore globs",
			Time:    now,
		})
	}

	return alerts
}

// compareInfo detects informational changes.
func compareInfo(prev, curr *WatchState) []Alert {
	var alerts []Alert
	now := time.Now()

	if added := diffKeys(curr.routes, prev.routes); len(added) > 0 {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   fmt.Sprintf("Routes added: %d", len(added)),
			Message: listKeys(added),
			Time:    now,
		})
	}

	for _, root := range newEntries(prev.BackendRoots, curr.BackendRoots) {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   fmt.Sprintf("New backend root: %s", root),
			Message: fmt.Sprintf("Backend code detected under %s", root),
			Time:    now,
		})
	}
	for _, root := range newEntries(prev.FrontendRoots, curr.FrontendRoots) {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   fmt.Sprintf("New frontend root: %s", root),
			Message: fmt.Sprintf("Frontend code detected under %s", root),
			Time:    now,
		})
	}

	if prev.Partial && !curr.Partial {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Full analysis restored",
			Message: "Analysis completed within budget",
			Time:    now,
		})
	}

	return alerts
}

// diffKeys returns the sorted keys of a that are missing from b.
func diffKeys(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// newEntries returns the items of curr absent from prev, in curr order.
func newEntries(prev, curr []string) []string {
	seen := make(map[string]bool, len(prev))
	for _, p := range prev {
		seen[p] = true
	}
	var out []string
	for _, c := range curr {
		if !seen[c] {
			out = append(out, c)
		}
	}
	return out
}

func listKeys(keys []string) string {
	if len(keys) <= maxListedRoutes {
		return strings.Join(keys, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(keys[:maxListedRoutes], ", "), len(keys)-maxListedRoutes)
}
