package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blackwell-systems/devinsight/internal/analysis"
	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/extract"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func expressTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "package.json", `{"dependencies":{"express":"4.18.0"}}`)
	writeFile(t, root, "routes/users.js", "router.get('/users', userController.list);\n")
	writeFile(t, root, "controllers/userController.js", "exports.list = (req, res) => {};\n")
	return root
}

func testOptions() Options {
	return Options{Budget: 10 * time.Second}
}

func TestNew_Defaults(t *testing.T) {
	called := false
	w := New("/some/dir", Options{}, func(Alert) { called = true })

	if w.root != "/some/dir" {
		t.Errorf("expected root '/some/dir', got %q", w.root)
	}
	if w.opts.Debounce != defaultDebounce {
		t.Errorf("expected default debounce, got %v", w.opts.Debounce)
	}
	if w.opts.PollInterval != defaultPollInterval {
		t.Errorf("expected default poll interval, got %v", w.opts.PollInterval)
	}
	w.emit([]Alert{{Level: "info"}})
	if !called {
		t.Error("expected alertFn to be called")
	}
}

func TestStateFromResult(t *testing.T) {
	res := analysis.Result{
		Framework:    "Express.js",
		Architecture: "RCM",
		Classification: detect.ProjectClassification{
			ProjectType:   detect.Monorepo,
			BackendRoots:  []string{"server", "api"},
			FrontendRoots: []string{"client"},
		},
		Backend: []analysis.BackendModule{{
			Root: "server",
			Entities: extract.Entities{Routes: []extract.Route{
				{Method: "GET", Path: "/users"},
				{Method: "POST", Path: "/users"},
			}},
		}},
		Errors: []analysis.RootError{{Root: "api", Kind: analysis.KindBackend, Error: "boom"}},
	}

	st := StateFromResult(res, true)
	if st.ProjectType != string(detect.Monorepo) {
		t.Errorf("project type: got %q", st.ProjectType)
	}
	if st.BackendRoots[0] != "api" || st.BackendRoots[1] != "server" {
		t.Errorf("expected sorted backend roots, got %v", st.BackendRoots)
	}
	if st.RouteCount != 2 || !st.routes["GET:/users"] || !st.routes["POST:/users"] {
		t.Errorf("routes: count=%d keys=%v", st.RouteCount, st.routes)
	}
	if st.ErrorCount != 1 || !st.Partial {
		t.Errorf("errors=%d partial=%v", st.ErrorCount, st.Partial)
	}
	// The input slice is left untouched.
	if res.Classification.BackendRoots[0] != "server" {
		t.Error("StateFromResult mutated the result")
	}
}

func TestSnapshot_MissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "gone"), testOptions(), nil)

	if _, err := w.Snapshot(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}

	alerts := w.Check(context.Background())
	if len(alerts) != 1 || alerts[0].Title != "Analysis failed" {
		t.Errorf("expected one analysis failure alert, got %+v", alerts)
	}
}

func TestCheck_DetectsNewRoute(t *testing.T) {
	root := expressTree(t)
	w := New(root, testOptions(), nil)

	initial, err := w.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("initial snapshot error: %v", err)
	}
	if initial.RouteCount != 1 {
		t.Fatalf("expected 1 route, got %d", initial.RouteCount)
	}
	w.previous = initial

	writeFile(t, root, "routes/health.js", "router.get('/health', (req, res) => res.send('ok'));\n")

	alerts := w.Check(context.Background())
	a := findAlert(alerts, "info", "Routes added")
	if a == nil {
		t.Fatalf("expected routes added alert, got %+v", alerts)
	}
	if a.Message != "GET:/health" {
		t.Errorf("message: got %q", a.Message)
	}

	// Nothing changed since the last check.
	if again := w.Check(context.Background()); len(again) != 0 {
		t.Errorf("expected no alerts on unchanged tree, got %+v", again)
	}
}

func TestCheck_SuppressesRepeatedAlerts(t *testing.T) {
	root := expressTree(t)
	w := New(root, testOptions(), nil)

	snap, err := w.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot error: %v", err)
	}
	stale := *snap
	stale.Framework = "Spring Boot"

	w.previous = &stale
	first := w.Check(context.Background())
	if findAlert(first, "warning", "Framework changed") == nil {
		t.Fatalf("expected framework warning, got %+v", first)
	}

	// The same transition is not reported twice in a row.
	again := stale
	w.previous = &again
	second := w.Check(context.Background())
	if findAlert(second, "warning", "Framework changed") != nil {
		t.Errorf("expected repeated alert to be suppressed, got %+v", second)
	}
}

func TestIgnored(t *testing.T) {
	w := New("/repo", testOptions(), nil)
	tests := []struct {
		path string
		want bool
	}{
		{"/repo/src/app.js", false},
		{"/repo/node_modules/express/index.js", true},
		{"/repo/.git/HEAD", true},
		{"/repo/server/node_modules/x.js", true},
	}
	for _, tc := range tests {
		if got := w.ignored(tc.path); got != tc.want {
			t.Errorf("ignored(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	root := expressTree(t)
	w := New(root, Options{Budget: 10 * time.Second, Debounce: 20 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
