package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFile creates root/rel with content, making parent directories.
func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// Scan
// ---------------------------------------------------------------------------

func TestScan_SortsDirsBeforeFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "zeta.js", "")
	writeFile(t, root, "alpha.js", "")
	writeFile(t, root, "routes/users.js", "")
	writeFile(t, root, "controllers/userController.js", "")

	nodes := Scan(context.Background(), root, Options{MaxDepth: 3})

	var names []string
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	want := []string{"controllers", "routes", "alpha.js", "zeta.js"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("expected order %v, got %v", want, names)
	}
	if nodes[0].Kind != KindDir || nodes[2].Kind != KindFile {
		t.Errorf("unexpected kinds: %q, %q", nodes[0].Kind, nodes[2].Kind)
	}
	if got := nodes[1].Children[0].RelativePath; got != "routes/users.js" {
		t.Errorf("expected relative path routes/users.js, got %q", got)
	}
}

func TestScan_SkipsIgnoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/express/index.js", "")
	writeFile(t, root, ".git/HEAD", "")
	writeFile(t, root, "__pycache__/x.pyc", "")
	writeFile(t, root, "src/index.js", "")

	paths := Flatten(Scan(context.Background(), root, Options{}))
	for _, p := range paths {
		if strings.HasPrefix(p, "node_modules") || strings.HasPrefix(p, ".git") || strings.HasPrefix(p, "__pycache__") {
			t.Errorf("ignored path %q leaked into scan", p)
		}
	}
	if len(paths) != 2 {
		t.Errorf("expected src and src/index.js, got %v", paths)
	}
}

func TestScan_RespectsMaxDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b/c/d/e/deep.txt", "x")
	writeFile(t, root, "top.txt", "x")

	for _, depth := range []int{1, 2, 3} {
		nodes := Scan(context.Background(), root, Options{MaxDepth: depth})
		if got := Depth(nodes); got > depth {
			t.Errorf("MaxDepth %d: tree depth %d exceeds bound", depth, got)
		}
	}
}

func TestScan_SkipsOversizedFilesKeepsParent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "assets/big.bin", strings.Repeat("x", 2048))
	writeFile(t, root, "assets/small.txt", "ok")

	nodes := Scan(context.Background(), root, Options{MaxFileBytes: 1024})
	if len(nodes) != 1 || nodes[0].Name != "assets" {
		t.Fatalf("expected assets dir to remain, got %+v", nodes)
	}
	children := nodes[0].Children
	if len(children) != 1 || children[0].Name != "small.txt" {
		t.Errorf("expected only small.txt, got %+v", children)
	}
}

func TestScan_IgnoreGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "public/app.min.js", "")
	writeFile(t, root, "public/app.js", "")
	writeFile(t, root, "fixtures/big/data.json", "")

	opts := Options{IgnoreGlobs: []string{"**/*.min.js", "fixtures"}}
	paths := Flatten(Scan(context.Background(), root, opts))
	joined := strings.Join(paths, ",")
	if strings.Contains(joined, "app.min.js") || strings.Contains(joined, "fixtures") {
		t.Errorf("glob-ignored paths present: %v", paths)
	}
	if !strings.Contains(joined, "public/app.js") {
		t.Errorf("expected public/app.js, got %v", paths)
	}
}

func TestScan_UnreadableRootReturnsEmpty(t *testing.T) {
	nodes := Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{})
	if len(nodes) != 0 {
		t.Errorf("expected no nodes, got %d", len(nodes))
	}
}

func TestScan_CancelledContextStopsWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/b.txt", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if nodes := Scan(ctx, root, Options{}); len(nodes) != 0 {
		t.Errorf("expected empty scan for cancelled context, got %d nodes", len(nodes))
	}
}

// ---------------------------------------------------------------------------
// GetAllFiles / FilesUnder
// ---------------------------------------------------------------------------

func TestGetAllFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "routes/users.js", "")
	writeFile(t, root, "app.js", "")
	writeFile(t, root, "node_modules/x/index.js", "")
	writeFile(t, root, "a/b/c/d/e/f/g/deep.js", "")

	files := GetAllFiles(context.Background(), root, Options{})
	want := []string{"a/b/c/d/e/f/g/deep.js", "app.js", "routes/users.js"}
	if strings.Join(files, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, files)
	}

	shallow := GetAllFiles(context.Background(), root, Options{MaxDepth: 2})
	for _, f := range shallow {
		if strings.Count(f, "/") >= 2 {
			t.Errorf("file %q deeper than MaxDepth 2", f)
		}
	}
}

func TestFilesUnder(t *testing.T) {
	files := []string{"controllers/a.js", "src/controllers/b.js", "controllersX/c.js", "d.js"}
	got := FilesUnder(files, "controllers")
	if len(got) != 2 || got[0] != "controllers/a.js" || got[1] != "src/controllers/b.js" {
		t.Errorf("unexpected FilesUnder result %v", got)
	}
}

// ---------------------------------------------------------------------------
// RenderTree
// ---------------------------------------------------------------------------

func TestRenderTree(t *testing.T) {
	nodes := []TreeNode{
		{Name: "routes", Kind: KindDir, RelativePath: "routes", Children: []TreeNode{
			{Name: "users.js", Kind: KindFile, RelativePath: "routes/users.js"},
		}},
		{Name: "app.js", Kind: KindFile, RelativePath: "app.js"},
	}
	want := "├── routes/\n│   └── users.js\n└── app.js"
	if got := RenderTree(nodes); got != want {
		t.Errorf("RenderTree() =\n%s\nwant\n%s", got, want)
	}
}

// ---------------------------------------------------------------------------
// DetectLanguage
// ---------------------------------------------------------------------------

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"node", []string{"package.json"}, "JavaScript / Node.js"},
		{"python requirements", []string{"requirements.txt"}, "Python"},
		{"python pyproject", []string{"pyproject.toml"}, "Python"},
		{"maven", []string{"pom.xml"}, "Java"},
		{"go", []string{"go.mod"}, "Go"},
		{"package.json wins over requirements", []string{"requirements.txt", "package.json"}, "JavaScript / Node.js"},
		{"nothing", nil, "Unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			for _, f := range tc.files {
				writeFile(t, root, f, "")
			}
			if got := DetectLanguage(root); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TextCache
// ---------------------------------------------------------------------------

func TestTextCache_ReadsAndClips(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.js", "0123456789")

	c := NewTextCache(4, 0)
	read := c.Reader(root)

	if got := read("a.js", 4); got != "0123" {
		t.Errorf("expected clipped read, got %q", got)
	}
	if got := read("a.js", 0); got != "0123456789" {
		t.Errorf("expected full read, got %q", got)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 cached entry, got %d", c.Len())
	}
	if got := read("missing.js", 0); got != "" {
		t.Errorf("expected empty string for missing file, got %q", got)
	}
}

func TestTextCache_NilReadsThrough(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.js", "hello world")

	var c *TextCache
	if got := c.Reader(root)("a.js", 5); got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

func TestTextCache_EvictsOverByteBudget(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.js", "b.js", "c.js"} {
		writeFile(t, root, name, "0123456789")
	}
	writeFile(t, root, "big.js", strings.Repeat("x", 30))

	c := NewTextCache(16, 0)
	c.budget = 25
	read := c.Reader(root)

	read("a.js", 0)
	read("b.js", 0)
	if c.Bytes() != 20 {
		t.Fatalf("expected 20 cached bytes, got %d", c.Bytes())
	}

	read("c.js", 0)
	if c.Len() != 2 || c.Bytes() != 20 {
		t.Errorf("expected oldest entry evicted (2 entries, 20 bytes), got %d entries, %d bytes", c.Len(), c.Bytes())
	}

	if got := read("big.js", 5); got != "xxxxx" {
		t.Errorf("expected read-through for oversized file, got %q", got)
	}
	if c.Len() != 2 || c.Bytes() != 20 {
		t.Errorf("expected oversized file left uncached, got %d entries, %d bytes", c.Len(), c.Bytes())
	}
}
