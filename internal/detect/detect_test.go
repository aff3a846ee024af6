package detect

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/devinsight/internal/scanner"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func mkdir(t *testing.T, root, rel string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(rel)), 0o755))
}

// ---------------------------------------------------------------------------
// DetectProjectType
// ---------------------------------------------------------------------------

func TestDetectProjectType_ClientServerMonorepo(t *testing.T) {
	root := t.TempDir()
	write(t, root, "client/package.json", `{"dependencies":{"react":"^18.0.0"}}`)
	write(t, root, "server/package.json", `{"dependencies":{"express":"^4.18.0"}}`)

	cls := DetectProjectType(root)

	assert.True(t, cls.IsMonorepo)
	assert.Equal(t, Monorepo, cls.ProjectType)
	assert.Equal(t, []string{"client"}, cls.FrontendRoots)
	assert.Equal(t, []string{"server"}, cls.BackendRoots)
	assert.Empty(t, cls.MLRoots)
}

func TestDetectProjectType_TwoBackendRootsDefaultsFrontendToDot(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"dependencies":{"react":"18"}}`)
	mkdir(t, root, "api")
	mkdir(t, root, "backend")

	cls := DetectProjectType(root)

	assert.Equal(t, Monorepo, cls.ProjectType)
	assert.Equal(t, []string{"api", "backend"}, cls.BackendRoots)
	assert.Equal(t, []string{"."}, cls.FrontendRoots)
}

func TestDetectProjectType_SingleRootKinds(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		wantType ProjectType
		wantFE   []string
		wantBE   []string
		wantML   []string
	}{
		{
			name:     "express backend",
			files:    map[string]string{"package.json": `{"dependencies":{"express":"4"}}`},
			wantType: BackendOnly, wantFE: []string{}, wantBE: []string{"."}, wantML: []string{},
		},
		{
			name:     "backend by folder marker",
			files:    map[string]string{"package.json": `{}`, "routes/a.js": ""},
			wantType: BackendOnly, wantFE: []string{}, wantBE: []string{"."}, wantML: []string{},
		},
		{
			name:     "react frontend",
			files:    map[string]string{"package.json": `{"dependencies":{"react":"18"}}`},
			wantType: FrontendOnly, wantFE: []string{"."}, wantBE: []string{}, wantML: []string{},
		},
		{
			name: "fullstack with ml",
			files: map[string]string{
				"package.json":     `{"dependencies":{"express":"4","react":"18"}}`,
				"requirements.txt": "numpy\n",
			},
			wantType: Fullstack, wantFE: []string{"."}, wantBE: []string{"."}, wantML: []string{"."},
		},
		{
			name:     "ml by requirements",
			files:    map[string]string{"requirements.txt": "torch\n"},
			wantType: MLProject, wantFE: []string{}, wantBE: []string{}, wantML: []string{"."},
		},
		{
			name:     "ml by nested notebook",
			files:    map[string]string{"notebooks/explore.ipynb": "{}"},
			wantType: MLProject, wantFE: []string{}, wantBE: []string{}, wantML: []string{"."},
		},
		{
			name:     "routes folder without manifest is unknown",
			files:    map[string]string{"routes/a.js": ""},
			wantType: Unknown, wantFE: []string{}, wantBE: []string{}, wantML: []string{},
		},
		{
			name:     "empty",
			files:    nil,
			wantType: Unknown, wantFE: []string{}, wantBE: []string{}, wantML: []string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			for rel, content := range tc.files {
				write(t, root, rel, content)
			}
			cls := DetectProjectType(root)
			assert.Equal(t, tc.wantType, cls.ProjectType)
			assert.Equal(t, tc.wantFE, cls.FrontendRoots)
			assert.Equal(t, tc.wantBE, cls.BackendRoots)
			assert.Equal(t, tc.wantML, cls.MLRoots)
			assert.False(t, cls.IsMonorepo)
		})
	}
}

func TestDetectProjectType_AddingBackendEvidenceYieldsFullstack(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"dependencies":{"react":"18"}}`)
	require.Equal(t, FrontendOnly, DetectProjectType(root).ProjectType)

	write(t, root, "package.json", `{"dependencies":{"react":"18","express":"4"}}`)
	assert.Equal(t, Fullstack, DetectProjectType(root).ProjectType)
}

func TestDetectProjectType_MLNeverCreatesMonorepo(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"dependencies":{"express":"4"}}`)
	write(t, root, "requirements.txt", "pandas\n")
	write(t, root, "train.py", "")

	cls := DetectProjectType(root)
	assert.False(t, cls.IsMonorepo)
	assert.Equal(t, BackendOnly, cls.ProjectType)
}

func TestDetectProjectType_MissingRoot(t *testing.T) {
	cls := DetectProjectType(filepath.Join(t.TempDir(), "nope"))
	assert.Equal(t, Unknown, cls.ProjectType)
	assert.NotNil(t, cls.FrontendRoots)
}

func TestDetectProjectType_Workspaces(t *testing.T) {
	root := t.TempDir()
	write(t, root, "package.json", `{"workspaces":["apps/*"],"dependencies":{"next":"14"}}`)
	write(t, root, "pnpm-workspace.yaml", "packages:\n  - 'packages/*'\n  - 'apps/*'\n")

	cls := DetectProjectType(root)
	assert.Equal(t, []string{"apps/*", "packages/*"}, cls.Workspaces)
	assert.False(t, cls.IsMonorepo)
}

// ---------------------------------------------------------------------------
// DetectFramework
// ---------------------------------------------------------------------------

func TestDetectFramework(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"express", map[string]string{"package.json": `{"dependencies":{"express":"4"}}`}, "Express.js"},
		{"next before react", map[string]string{"package.json": `{"dependencies":{"react":"18","next":"14"}}`}, "Next.js"},
		{"react", map[string]string{"package.json": `{"dependencies":{"react":"18"}}`}, "React"},
		{"dev dependency counts", map[string]string{"package.json": `{"devDependencies":{"vue":"3"}}`}, "Vue.js"},
		{"no framework", map[string]string{"package.json": `{"dependencies":{"lodash":"4"}}`}, FrameworkNotDetected},
		{"spring boot pom", map[string]string{"pom.xml": `<artifactId>spring-boot-starter-web</artifactId>`}, FrameworkSpringBoot},
		{"flask", map[string]string{"requirements.txt": "Flask==3.0\n"}, "Flask"},
		{"no manifest", nil, FrameworkUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			for rel, content := range tc.files {
				write(t, root, rel, content)
			}
			assert.Equal(t, tc.want, DetectFramework(root))
		})
	}
}

// ---------------------------------------------------------------------------
// ClassifyArchitecture
// ---------------------------------------------------------------------------

func TestClassifyPaths_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  string
	}{
		{"mvc beats component-based", []string{"controllers", "models", "views", "components", "pages"}, ArchMVC},
		{"layered", []string{"controllers", "services", "repositories"}, ArchLayered},
		{"component-based with pages", []string{"src/components", "src/pages"}, ArchComponentBased},
		{"route-controller-model", []string{"routes", "routes/users.js", "controllers"}, ArchRCM},
		{"basic structured", []string{"models"}, ArchBasic},
		{"components alone", []string{"src/components/Button.jsx"}, ArchComponentBased},
		{"flat", []string{"index.js", "README.md"}, ArchFlat},
		{"ml pipeline", []string{"data", "data/raw.csv", "train_model.py", "controllers"}, ArchMLPipeline},
		{"case insensitive", []string{"Controllers", "Models", "Views"}, ArchMVC},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyPaths(tc.paths))
		})
	}
}

func TestClassifyArchitecture_Microservices(t *testing.T) {
	root := t.TempDir()
	write(t, root, "user-service/package.json", "{}")
	write(t, root, "user-service/routes/users.js", "")
	write(t, root, "order-service/package.json", "{}")
	write(t, root, "order-service/controllers/orders.js", "")
	write(t, root, "order-service/models/order.js", "")
	write(t, root, "order-service/views/x.ejs", "")

	nodes := scanner.Scan(context.Background(), root, scanner.Options{MaxDepth: 4})
	assert.Equal(t, ArchMicroservices, ClassifyArchitecture(nodes))
}

func TestClassifyArchitecture_SingleServiceDirIsNotMicroservices(t *testing.T) {
	root := t.TempDir()
	write(t, root, "api/package.json", "{}")
	write(t, root, "routes/users.js", "")
	write(t, root, "controllers/users.js", "")

	nodes := scanner.Scan(context.Background(), root, scanner.Options{MaxDepth: 4})
	assert.Equal(t, ArchRCM, ClassifyArchitecture(nodes))
}

// ---------------------------------------------------------------------------
// DetectEntryPoint
// ---------------------------------------------------------------------------

func TestDetectEntryPoint(t *testing.T) {
	t.Run("package main wins when present", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "package.json", `{"main":"lib/start.js"}`)
		write(t, root, "lib/start.js", "")
		write(t, root, "app.js", "")
		assert.Equal(t, "lib/start.js", DetectEntryPoint(root))
	})

	t.Run("missing main falls back to candidates", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "package.json", `{"main":"gone.js"}`)
		write(t, root, "server.js", "")
		write(t, root, "src/index.js", "")
		assert.Equal(t, "server.js", DetectEntryPoint(root))
	})

	t.Run("vite entry", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "src/main.tsx", "")
		assert.Equal(t, "src/main.tsx", DetectEntryPoint(root))
	})

	t.Run("nothing", func(t *testing.T) {
		assert.Equal(t, EntryNotDetected, DetectEntryPoint(t.TempDir()))
	})
}

// ---------------------------------------------------------------------------
// ReadmeSummary
// ---------------------------------------------------------------------------

func TestReadmeSummary(t *testing.T) {
	root := t.TempDir()
	assert.Equal(t, "", ReadmeSummary(root))

	write(t, root, "README.md", "  # Title\r\nBody\r\n  ")
	assert.Equal(t, "# Title\nBody", ReadmeSummary(root))

	write(t, root, "README.md", strings.Repeat("a", ReadmeMaxChars+10))
	got := ReadmeSummary(root)
	assert.True(t, strings.HasSuffix(got, "\n\n... (truncated)"))
	assert.Len(t, got, ReadmeMaxChars+len("\n\n... (truncated)"))
}

func TestReadmeSummary_TruncatesOnRuneBoundary(t *testing.T) {
	root := t.TempDir()
	// Every é is two bytes and starts at an odd offset, so the cap lands
	// inside one.
	write(t, root, "README.md", "a"+strings.Repeat("é", ReadmeMaxChars))

	got := ReadmeSummary(root)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "a"+strings.Repeat("é", (ReadmeMaxChars-1)/2)+"\n\n... (truncated)", got)
}

// ---------------------------------------------------------------------------
// Manifests
// ---------------------------------------------------------------------------

func TestReadRequirements(t *testing.T) {
	root := t.TempDir()
	write(t, root, "requirements.txt", "# comment\nTorch==2.1.0\nnumpy >= 1.24\n-r other.txt\nscikit-learn[alldeps]\npandas ; python_version>'3.8'\n\n")

	assert.Equal(t, []string{"torch", "numpy", "scikit-learn", "pandas"}, ReadRequirements(root))
}

func TestReadPyproject(t *testing.T) {
	t.Run("pep 621", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "pyproject.toml", `[project]
name = "demo"
dependencies = ["TensorFlow>=2.0", "pandas"]
`)
		assert.Equal(t, []string{"pandas", "tensorflow"}, ReadPyproject(root))
	})

	t.Run("poetry", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "pyproject.toml", `[tool.poetry.dependencies]
python = "^3.11"
xgboost = "^2.0"
`)
		assert.Equal(t, []string{"xgboost"}, ReadPyproject(root))
	})

	t.Run("malformed falls back to line scan", func(t *testing.T) {
		root := t.TempDir()
		write(t, root, "pyproject.toml", "dependencies = [\n  \"torch\",\n  \"numpy\"\n[[broken")
		assert.Equal(t, []string{"torch", "numpy"}, ReadPyproject(root))
	})
}
