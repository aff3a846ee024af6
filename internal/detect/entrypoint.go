package detect

import "github.com/blackwell-systems/devinsight/internal/scanner"

// EntryNotDetected is returned when no entry file is found.
const EntryNotDetected = "Not detected"

// entryCandidates is ranked: server entry files first, then bundler
// entries, then a static index.
var entryCandidates = []string{
	"app.js", "index.js", "server.js", "src/index.js", "src/app.js", "main.js",
	"src/main.jsx", "src/main.tsx", "src/main.js", "src/index.jsx", "src/index.tsx",
	"src/App.jsx", "src/App.tsx", "index.html",
}

// springEntryCandidates covers JVM projects, whose main class lives under
// the source root.
var springEntryCandidates = []string{"src/main/java", "src/main/kotlin"}

// DetectEntryPoint returns the most likely application entry file relative
// to root: package.json "main" when that file exists, else the first
// existing ranked candidate.
func DetectEntryPoint(root string) string {
	if main := ReadPackageJSON(root).MainField(); main != "" && scanner.Exists(root, main) {
		return main
	}
	for _, c := range entryCandidates {
		if scanner.Exists(root, c) {
			return c
		}
	}
	for _, c := range springEntryCandidates {
		if scanner.IsDir(root, c) && IsSpringBoot(root) {
			return c + " (@SpringBootApplication)"
		}
	}
	return EntryNotDetected
}
