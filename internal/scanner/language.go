package scanner

import (
	"os"
	"path/filepath"
)

// UnknownLanguage is returned when no marker file is present.
const UnknownLanguage = "Unknown"

// DetectLanguage infers the dominant language/runtime of root from the
// presence of well-known marker files.
func DetectLanguage(root string) string {
	// Ordered by precedence: the first marker present wins.
	indicators := []struct {
		file string
		lang string
	}{
		{"package.json", "JavaScript / Node.js"},
		{"tsconfig.json", "TypeScript"},
		{"pom.xml", "Java"},
		{"build.gradle", "Java"},
		{"build.gradle.kts", "Kotlin"},
		{"go.mod", "Go"},
		{"Cargo.toml", "Rust"},
		{"requirements.txt", "Python"},
		{"pyproject.toml", "Python"},
		{"setup.py", "Python"},
	}

	for _, ind := range indicators {
		if _, err := os.Stat(filepath.Join(root, ind.file)); err == nil {
			return ind.lang
		}
	}
	return UnknownLanguage
}

// Exists reports whether root/rel exists.
func Exists(root, rel string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil
}

// IsDir reports whether root/rel is a directory.
func IsDir(root, rel string) bool {
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	return err == nil && info.IsDir()
}
