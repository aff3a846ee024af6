package detect

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ReadmeMaxChars caps the README summary length.
const ReadmeMaxChars = 1500

var readmeNames = []string{"README.md", "README.MD", "readme.md", "README.txt", "README"}

// ReadmeSummary returns the first README found at root, normalized to LF
// line endings, trimmed and capped at ReadmeMaxChars with a truncation
// marker. It returns "" when there is no README.
func ReadmeSummary(root string) string {
	for _, name := range readmeNames {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		text := strings.TrimSpace(strings.ReplaceAll(string(data), "\r\n", "\n"))
		if len(text) <= ReadmeMaxChars {
			return text
		}
		cut := ReadmeMaxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		return text[:cut] + "\n\n... (truncated)"
	}
	return ""
}
