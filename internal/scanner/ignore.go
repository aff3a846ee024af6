package scanner

import "github.com/bmatcuk/doublestar/v4"

// ignoredDirs are never descended: version control, dependency caches,
// build output and virtual environments.
var ignoredDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"out":          true,
	".next":        true,
	".nuxt":        true,
	".cache":       true,
	".gradle":      true,
	".idea":        true,
	"coverage":     true,
	"vendor":       true,
}

// IsIgnoredDir reports whether a directory name is in the fixed ignore set.
func IsIgnoredDir(name string) bool {
	return ignoredDirs[name]
}

// matchesAny reports whether rel matches one of the doublestar patterns.
// Invalid patterns never match.
func matchesAny(globs []string, rel string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, rel); err == nil && ok {
			return true
		}
	}
	return false
}
