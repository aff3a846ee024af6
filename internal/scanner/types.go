// Package scanner walks source trees into bounded hierarchical and flat
// views, detects the dominant language, and serves cached file text to the
// heuristic extractors.
package scanner

// Node kinds.
const (
	KindFile = "file"
	KindDir  = "dir"
)

// TreeNode is one entry in a scanned folder tree.
type TreeNode struct {
	// Name is the base name of the file or directory.
	Name string `json:"name"`

	// Kind is KindFile or KindDir.
	Kind string `json:"kind"`

	// RelativePath is the slash-separated path from the scan root.
	RelativePath string `json:"relativePath"`

	// Children holds the directory's entries, directories first, each kind
	// sorted by name. Always nil for files.
	Children []TreeNode `json:"children,omitempty"`
}

// IsDir reports whether the node is a directory.
func (n TreeNode) IsDir() bool {
	return n.Kind == KindDir
}

// Options bounds a scan.
type Options struct {
	// MaxDepth is the deepest level emitted; top-level entries are level 1.
	MaxDepth int

	// MaxFileBytes excludes larger files from the results.
	MaxFileBytes int64

	// IgnoreGlobs are doublestar patterns matched against slash-separated
	// relative paths. Matching directories are not descended.
	IgnoreGlobs []string
}

// Default scan bounds used when an Options field is zero.
const (
	DefaultMaxDepth     = 6
	DefaultMaxFileBytes = 2 * 1024 * 1024
)

func (o Options) withDefaults() Options {
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxFileBytes <= 0 {
		o.MaxFileBytes = DefaultMaxFileBytes
	}
	return o
}
