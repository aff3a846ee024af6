package scanner

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Scan walks root and returns its top-level entries as a tree bounded by
// opts. Ignored directories are skipped, files above opts.MaxFileBytes are
// left out without dropping their parent, and unreadable directories yield
// no children. The walk stops early once ctx is done, returning what it has.
func Scan(ctx context.Context, root string, opts Options) []TreeNode {
	opts = opts.withDefaults()
	return scanDir(ctx, root, "", 1, opts)
}

func scanDir(ctx context.Context, absDir, relDir string, level int, opts Options) []TreeNode {
	if level > opts.MaxDepth || ctx.Err() != nil {
		return nil
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil
	}

	var dirs, files []TreeNode
	for _, entry := range entries {
		name := entry.Name()
		rel := joinRel(relDir, name)

		if entry.IsDir() {
			if IsIgnoredDir(name) || matchesAny(opts.IgnoreGlobs, rel) {
				continue
			}
			dirs = append(dirs, TreeNode{
				Name:         name,
				Kind:         KindDir,
				RelativePath: rel,
				Children:     scanDir(ctx, filepath.Join(absDir, name), rel, level+1, opts),
			})
			continue
		}

		if !entry.Type().IsRegular() || matchesAny(opts.IgnoreGlobs, rel) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() > opts.MaxFileBytes {
			continue
		}
		files = append(files, TreeNode{Name: name, Kind: KindFile, RelativePath: rel})
	}

	sortNodes(dirs)
	sortNodes(files)
	return append(dirs, files...)
}

func sortNodes(nodes []TreeNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

// GetAllFiles returns every file under root as a sorted, slash-separated
// relative path list, applying the same ignore and size filters as Scan.
// A zero opts.MaxDepth means unlimited depth for this listing.
func GetAllFiles(ctx context.Context, root string, opts Options) []string {
	maxDepth := opts.MaxDepth
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = DefaultMaxFileBytes
	}

	var files []string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if IsIgnoredDir(d.Name()) || matchesAny(opts.IgnoreGlobs, rel) {
				return filepath.SkipDir
			}
			if maxDepth > 0 && strings.Count(rel, "/")+1 >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || matchesAny(opts.IgnoreGlobs, rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > opts.MaxFileBytes {
			return nil
		}
		files = append(files, rel)
		return nil
	})

	sort.Strings(files)
	return files
}

// Flatten returns the relative path of every node in the tree, depth first.
func Flatten(nodes []TreeNode) []string {
	var out []string
	var walk func([]TreeNode)
	walk = func(ns []TreeNode) {
		for _, n := range ns {
			out = append(out, n.RelativePath)
			if n.IsDir() {
				walk(n.Children)
			}
		}
	}
	walk(nodes)
	return out
}

// Depth returns the number of levels in the tree (0 for an empty tree).
func Depth(nodes []TreeNode) int {
	max := 0
	for _, n := range nodes {
		d := 1
		if n.IsDir() {
			d += Depth(n.Children)
		}
		if d > max {
			max = d
		}
	}
	return max
}

// RenderTree draws the tree with box-drawing prefixes, one entry per line.
// Directories carry a trailing slash.
func RenderTree(nodes []TreeNode) string {
	var sb strings.Builder
	renderLevel(&sb, nodes, "")
	return strings.TrimRight(sb.String(), "\n")
}

func renderLevel(sb *strings.Builder, nodes []TreeNode, prefix string) {
	for i, n := range nodes {
		last := i == len(nodes)-1
		connector, childPrefix := "├── ", "│   "
		if last {
			connector, childPrefix = "└── ", "    "
		}
		sb.WriteString(prefix)
		sb.WriteString(connector)
		sb.WriteString(n.Name)
		if n.IsDir() {
			sb.WriteString("/")
		}
		sb.WriteString("\n")
		if n.IsDir() {
			renderLevel(sb, n.Children, prefix+childPrefix)
		}
	}
}

// FilesUnder filters a relative file list to entries whose path contains a
// directory segment equal to dir (case-sensitive), e.g. "controllers".
func FilesUnder(files []string, dir string) []string {
	var out []string
	for _, f := range files {
		segs := strings.Split(path.Dir(f), "/")
		for _, s := range segs {
			if s == dir {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// HasExt reports whether the file name ends with one of the extensions.
func HasExt(name string, exts ...string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
