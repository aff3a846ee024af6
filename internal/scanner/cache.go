package scanner

import (
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ReadFunc returns up to limit bytes of the file at the slash-separated
// path relative to some root. limit <= 0 means the whole file. Missing or
// unreadable files read as the empty string.
type ReadFunc func(rel string, limit int) string

// DefaultTextCacheBytes bounds the total text one TextCache retains.
const DefaultTextCacheBytes = 64 << 20

// TextCache memoizes file contents for the lifetime of one analysis so the
// route, controller, model and frontend passes do not re-read the same
// files. It is safe for concurrent use. A nil *TextCache reads through.
// Least recently used files are evicted once the retained text exceeds
// budget bytes.
type TextCache struct {
	entries  *lru.Cache[string, string]
	maxBytes int64
	budget   int64
	used     atomic.Int64
}

// NewTextCache returns a cache holding at most size files, each truncated
// to maxBytes, and at most DefaultTextCacheBytes of text overall.
func NewTextCache(size int, maxBytes int64) *TextCache {
	if size <= 0 {
		size = 512
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	tc := &TextCache{maxBytes: maxBytes, budget: DefaultTextCacheBytes}
	c, err := lru.NewWithEvict(size, func(_ string, text string) {
		tc.used.Add(-int64(len(text)))
	})
	if err != nil {
		return nil
	}
	tc.entries = c
	return tc
}

// Read returns up to limit bytes of the file at absPath.
func (c *TextCache) Read(absPath string, limit int) string {
	if c == nil {
		return readCapped(absPath, int64(limit))
	}
	if cached, ok := c.entries.Get(absPath); ok {
		return clip(cached, limit)
	}
	text := readCapped(absPath, c.maxBytes)
	n := int64(len(text))
	if n > c.budget {
		return clip(text, limit)
	}
	if found, _ := c.entries.ContainsOrAdd(absPath, text); !found {
		c.used.Add(n)
	}
	for c.used.Load() > c.budget {
		if _, _, ok := c.entries.RemoveOldest(); !ok {
			break
		}
	}
	return clip(text, limit)
}

// Reader binds the cache to root.
func (c *TextCache) Reader(root string) ReadFunc {
	return func(rel string, limit int) string {
		return c.Read(filepath.Join(root, filepath.FromSlash(rel)), limit)
	}
}

// Len returns the number of cached files.
func (c *TextCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

// Bytes returns the total length of the cached text.
func (c *TextCache) Bytes() int64 {
	if c == nil {
		return 0
	}
	return c.used.Load()
}

func readCapped(absPath string, max int64) string {
	f, err := os.Open(absPath)
	if err != nil {
		return ""
	}
	defer f.Close()

	var r io.Reader = f
	if max > 0 {
		r = io.LimitReader(f, max)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	return string(data)
}

func clip(s string, limit int) string {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
