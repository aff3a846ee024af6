// Package source identifies an analyzed tree for the archive: its git
// origin remote when it has one, else its absolute path.
package source

import (
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// Info describes where an analyzed tree came from.
type Info struct {
	// ID is the archive key: the origin URL, or the absolute path.
	ID     string `json:"id"`
	Path   string `json:"path"`
	Remote string `json:"remote,omitempty"`
	Branch string `json:"branch,omitempty"`
	Commit string `json:"commit,omitempty"`
}

// shortHash is the length commit hashes are abbreviated to.
const shortHash = 12

// Resolve inspects path. A tree outside any git repository, or one whose
// metadata cannot be read, is identified by its absolute path alone.
func Resolve(path string) Info {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info := Info{ID: abs, Path: abs}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return info
	}
	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			info.Remote = urls[0]
			info.ID = urls[0]
		}
	}
	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		}
		if h := head.Hash().String(); len(h) >= shortHash {
			info.Commit = h[:shortHash]
		}
	}
	return info
}
