// Package pathutil resolves the default destination directory from a set of
// input paths.
package pathutil

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoPaths is returned when CommonParent is called with no paths.
var ErrNoPaths = errors.New("pathutil: no paths given")

// CommonParent returns the closest common ancestor directory of the given
// absolute paths.
//
// The algorithm works on the path strings: take the longest common string
// prefix of all paths. If that prefix is an existing directory and every
// path continues with a separator right after it, the prefix is a true
// directory boundary shared by all inputs and is returned as-is. Otherwise
// the prefix may end mid-segment, so the directory part of the prefix string
// is returned instead. A single path always resolves to its parent, since a
// lone path is never a shared boundary with itself.
func CommonParent(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", ErrNoPaths
	}
	prefix := commonPrefix(paths)
	if isDir(prefix) && allBoundary(paths, len(prefix)) {
		return prefix, nil
	}
	return filepath.Dir(prefix), nil
}

// commonPrefix returns the longest common string prefix of paths. Unlike a
// segment-wise split this is purely character based, matching the boundary
// check in CommonParent.
func commonPrefix(paths []string) string {
	prefix := paths[0]
	for _, p := range paths[1:] {
		n := len(prefix)
		if len(p) < n {
			n = len(p)
		}
		i := 0
		for i < n && prefix[i] == p[i] {
			i++
		}
		prefix = prefix[:i]
	}
	return prefix
}

// allBoundary reports whether every path has a separator immediately after
// the first n characters.
func allBoundary(paths []string, n int) bool {
	for _, p := range paths {
		if len(p) <= n || p[n] != os.PathSeparator {
			return false
		}
	}
	return true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
