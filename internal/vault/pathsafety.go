// Package vault implements the file-safety layer of secure-drop: confining
// guest-supplied paths to a storage root, resolving filename collisions and
// authorizing uploads and downloads against a token's policy.
package vault

import (
	"os"
	"path/filepath"
	"strings"
)

// Confine joins root and a guest-supplied relative path and verifies the
// result stays inside root. It returns the resolved absolute path, or
// ErrPathEscape when the path is absolute, climbs out via "..", or reaches
// outside root through a symlink. This check runs on every guest filename,
// upload and download alike.
func Confine(root, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", ErrPathEscape
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", ErrPathEscape
	}

	// Resolve symlinks in the root itself so the prefix comparison happens
	// on canonical paths. The root may not exist yet (fresh storage dir).
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	// filepath.Join cleans the result, collapsing any "..".
	joined := filepath.Join(absRoot, rel)

	if !within(absRoot, joined) {
		return "", ErrPathEscape
	}

	// If the target (or an ancestor) exists, follow symlinks and re-check:
	// a link inside root may still point outside it.
	if resolved, err := resolveExisting(joined); err == nil {
		if !within(absRoot, resolved) {
			return "", ErrPathEscape
		}
	}

	return joined, nil
}

// within reports whether path is root itself or strictly below it.
func within(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// resolveExisting resolves symlinks for the deepest existing ancestor of
// path and rejoins the non-existing remainder.
func resolveExisting(path string) (string, error) {
	var tail []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}
		tail = append(tail, filepath.Base(current))
		current = parent
	}
}
