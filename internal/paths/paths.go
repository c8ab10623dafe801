// Package paths normalizes the slash-separated directory keys stored in the
// inventory and walks their ancestry.
package paths

import (
	"path"
	"path/filepath"
	"strings"
)

// Normalize converts backslashes to forward slashes, cleans the path and
// strips any trailing slash. The empty string and the current directory
// ("." or "./") normalize to "", which callers treat as no path filter.
func Normalize(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if p == "." {
		return ""
	}
	return p
}

// Parent returns the parent key of p, or "" when p has no parent.
func Parent(p string) string {
	p = Normalize(p)
	if p == "" || p == "/" {
		return ""
	}
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}

// Ancestors returns the ancestors of p, nearest first, excluding p itself.
func Ancestors(p string) []string {
	var out []string
	for cur := Parent(p); cur != ""; cur = Parent(cur) {
		out = append(out, cur)
		if cur == "/" {
			break
		}
	}
	return out
}

// IsUnder reports whether p lies strictly below root.
func IsUnder(p, root string) bool {
	p, root = Normalize(p), Normalize(root)
	if p == "" || root == "" || p == root {
		return false
	}
	if root == "/" {
		return strings.HasPrefix(p, "/")
	}
	return strings.HasPrefix(p, root+"/")
}

// Resolve joins a relative config path onto base. Absolute paths are returned unchanged.
func Resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, filepath.FromSlash(p))
}
