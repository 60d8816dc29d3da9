// Package repopath implements the repository-relative path arithmetic shared
// by the registry, the classifier and the write-back engine.
//
// All paths handled here use forward slashes and carry no leading "./" and no
// leading or trailing separator, so that root comparisons reduce to exact
// string comparisons.
package repopath

import "strings"

// Normalize converts a path to its canonical repository-relative form.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return strings.Trim(p, "/")
}

// IsUnder reports whether path equals base or is nested below it.
func IsUnder(path, base string) bool {
	path = Normalize(path)
	base = Normalize(base)
	if base == "" {
		return true
	}
	return path == base || strings.HasPrefix(path, base+"/")
}

// Rel returns path with the base prefix removed. It returns "" when path is
// not under base or when path is base itself.
func Rel(path, base string) string {
	path = Normalize(path)
	base = Normalize(base)
	if base == "" {
		return path
	}
	if path == base || !strings.HasPrefix(path, base+"/") {
		return ""
	}
	return path[len(base)+1:]
}

// Join joins a root and a relative key into a normalized path.
func Join(root, key string) string {
	root = Normalize(root)
	key = Normalize(key)
	switch {
	case root == "":
		return key
	case key == "":
		return root
	}
	return root + "/" + key
}
