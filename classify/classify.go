// Package classify splits the tracked files of a repository into source
// documents and everything else.
package classify

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/minios-linux/docsync/config"
	"github.com/minios-linux/docsync/repopath"
	"github.com/minios-linux/docsync/syncerr"
)

// Document is a source-language file that should exist in every target.
type Document struct {
	// Path is the normalized repository-relative path.
	Path string
	// Key is Path relative to the source content root. Never empty.
	Key string
}

// TargetPath is where the translation of d into t lives.
func (d Document) TargetPath(t config.Target) string {
	return repopath.Join(t.ContentDir, d.Key)
}

// Options tune which files qualify.
type Options struct {
	// Extensions are matched case-insensitively, with leading dot.
	// Empty means config.DefaultExtensions.
	Extensions []string
	// Exclude are doublestar patterns matched against the normalized path.
	Exclude []string
}

// Sources returns the source documents among paths, sorted by path with
// duplicates removed.
//
// A path qualifies when it has a listed extension, lies under the source
// root and lies under no target root. Target roots are always checked, so a
// target nested inside the source root is never mistaken for source.
func Sources(paths []string, reg *config.Registry, opts Options) ([]Document, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = config.DefaultExtensions
	}
	extSet := make(map[string]bool, len(exts))
	for _, e := range exts {
		extSet[strings.ToLower(e)] = true
	}
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, syncerr.Configf("invalid exclude pattern %q", pattern)
		}
	}
	targetDirs := reg.TargetDirs()

	seen := make(map[string]bool)
	var docs []Document
	for _, raw := range paths {
		p := repopath.Normalize(raw)
		if p == "" || seen[p] {
			continue
		}
		if !extSet[strings.ToLower(path.Ext(p))] {
			continue
		}
		if !repopath.IsUnder(p, reg.SourceDir) {
			continue
		}
		if underAny(p, targetDirs) {
			continue
		}
		if excluded(p, opts.Exclude) {
			continue
		}

		key := repopath.Rel(p, reg.SourceDir)
		if key == "" {
			return nil, syncerr.Classification(p, fmt.Errorf("path has no key relative to source root %q", reg.SourceDir))
		}
		seen[p] = true
		docs = append(docs, Document{Path: p, Key: key})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func underAny(p string, roots []string) bool {
	for _, r := range roots {
		if repopath.IsUnder(p, r) {
			return true
		}
	}
	return false
}

func excluded(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}
