// Package lockfile implements docsync.lock, a ledger of the MD5 checksum of
// every source document as it was when its translations were last produced.
// The checksum staleness policy compares against it instead of commit
// history, which keeps working in shallow clones and squashed histories.
//
// The lock file lives at the repository root and is committed alongside the
// translations it describes.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/docsync/repopath"
)

// LockFileName is the default lock file name.
const LockFileName = "docsync.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the docsync.lock file structure.
type LockFile struct {
	Version   int               `yaml:"version"`
	Checksums map[string]string `yaml:"checksums"` // source path -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads the lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported version %d (max %d)", path, lf.Version, Version)
	}
	lf.path = path

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk. yaml.v3 emits map keys sorted, so the
// output is stable across runs.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of a string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// IsChanged reports whether the document at path is new or its content
// differs from the recorded checksum.
func (lf *LockFile) IsChanged(path, content string) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	old, ok := lf.Checksums[repopath.Normalize(path)]
	return !ok || old != Hash(content)
}

// UpdateBatch records checksums for multiple documents at once.
// The input is a map of path -> content.
func (lf *LockFile) UpdateBatch(entries map[string]string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	for path, content := range entries {
		lf.Checksums[repopath.Normalize(path)] = Hash(content)
	}
}

// Clean removes entries for documents no longer present in paths and
// returns how many were dropped.
func (lf *LockFile) Clean(paths []string) int {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	valid := make(map[string]bool, len(paths))
	for _, p := range paths {
		valid[repopath.Normalize(p)] = true
	}

	removed := 0
	for p := range lf.Checksums {
		if !valid[p] {
			delete(lf.Checksums, p)
			removed++
		}
	}
	return removed
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Len returns the number of recorded documents.
func (lf *LockFile) Len() int {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return len(lf.Checksums)
}

// Paths returns the recorded document paths, sorted.
func (lf *LockFile) Paths() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	paths := make([]string, 0, len(lf.Checksums))
	for p := range lf.Checksums {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	n := lf.Len()
	switch n {
	case 0:
		return "empty"
	case 1:
		return "1 document"
	}
	return fmt.Sprintf("%d documents", n)
}
