package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/docsync/syncerr"
)

// ProjectFileName is the optional per-repository settings file.
const ProjectFileName = ".docsync.yaml"

// DefaultExtensions are the document extensions scanned when the project
// file does not list any.
var DefaultExtensions = []string{".md", ".markdown"}

// DefaultCommitPrefix starts every commit message produced by a sync.
const DefaultCommitPrefix = "Auto-translate"

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// ProjectFile is the .docsync.yaml structure. Every field is optional; CLI
// flags override what is set here.
type ProjectFile struct {
	// SiteConfig is the Hugo site configuration, relative to the root.
	SiteConfig string `yaml:"site_config,omitempty"`
	// ReferenceLang is the target compared against in the history policy.
	ReferenceLang string `yaml:"reference_lang,omitempty"`
	// Extensions are the document extensions considered (with leading dot).
	Extensions []string `yaml:"extensions,omitempty"`
	// Exclude are doublestar patterns of source paths to skip.
	Exclude []string `yaml:"exclude,omitempty"`
	// Workers is the translation pool size (0 means default).
	Workers int `yaml:"workers,omitempty"`
	// CommitPrefix starts the commit message.
	CommitPrefix string `yaml:"commit_prefix,omitempty"`
	// Push controls pushing after a sync commit. Nil means the mode default.
	Push *bool `yaml:"push,omitempty"`
	// Languages restricts the targets to these keys.
	Languages []string `yaml:"languages,omitempty"`
}

// LoadProjectFile loads and validates .docsync.yaml from the given
// directory. Returns nil if the file does not exist.
func LoadProjectFile(rootDir string) (*ProjectFile, error) {
	path := filepath.Join(rootDir, ProjectFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, syncerr.New(syncerr.KindConfig, path, "", fmt.Errorf("reading: %w", err))
	}

	var pf ProjectFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil && !errors.Is(err, io.EOF) {
		return nil, syncerr.New(syncerr.KindConfig, path, "", fmt.Errorf("parsing: %w", err))
	}

	if pf.Workers < 0 {
		return nil, syncerr.New(syncerr.KindConfig, path, "", fmt.Errorf("workers must be positive, got %d", pf.Workers))
	}
	for i, ext := range pf.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			return nil, syncerr.New(syncerr.KindConfig, path, "", fmt.Errorf("extension #%d is empty", i+1))
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		pf.Extensions[i] = ext
	}
	for _, pattern := range pf.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, syncerr.New(syncerr.KindConfig, path, "", fmt.Errorf("invalid exclude pattern %q", pattern))
		}
	}
	pf.ReferenceLang = strings.ToLower(strings.TrimSpace(pf.ReferenceLang))

	return &pf, nil
}

// ExtensionsOrDefault returns the configured extensions or DefaultExtensions.
func (pf *ProjectFile) ExtensionsOrDefault() []string {
	if pf == nil || len(pf.Extensions) == 0 {
		return DefaultExtensions
	}
	return pf.Extensions
}

// CommitPrefixOrDefault returns the configured commit prefix or
// DefaultCommitPrefix.
func (pf *ProjectFile) CommitPrefixOrDefault() string {
	if pf == nil || strings.TrimSpace(pf.CommitPrefix) == "" {
		return DefaultCommitPrefix
	}
	return strings.TrimSpace(pf.CommitPrefix)
}

// SiteConfigPath returns the site configuration to load: the configured one
// when set, otherwise the first file FindSiteConfig discovers.
func (pf *ProjectFile) SiteConfigPath(rootDir string) (string, error) {
	if pf != nil && pf.SiteConfig != "" {
		p := pf.SiteConfig
		if !filepath.IsAbs(p) {
			p = filepath.Join(rootDir, p)
		}
		return p, nil
	}
	return FindSiteConfig(rootDir)
}
