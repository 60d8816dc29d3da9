// Package config loads the language registry from a Hugo site configuration
// and the optional .docsync.yaml project file.
//
// The site configuration is parsed with a real parser for its declared format
// (TOML, YAML or JSON) into a typed tree and then projected into a Registry:
// the source language, its content root, and the target languages in
// declaration order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/minios-linux/docsync/langmeta"
	"github.com/minios-linux/docsync/repopath"
	"github.com/minios-linux/docsync/syncerr"
)

// ConventionalDefaultLang is preferred as the source language when the site
// configuration does not declare defaultContentLanguage.
const ConventionalDefaultLang = "zh-cn"

// DefaultContentBase is the content directory used when the site
// configuration does not set contentDir.
const DefaultContentBase = "content"

// DefaultReferenceLang is the target whose commit history is compared against
// the source in the history policy.
const DefaultReferenceLang = "en"

// SiteConfigNames lists the site configuration files FindSiteConfig looks
// for, in priority order.
var SiteConfigNames = []string{
	"hugo.toml", "hugo.yaml", "hugo.yml", "hugo.json",
	"config.toml", "config.yaml", "config.yml", "config.json",
}

// Target is a language a source document is translated into.
type Target struct {
	// Key is the unique lower-case language key (e.g. "en", "zh-tw").
	Key string
	// ContentDir is the normalized content root of the language.
	ContentDir string
	// Name is the human-readable name used in prompts.
	Name string
}

// Registry is the language layout of a site, taken once per run.
type Registry struct {
	// SourceLang is the key of the language documents are authored in.
	SourceLang string
	// SourceDir is the normalized content root of the source language.
	SourceDir string
	// Targets are the non-source languages in declaration order.
	Targets []Target
}

// Target looks up a target by key.
func (r *Registry) Target(key string) (Target, bool) {
	key = strings.ToLower(key)
	for _, t := range r.Targets {
		if t.Key == key {
			return t, true
		}
	}
	return Target{}, false
}

// Reference returns the target used as the freshness reference. Its absence
// is a configuration error.
func (r *Registry) Reference(key string) (Target, error) {
	if key == "" {
		key = DefaultReferenceLang
	}
	t, ok := r.Target(key)
	if !ok {
		return Target{}, syncerr.Configf("reference language %q is not configured as a target (targets: %s)",
			key, strings.Join(r.TargetKeys(), ", "))
	}
	return t, nil
}

// TargetKeys returns the target keys in declaration order.
func (r *Registry) TargetKeys() []string {
	keys := make([]string, len(r.Targets))
	for i, t := range r.Targets {
		keys[i] = t.Key
	}
	return keys
}

// TargetDirs returns the content roots of every target.
func (r *Registry) TargetDirs() []string {
	dirs := make([]string, len(r.Targets))
	for i, t := range r.Targets {
		dirs[i] = t.ContentDir
	}
	return dirs
}

// Restrict returns a copy of the registry limited to the given target keys,
// keeping declaration order. When keys is empty the registry is returned
// unchanged. Unknown keys are a configuration error.
func (r *Registry) Restrict(keys []string) (*Registry, error) {
	if len(keys) == 0 {
		return r, nil
	}
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := r.Target(k); !ok {
			return nil, syncerr.Configf("language %q is not a configured target", k)
		}
		want[k] = true
	}
	out := &Registry{SourceLang: r.SourceLang, SourceDir: r.SourceDir}
	for _, t := range r.Targets {
		if want[t.Key] {
			out.Targets = append(out.Targets, t)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// FindSiteConfig returns the first site configuration file found in root.
func FindSiteConfig(root string) (string, error) {
	for _, name := range SiteConfigNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", syncerr.Configf("no site configuration found in %s (looked for %s)",
		root, strings.Join(SiteConfigNames, ", "))
}

// LoadRegistry reads a site configuration file and projects it into a
// Registry. The format is chosen by file extension.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, syncerr.New(syncerr.KindConfig, path, "", fmt.Errorf("reading site configuration: %w", err))
	}
	reg, err := ParseRegistry(data, filepath.Ext(path))
	if err != nil {
		var se *syncerr.Error
		if errors.As(err, &se) && se.Path == "" {
			se.Path = path
		}
		return nil, err
	}
	return reg, nil
}

// ParseRegistry parses site configuration data in the given format (".toml",
// ".yaml", ".yml" or ".json") into a Registry.
func ParseRegistry(data []byte, format string) (*Registry, error) {
	var (
		site *siteConfig
		err  error
	)
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "toml":
		site, err = parseTOML(data)
	case "yaml", "yml", "json":
		// JSON documents are valid YAML; the YAML decoder keeps key order.
		site, err = parseYAML(data)
	default:
		return nil, syncerr.Configf("unsupported site configuration format %q", format)
	}
	if err != nil {
		return nil, syncerr.New(syncerr.KindConfig, "", "", err)
	}
	return site.project()
}

// ---------------------------------------------------------------------------
// Typed tree
// ---------------------------------------------------------------------------

// siteConfig is the subset of a Hugo site configuration docsync reads.
type siteConfig struct {
	DefaultLang  string
	ContentDir   string
	HasLanguages bool
	Languages    []siteLanguage
}

type siteLanguage struct {
	Key        string
	ContentDir string
	Name       string
	Disabled   bool
}

// project turns the parsed tree into a Registry.
func (s *siteConfig) project() (*Registry, error) {
	if !s.HasLanguages {
		return nil, syncerr.Configf("no [languages] section in site configuration")
	}

	var langs []siteLanguage
	seen := make(map[string]bool)
	for _, l := range s.Languages {
		if l.Disabled || seen[l.Key] {
			continue
		}
		seen[l.Key] = true
		langs = append(langs, l)
	}
	if len(langs) == 0 {
		return nil, syncerr.Configf("[languages] section declares no language")
	}

	base := repopath.Normalize(s.ContentDir)
	if base == "" {
		base = DefaultContentBase
	}

	source := strings.ToLower(strings.TrimSpace(s.DefaultLang))
	if source == "" {
		if seen[ConventionalDefaultLang] {
			source = ConventionalDefaultLang
		} else {
			source = langs[0].Key
		}
	}

	reg := &Registry{SourceLang: source, SourceDir: base}
	for _, l := range langs {
		if l.Key == source {
			if dir := repopath.Normalize(l.ContentDir); dir != "" {
				reg.SourceDir = dir
			}
			continue
		}

		dir := repopath.Normalize(l.ContentDir)
		if dir == "" {
			dir = repopath.Join(base, l.Key)
		}
		name := strings.TrimSpace(l.Name)
		if name == "" {
			name = langmeta.Name(l.Key)
		}
		reg.Targets = append(reg.Targets, Target{Key: l.Key, ContentDir: dir, Name: name})
	}
	return reg, nil
}

// ---------------------------------------------------------------------------
// TOML
// ---------------------------------------------------------------------------

func parseTOML(data []byte) (*siteConfig, error) {
	var raw map[string]any
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&raw)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	site := &siteConfig{
		DefaultLang: stringField(raw, "defaultContentLanguage"),
		ContentDir:  stringField(raw, "contentDir"),
	}

	langKey, langTable := lookupTable(raw, "languages")
	if langTable == nil {
		return site, nil
	}
	site.HasLanguages = true

	// Map iteration order is random; MetaData.Keys() preserves declaration
	// order. A language declared with dotted keys (en.contentDir = ...)
	// only shows up through its longer keys.
	seen := make(map[string]bool)
	for _, k := range md.Keys() {
		if len(k) < 2 || k[0] != langKey || seen[k[1]] {
			continue
		}
		seen[k[1]] = true
		entry, ok := langTable[k[1]].(map[string]any)
		if !ok {
			continue
		}
		site.Languages = append(site.Languages, siteLanguage{
			Key:        strings.ToLower(strings.TrimSpace(k[1])),
			ContentDir: stringField(entry, "contentDir"),
			Name:       stringField(entry, "languageName"),
			Disabled:   boolField(entry, "disabled"),
		})
	}
	return site, nil
}

// lookupTable finds a nested table by case-insensitive key, returning the
// key as spelled in the document.
func lookupTable(m map[string]any, key string) (string, map[string]any) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			if t, ok := v.(map[string]any); ok {
				return k, t
			}
		}
	}
	return "", nil
}

func stringField(m map[string]any, key string) string {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			if s, ok := v.(string); ok {
				return s
			}
			return fmt.Sprint(v)
		}
	}
	return ""
}

func boolField(m map[string]any, key string) bool {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			b, _ := v.(bool)
			return b
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// YAML / JSON
// ---------------------------------------------------------------------------

func parseYAML(data []byte) (*siteConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	site := &siteConfig{}
	if len(doc.Content) == 0 {
		return site, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("site configuration root is not a mapping")
	}

	site.DefaultLang = scalarField(root, "defaultContentLanguage")
	site.ContentDir = scalarField(root, "contentDir")

	langs := mappingField(root, "languages")
	if langs == nil {
		return site, nil
	}
	site.HasLanguages = true

	for i := 0; i+1 < len(langs.Content); i += 2 {
		keyNode, valNode := langs.Content[i], langs.Content[i+1]
		if valNode.Kind != yaml.MappingNode {
			continue
		}
		site.Languages = append(site.Languages, siteLanguage{
			Key:        strings.ToLower(strings.TrimSpace(keyNode.Value)),
			ContentDir: scalarField(valNode, "contentDir"),
			Name:       scalarField(valNode, "languageName"),
			Disabled:   scalarField(valNode, "disabled") == "true",
		})
	}
	return site, nil
}

func fieldNode(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if strings.EqualFold(m.Content[i].Value, key) {
			return m.Content[i+1]
		}
	}
	return nil
}

func scalarField(m *yaml.Node, key string) string {
	n := fieldNode(m, key)
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

func mappingField(m *yaml.Node, key string) *yaml.Node {
	n := fieldNode(m, key)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	return n
}
