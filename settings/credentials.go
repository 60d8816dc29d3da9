// Package settings resolves the translation provider settings and keeps the
// local credential store used when they are not in the environment.
//
// The store lives in the XDG data directory:
//
//	$XDG_DATA_HOME/docsync/auth.json  (default: ~/.local/share/docsync/)
//
// It is a JSON object keyed by profile name; docsync reads and writes the
// "default" profile. File permissions are 0600 (owner read/write only).
//
// Lookup order for every provider setting:
//  1. command-line flag (highest priority)
//  2. environment variable
//  3. this credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirName = "docsync"
	fileName    = "auth.json"
)

// DefaultProfile is the profile docsync reads and writes.
const DefaultProfile = "default"

// ---------------------------------------------------------------------------
// Entry types
// ---------------------------------------------------------------------------

// Info is a stored set of provider credentials.
type Info struct {
	// Type is "api" for API key entries.
	Type string `json:"type"`
	// Key is the API token.
	Key string `json:"key,omitempty"`
	// BaseURL is the API base URL or full chat-completions URL.
	BaseURL string `json:"baseUrl,omitempty"`
	// Model is the default model for this profile.
	Model string `json:"model,omitempty"`
}

// IsAPI returns true if this is an API key entry.
func (i *Info) IsAPI() bool {
	return i.Type == "api"
}

// Store holds all profiles, keyed by name.
type Store map[string]*Info

// ---------------------------------------------------------------------------
// File path
// ---------------------------------------------------------------------------

// dataDir returns the XDG data directory for docsync.
// Respects $XDG_DATA_HOME (falls back to ~/.local/share).
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

func filePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// FilePath returns the auth.json file path for display purposes.
func FilePath() string {
	p, err := filePath()
	if err != nil {
		return ""
	}
	return p
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := filePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := filePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Get / Set / Remove
// ---------------------------------------------------------------------------

// Get returns the entry for a profile, or nil if not found.
func Get(profile string) *Info {
	return Load()[profile]
}

// SetAPIKey stores credentials for a profile (upsert).
func SetAPIKey(profile, key, baseURL, model string) error {
	store := Load()
	store[profile] = &Info{Type: "api", Key: key, BaseURL: baseURL, Model: model}
	return Save(store)
}

// Remove deletes a profile. Removing a missing profile is not an error.
func Remove(profile string) error {
	store := Load()
	if _, ok := store[profile]; !ok {
		return nil
	}
	delete(store, profile)
	return Save(store)
}

// RemoveAll removes the credential store file.
func RemoveAll() error {
	path, err := filePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// MaskKey returns a masked version of a key/token for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
