package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

// Store is a flat key/value settings store.
type Store interface {
	Load(key string) (any, bool)
	Save(key string, value any) error
}

// YAMLStore keeps settings as a single YAML mapping on disk.
type YAMLStore struct {
	mu     sync.Mutex
	fs     afero.Fs
	path   string
	values map[string]any
	loaded bool
}

// NewYAMLStore creates a store backed by path on fs.
func NewYAMLStore(fs afero.Fs, path string) *YAMLStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &YAMLStore{fs: fs, path: path}
}

// OpenUserStore opens the settings file in the user configuration directory.
func OpenUserStore(appName string) (*YAMLStore, error) {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return nil, err
	}
	return NewYAMLStore(afero.NewOsFs(), configPath), nil
}

// Path returns the backing file path.
func (store *YAMLStore) Path() string {
	return store.path
}

// Reload re-reads the backing file. A missing file yields an empty store.
func (store *YAMLStore) Reload() error {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.readLocked()
}

// Load returns the value stored under key.
// Read errors are reported by Reload; Load treats an unreadable file as empty.
func (store *YAMLStore) Load(key string) (any, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if !store.loaded {
		_ = store.readLocked()
	}
	value, ok := store.values[key]
	return value, ok
}

// Save stores value under key and rewrites the file.
func (store *YAMLStore) Save(key string, value any) error {
	return store.SaveAll(map[string]any{key: value})
}

// SaveAll stores several values with a single file write.
func (store *YAMLStore) SaveAll(values map[string]any) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if !store.loaded {
		if err := store.readLocked(); err != nil {
			return err
		}
	}
	for key, value := range values {
		store.values[key] = value
	}
	return store.writeLocked()
}

func (store *YAMLStore) readLocked() error {
	store.values = make(map[string]any)
	store.loaded = true

	rawData, err := afero.ReadFile(store.fs, store.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read settings file: %w", err)
	}

	var fileData map[string]any
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return fmt.Errorf("parse settings yaml: %w", err)
	}
	for key, value := range fileData {
		store.values[key] = value
	}
	return nil
}

func (store *YAMLStore) writeLocked() error {
	if err := store.fs.MkdirAll(filepath.Dir(store.path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := yaml.Marshal(store.values)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := afero.WriteFile(store.fs, store.path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	return nil
}

func resolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}
