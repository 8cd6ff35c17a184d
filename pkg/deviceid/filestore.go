package deviceid

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	apperrors "shareadmin/pkg/errors"
)

// FileStorage is a durable key-value Storage keeping one file per key
// under a private directory.
type FileStorage struct {
	dir string
}

// NewFileStorage creates a file-backed storage rooted at dir.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

// Dir returns the storage directory.
func (f *FileStorage) Dir() string { return f.dir }

// Get reads the value stored under key.
func (f *FileStorage) Get(key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return "", apperrors.ErrSettingNotFound
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Set writes value under key, creating the directory if needed.
func (f *FileStorage) Set(key, value string) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.dir, key), []byte(value), 0o600)
}

// Remove deletes the value stored under key. Removing an absent key is
// not an error.
func (f *FileStorage) Remove(key string) error {
	err := os.Remove(filepath.Join(f.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// DefaultCacheDir returns the per-user cache directory for the
// application.
func DefaultCacheDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "ShareAdmin")
		}
		return filepath.Join(os.Getenv("USERPROFILE"), ".shareadmin")
	case "darwin":
		home := os.Getenv("HOME")
		return filepath.Join(home, "Library", "Application Support", "ShareAdmin")
	default: // Linux and others
		xdgCache := os.Getenv("XDG_CACHE_HOME")
		if xdgCache != "" {
			return filepath.Join(xdgCache, "shareadmin")
		}
		return filepath.Join(os.Getenv("HOME"), ".cache", "shareadmin")
	}
}
