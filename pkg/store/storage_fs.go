package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/kjk/common/atomicfile"
)

// FilesystemStorage implements Storage on a single local directory.
type FilesystemStorage struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFilesystemStorage creates a new filesystem-backed storage,
// creating baseDir if it does not exist yet.
func NewFilesystemStorage(baseDir string) (*FilesystemStorage, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}
	return &FilesystemStorage{baseDir: baseDir}, nil
}

// Write commits the data via a temp file and rename, so readers never
// observe a partially written record.
func (f *FilesystemStorage) Write(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	w, err := atomicfile.New(filepath.Join(f.baseDir, key))
	if err != nil {
		return err
	}
	defer w.RemoveIfNotClosed()

	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Close()
}

func (f *FilesystemStorage) Read(_ context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return os.ReadFile(filepath.Join(f.baseDir, key))
}

// List returns file names in the base directory (non-recursive).
// Keys must not contain path separators for correct behavior.
func (f *FilesystemStorage) List(_ context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.baseDir)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			keys = append(keys, entry.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FilesystemStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return os.Remove(filepath.Join(f.baseDir, key))
}

func (f *FilesystemStorage) Rename(_ context.Context, oldKey, newKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return os.Rename(filepath.Join(f.baseDir, oldKey), filepath.Join(f.baseDir, newKey))
}

func (f *FilesystemStorage) Exists(_ context.Context, key string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	_, err := os.Stat(filepath.Join(f.baseDir, key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (f *FilesystemStorage) Close() error {
	return nil
}
