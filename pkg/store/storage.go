package store

import (
	"context"
)

// Storage defines the contract for record persistence backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Write stores data under the given key, replacing any previous content.
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves the data for the given key.
	// Returns os.ErrNotExist if the key does not exist.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns all keys, sorted lexicographically ascending.
	List(ctx context.Context) ([]string, error)

	// Delete removes the data for the given key.
	// Returns os.ErrNotExist if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Rename moves oldKey to newKey, keeping the content unchanged.
	// Returns os.ErrNotExist if oldKey does not exist.
	Rename(ctx context.Context, oldKey, newKey string) error

	// Exists reports whether the given key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases any resources held by the storage backend.
	Close() error
}
