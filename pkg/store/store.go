package store

import (
	"context"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/lyricnext/lyricserver/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Suffix is the mandatory record name suffix enforced by the store.
const Suffix = ".txt"

var (
	// ErrNotFound no record under the requested name
	ErrNotFound = errors.New("record not found")
	// ErrInvalidName the name is missing the required suffix or is unsafe
	ErrInvalidName = errors.New("invalid record name")
	// ErrAlreadyExists name collision on create or rename
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInvalidInput empty name, content or query after trimming
	ErrInvalidInput = errors.New("invalid input")
)

type (
	// Store is the record store: a thin, suffix-enforcing wrapper over a
	// Storage backend holding one UTF-8 text file per lyric.
	Store struct {
		l       *zap.Logger
		storage Storage

		// serializes the exists-check/write pair on create and rename.
		// Concurrent updates on the same name stay last-writer-wins.
		mu sync.Mutex
	}
	Option func(*Store)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, storage Storage, opts ...Option) *Store {
	inst := &Store{
		l:       l.Named("store"),
		storage: storage,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// List returns every record name, lexicographically sorted ascending.
// Pagination depends on this order being deterministic.
func (s *Store) List(ctx context.Context) ([]string, error) {
	keys, err := s.storage.List(ctx)
	if err != nil {
		return nil, s.fail("list", errors.Wrap(err, "failed to list records"))
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if strings.HasSuffix(key, Suffix) {
			names = append(names, key)
		}
	}
	sort.Strings(names)

	metrics.StoreOperationCounter.WithLabelValues("list", "success").Inc()
	return names, nil
}

// Read returns the full content of the named record.
func (s *Store) Read(ctx context.Context, name string) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}

	data, err := s.storage.Read(ctx, name)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", s.fail("read", errors.Wrapf(err, "failed to read record %q", name))
	}

	metrics.StoreOperationCounter.WithLabelValues("read", "success").Inc()
	return string(data), nil
}

// Create derives the final name by appending the suffix if missing and
// writes the content verbatim. It fails if the final name already exists.
func (s *Store) Create(ctx context.Context, rawName, content string) (string, error) {
	if strings.TrimSpace(rawName) == "" || strings.TrimSpace(content) == "" {
		return "", ErrInvalidInput
	}

	finalName := ensureSuffix(strings.TrimSpace(rawName))
	if !validName(finalName) {
		return "", ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.storage.Exists(ctx, finalName)
	if err != nil {
		return "", s.fail("create", errors.Wrapf(err, "failed to check record %q", finalName))
	}
	if exists {
		return "", ErrAlreadyExists
	}

	if err := s.storage.Write(ctx, finalName, []byte(content)); err != nil {
		return "", s.fail("create", errors.Wrapf(err, "failed to write record %q", finalName))
	}

	s.l.Debug("record created", zap.String("name", finalName))
	metrics.StoreOperationCounter.WithLabelValues("create", "success").Inc()
	return finalName, nil
}

// Update overwrites the record's content in place. A missing target is
// created rather than rejected: callers rely on this contract.
func (s *Store) Update(ctx context.Context, name, content string) error {
	if !validName(name) {
		return ErrInvalidName
	}
	if strings.TrimSpace(content) == "" {
		return ErrInvalidInput
	}

	if err := s.storage.Write(ctx, name, []byte(content)); err != nil {
		return s.fail("update", errors.Wrapf(err, "failed to write record %q", name))
	}

	s.l.Debug("record updated", zap.String("name", name))
	metrics.StoreOperationCounter.WithLabelValues("update", "success").Inc()
	return nil
}

// Delete removes the named record.
func (s *Store) Delete(ctx context.Context, name string) error {
	if !validName(name) {
		return ErrInvalidName
	}

	err := s.storage.Delete(ctx, name)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return s.fail("delete", errors.Wrapf(err, "failed to delete record %q", name))
	}

	s.l.Debug("record deleted", zap.String("name", name))
	metrics.StoreOperationCounter.WithLabelValues("delete", "success").Inc()
	return nil
}

// Rename replaces the record's identity, preserving its content. The new
// name gets the suffix appended if missing and must not collide.
func (s *Store) Rename(ctx context.Context, oldName, rawNewName string) (string, error) {
	if !validName(oldName) {
		return "", ErrInvalidName
	}
	if strings.TrimSpace(rawNewName) == "" {
		return "", ErrInvalidInput
	}

	finalNewName := ensureSuffix(strings.TrimSpace(rawNewName))
	if !validName(finalNewName) {
		return "", ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.storage.Exists(ctx, finalNewName)
	if err != nil {
		return "", s.fail("rename", errors.Wrapf(err, "failed to check record %q", finalNewName))
	}
	if exists {
		return "", ErrAlreadyExists
	}

	err = s.storage.Rename(ctx, oldName, finalNewName)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", s.fail("rename", errors.Wrapf(err, "failed to rename record %q to %q", oldName, finalNewName))
	}

	s.l.Debug("record renamed", zap.String("old", oldName), zap.String("new", finalNewName))
	metrics.StoreOperationCounter.WithLabelValues("rename", "success").Inc()
	return finalNewName, nil
}

// Close releases the underlying storage backend.
func (s *Store) Close() error {
	return s.storage.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *Store) fail(op string, err error) error {
	s.l.Error("store operation failed", zap.String("operation", op), zap.Error(err))
	metrics.StoreOperationCounter.WithLabelValues(op, "error").Inc()
	return err
}

func ensureSuffix(name string) string {
	if !strings.HasSuffix(name, Suffix) {
		return name + Suffix
	}
	return name
}

// validName requires the suffix and rejects anything that could escape
// the storage directory.
func validName(name string) bool {
	if !strings.HasSuffix(name, Suffix) || name == Suffix {
		return false
	}
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return false
	}
	return true
}
