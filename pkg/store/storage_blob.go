package store

import (
	"context"
	"io"
	"os"
	"sort"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	// Import GCS driver for production use
	_ "gocloud.dev/blob/gcsblob"
)

// BlobStorage implements Storage using gocloud.dev/blob, so the record
// store can live in a cloud bucket instead of a local directory.
type BlobStorage struct {
	bucket *blob.Bucket
	prefix string
}

// NewBlobStorage creates a new blob-backed storage.
// bucketURL should be in the format "gs://bucket-name" for GCS.
// prefix is an optional path prefix for all keys.
func NewBlobStorage(ctx context.Context, bucketURL, prefix string) (*BlobStorage, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &BlobStorage{
		bucket: bucket,
		prefix: normalizePrefix(prefix),
	}, nil
}

// NewBlobStorageFromBucket creates a new blob-backed storage from an existing bucket.
// This is useful for testing with memblob.
func NewBlobStorageFromBucket(bucket *blob.Bucket, prefix string) *BlobStorage {
	return &BlobStorage{
		bucket: bucket,
		prefix: normalizePrefix(prefix),
	}
}

// normalizePrefix ensures a trailing slash on non-empty prefixes
func normalizePrefix(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func (b *BlobStorage) fullKey(key string) string {
	if b.prefix == "" {
		return key
	}
	return b.prefix + key
}

func (b *BlobStorage) Write(ctx context.Context, key string, data []byte) error {
	return b.bucket.WriteAll(ctx, b.fullKey(key), data, nil)
}

func (b *BlobStorage) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := b.bucket.ReadAll(ctx, b.fullKey(key))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	return data, nil
}

func (b *BlobStorage) List(ctx context.Context) ([]string, error) {
	iter := b.bucket.List(&blob.ListOptions{
		Prefix: b.prefix,
	})

	var keys []string
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		key := obj.Key
		if b.prefix != "" {
			// Skip keys that don't have our prefix (shouldn't happen, but be safe)
			if !strings.HasPrefix(key, b.prefix) {
				continue
			}
			key = strings.TrimPrefix(key, b.prefix)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *BlobStorage) Delete(ctx context.Context, key string) error {
	err := b.bucket.Delete(ctx, b.fullKey(key))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return os.ErrNotExist
		}
		return err
	}
	return nil
}

// Rename copies oldKey to newKey and deletes the original. Unlike the
// filesystem backend this is not atomic: a crash between the copy and
// the delete leaves the record under both keys.
func (b *BlobStorage) Rename(ctx context.Context, oldKey, newKey string) error {
	err := b.bucket.Copy(ctx, b.fullKey(newKey), b.fullKey(oldKey), nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return os.ErrNotExist
		}
		return err
	}
	return b.Delete(ctx, oldKey)
}

func (b *BlobStorage) Exists(ctx context.Context, key string) (bool, error) {
	return b.bucket.Exists(ctx, b.fullKey(key))
}

func (b *BlobStorage) Close() error {
	return b.bucket.Close()
}
