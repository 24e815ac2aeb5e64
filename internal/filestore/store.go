// Package filestore defines the interface diagram exports are written through.
//
// Providers implement Store; callers depend only on this package, never on
// a specific provider package.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	info, err := store.Put(ctx, "erdview", "shop.json", r, size, "application/json")
package filestore

import (
	"context"
	"io"
)

// Store is the single interface all file storage providers must implement.
// It is write-only: exports are never read back.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Put uploads size bytes from r to key inside bucket, creating the bucket
	// if it does not exist yet. size may be -1 when unknown.
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (*ObjectInfo, error)

	// Close releases any held resources (connections, goroutines, etc.).
	Close() error
}
