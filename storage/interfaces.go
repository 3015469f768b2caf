package storage

import (
	"context"
	"time"

	"github.com/poiesic/docquery/core"
)

// ChunkRepository provides operations for managing a document's chunks and
// their embeddings. A document's chunk set is replaced wholesale on
// re-ingestion, never patched in place.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// ReplaceDocument atomically replaces all stored chunks and embeddings
	// for the chunks' document. Chunks and embeddings are parallel slices.
	ReplaceDocument(ctx context.Context, documentID string, chunks []*core.Chunk, embeddings [][]float32) error

	// GetByDocument retrieves a document's chunks and embeddings in chunk
	// order. Returns empty slices when the document is unknown.
	GetByDocument(ctx context.Context, documentID string) ([]*core.Chunk, [][]float32, error)

	// DeleteByDocument removes all chunks and embeddings for a document.
	// Deleting an unknown document is not an error.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Close closes the repository and releases resources.
	Close() error
}

// CacheRepository provides a byte-oriented cache with per-entry TTL.
// Implementations must be thread-safe and support concurrent access.
type CacheRepository interface {
	// Get retrieves a cached value by key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key []byte) ([]byte, error)

	// SetWithTTL stores a value that expires after ttl.
	// A ttl of zero stores the value without expiry.
	SetWithTTL(ctx context.Context, key, value []byte, ttl time.Duration) error

	// Delete removes a cached value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key []byte) error

	// DeleteByPrefix removes all cached values whose keys start with prefix.
	DeleteByPrefix(ctx context.Context, prefix []byte) error

	// Close closes the repository and releases resources.
	Close() error
}
