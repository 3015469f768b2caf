package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/docquery/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepository_SetAndGet(t *testing.T) {
	_, cacheRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := IndexCacheKey("doc-1")

	require.NoError(t, cacheRepo.SetWithTTL(ctx, key, []byte("payload"), time.Hour))

	value, err := cacheRepo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), value)
}

func TestCacheRepository_GetMissing(t *testing.T) {
	_, cacheRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = cacheRepo.Get(context.Background(), []byte("no-such-key"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCacheRepository_Expiry(t *testing.T) {
	_, cacheRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := QueryCacheKey("doc-1", 42)
	require.NoError(t, cacheRepo.SetWithTTL(ctx, key, []byte("payload"), 50*time.Millisecond))

	time.Sleep(120 * time.Millisecond)

	_, err = cacheRepo.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCacheRepository_ZeroTTLDoesNotExpire(t *testing.T) {
	_, cacheRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := []byte("persistent")
	require.NoError(t, cacheRepo.SetWithTTL(ctx, key, []byte("payload"), 0))

	value, err := cacheRepo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), value)
}

func TestCacheRepository_Delete(t *testing.T) {
	_, cacheRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := IndexCacheKey("doc-1")
	require.NoError(t, cacheRepo.SetWithTTL(ctx, key, []byte("payload"), time.Hour))

	require.NoError(t, cacheRepo.Delete(ctx, key))

	_, err = cacheRepo.Get(ctx, key)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting a missing key is not an error.
	assert.NoError(t, cacheRepo.Delete(ctx, key))
}

func TestCacheRepository_DeleteByPrefix(t *testing.T) {
	_, cacheRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	require.NoError(t, cacheRepo.SetWithTTL(ctx, QueryCacheKey("doc-1", 1), []byte("a"), time.Hour))
	require.NoError(t, cacheRepo.SetWithTTL(ctx, QueryCacheKey("doc-1", 2), []byte("b"), time.Hour))
	require.NoError(t, cacheRepo.SetWithTTL(ctx, QueryCacheKey("doc-2", 1), []byte("c"), time.Hour))

	require.NoError(t, cacheRepo.DeleteByPrefix(ctx, QueryCachePrefix("doc-1")))

	_, err = cacheRepo.Get(ctx, QueryCacheKey("doc-1", 1))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = cacheRepo.Get(ctx, QueryCacheKey("doc-1", 2))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Other documents are untouched.
	value, err := cacheRepo.Get(ctx, QueryCacheKey("doc-2", 1))
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), value)
}
