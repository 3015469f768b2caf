package index

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
	badgerstore "github.com/poiesic/docquery/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, withCache bool) (*Manager, storage.ChunkRepository) {
	t.Helper()
	chunkRepo, cacheRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunkRepo.Close()
		cacheRepo.Close()
		backend.Close()
	})

	var opts []ManagerOption
	if withCache {
		opts = append(opts, WithCache(cacheRepo, badgerstore.IndexCacheKey, time.Hour))
	}

	m, err := NewManager(chunkRepo, opts...)
	require.NoError(t, err)
	return m, chunkRepo
}

func storeTestDocument(t *testing.T, repo storage.ChunkRepository, documentID string, texts ...string) ([]*core.Chunk, [][]float32) {
	t.Helper()
	chunks := make([]*core.Chunk, len(texts))
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		chunks[i] = core.NewChunk(documentID, text, i, 1)
		embeddings[i] = []float32{float32(i + 1), 1}
	}
	require.NoError(t, repo.ReplaceDocument(context.Background(), documentID, chunks, embeddings))
	return chunks, embeddings
}

func TestManager_RequiresChunkRepository(t *testing.T) {
	_, err := NewManager(nil)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)
}

func TestManager_BuildAndGet(t *testing.T) {
	m, repo := newTestManager(t, true)
	ctx := context.Background()
	chunks, embeddings := storeTestDocument(t, repo, "doc-1",
		"Payment is due within 30 days.",
		"Governing law is California.",
	)

	built, err := m.Build(ctx, "doc-1", chunks, embeddings)
	require.NoError(t, err)
	assert.Equal(t, 2, built.Len())

	got, err := m.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Same(t, built, got)
}

func TestManager_BuildEmptyDocument(t *testing.T) {
	m, _ := newTestManager(t, false)

	_, err := m.Build(context.Background(), "doc-1", nil, nil)
	assert.ErrorIs(t, err, core.ErrEmptyDocument)
}

func TestManager_GetUnknownDocument(t *testing.T) {
	m, _ := newTestManager(t, true)

	_, err := m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrDocumentNotIndexed)
}

func TestManager_GetRestoresFromStoredChunks(t *testing.T) {
	// No persistent cache: Get must refit from the chunk repository.
	m, repo := newTestManager(t, false)
	ctx := context.Background()
	storeTestDocument(t, repo, "doc-1",
		"Payment is due within 30 days.",
		"Governing law is California.",
	)

	got, err := m.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	scores, err := got.SparseScores("doc-1", "payment due")
	require.NoError(t, err)
	assert.Greater(t, scores[0], scores[1])
}

func TestManager_GetRestoresFromCache(t *testing.T) {
	m, repo := newTestManager(t, true)
	ctx := context.Background()
	chunks, embeddings := storeTestDocument(t, repo, "doc-1",
		"Payment is due within 30 days.",
		"Governing law is California.",
	)

	built, err := m.Build(ctx, "doc-1", chunks, embeddings)
	require.NoError(t, err)

	// Simulate process restart: drop only the in-memory registry.
	m.mu.Lock()
	delete(m.indexes, "doc-1")
	m.mu.Unlock()

	restored, err := m.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.NotSame(t, built, restored)

	want, err := built.SparseScores("doc-1", "payment due")
	require.NoError(t, err)
	got, err := restored.SparseScores("doc-1", "payment due")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestManager_Optimize(t *testing.T) {
	m, repo := newTestManager(t, true)
	ctx := context.Background()
	chunks, embeddings := storeTestDocument(t, repo, "doc-1", "original text here")
	_, err := m.Build(ctx, "doc-1", chunks, embeddings)
	require.NoError(t, err)

	// Replace the stored chunks, then optimize; the index must reflect the
	// new content, not the cached vocabulary of the old one.
	storeTestDocument(t, repo, "doc-1", "entirely different wording", "second chunk")
	require.NoError(t, m.Optimize(ctx, "doc-1"))

	got, err := m.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	scores, err := got.SparseScores("doc-1", "different wording")
	require.NoError(t, err)
	assert.Greater(t, scores[0], 0.0)
}

func TestManager_OptimizeUnknownDocument(t *testing.T) {
	m, _ := newTestManager(t, true)

	err := m.Optimize(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrDocumentNotIndexed)
}

func TestManager_Remove(t *testing.T) {
	m, repo := newTestManager(t, true)
	ctx := context.Background()
	chunks, embeddings := storeTestDocument(t, repo, "doc-1", "some text")
	_, err := m.Build(ctx, "doc-1", chunks, embeddings)
	require.NoError(t, err)

	m.Remove(ctx, "doc-1")
	assert.Empty(t, m.Stats())

	// Chunks remain, so Get rebuilds.
	got, err := m.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestManager_Stats(t *testing.T) {
	m, repo := newTestManager(t, false)
	ctx := context.Background()
	chunksA, embeddingsA := storeTestDocument(t, repo, "doc-a", "one", "two")
	chunksB, embeddingsB := storeTestDocument(t, repo, "doc-b", "three")

	_, err := m.Build(ctx, "doc-a", chunksA, embeddingsA)
	require.NoError(t, err)
	_, err = m.Build(ctx, "doc-b", chunksB, embeddingsB)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"doc-a": 2, "doc-b": 1}, m.Stats())
}
