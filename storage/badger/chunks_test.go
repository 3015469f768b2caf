package badger

import (
	"context"
	"testing"

	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunks(documentID string, texts ...string) ([]*core.Chunk, [][]float32) {
	chunks := make([]*core.Chunk, len(texts))
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		chunks[i] = core.NewChunk(documentID, text, i, 1)
		embeddings[i] = []float32{float32(i), 1, 0}
	}
	return chunks, embeddings
}

func TestChunkRepository_ReplaceAndGet(t *testing.T) {
	chunkRepo, cacheRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		chunkRepo.Close()
		cacheRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	chunks, embeddings := newTestChunks("doc-1",
		"Payment is due within 30 days.",
		"Termination requires 60 days notice.",
	)

	require.NoError(t, chunkRepo.ReplaceDocument(ctx, "doc-1", chunks, embeddings))

	got, gotEmbeddings, err := chunkRepo.GetByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, chunks[0].Text, got[0].Text)
	assert.Equal(t, chunks[1].Text, got[1].Text)
	assert.Equal(t, embeddings, gotEmbeddings)
}

func TestChunkRepository_ReplaceShrinksDocument(t *testing.T) {
	chunkRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	chunks, embeddings := newTestChunks("doc-1", "first", "second", "third")
	require.NoError(t, chunkRepo.ReplaceDocument(ctx, "doc-1", chunks, embeddings))

	// Re-ingest with fewer chunks; the stale tail must not survive.
	chunks, embeddings = newTestChunks("doc-1", "only chunk")
	require.NoError(t, chunkRepo.ReplaceDocument(ctx, "doc-1", chunks, embeddings))

	got, _, err := chunkRepo.GetByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "only chunk", got[0].Text)
}

func TestChunkRepository_DocumentIsolation(t *testing.T) {
	chunkRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	chunksA, embeddingsA := newTestChunks("doc-a", "alpha text")
	chunksB, embeddingsB := newTestChunks("doc-b", "beta text", "gamma text")
	require.NoError(t, chunkRepo.ReplaceDocument(ctx, "doc-a", chunksA, embeddingsA))
	require.NoError(t, chunkRepo.ReplaceDocument(ctx, "doc-b", chunksB, embeddingsB))

	gotA, _, err := chunkRepo.GetByDocument(ctx, "doc-a")
	require.NoError(t, err)
	require.Len(t, gotA, 1)
	assert.Equal(t, "alpha text", gotA[0].Text)

	gotB, _, err := chunkRepo.GetByDocument(ctx, "doc-b")
	require.NoError(t, err)
	assert.Len(t, gotB, 2)
}

func TestChunkRepository_ColonDocumentIDIsolation(t *testing.T) {
	chunkRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	chunksA, embeddingsA := newTestChunks("a", "Alpha agreement text.")
	chunksB, embeddingsB := newTestChunks("a:b", "Bravo rider text.", "Bravo rider more.")
	require.NoError(t, chunkRepo.ReplaceDocument(ctx, "a", chunksA, embeddingsA))
	require.NoError(t, chunkRepo.ReplaceDocument(ctx, "a:b", chunksB, embeddingsB))

	// "a" must not pick up "a:b" chunks even though it is a string prefix.
	gotA, _, err := chunkRepo.GetByDocument(ctx, "a")
	require.NoError(t, err)
	require.Len(t, gotA, 1)
	for _, chunk := range gotA {
		assert.Equal(t, "a", chunk.DocumentID)
	}

	// Replacing and deleting "a" must leave "a:b" untouched.
	require.NoError(t, chunkRepo.ReplaceDocument(ctx, "a", chunksA, embeddingsA))
	require.NoError(t, chunkRepo.DeleteByDocument(ctx, "a"))

	gotB, _, err := chunkRepo.GetByDocument(ctx, "a:b")
	require.NoError(t, err)
	assert.Len(t, gotB, 2)
}

func TestChunkRepository_GetUnknownDocument(t *testing.T) {
	chunkRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	got, gotEmbeddings, err := chunkRepo.GetByDocument(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, gotEmbeddings)
}

func TestChunkRepository_DeleteByDocument(t *testing.T) {
	chunkRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	chunks, embeddings := newTestChunks("doc-1", "first", "second")
	require.NoError(t, chunkRepo.ReplaceDocument(ctx, "doc-1", chunks, embeddings))

	require.NoError(t, chunkRepo.DeleteByDocument(ctx, "doc-1"))

	got, _, err := chunkRepo.GetByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Deleting again is not an error.
	assert.NoError(t, chunkRepo.DeleteByDocument(ctx, "doc-1"))
}
