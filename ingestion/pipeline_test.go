package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/index"
	badgerstore "github.com/poiesic/docquery/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, provider ai.AIProvider, opts ...Option) (*Pipeline, *index.Manager) {
	t.Helper()
	chunkRepo, cacheRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunkRepo.Close()
		cacheRepo.Close()
		backend.Close()
	})

	manager, err := index.NewManager(chunkRepo)
	require.NoError(t, err)

	p, err := NewPipeline(chunkRepo, manager, provider, opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p, manager
}

func TestNewPipeline_Validation(t *testing.T) {
	provider := mock.NewMockProvider()
	chunkRepo, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	manager, err := index.NewManager(chunkRepo)
	require.NoError(t, err)

	_, err = NewPipeline(nil, manager, provider)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewPipeline(chunkRepo, nil, provider)
	assert.ErrorIs(t, err, ErrIndexManagerRequired)

	_, err = NewPipeline(chunkRepo, manager, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestIngestText_EmptyDocument(t *testing.T) {
	p, _ := newTestPipeline(t, mock.NewMockProvider())

	_, err := p.IngestText(context.Background(), "doc-1", "   \n\t  ")
	assert.ErrorIs(t, err, core.ErrEmptyDocument)
}

func TestIngestText_StoresAndIndexes(t *testing.T) {
	p, manager := newTestPipeline(t, mock.NewMockProvider())

	result, err := p.IngestText(context.Background(),
		"doc-1", "Payment is due within 30 days. Late payment accrues interest.")
	require.NoError(t, err)

	assert.Equal(t, "doc-1", result.DocumentID)
	assert.Positive(t, result.ChunkCount)
	assert.Equal(t, 1, result.PageCount)

	idx, err := manager.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, result.ChunkCount, idx.Len())

	chunks, embeddings, err := p.chunks.GetByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Len(t, chunks, result.ChunkCount)
	assert.Len(t, embeddings, result.ChunkCount)
}

func TestIngestPages_PreservesPageNumbers(t *testing.T) {
	p, _ := newTestPipeline(t, mock.NewMockProvider())

	result, err := p.IngestPages(context.Background(), "doc-1", []string{
		"Section one covers payment obligations.",
		"Section two covers termination rights.",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.PageCount)

	chunks, _, err := p.chunks.GetByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.Equal(t, 2, chunks[1].PageNumber)
}

func TestIngestText_ReplacesPreviousContent(t *testing.T) {
	p, manager := newTestPipeline(t, mock.NewMockProvider())
	ctx := context.Background()

	_, err := p.IngestText(ctx, "doc-1", "Original content about payment terms.")
	require.NoError(t, err)

	result, err := p.IngestText(ctx, "doc-1", "Replacement content about termination.")
	require.NoError(t, err)

	chunks, _, err := p.chunks.GetByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, chunks, result.ChunkCount)
	assert.Contains(t, chunks[0].Text, "Replacement")

	idx, err := manager.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, result.ChunkCount, idx.Len())
}

func TestIngest_RetriesTransientEmbeddingFailure(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	var calls atomic.Int64
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient failure")
		}
		fallback := mock.NewMockEmbedder()
		return fallback.EmbedTexts(ctx, texts)
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockReranker(), mock.NewMockGenerator())

	p, _ := newTestPipeline(t, provider, WithRetry(3, time.Millisecond))

	result, err := p.IngestText(context.Background(), "doc-1", "Payment is due within 30 days.")
	require.NoError(t, err)
	assert.Positive(t, result.ChunkCount)
	assert.GreaterOrEqual(t, calls.Load(), int64(2))
}

func TestIngest_FailsAfterRetriesExhausted(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockReranker(), mock.NewMockGenerator())

	p, _ := newTestPipeline(t, provider, WithRetry(2, time.Millisecond))

	_, err := p.IngestText(context.Background(), "doc-1", "Payment is due within 30 days.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding")
}

func TestIngest_BatchesLargeDocuments(t *testing.T) {
	var batches atomic.Int64
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		batches.Add(1)
		fallback := mock.NewMockEmbedder()
		return fallback.EmbedTexts(ctx, texts)
	}
	provider := mock.NewMockProviderWithServices(embedder, mock.NewMockReranker(), mock.NewMockGenerator())

	p, _ := newTestPipeline(t, provider, WithBatchSize(2), WithPoolSize(2))

	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("This is a reasonably long sentence about contractual obligations and duties. ")
	}
	result, err := p.IngestText(context.Background(), "doc-1", b.String())
	require.NoError(t, err)

	expected := int64(result.ChunkCount+1) / 2
	assert.GreaterOrEqual(t, batches.Load(), expected)
}

func TestSummarize(t *testing.T) {
	p, _ := newTestPipeline(t, mock.NewMockProvider())
	ctx := context.Background()

	_, err := p.IngestPages(ctx, "doc-1", []string{
		"Payment is due within 30 days of the invoice date.",
		"Either party may terminate this agreement with 60 days notice.",
	})
	require.NoError(t, err)

	summary, err := p.Summarize(ctx, "doc-1")
	require.NoError(t, err)

	assert.Equal(t, "doc-1", summary.DocumentID)
	assert.Equal(t, 2, summary.ChunkCount)
	assert.Equal(t, 2, summary.PageCount)
	assert.Positive(t, summary.WordCount)
	assert.NotEmpty(t, summary.RepresentativeChunks)
	assert.LessOrEqual(t, len(summary.RepresentativeChunks), 3)
}

func TestSummarize_UnknownDocument(t *testing.T) {
	p, _ := newTestPipeline(t, mock.NewMockProvider())

	_, err := p.Summarize(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrDocumentNotIndexed)
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("succeeds after failures", func(t *testing.T) {
		attempts := 0
		err := RetryWithBackoff(context.Background(), func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		}, 5, time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("returns last error when exhausted", func(t *testing.T) {
		sentinel := errors.New("persistent")
		err := RetryWithBackoff(context.Background(), func() error { return sentinel }, 2, time.Millisecond)
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("rejects non-positive attempts", func(t *testing.T) {
		err := RetryWithBackoff(context.Background(), func() error { return nil }, 0, time.Millisecond)
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryWithBackoff(ctx, func() error { return errors.New("nope") }, 3, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
