package search

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/index"
	"github.com/poiesic/docquery/storage"
	badgerstore "github.com/poiesic/docquery/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stageRecorder records which cascade stages ran and how many candidates
// each produced.
type stageRecorder struct {
	started     bool
	denseCount  int
	hybridCount int
	rerankCount int
	skipReasons []string
	finalCount  int
}

var _ Monitor = (*stageRecorder)(nil)

func (r *stageRecorder) Start(_, _ string)                 { r.started = true }
func (r *stageRecorder) AfterDenseRetrieval(h []index.Hit) { r.denseCount = len(h) }
func (r *stageRecorder) AfterHybridFusion(h []index.Hit)   { r.hybridCount = len(h) }
func (r *stageRecorder) RerankSkipped(reason string)       { r.skipReasons = append(r.skipReasons, reason) }
func (r *stageRecorder) AfterRerank(h []index.Hit)         { r.rerankCount = len(h) }
func (r *stageRecorder) Finish(res []*core.SearchResult)   { r.finalCount = len(res) }

func setupSearcher(t *testing.T, provider ai.AIProvider, texts ...string) (*Searcher, storage.ChunkRepository) {
	t.Helper()
	chunkRepo, cacheRepo, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunkRepo.Close()
		cacheRepo.Close()
		backend.Close()
	})

	ctx := context.Background()
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = core.NewChunk("doc-1", text, i, 1)
	}
	passages := make([]string, len(texts))
	copy(passages, texts)
	embeddings, err := provider.Embedder().EmbedTexts(ctx, passages)
	require.NoError(t, err)
	require.NoError(t, chunkRepo.ReplaceDocument(ctx, "doc-1", chunks, embeddings))

	manager, err := index.NewManager(chunkRepo)
	require.NoError(t, err)
	_, err = manager.Build(ctx, "doc-1", chunks, embeddings)
	require.NoError(t, err)

	s, err := NewSearcher(chunkRepo, manager, provider)
	require.NoError(t, err)
	return s, chunkRepo
}

func TestNewSearcher_Validation(t *testing.T) {
	provider := mock.NewMockProvider()
	chunkRepo, _, backend, err := badgerstore.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	manager, err := index.NewManager(chunkRepo)
	require.NoError(t, err)

	_, err = NewSearcher(nil, manager, provider)
	assert.ErrorIs(t, err, ErrChunkRepositoryRequired)

	_, err = NewSearcher(chunkRepo, nil, provider)
	assert.ErrorIs(t, err, ErrIndexManagerRequired)

	_, err = NewSearcher(chunkRepo, manager, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestSearch_EmptyQuery(t *testing.T) {
	s, _ := setupSearcher(t, mock.NewMockProvider(), "some text")

	_, err := s.Search(context.Background(), "doc-1", "  ", 5)
	assert.ErrorIs(t, err, core.ErrEmptyQuery)
}

func TestSearch_UnindexedDocument(t *testing.T) {
	s, _ := setupSearcher(t, mock.NewMockProvider(), "some text")

	_, err := s.Search(context.Background(), "no-such-doc", "payment terms", 5)
	assert.ErrorIs(t, err, core.ErrDocumentNotIndexed)
}

func TestSearch_MonotonicNarrowing(t *testing.T) {
	provider := mock.NewMockProvider()
	s, _ := setupSearcher(t, provider,
		"Payment is due within 30 days of invoice.",
		"Late payment accrues interest at 2 percent monthly.",
		"Either party may terminate with 60 days notice.",
		"Notice must be delivered in writing to the registered address.",
		"The governing law of this agreement is California law.",
		"Disputes shall be resolved through binding arbitration.",
	)

	recorder := &stageRecorder{}
	results, err := s.SearchWithMonitor(context.Background(), "doc-1", "when is payment due", 2, recorder)
	require.NoError(t, err)

	assert.True(t, recorder.started)
	assert.Equal(t, 4, recorder.denseCount) // 2*maxHits candidate pool
	assert.LessOrEqual(t, recorder.hybridCount, recorder.denseCount)
	assert.LessOrEqual(t, recorder.rerankCount, recorder.hybridCount)
	assert.LessOrEqual(t, len(results), 2)
	assert.Equal(t, len(results), recorder.finalCount)

	for _, result := range results {
		assert.Equal(t, core.MethodReranked, result.Method)
		assert.Equal(t, "doc-1", result.Chunk.DocumentID)
	}
}

func TestSearch_ResultsRankedByScore(t *testing.T) {
	s, _ := setupSearcher(t, mock.NewMockProvider(),
		"Payment is due within 30 days.",
		"Governing law is California.",
		"Termination requires 60 days notice.",
	)

	results, err := s.Search(context.Background(), "doc-1", "when is payment due", 3)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestSearch_RerankSkippedOnPersistentFailure(t *testing.T) {
	reranker := mock.NewMockReranker()
	reranker.RerankFunc = func(ctx context.Context, query string, passages []string) ([]float64, error) {
		return nil, errors.New("model unavailable")
	}
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), reranker, mock.NewMockGenerator())

	s, _ := setupSearcher(t, provider,
		"Payment is due within 30 days.",
		"Governing law is California.",
		"Termination requires 60 days notice.",
	)

	recorder := &stageRecorder{}
	results, err := s.SearchWithMonitor(context.Background(), "doc-1", "when is payment due", 2, recorder)
	require.NoError(t, err)
	assert.NotEmpty(t, results)

	// Failure after one retry skips the stage; hybrid ordering survives.
	require.Len(t, recorder.skipReasons, 1)
	assert.Equal(t, 2, reranker.CallCount())
	assert.Equal(t, core.MethodHybrid, results[0].Method)
	assert.Equal(t, uint64(1), s.Stats().RerankSkips)
}

func TestSearch_RerankNeedsTwoCandidates(t *testing.T) {
	s, _ := setupSearcher(t, mock.NewMockProvider(), "Payment is due within 30 days.")

	recorder := &stageRecorder{}
	results, err := s.SearchWithMonitor(context.Background(), "doc-1", "payment due", 3, recorder)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Len(t, recorder.skipReasons, 1)
	assert.Contains(t, recorder.skipReasons[0], "fewer than two")
	assert.Equal(t, core.MethodHybrid, results[0].Method)
}

func TestSearch_EmbedderFailureAfterRetry(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	// Ingest with a working embedder, then break query embedding.
	s, _ := setupSearcher(t, mock.NewMockProvider(), "some text", "more text")
	s.embedder = embedder

	_, err := s.Search(context.Background(), "doc-1", "payment", 2)
	require.Error(t, err)
	assert.GreaterOrEqual(t, embedder.CallCount(), 2)
}

func TestSearcher_Stats(t *testing.T) {
	s, _ := setupSearcher(t, mock.NewMockProvider(), "alpha", "beta")

	_, err := s.Search(context.Background(), "doc-1", "alpha", 2)
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "doc-1", "beta", 2)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), s.Stats().Queries)
}
