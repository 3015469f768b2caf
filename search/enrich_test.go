package search

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/docquery/ai/mock"
	"github.com/poiesic/docquery/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnrichedResult(t *testing.T, query string, texts []string, target int) *core.SearchResult {
	t.Helper()
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = core.NewChunk("doc-1", text, i, 1)
	}
	result := &core.SearchResult{
		Chunk:      chunks[target],
		DenseScore: 0.8,
		Score:      0.8,
		Method:     core.MethodDense,
	}

	enricher, err := NewEnricher(mock.NewMockEmbedder())
	require.NoError(t, err)
	enricher.Enrich(context.Background(), query, []*core.SearchResult{result}, chunks)
	return result
}

func TestNewEnricher_RequiresEmbedder(t *testing.T) {
	_, err := NewEnricher(nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestEnrich_RelevanceIndicators(t *testing.T) {
	result := newEnrichedResult(t, "when is payment due",
		[]string{"Payment is due within 30 days. Payment terms are strict."}, 0)

	// "payment" and "due" survive stop-word filtering and both appear.
	assert.Equal(t, 2, result.Indicators.WordOverlap)
	assert.InDelta(t, 1.0, result.Indicators.OverlapRatio, 1e-9)
	// "payment" occurs twice, "due" once.
	assert.Equal(t, 3, result.Indicators.ExactMatches)
	assert.Equal(t, 2, result.Indicators.QueryLength)
	assert.InDelta(t, 0.8, result.Indicators.SemanticSimilarity, 1e-9)
}

func TestEnrich_ContextWindow(t *testing.T) {
	result := newEnrichedResult(t, "notice",
		[]string{
			"First chunk with preamble text.",
			"Second chunk about notice periods.",
			"Third chunk with closing text.",
		}, 1)

	assert.Contains(t, result.Context.Current, "Second chunk")
	assert.Contains(t, result.Context.Previous, "preamble")
	assert.Contains(t, result.Context.Next, "Third chunk")
	assert.Positive(t, result.Context.Size)
}

func TestEnrich_ContextWindowAtEdges(t *testing.T) {
	result := newEnrichedResult(t, "notice", []string{"Only chunk in the document."}, 0)

	assert.Empty(t, result.Context.Previous)
	assert.Empty(t, result.Context.Next)
	assert.NotEmpty(t, result.Context.Current)
}

func TestEnrich_CoherenceSingleSentence(t *testing.T) {
	result := newEnrichedResult(t, "payment", []string{"Payment is due promptly."}, 0)
	assert.Equal(t, 1.0, result.Coherence)
}

func TestEnrich_CoherenceMultiSentence(t *testing.T) {
	result := newEnrichedResult(t, "payment",
		[]string{"Payment is due in 30 days. Late payment accrues interest. Interest compounds monthly."}, 0)

	assert.GreaterOrEqual(t, result.Coherence, 0.0)
	assert.LessOrEqual(t, result.Coherence, 1.0)
}

func TestEnrich_CoherenceFailureDegrades(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("embedding service down")
	}
	enricher, err := NewEnricher(embedder)
	require.NoError(t, err)

	chunk := core.NewChunk("doc-1", "First sentence here. Second sentence there.", 0, 1)
	result := &core.SearchResult{Chunk: chunk, DenseScore: 0.5}
	enricher.Enrich(context.Background(), "sentence", []*core.SearchResult{result}, []*core.Chunk{chunk})

	assert.Equal(t, 1.0, result.Coherence)
	assert.Equal(t, 2, embedder.CallCount()) // one retry, then skip
}

func TestEnrich_KeyPhrases(t *testing.T) {
	result := newEnrichedResult(t, "payment",
		[]string{"Payment terms require prompt payment. Payment terms bind both parties."}, 0)

	require.NotEmpty(t, result.KeyPhrases)
	assert.LessOrEqual(t, len(result.KeyPhrases), 10)
	assert.Equal(t, "payment terms", result.KeyPhrases[0])
}

func TestEnrich_QualityAndFactors(t *testing.T) {
	result := newEnrichedResult(t, "when is payment due",
		[]string{"Payment is due within 30 days of the invoice date according to the standard terms agreed by both parties."}, 0)

	assert.GreaterOrEqual(t, result.Quality, 0.0)
	assert.LessOrEqual(t, result.Quality, 1.0)
	assert.GreaterOrEqual(t, result.Factors.Overall, 0.0)
	assert.LessOrEqual(t, result.Factors.Overall, 1.0)
	assert.InDelta(t, 0.8, result.Factors.Similarity, 1e-9)
}

func TestFilterByQuality(t *testing.T) {
	results := []*core.SearchResult{
		{Quality: 0.9},
		{Quality: 0.29},
		{Quality: 0.3},
		{Quality: 0.0},
	}

	kept := FilterByQuality(results)
	require.Len(t, kept, 2)
	assert.Equal(t, 0.9, kept[0].Quality)
	assert.Equal(t, 0.3, kept[1].Quality)
}

func TestKeyPhrases_Bounds(t *testing.T) {
	assert.Empty(t, keyPhrases("single", 10))
	phrases := keyPhrases("alpha beta gamma delta epsilon zeta eta theta iota kappa lambda mu", 10)
	assert.LessOrEqual(t, len(phrases), 10)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 10))

	long := "this excerpt is much longer than the allowed maximum length"
	got := Excerpt(long, 20)
	assert.LessOrEqual(t, len(got), 20)
	assert.False(t, len(got) == 0)
}
