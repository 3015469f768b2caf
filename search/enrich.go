// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/chunker"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/index"
)

const (
	// QualityThreshold is the minimum quality score a result needs to
	// survive the quality filter.
	QualityThreshold = 0.3

	// maxKeyPhrases bounds the key phrase list per result.
	maxKeyPhrases = 10

	// Context window excerpt bounds, in runes.
	neighborExcerptLen = 100
	currentExcerptLen  = 200
)

// Enricher annotates cascade survivors with relevance indicators, key
// phrases, semantic coherence, neighboring context, and a quality score.
type Enricher struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

// EnrichOption configures an Enricher.
type EnrichOption func(*Enricher) error

// WithEnrichLogger sets a custom logger.
// Default is slog.Default().
func WithEnrichLogger(logger *slog.Logger) EnrichOption {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEnricher creates an enricher. The embedder is used for sentence-level
// coherence scoring.
func NewEnricher(embedder ai.Embedder, opts ...EnrichOption) (*Enricher, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Enricher{
		embedder: embedder,
		logger:   slog.Default().With("component", "enricher"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Enrich annotates each result in place. allChunks supplies the neighboring
// chunks for context windows and must be the document's full chunk set.
// Coherence scoring failures degrade to the neutral value, never to an error.
func (e *Enricher) Enrich(ctx context.Context, query string, results []*core.SearchResult, allChunks []*core.Chunk) {
	byPosition := make(map[int]*core.Chunk, len(allChunks))
	for _, chunk := range allChunks {
		byPosition[chunk.Index] = chunk
	}

	queryTokens := tokenizeAndFilter(query)
	querySet := wordSet(queryTokens)

	for _, result := range results {
		chunk := result.Chunk
		result.Indicators = relevanceIndicators(querySet, queryTokens, chunk.Text, result.DenseScore)
		result.KeyPhrases = keyPhrases(chunk.Text, maxKeyPhrases)
		result.Coherence = e.coherence(ctx, chunk.Text)
		result.Context = contextWindow(chunk, byPosition)
		result.Factors = resultFactors(result)
		result.Quality = qualityScore(result)
	}
}

// FilterByQuality drops results below the quality threshold.
// Order is preserved.
func FilterByQuality(results []*core.SearchResult) []*core.SearchResult {
	kept := make([]*core.SearchResult, 0, len(results))
	for _, result := range results {
		if result.Quality >= QualityThreshold {
			kept = append(kept, result)
		}
	}
	return kept
}

func relevanceIndicators(querySet map[string]bool, queryTokens []string, text string, similarity float64) core.RelevanceIndicators {
	textTokens := tokenizeAndFilter(text)
	textSet := wordSet(textTokens)

	overlap := 0
	for token := range querySet {
		if textSet[token] {
			overlap++
		}
	}

	ratio := 0.0
	if len(querySet) > 0 {
		ratio = float64(overlap) / float64(len(querySet))
	}

	// Total occurrences of query terms in the text, not just distinct hits.
	exact := 0
	for _, token := range textTokens {
		if querySet[token] {
			exact++
		}
	}

	return core.RelevanceIndicators{
		WordOverlap:        overlap,
		OverlapRatio:       ratio,
		ExactMatches:       exact,
		SemanticSimilarity: clampUnit(similarity),
		QueryLength:        len(queryTokens),
		TextLength:         len(textTokens),
	}
}

// coherence measures how smoothly consecutive sentences follow each other,
// as the mean cosine similarity of adjacent sentence embeddings. Texts with
// fewer than two sentences are trivially coherent.
func (e *Enricher) coherence(ctx context.Context, text string) float64 {
	sentences := chunker.Sentences(text)
	if len(sentences) < 2 {
		return 1.0
	}

	embeddings, err := e.embedTexts(ctx, sentences)
	if err != nil {
		e.logger.Warn("skipping coherence scoring", "err", err)
		return 1.0
	}
	if len(embeddings) != len(sentences) {
		return 1.0
	}

	for _, emb := range embeddings {
		index.Normalize(emb)
	}

	var total float64
	for i := 0; i+1 < len(embeddings); i++ {
		total += index.Dot(embeddings[i], embeddings[i+1])
	}
	return clampUnit(total / float64(len(embeddings)-1))
}

// embedTexts embeds the sentences, retrying once on failure.
func (e *Enricher) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings, err := e.embedder.EmbedTexts(ctx, texts)
	if err == nil {
		return embeddings, nil
	}
	e.logger.Warn("retrying sentence embeddings", "err", err)
	return e.embedder.EmbedTexts(ctx, texts)
}

// contextWindow builds the excerpt of the chunk and its neighbors that
// accompanies a result.
func contextWindow(chunk *core.Chunk, byPosition map[int]*core.Chunk) core.ContextWindow {
	window := core.ContextWindow{
		Current: headRunes(chunk.Text, currentExcerptLen),
	}
	if prev := byPosition[chunk.Index-1]; prev != nil {
		window.Previous = tailRunes(prev.Text, neighborExcerptLen)
	}
	if next := byPosition[chunk.Index+1]; next != nil {
		window.Next = headRunes(next.Text, neighborExcerptLen)
	}
	window.Size = len([]rune(window.Previous)) + len([]rune(window.Current)) + len([]rune(window.Next))
	return window
}

func resultFactors(result *core.SearchResult) core.ResultFactors {
	factors := core.ResultFactors{
		Similarity:        clampUnit(result.DenseScore),
		TextQuality:       lengthAdequacy(result.Chunk.WordCount),
		QuerySpecificity:  clampUnit(float64(result.Indicators.QueryLength) / 8.0),
		ResultDiversity:   0.5,
		SemanticAlignment: clampUnit(result.Indicators.OverlapRatio),
	}
	factors.Overall = clampUnit(0.4*factors.Similarity +
		0.2*factors.TextQuality +
		0.1*factors.QuerySpecificity +
		0.1*factors.ResultDiversity +
		0.2*factors.SemanticAlignment)
	return factors
}

// qualityScore blends the signals that decide whether a result is worth
// showing at all.
func qualityScore(result *core.SearchResult) float64 {
	return clampUnit(0.4*clampUnit(result.DenseScore) +
		0.2*result.Indicators.OverlapRatio +
		0.15*lengthAdequacy(result.Chunk.WordCount) +
		0.15*clampUnit(float64(result.Indicators.QueryLength)/8.0) +
		0.1*result.Coherence)
}

// lengthAdequacy scores how substantial a chunk is: very short fragments
// score low, anything from a couple of sentences up scores full.
func lengthAdequacy(wordCount int) float64 {
	if wordCount <= 0 {
		return 0
	}
	return clampUnit(float64(wordCount) / 20.0)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Excerpt returns the first sentence-ish fragment of text for display,
// trimmed to max runes on a word boundary where possible.
func Excerpt(text string, max int) string {
	if len([]rune(text)) <= max {
		return text
	}
	cut := headRunes(text, max)
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return cut
}
