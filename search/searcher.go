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
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/index"
	"github.com/poiesic/docquery/storage"
)

// Weights configures how the cascade stages blend their scores.
type Weights struct {
	// Dense and Sparse blend the hybrid fusion stage.
	Dense  float64
	Sparse float64
	// Previous and Cross blend the rerank stage: the carried-forward
	// cascade score against the reranker's judgment.
	Previous float64
	Cross    float64
}

// DefaultWeights returns the standard stage blend.
func DefaultWeights() Weights {
	return Weights{
		Dense:    0.7,
		Sparse:   0.3,
		Previous: 0.3,
		Cross:    0.7,
	}
}

// Stats counts cascade activity since the searcher was created.
type Stats struct {
	Queries        uint64
	RerankSkips    uint64
	EmptyShortCuts uint64
}

// Searcher runs the multi-stage retrieval cascade over a single document:
// dense retrieval, hybrid TF-IDF fusion, and model-based reranking. Each
// stage narrows or re-orders the candidates of the previous one; no stage
// ever widens the set.
type Searcher struct {
	chunks   storage.ChunkRepository
	indexes  *index.Manager
	embedder ai.Embedder
	reranker ai.Reranker
	weights  Weights
	logger   *slog.Logger

	queries        atomic.Uint64
	rerankSkips    atomic.Uint64
	emptyShortCuts atomic.Uint64
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithWeights overrides the default stage blend.
func WithWeights(w Weights) Option {
	return func(s *Searcher) error {
		s.weights = w
		return nil
	}
}

// WithoutReranker disables the rerank stage entirely.
func WithoutReranker() Option {
	return func(s *Searcher) error {
		s.reranker = nil
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	chunks storage.ChunkRepository,
	indexes *index.Manager,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if indexes == nil {
		return nil, ErrIndexManagerRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		chunks:   chunks,
		indexes:  indexes,
		embedder: provider.Embedder(),
		reranker: provider.Reranker(),
		weights:  DefaultWeights(),
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search runs the cascade and returns up to maxHits enriched-ready results,
// ranked by final score.
func (s *Searcher) Search(ctx context.Context, documentID, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, documentID, query, maxHits, nil)
}

// SearchWithMonitor runs the cascade with stage callbacks.
// Returns up to maxHits results, ranked by final score.
func (s *Searcher) SearchWithMonitor(ctx context.Context, documentID, query string, maxHits int, monitor Monitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if err := core.ValidateQuery(query); err != nil {
		return nil, err
	}
	if maxHits <= 0 {
		maxHits = 5
	}

	s.queries.Add(1)
	monitor.Start(documentID, query)

	idx, err := s.indexes.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	chunks, _, err := s.chunks.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	byPosition := make(map[int]*core.Chunk, len(chunks))
	for _, chunk := range chunks {
		byPosition[chunk.Index] = chunk
	}

	// Stage 1: dense retrieval over the whole document, keeping a candidate
	// pool twice the requested size for the later stages to refine.
	embedding, err := s.embedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	denseScores, err := idx.DenseScores(embedding)
	if err != nil {
		return nil, err
	}
	hits := index.TopK(denseScores, 2*maxHits)
	method := core.MethodDense
	monitor.AfterDenseRetrieval(hits)

	if len(hits) == 0 {
		s.emptyShortCuts.Add(1)
		monitor.Finish(nil)
		return []*core.SearchResult{}, nil
	}

	denseByPos := make(map[int]float64, len(hits))
	for _, h := range hits {
		denseByPos[h.ChunkIndex] = h.Score
	}

	// Stage 2: hybrid fusion with the document's TF-IDF representation.
	// A vocabulary failure only skips the stage; dense ordering survives.
	sparseByPos := make(map[int]float64)
	if sparseScores, err := idx.SparseScores(documentID, query); err != nil {
		s.logger.Warn("skipping hybrid fusion", "documentID", documentID, "err", err)
	} else {
		for i, h := range hits {
			sparse := sparseScores[h.ChunkIndex]
			sparseByPos[h.ChunkIndex] = sparse
			hits[i].Score = s.weights.Dense*h.Score + s.weights.Sparse*sparse
		}
		sortHits(hits)
		method = core.MethodHybrid
		monitor.AfterHybridFusion(hits)
	}

	// Stage 3: model reranking. Needs at least two candidates to be worth a
	// model call; failures are retried once and then the stage is skipped.
	rerankByPos := make(map[int]float64)
	if s.reranker == nil {
		monitor.RerankSkipped("no reranker configured")
	} else if len(hits) < 2 {
		monitor.RerankSkipped("fewer than two candidates")
	} else {
		passages := make([]string, len(hits))
		for i, h := range hits {
			if chunk := byPosition[h.ChunkIndex]; chunk != nil {
				passages[i] = chunk.Text
			}
		}

		crossScores, err := s.rerank(ctx, query, passages)
		if err != nil {
			s.rerankSkips.Add(1)
			s.logger.Warn("skipping rerank stage", "err", err)
			monitor.RerankSkipped(err.Error())
		} else {
			for i := range hits {
				rerankByPos[hits[i].ChunkIndex] = crossScores[i]
				hits[i].Score = s.weights.Previous*hits[i].Score + s.weights.Cross*crossScores[i]
			}
			sortHits(hits)
			method = core.MethodReranked
			monitor.AfterRerank(hits)
		}
	}

	if len(hits) > maxHits {
		hits = hits[:maxHits]
	}

	results := make([]*core.SearchResult, 0, len(hits))
	for _, h := range hits {
		chunk := byPosition[h.ChunkIndex]
		if chunk == nil {
			s.logger.Warn("index references missing chunk", "documentID", documentID, "position", h.ChunkIndex)
			continue
		}
		result := &core.SearchResult{
			Chunk:       chunk,
			DenseScore:  denseByPos[h.ChunkIndex],
			SparseScore: sparseByPos[h.ChunkIndex],
			Score:       h.Score,
			Method:      method,
		}
		if cross, ok := rerankByPos[h.ChunkIndex]; ok {
			result.RerankScore = cross
		}
		results = append(results, result)
	}

	monitor.Finish(results)
	return results, nil
}

// Stats returns a snapshot of the cascade counters.
func (s *Searcher) Stats() Stats {
	return Stats{
		Queries:        s.queries.Load(),
		RerankSkips:    s.rerankSkips.Load(),
		EmptyShortCuts: s.emptyShortCuts.Load(),
	}
}

// embedText embeds the query, retrying once on failure.
func (s *Searcher) embedText(ctx context.Context, query string) ([]float32, error) {
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err == nil {
		return embedding, nil
	}
	s.logger.Warn("retrying query embedding", "err", err)

	embedding, err = s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return embedding, nil
}

// rerank scores the passages, retrying once on failure.
func (s *Searcher) rerank(ctx context.Context, query string, passages []string) ([]float64, error) {
	scores, err := s.reranker.Rerank(ctx, query, passages)
	if err == nil {
		return scores, nil
	}
	s.logger.Warn("retrying rerank", "err", err)

	scores, err = s.reranker.Rerank(ctx, query, passages)
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// sortHits orders hits by descending score with ties broken by ascending
// chunk position.
func sortHits(hits []index.Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})
}
