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


package docquery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/ai/openai"
	"github.com/poiesic/docquery/answer"
	"github.com/poiesic/docquery/confidence"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/index"
	"github.com/poiesic/docquery/ingestion"
	"github.com/poiesic/docquery/search"
	"github.com/poiesic/docquery/storage"
	badgerstore "github.com/poiesic/docquery/storage/badger"
)

const (
	// DefaultQueryCacheTTL bounds how long an assembled answer is reused for
	// the identical question.
	DefaultQueryCacheTTL = 30 * time.Minute

	// DefaultMaxHits is the number of passages carried into answer assembly.
	DefaultMaxHits = 5

	gcDiscardRatio = 0.5
)

// Engine is the top-level handle: it owns storage, the AI provider, and the
// ingestion, retrieval, and answering stages.
type Engine struct {
	backend   *badgerstore.Backend
	chunks    storage.ChunkRepository
	cache     storage.CacheRepository
	provider  ai.AIProvider
	indexes   *index.Manager
	pipeline  *ingestion.Pipeline
	searcher  *search.Searcher
	enricher  *search.Enricher
	assembler *answer.Assembler

	maxHits       int
	queryCacheTTL time.Duration
	logger        *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	inMemory      bool
	synthesis     bool
	maxHits       int
	queryCacheTTL time.Duration
	ingestOpts    []ingestion.Option
	searchOpts    []search.Option
}

// WithAIConfig sets the model endpoints and names used to build the default
// provider.
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = config
	}
}

// WithProvider supplies a prebuilt AI provider instead of constructing one
// from the config. The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all storage in memory. Intended for tests and
// short-lived sessions.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithSynthesis answers through the generation model instead of
// extractively.
func WithSynthesis() EngineOption {
	return func(o *engineOptions) {
		o.synthesis = true
	}
}

// WithMaxHits sets how many passages reach answer assembly.
func WithMaxHits(n int) EngineOption {
	return func(o *engineOptions) {
		if n > 0 {
			o.maxHits = n
		}
	}
}

// WithQueryCacheTTL overrides the answer cache lifetime. Zero disables
// caching.
func WithQueryCacheTTL(ttl time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.queryCacheTTL = ttl
	}
}

// WithIngestionOptions forwards options to the ingestion pipeline.
func WithIngestionOptions(opts ...ingestion.Option) EngineOption {
	return func(o *engineOptions) {
		o.ingestOpts = append(o.ingestOpts, opts...)
	}
}

// WithSearchOptions forwards options to the searcher.
func WithSearchOptions(opts ...search.Option) EngineOption {
	return func(o *engineOptions) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// New opens the storage at filePath and wires the full pipeline.
func New(filePath string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:      ai.DefaultConfig(),
		maxHits:       DefaultMaxHits,
		queryCacheTTL: DefaultQueryCacheTTL,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badgerstore.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	chunkRepo, err := badgerstore.NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	cacheRepo, err := badgerstore.NewCacheRepository(backend)
	if err != nil {
		chunkRepo.Close()
		backend.Close()
		return nil, err
	}

	cleanup := func() {
		cacheRepo.Close()
		chunkRepo.Close()
		backend.Close()
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			cleanup()
			return nil, err
		}
	}

	indexes, err := index.NewManager(chunkRepo,
		index.WithCache(cacheRepo, badgerstore.IndexCacheKey, index.DefaultCacheTTL))
	if err != nil {
		provider.Close()
		cleanup()
		return nil, err
	}

	pipeline, err := ingestion.NewPipeline(chunkRepo, indexes, provider, options.ingestOpts...)
	if err != nil {
		provider.Close()
		cleanup()
		return nil, err
	}

	searcher, err := search.NewSearcher(chunkRepo, indexes, provider, options.searchOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		cleanup()
		return nil, err
	}

	enricher, err := search.NewEnricher(provider.Embedder())
	if err != nil {
		pipeline.Release()
		provider.Close()
		cleanup()
		return nil, err
	}

	assemblerOpts := []answer.Option{}
	if options.synthesis {
		assemblerOpts = append(assemblerOpts, answer.WithGenerator(provider.Generator()))
	}
	assembler, err := answer.NewAssembler(confidence.NewAnalyzer(), assemblerOpts...)
	if err != nil {
		pipeline.Release()
		provider.Close()
		cleanup()
		return nil, err
	}

	return &Engine{
		backend:       backend,
		chunks:        chunkRepo,
		cache:         cacheRepo,
		provider:      provider,
		indexes:       indexes,
		pipeline:      pipeline,
		searcher:      searcher,
		enricher:      enricher,
		assembler:     assembler,
		maxHits:       options.maxHits,
		queryCacheTTL: options.queryCacheTTL,
		logger:        slog.Default().With("component", "engine"),
	}, nil
}

// IndexDocument ingests a document as one page of text. Any previous
// content under the same ID is replaced and cached answers for it are
// dropped.
func (e *Engine) IndexDocument(ctx context.Context, documentID, text string) (*ingestion.Result, error) {
	result, err := e.pipeline.IngestText(ctx, documentID, text)
	if err != nil {
		return nil, err
	}
	e.dropQueryCache(ctx, documentID)
	return result, nil
}

// IndexPages ingests a page-segmented document, preserving page numbers
// for citations.
func (e *Engine) IndexPages(ctx context.Context, documentID string, pages []string) (*ingestion.Result, error) {
	result, err := e.pipeline.IngestPages(ctx, documentID, pages)
	if err != nil {
		return nil, err
	}
	e.dropQueryCache(ctx, documentID)
	return result, nil
}

// Ask answers a question about an indexed document. The answer is always
// well-formed; retrieval quality is reported through the confidence fields.
// Errors are limited to invalid input, unknown documents, and embedding
// failures.
func (e *Engine) Ask(ctx context.Context, documentID, question string) (*core.Answer, error) {
	if err := core.ValidateQuery(question); err != nil {
		return nil, err
	}

	cacheKey := badgerstore.QueryCacheKey(documentID, uint64(core.IDFromContent(question)))
	if cached := e.cachedAnswer(ctx, cacheKey); cached != nil {
		e.logger.Debug("answer served from cache", "document_id", documentID)
		return cached, nil
	}

	results, err := e.searcher.Search(ctx, documentID, question, e.maxHits)
	if err != nil {
		return nil, err
	}

	allChunks, _, err := e.chunks.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	e.enricher.Enrich(ctx, question, results, allChunks)
	results = search.FilterByQuality(results)

	ans := e.assembler.Assemble(ctx, documentID, question, results)

	if e.queryCacheTTL > 0 {
		if err := e.cache.SetWithTTL(ctx, cacheKey, storage.MarshalAnswer(ans), e.queryCacheTTL); err != nil {
			e.logger.Warn("failed to cache answer", "document_id", documentID, "err", err)
		}
	}
	return ans, nil
}

// Summary describes an indexed document.
func (e *Engine) Summary(ctx context.Context, documentID string) (*ingestion.Summary, error) {
	return e.pipeline.Summarize(ctx, documentID)
}

// Optimize rebuilds a document's index from stored chunks and drops its
// cached answers.
func (e *Engine) Optimize(ctx context.Context, documentID string) error {
	if err := e.indexes.Optimize(ctx, documentID); err != nil {
		return err
	}
	e.dropQueryCache(ctx, documentID)
	return nil
}

// RemoveDocument deletes a document's chunks, index, and cached state.
func (e *Engine) RemoveDocument(ctx context.Context, documentID string) error {
	if err := e.chunks.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	e.indexes.Remove(ctx, documentID)
	if err := e.cache.Delete(ctx, badgerstore.IndexCacheKey(documentID)); err != nil {
		e.logger.Warn("failed to drop index cache", "document_id", documentID, "err", err)
	}
	e.dropQueryCache(ctx, documentID)
	return nil
}

// Maintain checks storage health and runs one round of garbage collection.
// Intended to be called from a timer; it never spawns background work.
func (e *Engine) Maintain(ctx context.Context) error {
	if err := e.backend.CheckHealth(); err != nil {
		return err
	}
	err := e.backend.RunValueLogGC(gcDiscardRatio)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// Stats reports engine counters and storage sizes.
type Stats struct {
	Documents    int    `json:"documents"`
	ChunksLoaded int    `json:"chunks_loaded"`
	Queries      uint64 `json:"queries"`
	RerankSkips  uint64 `json:"rerank_skips"`
	LSMBytes     int64  `json:"lsm_bytes"`
	VLogBytes    int64  `json:"vlog_bytes"`
}

func (e *Engine) Stats() Stats {
	indexStats := e.indexes.Stats()
	searchStats := e.searcher.Stats()
	lsm, vlog := e.backend.LSMSize()

	stats := Stats{
		Documents:   len(indexStats),
		Queries:     searchStats.Queries,
		RerankSkips: searchStats.RerankSkips,
		LSMBytes:    lsm,
		VLogBytes:   vlog,
	}
	for _, n := range indexStats {
		stats.ChunksLoaded += n
	}
	return stats
}

// Close releases the AI provider, repositories, and storage backend.
func (e *Engine) Close() error {
	e.pipeline.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.cache.Close(); err != nil {
		e.logger.Error("error closing cache repository", "err", err)
		return err
	}
	if err := e.chunks.Close(); err != nil {
		e.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) cachedAnswer(ctx context.Context, key []byte) *core.Answer {
	if e.queryCacheTTL <= 0 {
		return nil
	}
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	ans, err := storage.UnmarshalAnswer(data)
	if err != nil {
		e.logger.Warn("dropping unreadable cached answer", "err", err)
		e.cache.Delete(ctx, key)
		return nil
	}
	return ans
}

func (e *Engine) dropQueryCache(ctx context.Context, documentID string) {
	if err := e.cache.DeleteByPrefix(ctx, badgerstore.QueryCachePrefix(documentID)); err != nil {
		e.logger.Warn("failed to invalidate query cache", "document_id", documentID, "err", err)
	}
}
