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


package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/chunker"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/index"
	"github.com/poiesic/docquery/storage"
)

const (
	defaultBatchSize      = 32
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
)

// Pipeline ingests documents: it chunks the text, embeds the chunks in
// parallel batches, persists them, and builds the search index. Ingestion
// is synchronous; when IngestText returns without error the document is
// searchable.
type Pipeline struct {
	chunks         storage.ChunkRepository
	indexes        *index.Manager
	chunker        *chunker.Chunker
	embedder       ai.Embedder
	pool           *ants.Pool
	batchSize      int
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per model call.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		p.batchSize = size
		return nil
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *chunker.Chunker) Option {
	return func(p *Pipeline) error {
		if c != nil {
			p.chunker = c
		}
		return nil
	}
}

// WithRetry tunes the embedding retry policy.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxRetries = maxAttempts
		p.retryBaseDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	chunks storage.ChunkRepository,
	indexes *index.Manager,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if indexes == nil {
		return nil, ErrIndexManagerRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chunks:         chunks,
		indexes:        indexes,
		chunker:        chunker.New(),
		embedder:       provider.Embedder(),
		pool:           pool,
		batchSize:      defaultBatchSize,
		maxRetries:     defaultMaxRetries,
		retryBaseDelay: defaultRetryBaseDelay,
		logger:         slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Result summarizes one completed ingestion.
type Result struct {
	DocumentID string
	ChunkCount int
	PageCount  int
	Elapsed    time.Duration
}

// IngestText chunks, embeds, stores, and indexes a single-page document.
func (p *Pipeline) IngestText(ctx context.Context, documentID, text string) (*Result, error) {
	return p.ingest(ctx, documentID, p.chunker.ChunkText(documentID, text), 1)
}

// IngestPages ingests a document split into pages, preserving page numbers
// for citations.
func (p *Pipeline) IngestPages(ctx context.Context, documentID string, pages []string) (*Result, error) {
	return p.ingest(ctx, documentID, p.chunker.ChunkPages(documentID, pages), len(pages))
}

func (p *Pipeline) ingest(ctx context.Context, documentID string, chunks []*core.Chunk, pageCount int) (*Result, error) {
	start := time.Now()
	if len(chunks) == 0 {
		return nil, core.ErrEmptyDocument
	}

	p.logger.Info("ingesting document", "document_id", documentID, "chunks", len(chunks))

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	if err := p.chunks.ReplaceDocument(ctx, documentID, chunks, embeddings); err != nil {
		return nil, err
	}

	if _, err := p.indexes.Build(ctx, documentID, chunks, embeddings); err != nil {
		return nil, err
	}

	result := &Result{
		DocumentID: documentID,
		ChunkCount: len(chunks),
		PageCount:  pageCount,
		Elapsed:    time.Since(start),
	}
	p.logger.Info("document ingested",
		"document_id", documentID,
		"chunks", result.ChunkCount,
		"elapsed", result.Elapsed)
	return result, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
