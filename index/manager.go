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


package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// DefaultCacheTTL is how long cached index parts stay valid in storage.
const DefaultCacheTTL = time.Hour

// Manager owns one DocumentIndex per document. Indexes live in memory;
// the recomputable sparse side is additionally cached in storage so a
// restarted process can restore an index from the cache plus the stored
// embeddings instead of refitting TF-IDF.
type Manager struct {
	mu      sync.RWMutex
	indexes map[string]*DocumentIndex
	locks   map[string]*sync.Mutex

	chunks   storage.ChunkRepository
	cache    storage.CacheRepository
	cacheTTL time.Duration
	cacheKey func(documentID string) []byte
	logger   *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager) error

// WithCache enables persistent caching of index parts.
// keyFn maps a document id to its cache key.
func WithCache(cache storage.CacheRepository, keyFn func(documentID string) []byte, ttl time.Duration) ManagerOption {
	return func(m *Manager) error {
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		m.cache = cache
		m.cacheKey = keyFn
		m.cacheTTL = ttl
		return nil
	}
}

// WithManagerLogger sets a custom logger.
// Default is slog.Default().
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewManager creates an index manager backed by the given chunk repository.
func NewManager(chunks storage.ChunkRepository, opts ...ManagerOption) (*Manager, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}

	m := &Manager{
		indexes: make(map[string]*DocumentIndex),
		locks:   make(map[string]*sync.Mutex),
		chunks:  chunks,
		logger:  slog.Default().With("component", "index-manager"),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// docLock returns the per-document build lock, creating it on first use.
func (m *Manager) docLock(documentID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[documentID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[documentID] = lock
	}
	return lock
}

// Build constructs a fresh index for the document and registers it,
// replacing any previous one. The sparse parts are written to the cache.
func (m *Manager) Build(ctx context.Context, documentID string, chunks []*core.Chunk, embeddings [][]float32) (*DocumentIndex, error) {
	lock := m.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	idx, err := NewDocumentIndex(documentID, chunks, embeddings)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.indexes[documentID] = idx
	m.mu.Unlock()

	m.writeCache(ctx, idx)
	m.logger.Info("built index", "documentID", documentID, "chunks", idx.Len())
	return idx, nil
}

// Get returns the document's index, restoring or rebuilding it when the
// in-memory copy is gone. Returns core.ErrDocumentNotIndexed when neither
// memory, cache, nor stored chunks can produce an index.
func (m *Manager) Get(ctx context.Context, documentID string) (*DocumentIndex, error) {
	m.mu.RLock()
	idx, ok := m.indexes[documentID]
	m.mu.RUnlock()
	if ok {
		return idx, nil
	}

	lock := m.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have restored it while we waited.
	m.mu.RLock()
	idx, ok = m.indexes[documentID]
	m.mu.RUnlock()
	if ok {
		return idx, nil
	}

	chunks, embeddings, err := m.chunks.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %q", core.ErrDocumentNotIndexed, documentID)
	}

	if idx = m.restoreFromCache(ctx, documentID, embeddings); idx == nil {
		// Cache miss or stale cache: refit from the stored chunks.
		idx, err = NewDocumentIndex(documentID, chunks, embeddings)
		if err != nil {
			return nil, err
		}
		m.writeCache(ctx, idx)
		m.logger.Debug("rebuilt index from stored chunks", "documentID", documentID)
	}

	m.mu.Lock()
	m.indexes[documentID] = idx
	m.mu.Unlock()
	return idx, nil
}

// Optimize discards the document's in-memory index and cache entry, then
// rebuilds both from the stored chunks. A search arriving after Optimize
// returns can only see the fresh index.
func (m *Manager) Optimize(ctx context.Context, documentID string) error {
	lock := m.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	delete(m.indexes, documentID)
	m.mu.Unlock()
	m.dropCache(ctx, documentID)

	chunks, embeddings, err := m.chunks.GetByDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("%w: %q", core.ErrDocumentNotIndexed, documentID)
	}

	idx, err := NewDocumentIndex(documentID, chunks, embeddings)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.indexes[documentID] = idx
	m.mu.Unlock()

	m.writeCache(ctx, idx)
	m.logger.Info("optimized index", "documentID", documentID, "chunks", idx.Len())
	return nil
}

// Remove discards the document's in-memory index and cache entry.
// The stored chunks are untouched.
func (m *Manager) Remove(ctx context.Context, documentID string) {
	lock := m.docLock(documentID)
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	delete(m.indexes, documentID)
	m.mu.Unlock()
	m.dropCache(ctx, documentID)
}

// Stats reports the number of chunks indexed in memory per document.
func (m *Manager) Stats() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]int, len(m.indexes))
	for documentID, idx := range m.indexes {
		stats[documentID] = idx.Len()
	}
	return stats
}

// restoreFromCache attempts to rebuild an index from the cached sparse
// parts and the given embeddings. Returns nil on any miss or mismatch;
// cache failures degrade to a rebuild, never to an error.
func (m *Manager) restoreFromCache(ctx context.Context, documentID string, embeddings [][]float32) *DocumentIndex {
	if m.cache == nil {
		return nil
	}

	data, err := m.cache.Get(ctx, m.cacheKey(documentID))
	if err != nil {
		return nil
	}

	cached, err := storage.UnmarshalIndexCache(data)
	if err != nil {
		m.logger.Warn("discarding unreadable index cache", "documentID", documentID, "err", err)
		return nil
	}

	idx, err := RestoreDocumentIndex(cached, embeddings)
	if err != nil {
		m.logger.Warn("discarding stale index cache", "documentID", documentID, "err", err)
		return nil
	}

	m.logger.Debug("restored index from cache", "documentID", documentID)
	return idx
}

func (m *Manager) writeCache(ctx context.Context, idx *DocumentIndex) {
	if m.cache == nil {
		return
	}
	data := storage.MarshalIndexCache(idx.Cache())
	if err := m.cache.SetWithTTL(ctx, m.cacheKey(idx.DocumentID()), data, m.cacheTTL); err != nil {
		m.logger.Warn("failed to write index cache", "documentID", idx.DocumentID(), "err", err)
	}
}

func (m *Manager) dropCache(ctx context.Context, documentID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Delete(ctx, m.cacheKey(documentID)); err != nil {
		m.logger.Warn("failed to drop index cache", "documentID", documentID, "err", err)
	}
}
