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
	"fmt"
	"sort"
	"time"

	"github.com/poiesic/docquery/core"
)

// Hit is a single index match: the position of a chunk within its document
// and its similarity score.
type Hit struct {
	ChunkIndex int
	Score      float64
}

// DocumentIndex holds the dense and sparse representations of one document's
// chunks. Dense rows are unit-normalized so cosine similarity reduces to a
// dot product. The index is immutable after construction and safe for
// concurrent reads.
type DocumentIndex struct {
	documentID string
	dense      [][]float32
	sparse     []core.SparseVector
	meta       []core.ChunkMeta
	vectorizer *Vectorizer
	createdAt  time.Time
}

// NewDocumentIndex builds an index from a document's chunks and their
// embeddings. The TF-IDF vocabulary is fitted on the chunk texts.
// Returns core.ErrEmptyDocument for zero chunks and
// ErrEmbeddingCountMismatch when the two slices disagree.
func NewDocumentIndex(documentID string, chunks []*core.Chunk, embeddings [][]float32) (*DocumentIndex, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %q has no chunks", core.ErrEmptyDocument, documentID)
	}
	if len(chunks) != len(embeddings) {
		return nil, fmt.Errorf("%w: %d chunks, %d embeddings", ErrEmbeddingCountMismatch, len(chunks), len(embeddings))
	}

	texts := make([]string, len(chunks))
	meta := make([]core.ChunkMeta, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
		meta[i] = chunk.Meta()
	}

	dense := make([][]float32, len(embeddings))
	for i, emb := range embeddings {
		row := make([]float32, len(emb))
		copy(row, emb)
		dense[i] = Normalize(row)
	}

	vectorizer := FitVectorizer(documentID, texts)

	return &DocumentIndex{
		documentID: documentID,
		dense:      dense,
		sparse:     vectorizer.transformAll(texts),
		meta:       meta,
		vectorizer: vectorizer,
		createdAt:  time.Now(),
	}, nil
}

// RestoreDocumentIndex rebuilds an index from cached vocabulary and sparse
// vectors plus the stored embeddings, skipping the TF-IDF refit.
func RestoreDocumentIndex(cache *core.IndexCache, embeddings [][]float32) (*DocumentIndex, error) {
	vectorizer, err := NewVectorizerFromCache(cache)
	if err != nil {
		return nil, err
	}
	if len(cache.Sparse) != len(cache.Metadata) {
		return nil, fmt.Errorf("%w: %d sparse rows, %d metadata rows", ErrVocabularyMismatch, len(cache.Sparse), len(cache.Metadata))
	}
	if len(cache.Sparse) != len(embeddings) {
		return nil, fmt.Errorf("%w: %d cached rows, %d embeddings", ErrEmbeddingCountMismatch, len(cache.Sparse), len(embeddings))
	}

	dense := make([][]float32, len(embeddings))
	for i, emb := range embeddings {
		row := make([]float32, len(emb))
		copy(row, emb)
		dense[i] = Normalize(row)
	}

	return &DocumentIndex{
		documentID: cache.DocumentID,
		dense:      dense,
		sparse:     cache.Sparse,
		meta:       cache.Metadata,
		vectorizer: vectorizer,
		createdAt:  cache.CreatedAt,
	}, nil
}

// DocumentID returns the indexed document's id.
func (idx *DocumentIndex) DocumentID() string {
	return idx.documentID
}

// Len returns the number of indexed chunks.
func (idx *DocumentIndex) Len() int {
	return len(idx.meta)
}

// Meta returns the metadata of the chunk at position i.
func (idx *DocumentIndex) Meta(i int) core.ChunkMeta {
	return idx.meta[i]
}

// CreatedAt returns when the index was built.
func (idx *DocumentIndex) CreatedAt() time.Time {
	return idx.createdAt
}

// Cache packages the recomputable part of the index for persistence.
// Dense embeddings are deliberately excluded; they are stored with the
// chunks themselves.
func (idx *DocumentIndex) Cache() *core.IndexCache {
	return &core.IndexCache{
		DocumentID: idx.documentID,
		Terms:      idx.vectorizer.Terms(),
		Idf:        idx.vectorizer.Idf(),
		Sparse:     idx.sparse,
		Metadata:   idx.meta,
		CreatedAt:  idx.createdAt,
	}
}

// DenseScores returns the cosine similarity of the query embedding against
// every chunk, in chunk order. Returns ErrDimensionMismatch when the query
// dimension differs from the indexed embeddings.
func (idx *DocumentIndex) DenseScores(query []float32) ([]float64, error) {
	if len(idx.dense) > 0 && len(query) != len(idx.dense[0]) {
		return nil, fmt.Errorf("%w: query dim %d, index dim %d", ErrDimensionMismatch, len(query), len(idx.dense[0]))
	}

	q := make([]float32, len(query))
	copy(q, query)
	Normalize(q)

	scores := make([]float64, len(idx.dense))
	for i, row := range idx.dense {
		scores[i] = Dot(q, row)
	}
	return scores, nil
}

// SparseScores returns the TF-IDF cosine similarity of the query text
// against every chunk, in chunk order. The query is transformed with the
// document's own vocabulary.
func (idx *DocumentIndex) SparseScores(documentID, query string) ([]float64, error) {
	qv, err := idx.vectorizer.Transform(documentID, query)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(idx.sparse))
	for i, row := range idx.sparse {
		scores[i] = sparseDot(qv, row)
	}
	return scores, nil
}

// SearchDense returns the top k chunks by dense similarity.
func (idx *DocumentIndex) SearchDense(query []float32, k int) ([]Hit, error) {
	scores, err := idx.DenseScores(query)
	if err != nil {
		return nil, err
	}
	return TopK(scores, k), nil
}

// TopK selects the k highest scores as hits, ordered by descending score
// with ties broken by ascending chunk index. k is clamped to the number of
// scores; k <= 0 yields no hits.
func TopK(scores []float64, k int) []Hit {
	if k <= 0 {
		return []Hit{}
	}
	if k > len(scores) {
		k = len(scores)
	}

	hits := make([]Hit, len(scores))
	for i, s := range scores {
		hits[i] = Hit{ChunkIndex: i, Score: s}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})

	return hits[:k]
}
