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


package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the types that reach BadgerDB: chunks, the cacheable
// index parts, and answers. Hand-written rather than generated because the
// sparse vectors and nested index payload need custom encodings.

// SparseVector is a compact TF-IDF row: non-zero positions and their values,
// comparable only against vectors produced by the same fitted vocabulary.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// IndexCache is the serializable portion of a document index: the fitted
// vocabulary, the sparse matrix, and the chunk metadata. The dense
// nearest-neighbor structure is deliberately excluded; it is rebuilt from
// chunk embeddings on demand.
type IndexCache struct {
	DocumentID string
	Terms      []string
	Idf        []float64
	Sparse     []SparseVector
	Metadata   []ChunkMeta
	CreatedAt  time.Time
}

type idMUS struct{}

// IDMUS serializes IDs.
var IDMUS = idMUS{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type chunkMUS struct{}

// ChunkMUS serializes Chunks.
var ChunkMUS = chunkMUS{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(c.Id), bs)
	n += ord.String.Marshal(c.DocumentID, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += varint.Int.Marshal(c.Index, bs[n:])
	n += varint.Int.Marshal(c.PageNumber, bs[n:])
	n += varint.Int.Marshal(c.WordCount, bs[n:])
	n += varint.Uint64.Marshal(uint64(c.CreatedAt.UnixMicro()), bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var (
		id ID
		n1 int
		ts uint64
	)
	id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	c.Id = id
	c.DocumentID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Index, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.PageNumber, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.WordCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	ts, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.CreatedAt = time.UnixMicro(int64(ts)).UTC()
	return
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = varint.Uint64.Size(uint64(c.Id))
	size += ord.String.Size(c.DocumentID)
	size += ord.String.Size(c.Text)
	size += varint.Int.Size(c.Index)
	size += varint.Int.Size(c.PageNumber)
	size += varint.Int.Size(c.WordCount)
	size += varint.Uint64.Size(uint64(c.CreatedAt.UnixMicro()))
	return size
}

type vectorMUS struct{}

// VectorMUS serializes embedding vectors.
var VectorMUS = vectorMUS{}

func (vectorMUS) Marshal(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, x := range v {
		n += varint.Float32.Marshal(x, bs[n:])
	}
	return n
}

func (vectorMUS) Unmarshal(bs []byte) (v []float32, n int, err error) {
	var (
		count int
		n1    int
	)
	count, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrInvalidChunk
		return
	}
	v = make([]float32, count)
	for i := 0; i < count; i++ {
		v[i], n1, err = varint.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (vectorMUS) Size(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, x := range v {
		size += varint.Float32.Size(x)
	}
	return size
}

type chunkMetaMUS struct{}

// ChunkMetaMUS serializes ChunkMeta entries.
var ChunkMetaMUS = chunkMetaMUS{}

func (chunkMetaMUS) Marshal(m ChunkMeta, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(m.Id), bs)
	n += varint.Int.Marshal(m.Index, bs[n:])
	n += varint.Int.Marshal(m.PageNumber, bs[n:])
	n += varint.Int.Marshal(m.WordCount, bs[n:])
	return n
}

func (chunkMetaMUS) Unmarshal(bs []byte) (m ChunkMeta, n int, err error) {
	var (
		id ID
		n1 int
	)
	id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	m.Id = id
	m.Index, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.PageNumber, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.WordCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkMetaMUS) Size(m ChunkMeta) (size int) {
	size = varint.Uint64.Size(uint64(m.Id))
	size += varint.Int.Size(m.Index)
	size += varint.Int.Size(m.PageNumber)
	size += varint.Int.Size(m.WordCount)
	return size
}

type sparseVectorMUS struct{}

// SparseVectorMUS serializes SparseVectors.
var SparseVectorMUS = sparseVectorMUS{}

func (sparseVectorMUS) Marshal(v SparseVector, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v.Indices), bs)
	for _, idx := range v.Indices {
		n += varint.Int.Marshal(idx, bs[n:])
	}
	for _, val := range v.Values {
		n += varint.Float64.Marshal(val, bs[n:])
	}
	return n
}

func (sparseVectorMUS) Unmarshal(bs []byte) (v SparseVector, n int, err error) {
	var (
		count int
		n1    int
	)
	count, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrInvalidChunk
		return
	}
	v.Indices = make([]int, count)
	v.Values = make([]float64, count)
	for i := 0; i < count; i++ {
		v.Indices[i], n1, err = varint.Int.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < count; i++ {
		v.Values[i], n1, err = varint.Float64.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (sparseVectorMUS) Size(v SparseVector) (size int) {
	size = varint.Int.Size(len(v.Indices))
	for _, idx := range v.Indices {
		size += varint.Int.Size(idx)
	}
	for _, val := range v.Values {
		size += varint.Float64.Size(val)
	}
	return size
}

type indexCacheMUS struct{}

// IndexCacheMUS serializes IndexCache payloads.
var IndexCacheMUS = indexCacheMUS{}

func (indexCacheMUS) Marshal(ic IndexCache, bs []byte) (n int) {
	n = ord.String.Marshal(ic.DocumentID, bs)
	n += varint.Int.Marshal(len(ic.Terms), bs[n:])
	for _, term := range ic.Terms {
		n += ord.String.Marshal(term, bs[n:])
	}
	for _, idf := range ic.Idf {
		n += varint.Float64.Marshal(idf, bs[n:])
	}
	n += varint.Int.Marshal(len(ic.Sparse), bs[n:])
	for _, sv := range ic.Sparse {
		n += SparseVectorMUS.Marshal(sv, bs[n:])
	}
	for _, m := range ic.Metadata {
		n += ChunkMetaMUS.Marshal(m, bs[n:])
	}
	n += varint.Uint64.Marshal(uint64(ic.CreatedAt.UnixMicro()), bs[n:])
	return n
}

func (indexCacheMUS) Unmarshal(bs []byte) (ic IndexCache, n int, err error) {
	var (
		count int
		n1    int
		ts    uint64
	)
	ic.DocumentID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrInvalidChunk
		return
	}
	ic.Terms = make([]string, count)
	ic.Idf = make([]float64, count)
	for i := 0; i < count; i++ {
		ic.Terms[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < count; i++ {
		ic.Idf[i], n1, err = varint.Float64.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrInvalidChunk
		return
	}
	ic.Sparse = make([]SparseVector, count)
	ic.Metadata = make([]ChunkMeta, count)
	for i := 0; i < count; i++ {
		ic.Sparse[i], n1, err = SparseVectorMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < count; i++ {
		ic.Metadata[i], n1, err = ChunkMetaMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	ts, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	ic.CreatedAt = time.UnixMicro(int64(ts)).UTC()
	return
}

func (indexCacheMUS) Size(ic IndexCache) (size int) {
	size = ord.String.Size(ic.DocumentID)
	size += varint.Int.Size(len(ic.Terms))
	for _, term := range ic.Terms {
		size += ord.String.Size(term)
	}
	for _, idf := range ic.Idf {
		size += varint.Float64.Size(idf)
	}
	size += varint.Int.Size(len(ic.Sparse))
	for _, sv := range ic.Sparse {
		size += SparseVectorMUS.Size(sv)
	}
	for _, m := range ic.Metadata {
		size += ChunkMetaMUS.Size(m)
	}
	size += varint.Uint64.Size(uint64(ic.CreatedAt.UnixMicro()))
	return size
}

type citationMUS struct{}

// CitationMUS serializes Citations.
var CitationMUS = citationMUS{}

func (citationMUS) Marshal(c Citation, bs []byte) (n int) {
	n = ord.String.Marshal(c.Text, bs)
	n += varint.Int.Marshal(c.PageNumber, bs[n:])
	n += varint.Float64.Marshal(c.RelevanceScore, bs[n:])
	n += varint.Float64.Marshal(c.Confidence, bs[n:])
	return n
}

func (citationMUS) Unmarshal(bs []byte) (c Citation, n int, err error) {
	var n1 int
	c.Text, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	c.PageNumber, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.RelevanceScore, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Confidence, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	return
}

func (citationMUS) Size(c Citation) (size int) {
	size = ord.String.Size(c.Text)
	size += varint.Int.Size(c.PageNumber)
	size += varint.Float64.Size(c.RelevanceScore)
	size += varint.Float64.Size(c.Confidence)
	return size
}

type answerMUS struct{}

// AnswerMUS serializes Answers for the query result cache.
var AnswerMUS = answerMUS{}

func (answerMUS) Marshal(a Answer, bs []byte) (n int) {
	n = ord.String.Marshal(a.ID, bs)
	n += ord.String.Marshal(a.DocumentID, bs[n:])
	n += ord.String.Marshal(a.Question, bs[n:])
	n += ord.String.Marshal(a.Text, bs[n:])
	n += ord.String.Marshal(string(a.Type), bs[n:])
	n += varint.Float64.Marshal(a.ConfidenceScore, bs[n:])
	n += ord.String.Marshal(string(a.ConfidenceLevel), bs[n:])
	n += ord.String.Marshal(a.Recommendation, bs[n:])
	n += ord.Bool.Marshal(a.ShouldShow, bs[n:])
	n += ord.Bool.Marshal(a.Grounded, bs[n:])
	n += varint.Int.Marshal(len(a.Citations), bs[n:])
	for _, c := range a.Citations {
		n += CitationMUS.Marshal(c, bs[n:])
	}
	n += varint.Int.Marshal(len(a.SourcePages), bs[n:])
	for _, p := range a.SourcePages {
		n += varint.Int.Marshal(p, bs[n:])
	}
	n += varint.Uint64.Marshal(uint64(a.ProcessingTime), bs[n:])
	return n
}

func (answerMUS) Unmarshal(bs []byte) (a Answer, n int, err error) {
	var (
		s     string
		count int
		n1    int
		d     uint64
	)
	a.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	a.DocumentID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	a.Question, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	a.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	a.Type = AnswerType(s)
	a.ConfidenceScore, n1, err = varint.Float64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	a.ConfidenceLevel = ConfidenceLevel(s)
	a.Recommendation, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	a.ShouldShow, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	a.Grounded, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrInvalidChunk
		return
	}
	a.Citations = make([]Citation, count)
	for i := 0; i < count; i++ {
		a.Citations[i], n1, err = CitationMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	count, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if count < 0 {
		err = ErrInvalidChunk
		return
	}
	a.SourcePages = make([]int, count)
	for i := 0; i < count; i++ {
		a.SourcePages[i], n1, err = varint.Int.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	d, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	a.ProcessingTime = time.Duration(d)
	return
}

func (answerMUS) Size(a Answer) (size int) {
	size = ord.String.Size(a.ID)
	size += ord.String.Size(a.DocumentID)
	size += ord.String.Size(a.Question)
	size += ord.String.Size(a.Text)
	size += ord.String.Size(string(a.Type))
	size += varint.Float64.Size(a.ConfidenceScore)
	size += ord.String.Size(string(a.ConfidenceLevel))
	size += ord.String.Size(a.Recommendation)
	size += ord.Bool.Size(a.ShouldShow)
	size += ord.Bool.Size(a.Grounded)
	size += varint.Int.Size(len(a.Citations))
	for _, c := range a.Citations {
		size += CitationMUS.Size(c)
	}
	size += varint.Int.Size(len(a.SourcePages))
	for _, p := range a.SourcePages {
		size += varint.Int.Size(p)
	}
	size += varint.Uint64.Size(uint64(a.ProcessingTime))
	return size
}
