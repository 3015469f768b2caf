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
	"sort"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/index"
	"github.com/poiesic/docquery/search"
)

const (
	representativeCount      = 3
	representativeExcerptLen = 200
)

// Summary describes an ingested document.
type Summary struct {
	DocumentID           string   `json:"document_id"`
	ChunkCount           int      `json:"chunk_count"`
	PageCount            int      `json:"page_count"`
	WordCount            int      `json:"word_count"`
	RepresentativeChunks []string `json:"representative_chunks"`
}

// Summarize describes a stored document by its size and the chunks closest
// to the embedding centroid, which read as the document's central topics.
func (p *Pipeline) Summarize(ctx context.Context, documentID string) (*Summary, error) {
	chunks, embeddings, err := p.chunks.GetByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, core.ErrDocumentNotIndexed
	}

	summary := &Summary{
		DocumentID: documentID,
		ChunkCount: len(chunks),
	}

	pages := make(map[int]struct{})
	for _, chunk := range chunks {
		pages[chunk.PageNumber] = struct{}{}
		summary.WordCount += chunk.WordCount
	}
	summary.PageCount = len(pages)
	summary.RepresentativeChunks = representatives(chunks, embeddings)

	return summary, nil
}

// representatives returns excerpts of the chunks nearest the embedding
// centroid, in similarity order.
func representatives(chunks []*core.Chunk, embeddings [][]float32) []string {
	centroid := meanVector(embeddings)
	if centroid == nil {
		return nil
	}

	type scored struct {
		position int
		score    float64
	}
	ranked := make([]scored, len(chunks))
	for i := range chunks {
		score := 0.0
		if i < len(embeddings) && len(embeddings[i]) == len(centroid) {
			score = index.Dot(centroid, embeddings[i])
		}
		ranked[i] = scored{position: i, score: score}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	n := min(representativeCount, len(ranked))
	out := make([]string, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, search.Excerpt(chunks[r.position].Text, representativeExcerptLen))
	}
	return out
}

func meanVector(embeddings [][]float32) []float32 {
	var dim int
	for _, e := range embeddings {
		if len(e) > 0 {
			dim = len(e)
			break
		}
	}
	if dim == 0 {
		return nil
	}

	mean := make([]float32, dim)
	count := 0
	for _, e := range embeddings {
		if len(e) != dim {
			continue
		}
		for i, v := range e {
			mean[i] += v
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for i := range mean {
		mean[i] /= float32(count)
	}
	index.Normalize(mean)
	return mean
}
