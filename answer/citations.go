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


package answer

import (
	"sort"

	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/search"
)

const citationExcerptLen = 200

// buildCitations converts results into display citations ordered by
// relevance.
func buildCitations(results []*core.SearchResult) []core.Citation {
	citations := make([]core.Citation, 0, len(results))
	for _, result := range results {
		citations = append(citations, core.Citation{
			Text:           search.Excerpt(result.Chunk.Text, citationExcerptLen),
			PageNumber:     result.Chunk.PageNumber,
			RelevanceScore: clampUnit(result.Score),
			Confidence:     clampUnit(result.Quality),
		})
	}
	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].RelevanceScore > citations[j].RelevanceScore
	})
	return citations
}

// sourcePages returns the distinct pages cited, in ascending order.
func sourcePages(results []*core.SearchResult) []int {
	seen := make(map[int]struct{})
	var pages []int
	for _, result := range results {
		page := result.Chunk.PageNumber
		if _, ok := seen[page]; ok {
			continue
		}
		seen[page] = struct{}{}
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
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
