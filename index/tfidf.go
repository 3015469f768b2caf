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
	"math"
	"sort"
	"strings"

	"github.com/poiesic/docquery/core"
)

// Stop words excluded from the TF-IDF vocabulary.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// Vectorizer maps text to sparse TF-IDF vectors over a vocabulary fitted on
// a single document. Vocabularies are never shared between documents; a
// query transformed against the wrong document's vocabulary is an error
// rather than a silently meaningless score.
type Vectorizer struct {
	documentID string
	terms      []string
	columns    map[string]int
	idf        []float64
}

// FitVectorizer builds a vocabulary and inverse document frequencies from
// the chunk texts of one document. Terms are lowercased unigrams and
// bigrams with stop words removed.
func FitVectorizer(documentID string, texts []string) *Vectorizer {
	df := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]bool)
		for _, term := range termsOf(text) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	columns := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(texts))
	for i, term := range terms {
		columns[term] = i
		// Smooth idf, always positive.
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return &Vectorizer{
		documentID: documentID,
		terms:      terms,
		columns:    columns,
		idf:        idf,
	}
}

// NewVectorizerFromCache restores a vectorizer from cached index metadata.
// Returns ErrVocabularyMismatch if the cached vocabulary is inconsistent.
func NewVectorizerFromCache(cache *core.IndexCache) (*Vectorizer, error) {
	if len(cache.Terms) != len(cache.Idf) {
		return nil, fmt.Errorf("%w: %d terms, %d idf entries", ErrVocabularyMismatch, len(cache.Terms), len(cache.Idf))
	}

	columns := make(map[string]int, len(cache.Terms))
	for i, term := range cache.Terms {
		columns[term] = i
	}

	return &Vectorizer{
		documentID: cache.DocumentID,
		terms:      cache.Terms,
		columns:    columns,
		idf:        cache.Idf,
	}, nil
}

// DocumentID returns the id of the document the vocabulary was fitted on.
func (v *Vectorizer) DocumentID() string {
	return v.documentID
}

// Terms returns the fitted vocabulary in column order.
func (v *Vectorizer) Terms() []string {
	return v.terms
}

// Idf returns the inverse document frequencies in column order.
func (v *Vectorizer) Idf() []float64 {
	return v.idf
}

// Transform converts text into a unit-length sparse TF-IDF vector.
// The documentID must match the document the vocabulary was fitted on;
// transforming against another document's vocabulary returns
// ErrVocabularyMismatch.
func (v *Vectorizer) Transform(documentID, text string) (core.SparseVector, error) {
	if documentID != v.documentID {
		return core.SparseVector{}, fmt.Errorf("%w: vocabulary fitted on %q, query for %q",
			ErrVocabularyMismatch, v.documentID, documentID)
	}
	return v.transform(text), nil
}

func (v *Vectorizer) transform(text string) core.SparseVector {
	counts := make(map[int]float64)
	for _, term := range termsOf(text) {
		if col, ok := v.columns[term]; ok {
			counts[col]++
		}
	}

	indices := make([]int, 0, len(counts))
	for col := range counts {
		indices = append(indices, col)
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	for i, col := range indices {
		values[i] = counts[col] * v.idf[col]
	}

	return normalizeSparse(core.SparseVector{Indices: indices, Values: values})
}

// transformAll vectorizes every chunk text of the fitted document.
func (v *Vectorizer) transformAll(texts []string) []core.SparseVector {
	vectors := make([]core.SparseVector, len(texts))
	for i, text := range texts {
		vectors[i] = v.transform(text)
	}
	return vectors
}

// termsOf tokenizes text into stop-word-filtered unigrams plus the bigrams
// of adjacent surviving tokens.
func termsOf(text string) []string {
	words := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		cleaned := strings.Trim(word, ".,!?;:'\"-()[]{}")
		if cleaned != "" && !stopWords[cleaned] {
			tokens = append(tokens, cleaned)
		}
	}

	terms := make([]string, 0, len(tokens)*2)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}
