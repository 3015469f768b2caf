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
	"fmt"
	"strings"

	"github.com/poiesic/docquery/chunker"
	"github.com/poiesic/docquery/core"
)

const (
	// Chunks longer than this are reduced to their most relevant sentences
	// before being used as answer text.
	sentenceExtractionThreshold = 300
	maxExtractLen               = 400
	maxProceduralSteps          = 6
)

// extract builds an answer string from the ranked results without a
// generation model, using the strategy suited to the question type.
func extract(qtype core.QuestionType, question string, results []*core.SearchResult) (string, core.AnswerType) {
	terms := KeyTerms(question)
	switch qtype {
	case core.QuestionYesNo:
		return extractYesNo(terms, results), core.AnswerYesNo
	case core.QuestionComparison:
		return extractComparison(terms, results), core.AnswerComparison
	case core.QuestionProcedural:
		return extractProcedural(results), core.AnswerProcedural
	case core.QuestionInterpretation:
		return extractInterpretation(terms, results), core.AnswerInterpretation
	default:
		return extractFactual(terms, results), core.AnswerFactual
	}
}

var negationMarkers = []string{
	"not ", "no ", "shall not", "must not", "may not", "cannot",
	"prohibited", "excluded", "except", "unless", "without prior",
}

// extractYesNo reads the verdict off the best passage: a key-term sentence
// containing a negation marker answers no, otherwise yes. With no key-term
// sentence at all the verdict is left open.
func extractYesNo(terms []string, results []*core.SearchResult) string {
	sentence := bestSentence(terms, results[0].Chunk.Text)
	if sentence == "" {
		return "The document does not state this directly. Most relevant section: " +
			trimToLength(results[0].Chunk.Text, maxExtractLen)
	}

	lower := strings.ToLower(sentence)
	for _, marker := range negationMarkers {
		if strings.Contains(lower, marker) {
			return "No. " + sentence
		}
	}
	return "Yes. " + sentence
}

var contrastMarkers = []string{
	"whereas", "while", "however", "but ", "compared", "than", "unlike",
	"on the other hand", "in contrast",
}

func extractComparison(terms []string, results []*core.SearchResult) string {
	var picked []string
	for _, result := range results {
		for _, sentence := range chunker.Sentences(result.Chunk.Text) {
			lower := strings.ToLower(sentence)
			for _, marker := range contrastMarkers {
				if strings.Contains(lower, marker) {
					picked = append(picked, sentence)
					break
				}
			}
			if len(picked) == 3 {
				break
			}
		}
		if len(picked) == 3 {
			break
		}
	}
	if len(picked) == 0 {
		return extractFactual(terms, results)
	}
	return strings.Join(picked, " ")
}

var stepMarkers = []string{
	"first", "then", "next", "finally", "must", "shall", "upon",
	"within", "prior to", "following", "submit", "provide", "notify",
}

// extractProcedural collects the sentences that read like steps and
// numbers them in document order.
func extractProcedural(results []*core.SearchResult) string {
	var steps []string
	for _, result := range results {
		for _, sentence := range chunker.Sentences(result.Chunk.Text) {
			lower := strings.ToLower(sentence)
			for _, marker := range stepMarkers {
				if strings.Contains(lower, marker) {
					steps = append(steps, sentence)
					break
				}
			}
			if len(steps) == maxProceduralSteps {
				break
			}
		}
		if len(steps) == maxProceduralSteps {
			break
		}
	}
	if len(steps) == 0 {
		return trimToLength(results[0].Chunk.Text, maxExtractLen)
	}
	if len(steps) == 1 {
		return steps[0]
	}

	var b strings.Builder
	for i, step := range steps {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, step)
	}
	return b.String()
}

var explanatoryMarkers = []string{
	"means", "refers to", "defined as", "constitutes", "is considered",
	"interpreted", "for the purposes of", "includes",
}

func extractInterpretation(terms []string, results []*core.SearchResult) string {
	for _, result := range results {
		for _, sentence := range chunker.Sentences(result.Chunk.Text) {
			lower := strings.ToLower(sentence)
			for _, marker := range explanatoryMarkers {
				if strings.Contains(lower, marker) {
					return "According to the document, " + lowerFirst(sentence)
				}
			}
		}
	}
	return extractFactual(terms, results)
}

// extractFactual returns the best passage, reduced to its most relevant
// sentences when the chunk is long, with a pointer to further sections when
// more than one passage supports the answer.
func extractFactual(terms []string, results []*core.SearchResult) string {
	best := results[0].Chunk.Text
	if len(best) > sentenceExtractionThreshold {
		best = relevantSentences(terms, best, sentenceExtractionThreshold)
	}

	if len(results) > 1 {
		pages := supportingPages(results[1:])
		if len(pages) > 0 {
			best += "\n\nRelated provisions appear on page " + joinInts(pages) + "."
		}
	}
	return best
}

// bestSentence picks the sentence with the highest key-term overlap, ties
// going to the earlier sentence.
func bestSentence(terms []string, text string) string {
	var best string
	bestScore := 0
	for _, sentence := range chunker.Sentences(text) {
		lower := strings.ToLower(sentence)
		score := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > bestScore {
			best = sentence
			bestScore = score
		}
	}
	return best
}

// relevantSentences keeps the highest-overlap sentences in document order
// until the budget is spent.
func relevantSentences(terms []string, text string, budget int) string {
	sentences := chunker.Sentences(text)
	type scored struct {
		index int
		score int
	}
	ranked := make([]scored, 0, len(sentences))
	for i, sentence := range sentences {
		lower := strings.ToLower(sentence)
		score := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		ranked = append(ranked, scored{index: i, score: score})
	}

	keep := make(map[int]struct{})
	used := 0
	for used < budget {
		bestIdx, bestScore := -1, -1
		for _, r := range ranked {
			if _, taken := keep[r.index]; taken {
				continue
			}
			if r.score > bestScore {
				bestIdx, bestScore = r.index, r.score
			}
		}
		if bestIdx < 0 {
			break
		}
		keep[bestIdx] = struct{}{}
		used += len(sentences[bestIdx])
	}

	var out []string
	for i, sentence := range sentences {
		if _, ok := keep[i]; ok {
			out = append(out, sentence)
		}
	}
	if len(out) == 0 {
		return trimToLength(text, budget)
	}
	return strings.Join(out, " ")
}

func supportingPages(results []*core.SearchResult) []int {
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
	return pages
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ", ")
}

func trimToLength(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
