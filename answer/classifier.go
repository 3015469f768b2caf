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
	"regexp"
	"strings"

	"github.com/poiesic/docquery/core"
)

// Classification patterns, checked in order. The first match wins, so the
// more specific shapes are tested before the catch-all.
var (
	yesNoPattern          = regexp.MustCompile(`(?i)^\s*(is|are|was|were|can|could|does|do|did|will|would|shall|should|must|may|has|have|had)\b`)
	comparisonPattern     = regexp.MustCompile(`(?i)\b(difference|differences|compare|compared|comparison|versus|vs\.?|better|worse|distinguish)\b|\bbetween\b.+\band\b`)
	proceduralPattern     = regexp.MustCompile(`(?i)^\s*how\s+(do|does|can|should|to)\b|\b(steps?|procedure|process)\s+(to|for|of)\b`)
	interpretationPattern = regexp.MustCompile(`(?i)^\s*why\b|\bwhat\s+does\b.+\bmean\b|\b(meaning|interpret|interpretation|implication|implications|explain)\b`)
)

// Classify assigns a question type. Questions that match no pattern are
// treated as factual lookups.
func Classify(question string) core.QuestionType {
	switch {
	case yesNoPattern.MatchString(question):
		return core.QuestionYesNo
	case comparisonPattern.MatchString(question):
		return core.QuestionComparison
	case proceduralPattern.MatchString(question):
		return core.QuestionProcedural
	case interpretationPattern.MatchString(question):
		return core.QuestionInterpretation
	default:
		return core.QuestionFactual
	}
}

// ComplexityOf grades a question by length. Longer questions carry more
// clauses and more interpretation risk.
func ComplexityOf(question string) core.Complexity {
	words := len(strings.Fields(question))
	switch {
	case words <= 5:
		return core.ComplexitySimple
	case words <= 15:
		return core.ComplexityMedium
	default:
		return core.ComplexityComplex
	}
}

var questionStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "can": {}, "do": {}, "does": {}, "for": {}, "from": {},
	"has": {}, "have": {}, "how": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "may": {}, "must": {}, "of": {}, "on": {}, "or": {},
	"shall": {}, "that": {}, "the": {}, "this": {}, "to": {}, "under": {},
	"was": {}, "what": {}, "when": {}, "where": {}, "which": {}, "who": {},
	"why": {}, "will": {}, "with": {},
}

const maxKeyTerms = 10

// KeyTerms extracts up to ten content-bearing terms from a question,
// lowercased, in order of first appearance.
func KeyTerms(question string) []string {
	var terms []string
	seen := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(question)) {
		term := strings.Trim(field, ".,;:!?\"'()[]")
		if len(term) < 2 {
			continue
		}
		if _, stop := questionStopWords[term]; stop {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
		if len(terms) == maxKeyTerms {
			break
		}
	}
	return terms
}

// legalTerms flag questions that use contract vocabulary. Matching is by
// lowercase substring so inflected forms count.
var legalTerms = []string{
	"indemnif", "liabilit", "liable", "warrant", "terminat", "breach",
	"arbitrat", "jurisdiction", "confidential", "negligence", "damages",
	"covenant", "waiver", "severab", "force majeure", "governing law",
	"intellectual property", "assignment", "remedies", "injunct",
}

// HasLegalTerms reports whether the question uses legal terminology.
func HasLegalTerms(question string) bool {
	lower := strings.ToLower(question)
	for _, term := range legalTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
