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


package confidence

import "github.com/poiesic/docquery/core"

// Weights of the linear model. They sum to 1 so the blended score stays in
// the 0-100 range of its sub-scores.
const (
	weightSimilarity = 0.35
	weightResults    = 0.15
	weightComplexity = 0.10
	weightLegal      = 0.05
	weightLength     = 0.10
	weightCitations  = 0.15
	weightDiversity  = 0.05
	weightCoherence  = 0.05
)

// weightedScore blends eight factor sub-scores linearly. Each sub-score is
// on a 0-100 scale. Returns the blend and the per-factor contributions.
func weightedScore(f core.ConfidenceFactors) (float64, map[string]float64) {
	contributions := map[string]float64{
		"similarity_score":    weightSimilarity * similaritySubScore(f.SimilarityScore),
		"result_count":        weightResults * resultCountSubScore(f.ResultCount),
		"question_complexity": weightComplexity * complexitySubScore(f.QuestionComplexity),
		"legal_terms":         weightLegal * legalSubScore(f.HasLegalTerms),
		"answer_length":       weightLength * answerLengthSubScore(f.AnswerLength),
		"citation_quality":    weightCitations * clampUnit(f.CitationQuality) * 100,
		"source_diversity":    weightDiversity * clampUnit(f.SourceDiversity) * 100,
		"semantic_coherence":  weightCoherence * clampUnit(f.SemanticCoherence) * 100,
	}

	var total float64
	for _, c := range contributions {
		total += c
	}
	return clampScore(total), contributions
}

func similaritySubScore(similarity float64) float64 {
	return clampUnit(similarity) * 100
}

// resultCountSubScore rewards supporting evidence: four or more passages
// scores full marks.
func resultCountSubScore(count int) float64 {
	if count <= 0 {
		return 0
	}
	score := float64(count) * 25
	if score > 100 {
		score = 100
	}
	return score
}

// complexitySubScore reflects that simple questions are answered more
// reliably than complex ones.
func complexitySubScore(complexity core.Complexity) float64 {
	switch complexity {
	case core.ComplexitySimple:
		return 100
	case core.ComplexityMedium:
		return 85
	case core.ComplexityComplex:
		return 70
	default:
		return 70
	}
}

// legalSubScore treats domain terminology as a weak positive signal:
// questions using the document's own vocabulary tend to hit better chunks.
func legalSubScore(hasLegalTerms bool) float64 {
	if hasLegalTerms {
		return 100
	}
	return 50
}

// answerLengthSubScore is deliberately non-monotonic: very short answers are
// usually incomplete, very long ones usually unfocused. The sweet spot is a
// solid paragraph.
func answerLengthSubScore(words int) float64 {
	switch {
	case words < 50:
		return 60
	case words < 100:
		return 80
	case words < 300:
		return 100
	case words < 500:
		return 90
	default:
		return 70
	}
}
