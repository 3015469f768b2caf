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

import (
	"log/slog"
	"math"

	"github.com/poiesic/docquery/core"
)

// Ensemble mix between the two models. The weighted model carries more
// signal because its sub-scores are individually calibrated.
const (
	ensembleWeighted = 0.6
	ensembleBayesian = 0.4
)

// Analysis is the full confidence assessment for one answer.
type Analysis struct {
	Score          float64              `json:"score"`
	Level          core.ConfidenceLevel `json:"level"`
	Recommendation string               `json:"recommendation"`
	ShouldShow     bool                 `json:"should_show"`
	WeightedScore  float64              `json:"weighted_score"`
	BayesianScore  float64              `json:"bayesian_score"`
	Contributions  map[string]float64   `json:"contributions"`
	Strengths      []string             `json:"strengths,omitempty"`
	Weaknesses     []string             `json:"weaknesses,omitempty"`
	Note           string               `json:"note,omitempty"`
}

// Analyzer scores answers with an ensemble of a weighted linear model and
// a Bayesian evidence model.
type Analyzer struct {
	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// NewAnalyzer builds a confidence analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		logger: slog.Default().With("component", "confidence"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores the factors and never returns an error. Degenerate input
// (NaN, infinite, or negative continuous factors) fails closed to a zero
// score that suppresses the answer.
func (a *Analyzer) Analyze(factors core.ConfidenceFactors) *Analysis {
	if note, ok := validateFactors(factors); !ok {
		a.logger.Warn("degenerate confidence factors", "note", note)
		return &Analysis{
			Score:          0,
			Level:          core.LevelVeryLow,
			Recommendation: recommendationFor(0),
			ShouldShow:     false,
			Contributions:  map[string]float64{},
			Note:           note,
		}
	}

	weighted, contributions := weightedScore(factors)
	bayesian := bayesianScore(factors)

	score := ensembleWeighted*weighted + ensembleBayesian*bayesian
	score = clampScore(round2(score))

	analysis := &Analysis{
		Score:          score,
		Level:          LevelFor(score),
		Recommendation: recommendationFor(score),
		ShouldShow:     ShouldShow(score),
		WeightedScore:  round2(weighted),
		BayesianScore:  round2(bayesian),
		Contributions:  contributions,
	}
	analysis.Strengths, analysis.Weaknesses = assessFactors(factors)

	a.logger.Debug("confidence analysis",
		"score", analysis.Score,
		"level", analysis.Level,
		"weighted", analysis.WeightedScore,
		"bayesian", analysis.BayesianScore)

	return analysis
}

// validateFactors rejects input that would poison the models.
func validateFactors(f core.ConfidenceFactors) (string, bool) {
	checks := []struct {
		name  string
		value float64
	}{
		{"similarity_score", f.SimilarityScore},
		{"citation_quality", f.CitationQuality},
		{"source_diversity", f.SourceDiversity},
		{"semantic_coherence", f.SemanticCoherence},
		{"keyword_overlap", f.KeywordOverlap},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return "non-finite factor: " + c.name, false
		}
		if c.value < 0 {
			return "negative factor: " + c.name, false
		}
	}
	if f.ResultCount < 0 {
		return "negative factor: result_count", false
	}
	if f.AnswerLength < 0 {
		return "negative factor: answer_length", false
	}
	return "", true
}

// assessFactors names the notable positives and negatives so callers can
// surface a human-readable breakdown.
func assessFactors(f core.ConfidenceFactors) (strengths, weaknesses []string) {
	if f.SimilarityScore >= 0.7 {
		strengths = append(strengths, "strong semantic match with source passages")
	} else if f.SimilarityScore < 0.4 {
		weaknesses = append(weaknesses, "weak semantic match with source passages")
	}

	if f.ResultCount >= 3 {
		strengths = append(strengths, "multiple supporting passages found")
	} else if f.ResultCount <= 1 {
		weaknesses = append(weaknesses, "little supporting evidence")
	}

	if f.CitationQuality >= 0.7 {
		strengths = append(strengths, "citations closely match the answer")
	} else if f.CitationQuality < 0.3 {
		weaknesses = append(weaknesses, "citations only loosely support the answer")
	}

	if f.QuestionComplexity == core.ComplexityComplex {
		weaknesses = append(weaknesses, "complex question increases interpretation risk")
	}

	if f.KeywordOverlap >= 0.6 {
		strengths = append(strengths, "answer uses the question's own terms")
	}

	if f.SemanticCoherence < 0.3 && f.SemanticCoherence > 0 {
		weaknesses = append(weaknesses, "source passages lack internal coherence")
	}
	return strengths, weaknesses
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
