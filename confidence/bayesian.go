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

// Fixed priors expressing how much each evidence source is trusted on its
// own. The default prior is used for evidence with no specific calibration.
const (
	priorSimilarity = 0.7
	priorResults    = 0.6
	priorLegal      = 0.8
	priorCitations  = 0.75
	priorDefault    = 0.5
)

// evidence pairs an observed likelihood with the prior trust in its source.
type evidence struct {
	likelihood float64
	prior      float64
}

// bayesianScore runs a naive Bayes update over the evidence sources. Each
// source multiplies the posterior odds by likelihood*prior over
// (1-likelihood)*(1-prior), so strong evidence from a trusted source pushes
// the odds up while weak evidence drags them down. Likelihoods are kept off
// the exact 0 and 1 boundaries so a single source can never saturate the
// posterior on its own.
func bayesianScore(f core.ConfidenceFactors) float64 {
	evidences := []evidence{
		{likelihood: clampUnit(f.SimilarityScore), prior: priorSimilarity},
		{likelihood: resultLikelihood(f.ResultCount), prior: priorResults},
		{likelihood: legalLikelihood(f.HasLegalTerms), prior: priorLegal},
		{likelihood: clampUnit(f.CitationQuality), prior: priorCitations},
		{likelihood: complexityLikelihood(f.QuestionComplexity), prior: priorDefault},
	}

	odds := 1.0
	for _, e := range evidences {
		l := boundLikelihood(e.likelihood)
		odds *= (l * e.prior) / ((1 - l) * (1 - e.prior))
	}

	posterior := odds / (1 + odds)
	return clampScore(posterior * 100)
}

func boundLikelihood(l float64) float64 {
	const floor, ceiling = 0.01, 0.99
	if l < floor {
		return floor
	}
	if l > ceiling {
		return ceiling
	}
	return l
}

func resultLikelihood(count int) float64 {
	if count <= 0 {
		return 0
	}
	return clampUnit(float64(count) / 5.0)
}

func legalLikelihood(hasLegalTerms bool) float64 {
	if hasLegalTerms {
		return 0.9
	}
	return 0.5
}

func complexityLikelihood(complexity core.Complexity) float64 {
	switch complexity {
	case core.ComplexitySimple:
		return 0.9
	case core.ComplexityMedium:
		return 0.8
	case core.ComplexityComplex:
		return 0.6
	default:
		return 0.6
	}
}
