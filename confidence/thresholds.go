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

// Display thresholds on the 0-100 score scale.
const (
	ThresholdShow     = 40.0
	ThresholdCaution  = 60.0
	ThresholdReliable = 80.0
	ThresholdStrong   = 90.0
)

// LevelFor maps a score to its confidence level.
func LevelFor(score float64) core.ConfidenceLevel {
	switch {
	case score >= 90:
		return core.LevelVeryHigh
	case score >= 75:
		return core.LevelHigh
	case score >= 60:
		return core.LevelMedium
	case score >= 40:
		return core.LevelLow
	default:
		return core.LevelVeryLow
	}
}

// ShouldShow reports whether an answer with this score should be surfaced
// at all. Below the floor the answer is suppressed in favor of a not-found
// response.
func ShouldShow(score float64) bool {
	return score >= ThresholdShow
}

func recommendationFor(score float64) string {
	switch {
	case score >= ThresholdStrong:
		return "High confidence. The answer is well grounded in the document."
	case score >= ThresholdReliable:
		return "Reliable answer. Verify cited sections for critical decisions."
	case score >= ThresholdCaution:
		return "Moderately confident. Review the cited sections before relying on this answer."
	case score >= ThresholdShow:
		return "Low confidence. Treat this answer as a starting point and read the source document."
	default:
		return "Insufficient confidence to present an answer."
	}
}
