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


// Package confidence scores how much an answer should be trusted.
//
// Two models run over the same factors: a weighted linear model with
// calibrated per-factor sub-scores, and a Bayesian model that multiplies
// evidence likelihoods against fixed priors. The ensemble blends them
// 60/40 and maps the result to a level, a recommendation, and a
// show/suppress decision.
//
// Analyze never returns an error. Degenerate factors fail closed to a
// zero score so a broken upstream stage can never inflate confidence.
package confidence
