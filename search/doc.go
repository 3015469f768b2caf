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


// Package search runs the multi-stage retrieval cascade over a document.
//
// The Searcher type implements three stages, each refining the last:
//   - Dense retrieval using vector embeddings (always runs)
//   - Hybrid fusion blending dense and TF-IDF scores
//   - Model-based reranking of the surviving candidates
//
// A stage that cannot run (vocabulary failure, model failure after retry,
// too few candidates) is skipped rather than failing the search; the
// ordering from the previous stage carries forward. The candidate set only
// ever narrows.
//
// The Enricher annotates survivors with relevance indicators, key phrases,
// coherence, neighboring context, and a quality score used by the
// quality filter.
package search
