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


// Package index builds and manages per-document retrieval indexes.
//
// Each document gets its own DocumentIndex holding two parallel
// representations of its chunks: unit-normalized dense embeddings for
// semantic similarity and sparse TF-IDF vectors for lexical similarity.
// Vocabularies are fitted per document and never shared; transforming a
// query against the wrong document's vocabulary is an error.
//
// The Manager keeps indexes in memory and caches the recomputable sparse
// parts in storage with a TTL, so a restarted process restores an index
// from the cache plus the stored embeddings instead of refitting.
package index
