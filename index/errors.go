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

import "errors"

var (
	// ErrVocabularyMismatch is returned when a query is transformed against
	// a vocabulary fitted on a different document, or when a restored
	// vocabulary is internally inconsistent.
	ErrVocabularyMismatch = errors.New("vocabulary mismatch")

	// ErrDimensionMismatch is returned when a query vector's dimension does
	// not match the indexed embeddings.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingCountMismatch is returned when the number of embeddings
	// does not match the number of chunks.
	ErrEmbeddingCountMismatch = errors.New("embedding count does not match chunk count")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")
)
