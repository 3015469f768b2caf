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


package ingestion

import "errors"

var (
	// ErrChunkRepositoryRequired indicates a nil chunk repository.
	ErrChunkRepositoryRequired = errors.New("chunk repository is required")

	// ErrIndexManagerRequired indicates a nil index manager.
	ErrIndexManagerRequired = errors.New("index manager is required")

	// ErrAIProviderRequired indicates a nil AI provider.
	ErrAIProviderRequired = errors.New("AI provider is required")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrEmbeddingCountMismatch indicates the embedding service returned a
	// different number of vectors than texts submitted.
	ErrEmbeddingCountMismatch = errors.New("embedding count does not match text count")
)
