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

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/docquery/index"
)

// embedAll embeds the texts in batches distributed over the worker pool.
// Each batch retries with backoff before failing the whole ingestion.
// Vectors are normalized so cosine similarity reduces to a dot product.
func (p *Pipeline) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	for start := 0; start < len(texts); start += p.batchSize {
		end := min(start+p.batchSize, len(texts))
		batch := texts[start:end]
		offset := start

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()

			var vectors [][]float32
			retryErr := RetryWithBackoff(ctx, func() error {
				var embedErr error
				vectors, embedErr = p.embedder.EmbedTexts(ctx, batch)
				return embedErr
			}, p.maxRetries, p.retryBaseDelay)
			if retryErr != nil {
				fail(fmt.Errorf("embedding batch at offset %d: %w", offset, retryErr))
				return
			}
			if len(vectors) != len(batch) {
				fail(fmt.Errorf("%w: expected %d, received %d",
					ErrEmbeddingCountMismatch, len(batch), len(vectors)))
				return
			}

			for i, vector := range vectors {
				index.Normalize(vector)
				embeddings[offset+i] = vector
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return embeddings, nil
}
