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


package storage

import (
	"github.com/poiesic/docquery/core"
)

// MarshalChunk serializes a Chunk and its embedding to bytes.
// The two travel together because an index rebuild needs both.
func MarshalChunk(chunk *core.Chunk, embedding []float32) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk)+core.VectorMUS.Size(embedding))
	n := core.ChunkMUS.Marshal(*chunk, buf)
	core.VectorMUS.Marshal(embedding, buf[n:])
	return buf
}

// UnmarshalChunk deserializes a Chunk and its embedding from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, []float32, error) {
	chunk, n, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, nil, err
	}
	embedding, _, err := core.VectorMUS.Unmarshal(data[n:])
	if err != nil {
		return nil, nil, err
	}
	return &chunk, embedding, nil
}

// MarshalIndexCache serializes an IndexCache to bytes.
func MarshalIndexCache(cache *core.IndexCache) []byte {
	buf := make([]byte, core.IndexCacheMUS.Size(*cache))
	core.IndexCacheMUS.Marshal(*cache, buf)
	return buf
}

// UnmarshalIndexCache deserializes an IndexCache from bytes.
func UnmarshalIndexCache(data []byte) (*core.IndexCache, error) {
	cache, _, err := core.IndexCacheMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &cache, nil
}

// MarshalAnswer serializes an Answer to bytes.
func MarshalAnswer(answer *core.Answer) []byte {
	buf := make([]byte, core.AnswerMUS.Size(*answer))
	core.AnswerMUS.Marshal(*answer, buf)
	return buf
}

// UnmarshalAnswer deserializes an Answer from bytes.
func UnmarshalAnswer(data []byte) (*core.Answer, error) {
	answer, _, err := core.AnswerMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &answer, nil
}
