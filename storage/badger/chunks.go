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


package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docquery/core"
	"github.com/poiesic/docquery/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
//
// Returns storage.ChunkRepository interface to enforce abstraction.
func NewChunkRepository(backend *Backend) (storage.ChunkRepository, error) {
	return &ChunkRepository{backend: backend}, nil
}

// Close releases repository resources. The backend is owned by the caller.
func (r *ChunkRepository) Close() error {
	return nil
}

// ReplaceDocument atomically replaces all stored chunks and embeddings for
// the document. Any chunks from a previous ingestion are removed first so a
// shrinking document leaves no stale tail behind.
func (r *ChunkRepository) ReplaceDocument(ctx context.Context, documentID string, chunks []*core.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return storage.ErrSerializationFailed
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteByPrefix(tx, makeChunkPrefix(documentID)); err != nil {
			return err
		}

		for i, chunk := range chunks {
			key := makeChunkKey(documentID, chunk.Index)
			value := storage.MarshalChunk(chunk, embeddings[i])
			if err := tx.Set(key, value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetByDocument retrieves a document's chunks and embeddings in chunk order.
func (r *ChunkRepository) GetByDocument(ctx context.Context, documentID string) ([]*core.Chunk, [][]float32, error) {
	var (
		chunks     []*core.Chunk
		embeddings [][]float32
	)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkPrefix(documentID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				chunk, embedding, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
				embeddings = append(embeddings, embedding)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, nil, err
	}
	return chunks, embeddings, nil
}

// DeleteByDocument removes all chunks and embeddings for a document.
func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteByPrefix(tx, makeChunkPrefix(documentID)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// deleteByPrefix removes every key under prefix within the transaction.
func deleteByPrefix(tx *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
