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
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docquery/storage"
)

// CacheRepository implements storage.CacheRepository for BadgerDB.
// Expiry is handled by badger entry TTLs; expired keys read as missing.
type CacheRepository struct {
	backend *Backend
}

var _ storage.CacheRepository = (*CacheRepository)(nil)

// NewCacheRepository creates a new CacheRepository.
//
// Returns storage.CacheRepository interface to enforce abstraction.
func NewCacheRepository(backend *Backend) (storage.CacheRepository, error) {
	return &CacheRepository{backend: backend}, nil
}

// Close releases repository resources. The backend is owned by the caller.
func (r *CacheRepository) Close() error {
	return nil
}

// Get retrieves a cached value by key.
func (r *CacheRepository) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	}, false)

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// SetWithTTL stores a value that expires after ttl.
func (r *CacheRepository) SetWithTTL(ctx context.Context, key, value []byte, ttl time.Duration) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(key, value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Delete removes a cached value.
func (r *CacheRepository) Delete(ctx context.Context, key []byte) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(key); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return tx.Commit()
	}, true)
}

// DeleteByPrefix removes all cached values whose keys start with prefix.
func (r *CacheRepository) DeleteByPrefix(ctx context.Context, prefix []byte) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deleteByPrefix(tx, prefix); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
