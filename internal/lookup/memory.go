// Copyright 2025 Tom Barlow
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

package lookup

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]Record)}
}

// EnsureCollection creates the named collection if missing.
func (m *MemoryStore) EnsureCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		m.collections[name] = make(map[string]Record)
	}
	return nil
}

// BatchSave upserts records by _key.
func (m *MemoryStore) BatchSave(ctx context.Context, name string, records []Record) error {
	if err := m.EnsureCollection(ctx, name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range records {
		key, err := record.Key()
		if err != nil {
			return err
		}
		m.collections[name][key] = record
	}
	return nil
}

// Rows returns all rows of a collection.
func (m *MemoryStore) Rows(name string) []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []Record
	for _, record := range m.collections[name] {
		records = append(records, record)
	}
	return records
}

// Has reports whether a collection exists.
func (m *MemoryStore) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok
}
