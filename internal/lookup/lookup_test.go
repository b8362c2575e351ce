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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "lookups.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordKey(t *testing.T) {
	key, err := Record{"_key": "q1", "name": "sales"}.Key()
	require.NoError(t, err)
	assert.Equal(t, "q1", key)

	_, err = Record{"name": "sales"}.Key()
	assert.Error(t, err)

	_, err = Record{"_key": 7}.Key()
	assert.Error(t, err)

	_, err = Record{"_key": ""}.Key()
	assert.Error(t, err)
}

func TestSQLiteBatchSaveReplacesByKey(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.BatchSave(ctx, "queues", []Record{
		{"_key": "q1", "id": "q1", "name": "sales"},
		{"_key": "q2", "id": "q2", "name": "support"},
	}))

	// Saving q1 again replaces it rather than duplicating.
	require.NoError(t, store.BatchSave(ctx, "queues", []Record{
		{"_key": "q1", "id": "q1", "name": "sales-emea"},
	}))

	rows, err := store.Rows(ctx, "queues")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "sales-emea", rows[0]["name"])
	assert.Equal(t, "support", rows[1]["name"])
}

func TestSQLiteCollectionsAreIndependent(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.BatchSave(ctx, "gc_trunks", []Record{
		{"_key": "t1", "name": "sip"},
	}))
	require.NoError(t, store.BatchSave(ctx, "gc_edges", []Record{
		{"_key": "e1", "name": "edge-1"},
	}))

	trunks, err := store.Rows(ctx, "gc_trunks")
	require.NoError(t, err)
	assert.Len(t, trunks, 1)

	edges, err := store.Rows(ctx, "gc_edges")
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestSQLiteRejectsBadCollectionName(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	err := store.EnsureCollection(ctx, "queues; DROP TABLE x")
	assert.Error(t, err)

	err = store.BatchSave(ctx, "Queues", []Record{{"_key": "a"}})
	assert.Error(t, err)
}

func TestSQLiteBatchSaveRejectsMissingKey(t *testing.T) {
	store := newSQLiteStore(t)

	err := store.BatchSave(context.Background(), "queues", []Record{{"id": "q1"}})
	assert.Error(t, err)
}

func TestSQLiteEmptyBatchIsNoop(t *testing.T) {
	store := newSQLiteStore(t)
	assert.NoError(t, store.BatchSave(context.Background(), "queues", nil))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.False(t, store.Has("users"))
	require.NoError(t, store.EnsureCollection(ctx, "users"))
	assert.True(t, store.Has("users"))

	require.NoError(t, store.BatchSave(ctx, "users", []Record{
		{"_key": "u1", "name": "Sam"},
	}))
	require.NoError(t, store.BatchSave(ctx, "users", []Record{
		{"_key": "u1", "name": "Samantha"},
	}))

	rows := store.Rows("users")
	require.Len(t, rows, 1)
	assert.Equal(t, "Samantha", rows[0]["name"])
}
