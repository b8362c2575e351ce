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

package checkpoint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCanonical(t *testing.T) {
	got, err := Parse("2026-03-01T08:30:00.250Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 8, 30, 0, 250_000_000, time.UTC), got)
}

func TestParseLegacyEpochSeconds(t *testing.T) {
	got, err := Parse("1767225600")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = Parse("1767225600.5")
	require.NoError(t, err)
	assert.Equal(t, int64(1767225600), got.Unix())
	assert.Equal(t, 500*time.Millisecond, time.Duration(got.Nanosecond()))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("next tuesday")
	assert.Error(t, err)
}

func TestFormatRoundTrip(t *testing.T) {
	original := time.Date(2026, 3, 1, 8, 30, 0, 250_000_000, time.UTC)

	parsed, err := Parse(Format(original))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(original))
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store, err := NewSQLiteStore(SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "checkpoints.db"),
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	_, ok, err := store.Get(ctx, "queue_observations")
	require.NoError(t, err)
	assert.False(t, ok)

	mark := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, store.Update(ctx, "queue_observations", mark))

	got, ok, err := store.Get(ctx, "queue_observations")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(mark))

	// Other keys are unaffected.
	_, ok, err = store.Get(ctx, "edges_phones")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreUpdateReplaces(t *testing.T) {
	store, err := NewSQLiteStore(SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "checkpoints.db"),
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	first := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, store.Update(ctx, "audit_query", first))
	require.NoError(t, store.Update(ctx, "audit_query", second))

	got, ok, err := store.Get(ctx, "audit_query")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(second))
}

func TestSQLiteStoreReadsLegacyEpochValue(t *testing.T) {
	store, err := NewSQLiteStore(SQLiteConfig{
		Path: filepath.Join(t.TempDir(), "checkpoints.db"),
	})
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	_, err = store.db.ExecContext(ctx,
		`INSERT INTO checkpoints (feed_key, value) VALUES (?, ?)`,
		"edges_metrics", "1767225600")
	require.NoError(t, err)

	got, ok, err := store.Get(ctx, "edges_metrics")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1767225600), got.Unix())
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	mark := time.Now().UTC()
	require.NoError(t, store.Update(ctx, "k", mark))

	got, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(mark))
}
