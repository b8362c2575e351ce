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

// Package lookup maintains side tables of directory entities (queues,
// users, trunks, edges) that enrich indexed events downstream. Rows carry
// a _key field; saving a row with an existing _key replaces it, so
// repeated syncs never duplicate.
package lookup

import (
	"context"
	"fmt"
)

// Record is one lookup row. It must carry a string under "_key".
type Record map[string]any

// Key returns the record's _key, or an error when absent or not a string.
func (r Record) Key() (string, error) {
	value, ok := r["_key"]
	if !ok {
		return "", fmt.Errorf("lookup: record has no _key")
	}
	key, ok := value.(string)
	if !ok || key == "" {
		return "", fmt.Errorf("lookup: record _key is not a non-empty string")
	}
	return key, nil
}

// Store persists lookup collections.
type Store interface {
	// EnsureCollection creates the named collection if it does not exist.
	EnsureCollection(ctx context.Context, name string) error

	// BatchSave writes records into the collection, replacing rows whose
	// _key already exists.
	BatchSave(ctx context.Context, name string, records []Record) error
}
