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
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Collection names become table names; restrict them to avoid SQL
// identifier games.
var collectionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// SQLiteStore persists lookup collections, one table per collection with
// the full row kept as JSON alongside its key.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	created map[string]bool
}

// SQLiteConfig configures the SQLite lookup store.
type SQLiteConfig struct {
	// Path is the database file. Default:
	// ~/.local/share/genesysfeed/lookups.db
	Path string
}

// NewSQLiteStore opens (creating if needed) the lookup database.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		cfg.Path = filepath.Join(homeDir, ".local", "share", "genesysfeed", "lookups.db")
	}

	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	connStr := cfg.Path
	if cfg.Path != ":memory:" {
		connStr += "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{db: db, created: make(map[string]bool)}, nil
}

// EnsureCollection creates the collection table if missing.
func (s *SQLiteStore) EnsureCollection(ctx context.Context, name string) error {
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("lookup: invalid collection name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[name] {
		return nil
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %q (
		key TEXT PRIMARY KEY,
		row TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`, "lookup_"+name)
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	s.created[name] = true
	return nil
}

// BatchSave upserts records by _key inside one transaction.
func (s *SQLiteStore) BatchSave(ctx context.Context, name string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.EnsureCollection(ctx, name); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
	INSERT INTO %q (key, row, updated_at)
	VALUES (?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(key) DO UPDATE SET
		row = excluded.row,
		updated_at = excluded.updated_at
	`, "lookup_"+name)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		key, err := record.Key()
		if err != nil {
			return err
		}
		row, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to encode row %s: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, key, string(row)); err != nil {
			return fmt.Errorf("failed to save row %s in %s: %w", key, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Rows returns all rows of a collection, used by the CLI and tests.
func (s *SQLiteStore) Rows(ctx context.Context, name string) ([]Record, error) {
	if !collectionNamePattern.MatchString(name) {
		return nil, fmt.Errorf("lookup: invalid collection name %q", name)
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT row FROM %q ORDER BY key`, "lookup_"+name))
	if err != nil {
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var record Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to decode row in %s: %w", name, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
