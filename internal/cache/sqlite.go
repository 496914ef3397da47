// Copyright 2025 Kisan Assistant Project
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

package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLite is the on-disk API cache. It survives restarts and backs the
// market gateway as a second-level cache behind the memory layer.
type SQLite struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLite opens (creating if necessary) the cache database at dbPath and
// ensures the schema exists.
func NewSQLite(dbPath string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	store := &SQLite{db: db, logger: logger}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return store, nil
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS api_cache (
		key TEXT PRIMARY KEY,
		value TEXT,
		timestamp DATETIME,
		expiry DATETIME
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the cached value for key, or ok=false when the key is absent
// or past its expiry.
func (s *SQLite) Get(key string) (string, bool, error) {
	var value string
	var expiry time.Time

	err := s.db.QueryRow(
		"SELECT value, expiry FROM api_cache WHERE key = ?", key,
	).Scan(&value, &expiry)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if time.Now().After(expiry) {
		return "", false, nil
	}
	return value, true, nil
}

// Set stores or replaces the value under key with the given TTL.
func (s *SQLite) Set(key, value string, ttl time.Duration) error {
	now := time.Now()
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO api_cache (key, value, timestamp, expiry) VALUES (?, ?, ?, ?)",
		key, value, now, now.Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// ClearExpired deletes all entries past their expiry and returns the count
// removed.
func (s *SQLite) ClearExpired() (int64, error) {
	result, err := s.db.Exec("DELETE FROM api_cache WHERE expiry < ?", time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache entries: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Debug("cleared expired cache entries", zap.Int64("count", removed))
	}
	return removed, nil
}

// Ping checks that the database file is still reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
