/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	indexFileName = "index.sqlite"

	// indexSchemaVersion tracks the metadata cache schema. Bump on breaking
	// changes; the cache is rebuilt from the JSON files, never migrated.
	indexSchemaVersion = 1
)

// openIndex opens (or creates) the per-directory metadata cache. The cache
// lets List skip re-reading every snapshot file; the JSON files stay the
// source of truth.
func openIndex(dir string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(filepath.Join(dir, indexFileName)))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open snapshot index: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			file_name     TEXT PRIMARY KEY,
			snapshot_name TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			person_count  INTEGER NOT NULL,
			layer_count   INTEGER NOT NULL,
			mtime_unix    INTEGER NOT NULL
		);`,
	}
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index schema: %w", err)
		}
	}
	var stored string
	err := db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema'`).Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		_, err = db.ExecContext(ctx, `INSERT INTO meta(key, value) VALUES ('schema', ?)`, fmt.Sprint(indexSchemaVersion))
		return err
	case err != nil:
		return fmt.Errorf("read index schema version: %w", err)
	}
	if stored != fmt.Sprint(indexSchemaVersion) {
		// Stale cache from another build: drop and repopulate lazily.
		if _, err := db.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
			return fmt.Errorf("reset stale index: %w", err)
		}
		_, err = db.ExecContext(ctx, `UPDATE meta SET value = ? WHERE key = 'schema'`, fmt.Sprint(indexSchemaVersion))
		return err
	}
	return nil
}

type indexRow struct {
	Item
	mtimeUnix int64
}

func indexGet(ctx context.Context, db *sql.DB, fileName string) (indexRow, bool, error) {
	var row indexRow
	row.FileName = fileName
	err := db.QueryRowContext(ctx,
		`SELECT snapshot_name, created_at, person_count, layer_count, mtime_unix FROM snapshots WHERE file_name = ?`,
		fileName,
	).Scan(&row.SnapshotName, &row.CreatedAt, &row.PersonCount, &row.LayerCount, &row.mtimeUnix)
	if err == sql.ErrNoRows {
		return indexRow{}, false, nil
	}
	if err != nil {
		return indexRow{}, false, err
	}
	return row, true, nil
}

func indexUpsert(ctx context.Context, db *sql.DB, row indexRow) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO snapshots(file_name, snapshot_name, created_at, person_count, layer_count, mtime_unix)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(file_name) DO UPDATE SET
		   snapshot_name = excluded.snapshot_name,
		   created_at    = excluded.created_at,
		   person_count  = excluded.person_count,
		   layer_count   = excluded.layer_count,
		   mtime_unix    = excluded.mtime_unix`,
		row.FileName, row.SnapshotName, row.CreatedAt, row.PersonCount, row.LayerCount, row.mtimeUnix,
	)
	return err
}

func indexDelete(ctx context.Context, db *sql.DB, fileName string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM snapshots WHERE file_name = ?`, fileName)
	return err
}
