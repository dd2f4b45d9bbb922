/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package snapshot persists restorable layout captures next to the board
// document and restores them through the host. Snapshots live as JSON files
// under a layouts/ directory; a SQLite cache holds their listing metadata.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"log/slog"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"tablostudio/internal/domain"
	applog "tablostudio/internal/log"
)

// LayoutsDirName is the snapshot directory created next to the board file.
const LayoutsDirName = "layouts"

// ErrNotFound is returned when no snapshot file exists for the given name.
var ErrNotFound = errors.New("snapshot not found")

// Item is the listing projection of a stored snapshot.
type Item struct {
	FileName     string
	Path         string
	SnapshotName string
	CreatedAt    string
	PersonCount  int
	LayerCount   int
}

// Store keeps the snapshots of one board document.
type Store struct {
	dir string
	log *slog.Logger
}

// NewStore returns the store for the board file at docPath; snapshots live
// in a layouts/ directory beside it.
func NewStore(docPath string) *Store {
	return NewStoreDir(filepath.Join(filepath.Dir(docPath), LayoutsDirName))
}

// NewStoreDir returns a store rooted at an explicit directory.
func NewStoreDir(dir string) *Store {
	return &Store{dir: dir, log: applog.WithComponent("snapshot")}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(fileName string) string { return filepath.Join(s.dir, fileName) }

func validFileName(fileName string) error {
	if strings.TrimSpace(fileName) == "" {
		return errors.New("snapshot file name is required")
	}
	if strings.ContainsAny(fileName, `/\`) || fileName == "." || fileName == ".." {
		return fmt.Errorf("invalid snapshot file name %q", fileName)
	}
	if !strings.HasSuffix(fileName, ".json") {
		return fmt.Errorf("snapshot file name %q must end in .json", fileName)
	}
	return nil
}

// personCount counts the photo placeholders of a snapshot.
func personCount(layers []domain.Layer) int {
	n := 0
	for _, l := range layers {
		if l.InGroup(domain.GroupImagesStudents) || l.InGroup(domain.GroupImagesTeachers) {
			n++
		}
	}
	return n
}

func itemOf(snap domain.Snapshot, fileName, path string) Item {
	return Item{
		FileName:     fileName,
		Path:         path,
		SnapshotName: snap.SnapshotName,
		CreatedAt:    snap.CreatedAt,
		PersonCount:  personCount(snap.Layers),
		LayerCount:   len(snap.Layers),
	}
}

// Save validates and persists the snapshot under fileName, returning its
// listing item. The write is atomic and the metadata cache is refreshed
// best-effort.
func (s *Store) Save(snap domain.Snapshot, fileName string) (Item, error) {
	if err := snap.Validate(); err != nil {
		return Item{}, err
	}
	if err := validFileName(fileName); err != nil {
		return Item{}, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Item{}, fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return Item{}, fmt.Errorf("encode snapshot: %w", err)
	}
	dst := s.path(fileName)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return Item{}, fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return Item{}, fmt.Errorf("commit snapshot: %w", err)
	}

	item := itemOf(snap, fileName, dst)
	s.withIndex(func(ctx context.Context, db *sql.DB) error {
		mtime := int64(0)
		if fi, err := os.Stat(dst); err == nil {
			mtime = fi.ModTime().Unix()
		}
		return indexUpsert(ctx, db, indexRow{Item: item, mtimeUnix: mtime})
	})
	s.log.Info("snapshot saved", "file", fileName, "name", snap.SnapshotName, "layers", len(snap.Layers))
	return item, nil
}

// Load reads, schema-checks and decodes one snapshot.
func (s *Store) Load(fileName string) (domain.Snapshot, error) {
	if err := validFileName(fileName); err != nil {
		return domain.Snapshot{}, err
	}
	data, err := os.ReadFile(s.path(fileName))
	if errors.Is(err, os.ErrNotExist) {
		return domain.Snapshot{}, fmt.Errorf("snapshot %q: %w", fileName, ErrNotFound)
	}
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	if err := validateSchema(data); err != nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot %q: %w", fileName, err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot %q: %w", fileName, err)
	}
	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("snapshot %q: %w", fileName, err)
	}
	return snap, nil
}

func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(snapshotSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema check: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// List scans the snapshot directory, newest first. Metadata comes from the
// SQLite cache when the file is unchanged; otherwise the file is parsed and
// the cache refreshed. Unreadable files are logged and skipped.
func (s *Store) List(ctx context.Context) ([]Item, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	db, dbErr := openIndex(s.dir)
	if dbErr != nil {
		s.log.Warn("snapshot index unavailable", "err", dbErr)
	} else {
		defer func() { _ = db.Close() }()
	}

	seen := make(map[string]bool)
	var out []Item
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		seen[name] = true
		fi, err := e.Info()
		if err != nil {
			continue
		}
		mtime := fi.ModTime().Unix()

		if db != nil {
			if row, ok, err := indexGet(ctx, db, name); err == nil && ok && row.mtimeUnix == mtime {
				row.Path = s.path(name)
				out = append(out, row.Item)
				continue
			}
		}
		snap, err := s.Load(name)
		if err != nil {
			s.log.Warn("skipping unreadable snapshot", "file", name, "err", err)
			continue
		}
		item := itemOf(snap, name, s.path(name))
		out = append(out, item)
		if db != nil {
			if err := indexUpsert(ctx, db, indexRow{Item: item, mtimeUnix: mtime}); err != nil {
				s.log.Warn("snapshot index update failed", "file", name, "err", err)
			}
		}
	}

	if db != nil {
		s.pruneIndex(ctx, db, seen)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].FileName > out[j].FileName
	})
	return out, nil
}

// pruneIndex drops cache rows whose file is gone.
func (s *Store) pruneIndex(ctx context.Context, db *sql.DB, seen map[string]bool) {
	rows, err := db.QueryContext(ctx, `SELECT file_name FROM snapshots`)
	if err != nil {
		return
	}
	defer func() { _ = rows.Close() }()
	var stale []string
	for rows.Next() {
		var name string
		if rows.Scan(&name) == nil && !seen[name] {
			stale = append(stale, name)
		}
	}
	for _, name := range stale {
		if err := indexDelete(ctx, db, name); err != nil {
			s.log.Warn("snapshot index prune failed", "file", name, "err", err)
		}
	}
}

// Delete removes the snapshot file and its cache row.
func (s *Store) Delete(fileName string) error {
	if err := validFileName(fileName); err != nil {
		return err
	}
	err := os.Remove(s.path(fileName))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("snapshot %q: %w", fileName, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	s.withIndex(func(ctx context.Context, db *sql.DB) error {
		return indexDelete(ctx, db, fileName)
	})
	s.log.Info("snapshot deleted", "file", fileName)
	return nil
}

// Rename updates the display name inside the snapshot file. The file name
// stays stable so existing references keep working.
func (s *Store) Rename(fileName, newName string) (Item, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return Item{}, errors.New("snapshot name is required")
	}
	snap, err := s.Load(fileName)
	if err != nil {
		return Item{}, err
	}
	snap.SnapshotName = newName
	return s.Save(snap, fileName)
}

// withIndex runs fn against the metadata cache, logging failures instead of
// propagating them. The cache is rebuilt from the files on the next List, so
// a broken cache never loses data.
func (s *Store) withIndex(fn func(ctx context.Context, db *sql.DB) error) {
	db, err := openIndex(s.dir)
	if err != nil {
		s.log.Warn("snapshot index unavailable", "err", err)
		return
	}
	defer func() { _ = db.Close() }()
	if err := fn(context.Background(), db); err != nil {
		s.log.Warn("snapshot index update failed", "err", err)
	}
}
