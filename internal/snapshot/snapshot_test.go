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
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tablostudio/internal/domain"
	"tablostudio/internal/host"
	"tablostudio/internal/layout"
)

type stubPort struct {
	available bool
	calls     []host.Request
	replies   map[string]host.Result
	settings  map[string]string
}

func newStubPort() *stubPort {
	return &stubPort{available: true, replies: map[string]host.Result{}, settings: map[string]string{}}
}

func (s *stubPort) Available() bool { return s.available }

func (s *stubPort) RunScript(_ context.Context, req host.Request) (host.Result, error) {
	s.calls = append(s.calls, req)
	if r, ok := s.replies[req.Script]; ok {
		return r, nil
	}
	return host.Result{Success: true}, nil
}

func (s *stubPort) StoreSetting(_ context.Context, key, value string) error {
	s.settings[key] = value
	return nil
}

func (s *stubPort) LoadSettings(_ context.Context) (map[string]string, error) {
	return s.settings, nil
}

const layoutReply = host.LayoutToken + `{"document":{"name":"tablo-9b.psd","widthPx":11811,"heightPx":8268,"dpi":300},"layers":[` +
	`{"layerName":"kovacs-anna---1","groupPath":["Images","Students"],"x":236,"y":236,"width":709,"height":1063,"kind":"image"},` +
	`{"layerName":"kovacs-anna---1","groupPath":["Names","Students"],"x":236,"y":1358,"width":709,"height":80,"kind":"text"},` +
	`{"layerName":"hatter","groupPath":["Background"],"x":0,"y":0,"width":11811,"height":8268,"kind":"image"}]}`

var testClock = time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC)

func newManager(t *testing.T, port host.Port) *Manager {
	t.Helper()
	ops := layout.NewOperations(port, layout.NewSettings(port))
	m := NewManager(port, ops, NewStoreDir(t.TempDir()))
	m.now = func() time.Time { return testClock }
	return m
}

func testSnapshot(name string) domain.Snapshot {
	return domain.Snapshot{
		Version:      domain.SnapshotVersion,
		SnapshotName: name,
		CreatedAt:    "2026-02-14T10:30:00Z",
		Document:     domain.Document{Name: "tablo-9b.psd", WidthPx: 11811, HeightPx: 8268, DPI: 300},
		Board:        domain.BoardConfig{WidthCm: 100, HeightCm: 70, MarginCm: 2, GapHCm: 2, GapVCm: 3, GridAlign: "center"},
		NameSettings: domain.NameSettings{NameGapCm: 0.5, NameBreakAfter: 1, TextAlign: domain.JustifyCenter},
		Layers: []domain.Layer{
			{LayerName: "kovacs-anna---1", GroupPath: []string{"Images", "Students"}, X: 236, Y: 236, Width: 709, Height: 1063, Kind: domain.KindImage},
			{LayerName: "kovacs-anna---1", GroupPath: []string{"Names", "Students"}, X: 236, Y: 1358, Width: 709, Height: 80, Kind: domain.KindText},
			{LayerName: "dr-szabo-eva---t1", GroupPath: []string{"Images", "Teachers"}, X: 2000, Y: 236, Width: 709, Height: 1063, Kind: domain.KindImage},
			{LayerName: "hatter", GroupPath: []string{"Background"}, X: 0, Y: 0, Width: 11811, Height: 8268, Kind: domain.KindImage},
		},
	}
}

func TestSaveSnapshotRoundTrip(t *testing.T) {
	stub := newStubPort()
	stub.replies["read-layout"] = host.Result{Success: true, Output: layoutReply}
	m := newManager(t, stub)

	item, err := m.Save(context.Background(), " Próba mentés ", 100, 70, "")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if item.FileName != "2026-02-14_10-30-00_proba-mentes.json" {
		t.Errorf("file name = %q", item.FileName)
	}
	if item.SnapshotName != "Próba mentés" {
		t.Errorf("name = %q, want trimmed", item.SnapshotName)
	}
	if item.PersonCount != 1 || item.LayerCount != 3 {
		t.Errorf("counts = %d persons / %d layers", item.PersonCount, item.LayerCount)
	}

	snap, err := m.Store().Load(item.FileName)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Version != domain.SnapshotVersion || snap.CreatedAt != "2026-02-14T10:30:00Z" {
		t.Errorf("snapshot header = %+v", snap)
	}
	if len(snap.Layers) != 3 || snap.Layers[0].LayerName != "kovacs-anna---1" || snap.Layers[0].Y != 236 {
		t.Errorf("layers = %+v", snap.Layers)
	}
	if snap.Board.WidthCm != 100 || snap.Board.MarginCm != 2 {
		t.Errorf("board = %+v", snap.Board)
	}
}

func TestSaveSnapshotRequiresName(t *testing.T) {
	m := newManager(t, newStubPort())
	if _, err := m.Save(context.Background(), "  ", 100, 70, ""); err == nil {
		t.Fatal("blank name accepted")
	}
}

func TestSaveSnapshotNotConnected(t *testing.T) {
	stub := newStubPort()
	stub.available = false
	m := newManager(t, stub)
	if _, err := m.Save(context.Background(), "próba", 100, 70, ""); !errors.Is(err, host.ErrNotAvailable) {
		t.Fatalf("want ErrNotAvailable, got %v", err)
	}
}

func TestRestoreFiltersToRequestedGroups(t *testing.T) {
	stub := newStubPort()
	m := newManager(t, stub)
	item, err := m.Store().Save(testSnapshot("teljes"), "2026-02-14_10-30-00_teljes.json")
	if err != nil {
		t.Fatalf("store save: %v", err)
	}

	groups := [][]string{{"Images", "Students"}, {"Names", "Students"}}
	if err := m.Restore(context.Background(), item.FileName, "masik.psd", groups); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	last := stub.calls[len(stub.calls)-1]
	if last.Script != "restore-layout" || last.TargetDocument != "masik.psd" {
		t.Fatalf("last call = %+v", last)
	}
	payload, ok := last.Payload.(restorePayload)
	if !ok {
		t.Fatalf("payload type %T", last.Payload)
	}
	if len(payload.Layers) != 2 {
		t.Fatalf("restored layers = %+v, want only student groups", payload.Layers)
	}
	for _, l := range payload.Layers {
		if l.GroupPath[1] != "Students" {
			t.Errorf("layer %q leaked from group %v", l.LayerName, l.GroupPath)
		}
	}
	if len(payload.RestoreGroups) != 2 {
		t.Errorf("restoreGroups = %+v", payload.RestoreGroups)
	}
}

func TestRestoreFullWithoutGroups(t *testing.T) {
	stub := newStubPort()
	m := newManager(t, stub)
	item, err := m.Store().Save(testSnapshot("teljes"), "2026-02-14_10-30-00_teljes.json")
	if err != nil {
		t.Fatalf("store save: %v", err)
	}
	if err := m.Restore(context.Background(), item.FileName, "", nil); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	payload := stub.calls[len(stub.calls)-1].Payload.(restorePayload)
	if len(payload.Layers) != 4 || payload.RestoreGroups != nil {
		t.Fatalf("payload = %+v, want all layers and no group filter", payload)
	}
}

func TestRestoreNotConnected(t *testing.T) {
	stub := newStubPort()
	stub.available = false
	m := newManager(t, stub)
	if _, err := m.Store().Save(testSnapshot("x"), "2026-02-14_10-30-00_x.json"); err != nil {
		t.Fatalf("store save: %v", err)
	}
	err := m.Restore(context.Background(), "2026-02-14_10-30-00_x.json", "", nil)
	if !errors.Is(err, host.ErrNotAvailable) {
		t.Fatalf("want ErrNotAvailable, got %v", err)
	}
	if len(stub.calls) != 0 {
		t.Fatal("host was called while not connected")
	}
}

func TestRestoreUnknownFile(t *testing.T) {
	m := newManager(t, newStubPort())
	err := m.Restore(context.Background(), "2020-01-01_00-00-00_nincs.json", "", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSaveAsNewKeepsOriginal(t *testing.T) {
	m := newManager(t, newStubPort())
	original := testSnapshot("Ősz")
	if _, err := m.Store().Save(original, "2026-02-13_09-00-00_osz.json"); err != nil {
		t.Fatalf("store save: %v", err)
	}

	edited := original
	edited.Layers = edited.Layers[:2]
	item, err := m.SaveAsNew(edited, "Ősz")
	if err != nil {
		t.Fatalf("SaveAsNew: %v", err)
	}
	if item.FileName != "2026-02-14_10-30-00_osz-edited.json" {
		t.Errorf("file name = %q", item.FileName)
	}
	if item.SnapshotName != "Ősz (edited)" {
		t.Errorf("name = %q", item.SnapshotName)
	}

	kept, err := m.Store().Load("2026-02-13_09-00-00_osz.json")
	if err != nil {
		t.Fatalf("original lost: %v", err)
	}
	if len(kept.Layers) != 4 || kept.SnapshotName != "Ősz" {
		t.Errorf("original mutated: %+v", kept)
	}
}

func TestListNewestFirstAndSkipsCorrupt(t *testing.T) {
	m := newManager(t, newStubPort())
	older := testSnapshot("régi")
	older.CreatedAt = "2026-02-13T08:00:00Z"
	if _, err := m.Store().Save(older, "2026-02-13_08-00-00_regi.json"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Store().Save(testSnapshot("új"), "2026-02-14_10-30-00_uj.json"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(m.Store().Dir(), "torz.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	items, err := m.Store().List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("list = %+v, want 2 readable snapshots", items)
	}
	if items[0].SnapshotName != "új" || items[1].SnapshotName != "régi" {
		t.Errorf("order = %q, %q", items[0].SnapshotName, items[1].SnapshotName)
	}
	if items[0].PersonCount != 2 || items[0].LayerCount != 4 {
		t.Errorf("counts = %+v", items[0])
	}

	// Second listing serves cached metadata and must agree with the first.
	again, err := m.Store().List(context.Background())
	if err != nil {
		t.Fatalf("second List: %v", err)
	}
	if len(again) != 2 || again[0] != items[0] || again[1] != items[1] {
		t.Fatalf("cached list diverged: %+v vs %+v", again, items)
	}
	if _, err := os.Stat(filepath.Join(m.Store().Dir(), indexFileName)); err != nil {
		t.Errorf("index file missing: %v", err)
	}
}

func TestListReflectsDeletes(t *testing.T) {
	m := newManager(t, newStubPort())
	if _, err := m.Store().Save(testSnapshot("x"), "2026-02-14_10-30-00_x.json"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Store().List(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.Store().Delete("2026-02-14_10-30-00_x.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	items, err := m.Store().List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("list after delete = %+v", items)
	}
	if err := m.Store().Delete("2026-02-14_10-30-00_x.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestRenameUpdatesDisplayName(t *testing.T) {
	m := newManager(t, newStubPort())
	if _, err := m.Store().Save(testSnapshot("eredeti"), "2026-02-14_10-30-00_eredeti.json"); err != nil {
		t.Fatal(err)
	}
	item, err := m.Store().Rename("2026-02-14_10-30-00_eredeti.json", "átnevezett")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if item.SnapshotName != "átnevezett" || item.FileName != "2026-02-14_10-30-00_eredeti.json" {
		t.Fatalf("renamed = %+v", item)
	}
	snap, err := m.Store().Load(item.FileName)
	if err != nil {
		t.Fatal(err)
	}
	if snap.SnapshotName != "átnevezett" {
		t.Errorf("persisted name = %q", snap.SnapshotName)
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	m := newManager(t, newStubPort())
	snap := testSnapshot("régi formátum")
	snap.Version = 99
	data := `{"version":99,"snapshotName":"régi","createdAt":"2024-01-01T00:00:00Z",` +
		`"document":{"name":"a.psd","widthPx":100,"heightPx":100,"dpi":300},` +
		`"board":{"widthCm":100,"heightCm":70},"layers":[]}`
	if err := os.MkdirAll(m.Store().Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(m.Store().Dir(), "2024-01-01_00-00-00_regi.json"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Store().Load("2024-01-01_00-00-00_regi.json"); !errors.Is(err, domain.ErrUnsupportedVersion) {
		t.Fatalf("want ErrUnsupportedVersion, got %v", err)
	}
	if _, err := m.Store().Save(snap, "x.json"); !errors.Is(err, domain.ErrUnsupportedVersion) {
		t.Fatalf("save gate: want ErrUnsupportedVersion, got %v", err)
	}
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	m := newManager(t, newStubPort())
	if err := os.MkdirAll(m.Store().Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(m.Store().Dir(), "hianyos.json"), []byte(`{"version":3,"snapshotName":"x"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := m.Store().Load("hianyos.json")
	if err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("want schema error, got %v", err)
	}
}

func TestStoreRejectsBadFileNames(t *testing.T) {
	store := NewStoreDir(t.TempDir())
	for _, name := range []string{"", "..", "a/b.json", `a\b.json`, "no-extension"} {
		if _, err := store.Load(name); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("Load(%q): want invalid name error, got %v", name, err)
		}
	}
}

func TestNewStorePlacesLayoutsBesideDocument(t *testing.T) {
	store := NewStore("/munka/tablo/osztaly-9b.psd")
	if store.Dir() != filepath.Join("/munka/tablo", LayoutsDirName) {
		t.Fatalf("dir = %q", store.Dir())
	}
}
