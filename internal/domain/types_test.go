/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestBoardConfigValidate(t *testing.T) {
	good := BoardConfig{WidthCm: 100, HeightCm: 70, MarginCm: 2, GapHCm: 2, GapVCm: 3, GridAlign: "center"}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid board rejected: %v", err)
	}
	bad := good
	bad.MarginCm = -1
	if err := bad.Validate(); err == nil {
		t.Fatal("negative margin accepted")
	}
	bad = good
	bad.GridAlign = "justified"
	if err := bad.Validate(); err == nil {
		t.Fatal("unknown gridAlign accepted")
	}
}

func TestLayerInGroup(t *testing.T) {
	l := Layer{LayerName: "kovacs-anna---42", GroupPath: []string{"Images", "Students"}}
	if !l.InGroup([]string{"Images"}) || !l.InGroup([]string{"Images", "Students"}) {
		t.Fatal("prefix match failed")
	}
	if l.InGroup([]string{"Images", "Teachers"}) || l.InGroup([]string{"Images", "Students", "Extra"}) {
		t.Fatal("non-prefix matched")
	}
}

func TestSnapshotVersionGate(t *testing.T) {
	s := Snapshot{Version: SnapshotVersion}
	if err := s.Validate(); err != nil {
		t.Fatalf("current version rejected: %v", err)
	}
	s.Version = 99
	err := s.Validate()
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("want ErrUnsupportedVersion, got %v", err)
	}
}

func TestTemplateValidate(t *testing.T) {
	tmpl := Template{
		Version:      TemplateVersion,
		Type:         "template",
		StudentSlots: []Slot{{Index: 0}, {Index: 1}},
		TeacherSlots: []Slot{{Index: 0}},
		FixedLayers:  []Layer{{LayerName: "background", GroupPath: []string{"Decor"}}},
	}
	if err := tmpl.Validate(); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}

	broken := tmpl
	broken.StudentSlots = []Slot{{Index: 0}, {Index: 2}}
	if err := broken.Validate(); err == nil {
		t.Fatal("gap in slot indices accepted")
	}

	broken = tmpl
	broken.FixedLayers = []Layer{{LayerName: "stray", GroupPath: []string{"Images", "Students"}}}
	if err := broken.Validate(); err == nil {
		t.Fatal("slot-group layer accepted as fixed layer")
	}

	broken = tmpl
	broken.Version = 5
	if err := broken.Validate(); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("want ErrUnsupportedVersion, got %v", err)
	}
}

func TestSnapshotFilterGroups(t *testing.T) {
	s := Snapshot{
		Version: SnapshotVersion,
		Layers: []Layer{
			{LayerName: "a", GroupPath: []string{"Images", "Students"}},
			{LayerName: "b", GroupPath: []string{"Images", "Teachers"}},
			{LayerName: "c", GroupPath: []string{"Names", "Students"}},
			{LayerName: "d", GroupPath: []string{"Decor"}},
		},
	}
	narrowed := s.FilterGroups([][]string{{"Images", "Students"}})
	if len(narrowed.Layers) != 1 || narrowed.Layers[0].LayerName != "a" {
		t.Fatalf("narrowing failed: %+v", narrowed.Layers)
	}
	// no prefixes means everything
	all := s.FilterGroups(nil)
	if len(all.Layers) != 4 {
		t.Fatalf("nil prefixes must keep all layers, got %d", len(all.Layers))
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	s := Snapshot{
		Version:      SnapshotVersion,
		SnapshotName: "before subtitles",
		CreatedAt:    "2026-03-14T10:00:00Z",
		Document:     Document{Name: "tablo-9b", WidthPx: 11811, HeightPx: 8268, DPI: 300},
		Board:        BoardConfig{WidthCm: 100, HeightCm: 70, MarginCm: 2, GapHCm: 2, GapVCm: 3, GridAlign: "center"},
		NameSettings: NameSettings{NameGapCm: 0.5, NameBreakAfter: 1, TextAlign: JustifyCenter},
		Layers: []Layer{
			{LayerName: "kovacs-anna---42", GroupPath: []string{"Images", "Students"}, X: 236, Y: 500, Width: 709, Height: 709, Kind: KindImage},
			{LayerName: "kovacs-anna---42", GroupPath: []string{"Names", "Students"}, X: 236, Y: 1250, Width: 709, Height: 80, Kind: KindText, Justification: JustifyCenter},
		},
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Snapshot
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Layers) != len(s.Layers) {
		t.Fatalf("layer count changed: %d != %d", len(back.Layers), len(s.Layers))
	}
	for i := range s.Layers {
		a, b := s.Layers[i], back.Layers[i]
		if a.LayerName != b.LayerName || a.GroupKey() != b.GroupKey() || a.X != b.X || a.Y != b.Y || a.Width != b.Width || a.Height != b.Height {
			t.Fatalf("layer %d changed: %+v != %+v", i, a, b)
		}
	}
}
