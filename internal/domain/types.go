/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for tablo board production.
// Layers mirror the host editor's layer tree; templates and snapshots are
// the two persisted projections of a board's layout state.

import (
	"errors"
	"fmt"
	"strings"
)

// Supported persisted format versions.
const (
	SnapshotVersion = 3
	TemplateVersion = 1
)

// ErrUnsupportedVersion is returned when a persisted record carries a
// version this build does not know how to read.
var ErrUnsupportedVersion = errors.New("unsupported record version")

// Justification is the horizontal text alignment of a caption layer.
type Justification string

const (
	JustifyLeft   Justification = "left"
	JustifyCenter Justification = "center"
	JustifyRight  Justification = "right"
)

// Valid reports whether the justification is one of the known values.
func (j Justification) Valid() bool {
	switch j {
	case JustifyLeft, JustifyCenter, JustifyRight:
		return true
	}
	return false
}

// LayerKind classifies a host layer.
type LayerKind string

const (
	KindText  LayerKind = "text"
	KindImage LayerKind = "image"
	KindShape LayerKind = "shape"
)

// Document describes the host document as reported by a layout read.
type Document struct {
	Name     string `json:"name"`
	WidthPx  int    `json:"widthPx"`
	HeightPx int    `json:"heightPx"`
	DPI      int    `json:"dpi"`
}

// Layer is one addressable element in the host document. Layers are held
// by name and position only, never by host-side identity.
type Layer struct {
	LayerName     string        `json:"layerName"`
	GroupPath     []string      `json:"groupPath"`
	X             int           `json:"x"`
	Y             int           `json:"y"`
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	Kind          LayerKind     `json:"kind"`
	Justification Justification `json:"justification,omitempty"`
}

// InGroup reports whether the layer's group path starts with prefix.
func (l Layer) InGroup(prefix []string) bool {
	if len(l.GroupPath) < len(prefix) {
		return false
	}
	for i, g := range prefix {
		if l.GroupPath[i] != g {
			return false
		}
	}
	return true
}

// GroupKey renders the group path as a slash-joined string, useful for
// logging and map keys.
func (l Layer) GroupKey() string { return strings.Join(l.GroupPath, "/") }

// BoardConfig defines the physical board dimensions and packing parameters.
type BoardConfig struct {
	WidthCm   float64 `json:"widthCm"`
	HeightCm  float64 `json:"heightCm"`
	MarginCm  float64 `json:"marginCm"`
	GapHCm    float64 `json:"gapHCm"`
	GapVCm    float64 `json:"gapVCm"`
	GridAlign string  `json:"gridAlign"`
}

// Validate checks the BoardConfig invariants: non-negative dimensions and a
// known grid alignment.
func (b BoardConfig) Validate() error {
	if b.WidthCm < 0 || b.HeightCm < 0 || b.MarginCm < 0 || b.GapHCm < 0 || b.GapVCm < 0 {
		return fmt.Errorf("board dimensions must be >= 0: %+v", b)
	}
	switch b.GridAlign {
	case "left", "center", "right":
		return nil
	}
	return fmt.Errorf("gridAlign must be left, center or right, got %q", b.GridAlign)
}

// PersonType distinguishes students from teachers on the board.
type PersonType string

const (
	Student PersonType = "student"
	Teacher PersonType = "teacher"
)

// Person is business data projected onto the board. The core never mutates
// a Person, it only derives placeholder layers from it.
type Person struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Type  PersonType `json:"type"`
	Title string     `json:"title,omitempty"`
	Photo string     `json:"photo,omitempty"`
}

// SlotRect is the geometry of one placeholder inside a Slot.
type SlotRect struct {
	X             int           `json:"x"`
	Y             int           `json:"y"`
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	Justification Justification `json:"justification,omitempty"`
}

// Slot pairs an image placeholder with at most one caption placeholder.
// Name is nil when no caption layer matched the image layer's name.
type Slot struct {
	Index int       `json:"index"`
	Image SlotRect  `json:"image"`
	Name  *SlotRect `json:"name"`
}

// NameSettings carries the caption layout parameters embedded in templates
// and snapshots.
type NameSettings struct {
	NameGapCm      float64       `json:"nameGapCm"`
	NameBreakAfter int           `json:"nameBreakAfter"`
	TextAlign      Justification `json:"textAlign"`
}

// TemplateSource records where a template was extracted from.
type TemplateSource struct {
	DocumentName string `json:"documentName"`
	WidthPx      int    `json:"widthPx"`
	HeightPx     int    `json:"heightPx"`
	DPI          int    `json:"dpi"`
}

// Template is a portable, slot-abstracted layout definition.
type Template struct {
	Version      int            `json:"version"`
	Type         string         `json:"type"`
	ID           string         `json:"id"`
	TemplateName string         `json:"templateName"`
	CreatedAt    string         `json:"createdAt"`
	Source       TemplateSource `json:"source"`
	Board        BoardConfig    `json:"board"`
	NameSettings NameSettings   `json:"nameSettings"`
	StudentSlots []Slot         `json:"studentSlots"`
	TeacherSlots []Slot         `json:"teacherSlots"`
	FixedLayers  []Layer        `json:"fixedLayers"`
}

// Validate checks the template invariants: version gate, contiguous slot
// indices and no image/name group members among the fixed layers.
func (t Template) Validate() error {
	if t.Version != TemplateVersion {
		return fmt.Errorf("template version %d: %w", t.Version, ErrUnsupportedVersion)
	}
	if err := checkSlotIndices("studentSlots", t.StudentSlots); err != nil {
		return err
	}
	if err := checkSlotIndices("teacherSlots", t.TeacherSlots); err != nil {
		return err
	}
	for _, l := range t.FixedLayers {
		for _, p := range SlotGroupPrefixes() {
			if l.InGroup(p) {
				return fmt.Errorf("fixed layer %q belongs to slot group %s", l.LayerName, l.GroupKey())
			}
		}
	}
	return nil
}

func checkSlotIndices(field string, slots []Slot) error {
	for i, s := range slots {
		if s.Index != i {
			return fmt.Errorf("%s: index %d at position %d, want contiguous from 0", field, s.Index, i)
		}
	}
	return nil
}

// Snapshot is a full, restorable capture of a document's layout state.
type Snapshot struct {
	Version      int          `json:"version"`
	SnapshotName string       `json:"snapshotName"`
	CreatedAt    string       `json:"createdAt"`
	Document     Document     `json:"document"`
	Board        BoardConfig  `json:"board"`
	NameSettings NameSettings `json:"nameSettings"`
	Layers       []Layer      `json:"layers"`
}

// Validate applies the snapshot version gate.
func (s Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("snapshot version %d: %w", s.Version, ErrUnsupportedVersion)
	}
	return nil
}

// FilterGroups returns a copy of the snapshot narrowed to layers whose
// group path matches one of the given prefixes. An empty prefix list
// returns the snapshot unchanged.
func (s Snapshot) FilterGroups(prefixes [][]string) Snapshot {
	if len(prefixes) == 0 {
		return s
	}
	out := s
	out.Layers = make([]Layer, 0, len(s.Layers))
	for _, l := range s.Layers {
		for _, p := range prefixes {
			if l.InGroup(p) {
				out.Layers = append(out.Layers, l)
				break
			}
		}
	}
	return out
}

// Group path conventions for slot extraction.
var (
	GroupImagesStudents = []string{"Images", "Students"}
	GroupImagesTeachers = []string{"Images", "Teachers"}
	GroupNamesStudents  = []string{"Names", "Students"}
	GroupNamesTeachers  = []string{"Names", "Teachers"}
)

// SlotGroupPrefixes lists the four group path prefixes that take part in
// slot extraction. Layers outside these are fixed layers.
func SlotGroupPrefixes() [][]string {
	return [][]string{GroupImagesStudents, GroupImagesTeachers, GroupNamesStudents, GroupNamesTeachers}
}
