/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"fmt"
	"testing"

	"tablostudio/internal/domain"
	"tablostudio/internal/geom"
)

func testBoard(align string) domain.BoardConfig {
	return domain.BoardConfig{WidthCm: 100, HeightCm: 70, MarginCm: 2, GapHCm: 2, GapVCm: 3, GridAlign: align}
}

func studentNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("student-%d---%d", i, i)
	}
	return names
}

func TestPlanGridNoOverlapAndInBounds(t *testing.T) {
	const dpi = 300
	params := GridParams{
		Board:         testBoard("center"),
		DPI:           dpi,
		StudentSizeCm: 6,
		TeacherSizeCm: 6,
		TabloLayout:   true,
		Students:      studentNames(24),
		Teachers:      []string{"t-1---100", "t-2---101", "t-3---102"},
	}
	plan, err := PlanGrid(params)
	if err != nil {
		t.Fatalf("PlanGrid: %v", err)
	}
	if len(plan.Placements) != 27 {
		t.Fatalf("placement count = %d, want 27", len(plan.Placements))
	}

	marginPx := geom.CmToPx(2, dpi)
	boardW := geom.CmToPx(100, dpi)
	boardH := geom.CmToPx(70, dpi)
	inner := geom.R(marginPx, marginPx, boardW-2*marginPx, boardH-2*marginPx)

	sW := geom.CmToPx(6, dpi)
	sH := geom.CmToPx(9, dpi)

	rects := make([]geom.Rect, 0, len(plan.Placements))
	for _, p := range plan.Placements {
		r := geom.R(p.X, p.Y, sW, sH)
		if !inner.ContainsRect(r) {
			t.Errorf("placement %s at %+v escapes the margin area %+v", p.LayerName, r, inner)
		}
		rects = append(rects, r)
	}
	for i := range rects {
		for j := i + 1; j < len(rects); j++ {
			if rects[i].Intersects(rects[j]) {
				t.Errorf("placements %d and %d overlap: %+v %+v", i, j, rects[i], rects[j])
			}
		}
	}
}

func TestPlanGridFreeZoneBetweenGroups(t *testing.T) {
	params := GridParams{
		Board:         testBoard("center"),
		DPI:           300,
		StudentSizeCm: 6,
		TeacherSizeCm: 6,
		TabloLayout:   true,
		Students:      studentNames(12),
		Teachers:      []string{"t-1---1", "t-2---2"},
	}
	plan, err := PlanGrid(params)
	if err != nil {
		t.Fatalf("PlanGrid: %v", err)
	}
	if plan.FreeZone == nil {
		t.Fatal("tablo mode must report a free zone")
	}
	if plan.FreeZone.TopPx >= plan.FreeZone.BottomPx {
		t.Fatalf("free zone inverted: %+v", plan.FreeZone)
	}
	// every teacher sits above the zone, every student below it
	sH := geom.CmToPx(9, 300)
	for _, p := range plan.Placements {
		if p.LayerName[0] == 't' {
			if p.Y+sH > plan.FreeZone.TopPx {
				t.Errorf("teacher %s overlaps the free zone top", p.LayerName)
			}
		} else {
			if p.Y < plan.FreeZone.BottomPx {
				t.Errorf("student %s starts above the free zone bottom", p.LayerName)
			}
		}
	}
}

func TestPlanGridAlignment(t *testing.T) {
	base := GridParams{
		Board:         testBoard("left"),
		DPI:           300,
		StudentSizeCm: 6,
		Students:      studentNames(3),
	}
	left, err := PlanGrid(base)
	if err != nil {
		t.Fatal(err)
	}
	marginPx := geom.CmToPx(2, 300)
	if left.Placements[0].X != marginPx {
		t.Fatalf("left-aligned first X = %d, want %d", left.Placements[0].X, marginPx)
	}

	base.Board.GridAlign = "right"
	right, err := PlanGrid(base)
	if err != nil {
		t.Fatal(err)
	}
	sW := geom.CmToPx(6, 300)
	boardW := geom.CmToPx(100, 300)
	gapH := geom.CmToPx(2, 300)
	wantLastRight := boardW - marginPx
	lastX := right.Placements[2].X
	if lastX+sW != wantLastRight {
		t.Fatalf("right-aligned last edge = %d, want %d", lastX+sW, wantLastRight)
	}

	base.Board.GridAlign = "center"
	center, err := PlanGrid(base)
	if err != nil {
		t.Fatal(err)
	}
	rowW := 3*sW + 2*gapH
	wantFirst := marginPx + (boardW-2*marginPx-rowW)/2
	if center.Placements[0].X != wantFirst {
		t.Fatalf("center-aligned first X = %d, want %d", center.Placements[0].X, wantFirst)
	}
}

func TestPlanGridMaxPerRow(t *testing.T) {
	params := GridParams{
		Board:            testBoard("left"),
		DPI:              300,
		StudentSizeCm:    6,
		TabloLayout:      true,
		Students:         studentNames(10),
		StudentMaxPerRow: 4,
	}
	plan, err := PlanGrid(params)
	if err != nil {
		t.Fatal(err)
	}
	// count distinct rows: 10 photos with 4 per row means 3 rows
	rows := map[int]bool{}
	for _, p := range plan.Placements {
		rows[p.Y] = true
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(rows))
	}
}

func TestPlanGridEmptyGroups(t *testing.T) {
	params := GridParams{Board: testBoard("center"), DPI: 300, StudentSizeCm: 6, TeacherSizeCm: 6, TabloLayout: true}
	plan, err := PlanGrid(params)
	if err != nil {
		t.Fatalf("PlanGrid with no layers: %v", err)
	}
	if len(plan.Placements) != 0 {
		t.Fatalf("placements for empty groups: %+v", plan.Placements)
	}
	if plan.FreeZone == nil {
		t.Fatal("empty tablo board still reports the full band as free zone")
	}
}

func TestPlanGridRejectsBadInputs(t *testing.T) {
	good := GridParams{Board: testBoard("center"), DPI: 300, StudentSizeCm: 6}
	bad := good
	bad.DPI = 0
	if _, err := PlanGrid(bad); err == nil {
		t.Error("zero dpi accepted")
	}
	bad = good
	bad.Board.GridAlign = "diagonal"
	if _, err := PlanGrid(bad); err == nil {
		t.Error("bad gridAlign accepted")
	}
	bad = good
	bad.Board.WidthCm = 0
	if _, err := PlanGrid(bad); err == nil {
		t.Error("zero board width accepted")
	}
	bad = good
	bad.StudentSizeCm = 0
	bad.Board.GapHCm = 0
	bad.Students = studentNames(3)
	if _, err := PlanGrid(bad); err == nil {
		t.Error("zero student photo size accepted")
	}
	bad = good
	bad.TeacherSizeCm = -6
	bad.Teachers = []string{"t-1---1"}
	if _, err := PlanGrid(bad); err == nil {
		t.Error("negative teacher photo size accepted")
	}
}

func TestPlanGridSubpixelPhotoWidthPacksOneColumn(t *testing.T) {
	// 0.001 cm rounds to zero pixels at 300 dpi; with no horizontal gap
	// the row capacity has no width to divide by.
	params := GridParams{
		Board:         testBoard("left"),
		DPI:           300,
		StudentSizeCm: 0.001,
		Students:      studentNames(3),
	}
	params.Board.GapHCm = 0
	plan, err := PlanGrid(params)
	if err != nil {
		t.Fatalf("PlanGrid: %v", err)
	}
	if len(plan.Placements) != 3 {
		t.Fatalf("placement count = %d, want 3", len(plan.Placements))
	}
	marginPx := geom.CmToPx(2, 300)
	for _, p := range plan.Placements {
		if p.X != marginPx {
			t.Errorf("placement %s X = %d, want single column at %d", p.LayerName, p.X, marginPx)
		}
	}
}
