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
	"math"

	"tablostudio/internal/domain"
	"tablostudio/internal/geom"
)

// Photo placeholders are portrait-format: height is 1.5 times the
// configured edge length. The host reports actual layer bounds after
// placement; this ratio is the planning fallback.
const photoAspect = 1.5

// GridParams are the inputs of one grid computation. Students and Teachers
// are layer names in creation order. All cm values are converted to whole
// pixels up front so rounding stays consistent.
type GridParams struct {
	Board            domain.BoardConfig
	DPI              int
	StudentSizeCm    float64
	TeacherSizeCm    float64
	StudentMaxPerRow int
	TeacherMaxPerRow int
	TabloLayout      bool
	Students         []string
	Teachers         []string
}

// Placement is the computed top-left corner for one image layer.
type Placement struct {
	LayerName string `json:"layerName"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

// FreeZone is the vertical pixel band between the header content and the
// student grid, available for subtitle captions.
type FreeZone struct {
	TopPx    int `json:"freeZoneTopPx"`
	BottomPx int `json:"freeZoneBottomPx"`
}

// GridPlan is the result of PlanGrid.
type GridPlan struct {
	Placements []Placement
	FreeZone   *FreeZone
}

// PlanGrid computes deterministic grid placements in rounded pixels.
// Tablo mode places teachers from the top margin and packs the student
// grid against the bottom margin, leaving the free zone in between.
// Normal mode stacks students then teachers from the top.
func PlanGrid(p GridParams) (GridPlan, error) {
	if err := p.Board.Validate(); err != nil {
		return GridPlan{}, err
	}
	if p.DPI <= 0 {
		return GridPlan{}, fmt.Errorf("dpi must be positive, got %d", p.DPI)
	}
	if p.Board.WidthCm <= 0 || p.Board.HeightCm <= 0 {
		return GridPlan{}, fmt.Errorf("board size must be positive: %gx%g cm", p.Board.WidthCm, p.Board.HeightCm)
	}
	if len(p.Students) > 0 && p.StudentSizeCm <= 0 {
		return GridPlan{}, fmt.Errorf("student photo size must be positive, got %g cm", p.StudentSizeCm)
	}
	if len(p.Teachers) > 0 && p.TeacherSizeCm <= 0 {
		return GridPlan{}, fmt.Errorf("teacher photo size must be positive, got %g cm", p.TeacherSizeCm)
	}

	marginPx := geom.CmToPx(p.Board.MarginCm, p.DPI)
	gapHPx := geom.CmToPx(p.Board.GapHCm, p.DPI)
	gapVPx := geom.CmToPx(p.Board.GapVCm, p.DPI)
	boardWPx := geom.CmToPx(p.Board.WidthCm, p.DPI)
	boardHPx := geom.CmToPx(p.Board.HeightCm, p.DPI)

	sW := geom.CmToPx(p.StudentSizeCm, p.DPI)
	sH := geom.CmToPx(p.StudentSizeCm*photoAspect, p.DPI)
	tW := geom.CmToPx(p.TeacherSizeCm, p.DPI)
	tH := geom.CmToPx(p.TeacherSizeCm*photoAspect, p.DPI)

	plan := GridPlan{}

	if p.TabloLayout {
		teacherEndY := marginPx
		if len(p.Teachers) > 0 {
			var placed []Placement
			placed, teacherEndY = packGroup(p.Teachers, tW, tH, marginPx, gapHPx, gapVPx, boardWPx, marginPx, p.TeacherMaxPerRow, p.Board.GridAlign)
			plan.Placements = append(plan.Placements, placed...)
		}

		studentStartY := boardHPx - marginPx
		if len(p.Students) > 0 {
			cols := columnsFor(len(p.Students), sW, marginPx, gapHPx, boardWPx, p.StudentMaxPerRow)
			rows := ceilDiv(len(p.Students), cols)
			gridH := rows*sH + (rows-1)*gapVPx
			studentStartY = boardHPx - marginPx - gapVPx - gridH
			placed, _ := packGroup(p.Students, sW, sH, marginPx, gapHPx, gapVPx, boardWPx, studentStartY, p.StudentMaxPerRow, p.Board.GridAlign)
			plan.Placements = append(plan.Placements, placed...)
		}

		plan.FreeZone = &FreeZone{TopPx: teacherEndY, BottomPx: studentStartY}
		return plan, nil
	}

	startY := marginPx
	if len(p.Students) > 0 {
		var placed []Placement
		placed, startY = packGroup(p.Students, sW, sH, marginPx, gapHPx, gapVPx, boardWPx, startY, p.StudentMaxPerRow, p.Board.GridAlign)
		plan.Placements = append(plan.Placements, placed...)
	}
	if len(p.Teachers) > 0 {
		placed, _ := packGroup(p.Teachers, tW, tH, marginPx, gapHPx, gapVPx, boardWPx, startY, p.TeacherMaxPerRow, p.Board.GridAlign)
		plan.Placements = append(plan.Placements, placed...)
	}
	return plan, nil
}

// columnsFor computes how many photos fit one row, at least 1, capped by
// maxPerRow when set. A photo width that rounds down to zero pixels packs
// in a single column.
func columnsFor(count, photoW, marginPx, gapHPx, boardWPx, maxPerRow int) int {
	availableW := boardWPx - 2*marginPx
	cols := 1
	if photoW+gapHPx > 0 {
		cols = (availableW + gapHPx) / (photoW + gapHPx)
	}
	if cols < 1 {
		cols = 1
	}
	if maxPerRow > 0 && maxPerRow < cols {
		cols = maxPerRow
	}
	return cols
}

func ceilDiv(a, b int) int { return int(math.Ceil(float64(a) / float64(b))) }

// packGroup lays out one group row by row from startTop and returns the
// placements plus the Y where the next group starts (one gap below the
// last row).
func packGroup(names []string, photoW, photoH, marginPx, gapHPx, gapVPx, boardWPx, startTop, maxPerRow int, gridAlign string) ([]Placement, int) {
	availableW := boardWPx - 2*marginPx
	cols := columnsFor(len(names), photoW, marginPx, gapHPx, boardWPx, maxPerRow)

	placements := make([]Placement, 0, len(names))
	row, col := 0, 0
	top := startTop
	for _, name := range names {
		remaining := len(names) - row*cols
		itemsInRow := cols
		if remaining < cols {
			itemsInRow = remaining
		}
		totalRowW := itemsInRow*photoW + (itemsInRow-1)*gapHPx

		var offsetX int
		switch gridAlign {
		case "left":
			offsetX = marginPx
		case "right":
			offsetX = marginPx + (availableW - totalRowW)
		default:
			offsetX = marginPx + (availableW-totalRowW)/2
		}

		placements = append(placements, Placement{
			LayerName: name,
			X:         offsetX + col*(photoW+gapHPx),
			Y:         top,
		})

		col++
		if col >= cols {
			col = 0
			row++
			top += photoH + gapVPx
		}
	}
	if col > 0 {
		top += photoH + gapVPx
	}
	return placements, top
}
