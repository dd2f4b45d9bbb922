/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package naming holds the pure path and file naming helpers: accent-folding
// slugification, board size parsing and the deterministic project folder and
// output file conventions.
package naming

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Hungarian accented letters folded to their ASCII base.
var accentFold = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ö': 'o', 'ő': 'o', 'ú': 'u', 'ü': 'u', 'ű': 'u',
	'Á': 'A', 'É': 'E', 'Í': 'I', 'Ó': 'O', 'Ö': 'O', 'Ő': 'O', 'Ú': 'U', 'Ü': 'U', 'Ű': 'U',
}

// Slugify folds accents, lower-cases, collapses every run of characters
// outside [a-z0-9] into one separator and trims leading/trailing separators.
// Idempotent: Slugify(Slugify(x)) == Slugify(x).
func Slugify(text, separator string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if f, ok := accentFold[r]; ok {
			r = f
		}
		b.WriteRune(unicode.ToLower(r))
	}
	lowered := b.String()

	var out strings.Builder
	out.Grow(len(lowered))
	inRun := false
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
			inRun = false
			continue
		}
		if !inRun {
			out.WriteString(separator)
			inRun = true
		}
	}
	s := out.String()
	s = strings.TrimPrefix(s, separator)
	s = strings.TrimSuffix(s, separator)
	return s
}

// SanitizeName slugifies with a hyphen separator, used for display-derived
// file names.
func SanitizeName(text string) string { return Slugify(text, "-") }

// SanitizePathName slugifies with an underscore separator, used for folder
// names.
func SanitizePathName(text string) string { return Slugify(text, "_") }

// Size is a parsed board size in centimeters.
type Size struct {
	WidthCm  int
	HeightCm int
}

// kistablo is the fixed small-board alias.
var kistabloSize = Size{WidthCm: 100, HeightCm: 70}

// ParseSizeValue recognizes the "kistablo" alias or a "<H>x<W>" token
// (height x width, both positive integers, cm). Anything else reports
// ok=false.
func ParseSizeValue(value string) (Size, bool) {
	if value == "kistablo" {
		return kistabloSize, true
	}
	h, w, ok := splitSize(value)
	if !ok {
		return Size{}, false
	}
	return Size{WidthCm: w, HeightCm: h}, true
}

func splitSize(value string) (h, w int, ok bool) {
	i := strings.IndexByte(value, 'x')
	if i <= 0 || i == len(value)-1 {
		return 0, 0, false
	}
	hs, ws := value[:i], value[i+1:]
	if !allDigits(hs) || !allDigits(ws) {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, false
	}
	w, err = strconv.Atoi(ws)
	if err != nil {
		return 0, 0, false
	}
	if h <= 0 || w <= 0 {
		return 0, 0, false
	}
	return h, w, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ProjectContext carries the display strings a project folder name is
// derived from.
type ProjectContext struct {
	SchoolName  string
	ProjectName string
	ClassName   string
}

// BuildProjectFolderName derives the folder slug: school name if present,
// otherwise project name, with the class token appended. The class token
// keeps letters, digits and Hungarian accented letters and drops everything
// else before slugification.
func BuildProjectFolderName(ctx ProjectContext) string {
	base := ctx.SchoolName
	if base == "" {
		base = ctx.ProjectName
	}
	classCompact := compactClass(ctx.ClassName)
	if classCompact != "" {
		return SanitizePathName(base + " " + classCompact)
	}
	return SanitizePathName(base)
}

func compactClass(class string) string {
	var b strings.Builder
	for _, r := range class {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			if _, ok := accentFold[r]; ok {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// DefaultPartnerSlug is used when no brand name is configured.
const DefaultPartnerSlug = "photostack"

// OutputFileName builds `<folder>_<sizeToken>_<dpi>dpi.<ext>`.
func OutputFileName(folder, sizeToken string, dpi int, ext string) string {
	return fmt.Sprintf("%s_%s_%ddpi.%s", folder, sizeToken, dpi, ext)
}

// OutputPath builds the full export path
// `<workDir>/<partnerSlug>/<year>/<folder>/<folder>_<size>_<dpi>dpi.<ext>`.
func OutputPath(workDir, partnerSlug, year, folder, sizeToken string, dpi int, ext string) string {
	if partnerSlug == "" {
		partnerSlug = DefaultPartnerSlug
	}
	return path.Join(workDir, partnerSlug, year, folder, OutputFileName(folder, sizeToken, dpi, ext))
}

// snapshotTimestampLayout is the filename-safe timestamp format used for
// snapshot files.
const snapshotTimestampLayout = "2006-01-02_15-04-05"

// SnapshotFileName builds `<timestamp>_<slug>.json` for a snapshot display
// name.
func SnapshotFileName(ts time.Time, name string) string {
	return ts.Format(snapshotTimestampLayout) + "_" + SanitizeName(name) + ".json"
}

// SnapshotFileNameEdited is SnapshotFileName with an "-edited" marker before
// the extension, used by save-as-new.
func SnapshotFileNameEdited(ts time.Time, name string) string {
	return ts.Format(snapshotTimestampLayout) + "_" + SanitizeName(name) + "-edited.json"
}
