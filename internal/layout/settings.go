/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"context"
	"fmt"
	"strconv"

	"log/slog"

	"tablostudio/internal/domain"
	"tablostudio/internal/host"
	applog "tablostudio/internal/log"
)

// Settings holds the user-tunable layout parameters. Every setter persists
// through the host first and mutates memory only on confirmed success, so
// the in-memory and persisted values never diverge.
type Settings struct {
	port host.Port
	log  *slog.Logger

	MarginCm         float64
	StudentSizeCm    float64
	TeacherSizeCm    float64
	GapHCm           float64
	GapVCm           float64
	NameGapCm        float64
	NameBreakAfter   int
	TextAlign        domain.Justification
	GridAlign        string
	PositionGapCm    float64
	PositionFontSize int

	SampleSizeLarge        int
	SampleSizeSmall        int
	SampleUseLargeSize     bool
	SampleWatermarkText    string
	SampleWatermarkColor   string
	SampleWatermarkOpacity float64
}

// Persistence keys.
const (
	keyMargin             = "marginCm"
	keyStudentSize        = "studentSizeCm"
	keyTeacherSize        = "teacherSizeCm"
	keyGapH               = "gapHCm"
	keyGapV               = "gapVCm"
	keyNameGap            = "nameGapCm"
	keyNameBreakAfter     = "nameBreakAfter"
	keyTextAlign          = "textAlign"
	keyGridAlign          = "gridAlign"
	keyPositionGap        = "positionGapCm"
	keyPositionFontSize   = "positionFontSize"
	keySampleSizeLarge    = "sampleSizeLarge"
	keySampleSizeSmall    = "sampleSizeSmall"
	keySampleUseLargeSize = "sampleUseLargeSize"
	keySampleWmText       = "sampleWatermarkText"
	keySampleWmColor      = "sampleWatermarkColor"
	keySampleWmOpacity    = "sampleWatermarkOpacity"
)

// NewSettings returns Settings with the application defaults over the
// given port.
func NewSettings(port host.Port) *Settings {
	return &Settings{
		port:                   port,
		log:                    applog.WithComponent("settings"),
		MarginCm:               2,
		StudentSizeCm:          6,
		TeacherSizeCm:          6,
		GapHCm:                 2,
		GapVCm:                 3,
		NameGapCm:              0.5,
		NameBreakAfter:         1,
		TextAlign:              domain.JustifyCenter,
		GridAlign:              "center",
		PositionGapCm:          0.15,
		PositionFontSize:       18,
		SampleSizeLarge:        4000,
		SampleSizeSmall:        2000,
		SampleUseLargeSize:     false,
		SampleWatermarkText:    "MINTA",
		SampleWatermarkColor:   "white",
		SampleWatermarkOpacity: 0.15,
	}
}

func (s *Settings) persistFloat(ctx context.Context, key string, v float64, dst *float64) error {
	if err := s.port.StoreSetting(ctx, key, strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
		s.log.Warn("setting not persisted", "key", key, "err", err)
		return fmt.Errorf("persist %s: %w", key, err)
	}
	*dst = v
	return nil
}

func (s *Settings) persistInt(ctx context.Context, key string, v int, dst *int) error {
	if err := s.port.StoreSetting(ctx, key, strconv.Itoa(v)); err != nil {
		s.log.Warn("setting not persisted", "key", key, "err", err)
		return fmt.Errorf("persist %s: %w", key, err)
	}
	*dst = v
	return nil
}

func (s *Settings) persistString(ctx context.Context, key, v string, dst *string) error {
	if err := s.port.StoreSetting(ctx, key, v); err != nil {
		s.log.Warn("setting not persisted", "key", key, "err", err)
		return fmt.Errorf("persist %s: %w", key, err)
	}
	*dst = v
	return nil
}

func (s *Settings) SetMargin(ctx context.Context, v float64) error {
	return s.persistFloat(ctx, keyMargin, v, &s.MarginCm)
}

func (s *Settings) SetStudentSize(ctx context.Context, v float64) error {
	return s.persistFloat(ctx, keyStudentSize, v, &s.StudentSizeCm)
}

func (s *Settings) SetTeacherSize(ctx context.Context, v float64) error {
	return s.persistFloat(ctx, keyTeacherSize, v, &s.TeacherSizeCm)
}

func (s *Settings) SetGapH(ctx context.Context, v float64) error {
	return s.persistFloat(ctx, keyGapH, v, &s.GapHCm)
}

func (s *Settings) SetGapV(ctx context.Context, v float64) error {
	return s.persistFloat(ctx, keyGapV, v, &s.GapVCm)
}

func (s *Settings) SetNameGap(ctx context.Context, v float64) error {
	return s.persistFloat(ctx, keyNameGap, v, &s.NameGapCm)
}

func (s *Settings) SetNameBreakAfter(ctx context.Context, v int) error {
	return s.persistInt(ctx, keyNameBreakAfter, v, &s.NameBreakAfter)
}

func (s *Settings) SetTextAlign(ctx context.Context, v domain.Justification) error {
	if !v.Valid() {
		return fmt.Errorf("invalid text align %q", v)
	}
	str := string(v)
	if err := s.persistString(ctx, keyTextAlign, str, &str); err != nil {
		return err
	}
	s.TextAlign = v
	return nil
}

func (s *Settings) SetGridAlign(ctx context.Context, v string) error {
	switch v {
	case "left", "center", "right":
	default:
		return fmt.Errorf("invalid grid align %q", v)
	}
	return s.persistString(ctx, keyGridAlign, v, &s.GridAlign)
}

func (s *Settings) SetPositionGap(ctx context.Context, v float64) error {
	return s.persistFloat(ctx, keyPositionGap, v, &s.PositionGapCm)
}

func (s *Settings) SetPositionFontSize(ctx context.Context, v int) error {
	return s.persistInt(ctx, keyPositionFontSize, v, &s.PositionFontSize)
}

func (s *Settings) SetSampleSizeLarge(ctx context.Context, v int) error {
	return s.persistInt(ctx, keySampleSizeLarge, v, &s.SampleSizeLarge)
}

func (s *Settings) SetSampleSizeSmall(ctx context.Context, v int) error {
	return s.persistInt(ctx, keySampleSizeSmall, v, &s.SampleSizeSmall)
}

func (s *Settings) SetSampleUseLargeSize(ctx context.Context, v bool) error {
	if err := s.port.StoreSetting(ctx, keySampleUseLargeSize, strconv.FormatBool(v)); err != nil {
		return fmt.Errorf("persist %s: %w", keySampleUseLargeSize, err)
	}
	s.SampleUseLargeSize = v
	return nil
}

func (s *Settings) SetSampleWatermarkText(ctx context.Context, v string) error {
	return s.persistString(ctx, keySampleWmText, v, &s.SampleWatermarkText)
}

func (s *Settings) SetSampleWatermarkColor(ctx context.Context, v string) error {
	if v != "white" && v != "black" {
		return fmt.Errorf("invalid watermark color %q", v)
	}
	return s.persistString(ctx, keySampleWmColor, v, &s.SampleWatermarkColor)
}

func (s *Settings) SetSampleWatermarkOpacity(ctx context.Context, v float64) error {
	return s.persistFloat(ctx, keySampleWmOpacity, v, &s.SampleWatermarkOpacity)
}

// Load bulk-fetches all persisted parameters. Missing or unparsable values
// keep their defaults; only a failed fetch of the whole set is an error.
func (s *Settings) Load(ctx context.Context) error {
	stored, err := s.port.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	loadFloat(stored, keyMargin, &s.MarginCm)
	loadFloat(stored, keyStudentSize, &s.StudentSizeCm)
	loadFloat(stored, keyTeacherSize, &s.TeacherSizeCm)
	loadFloat(stored, keyGapH, &s.GapHCm)
	loadFloat(stored, keyGapV, &s.GapVCm)
	loadFloat(stored, keyNameGap, &s.NameGapCm)
	loadInt(stored, keyNameBreakAfter, &s.NameBreakAfter)
	if v, ok := stored[keyTextAlign]; ok && domain.Justification(v).Valid() {
		s.TextAlign = domain.Justification(v)
	}
	if v, ok := stored[keyGridAlign]; ok {
		switch v {
		case "left", "center", "right":
			s.GridAlign = v
		}
	}
	loadFloat(stored, keyPositionGap, &s.PositionGapCm)
	loadInt(stored, keyPositionFontSize, &s.PositionFontSize)
	loadInt(stored, keySampleSizeLarge, &s.SampleSizeLarge)
	loadInt(stored, keySampleSizeSmall, &s.SampleSizeSmall)
	if v, ok := stored[keySampleUseLargeSize]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.SampleUseLargeSize = b
		}
	}
	if v, ok := stored[keySampleWmText]; ok {
		s.SampleWatermarkText = v
	}
	if v, ok := stored[keySampleWmColor]; ok && (v == "white" || v == "black") {
		s.SampleWatermarkColor = v
	}
	loadFloat(stored, keySampleWmOpacity, &s.SampleWatermarkOpacity)
	return nil
}

func loadFloat(m map[string]string, key string, dst *float64) {
	if v, ok := m[key]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func loadInt(m map[string]string, key string, dst *int) {
	if v, ok := m[key]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// NameSettings projects the caption parameters for embedding in templates
// and snapshots.
func (s *Settings) NameSettings() domain.NameSettings {
	return domain.NameSettings{
		NameGapCm:      s.NameGapCm,
		NameBreakAfter: s.NameBreakAfter,
		TextAlign:      s.TextAlign,
	}
}

// BoardConfig combines a board size with the current packing parameters.
func (s *Settings) BoardConfig(widthCm, heightCm float64) domain.BoardConfig {
	return domain.BoardConfig{
		WidthCm:   widthCm,
		HeightCm:  heightCm,
		MarginCm:  s.MarginCm,
		GapHCm:    s.GapHCm,
		GapVCm:    s.GapVCm,
		GridAlign: s.GridAlign,
	}
}
