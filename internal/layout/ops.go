/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package layout turns high-level board intents into host script
// invocations and interprets their results. It owns the grid packing and
// free-zone computation, the caption break rule and the tablo pipeline.
package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"tablostudio/internal/domain"
	"tablostudio/internal/host"
	applog "tablostudio/internal/log"
	"tablostudio/internal/naming"
)

// DefaultSubtitleGapPx is the fixed vertical gap between subtitle captions
// inside the free zone.
const DefaultSubtitleGapPx = 30

// Operations orchestrates layout mutations against the host. All entry
// points follow one contract: not connected yields host.ErrNotAvailable
// before any host call, empty inputs are a successful no-op, and host
// failures come back as errors carrying the host's message verbatim.
type Operations struct {
	port     host.Port
	settings *Settings
	log      *slog.Logger
}

// NewOperations wires Operations over a port and settings.
func NewOperations(port host.Port, settings *Settings) *Operations {
	return &Operations{port: port, settings: settings, log: applog.WithComponent("layout")}
}

// Settings exposes the settings owned by this Operations instance.
func (o *Operations) Settings() *Settings { return o.settings }

func (o *Operations) run(ctx context.Context, script string, payload any, targetDoc string) error {
	if !o.port.Available() {
		return host.ErrNotAvailable
	}
	res, err := o.port.RunScript(ctx, host.Request{Script: script, Payload: payload, TargetDocument: targetDoc})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%s: %s", script, res.Error)
	}
	return nil
}

// PersonLayerName encodes the person id into the layer name shared by the
// image and caption layers of one person.
func PersonLayerName(p domain.Person) string {
	return naming.SanitizeName(p.Name) + "---" + p.ID
}

// AddGuides places margin guides on the board. A zero margin is a no-op.
func (o *Operations) AddGuides(ctx context.Context, targetDoc string) error {
	if o.settings.MarginCm <= 0 {
		return nil
	}
	return o.run(ctx, "add-guides", map[string]any{"marginCm": o.settings.MarginCm}, targetDoc)
}

// Subtitle is one caption entry for the free zone.
type Subtitle struct {
	LayerName   string `json:"layerName"`
	DisplayText string `json:"displayText"`
	FontSize    int    `json:"fontSize"`
}

// SubtitleContext carries the project strings the subtitles are built from.
type SubtitleContext struct {
	SchoolName string
	ClassName  string
	ClassYear  string
	Quote      string
}

// DefaultQuote is the subtitle quote used when the project has none.
const DefaultQuote = "„Nem az a fontos, amit adnak, hanem amit adunk.”"

// BuildSubtitles derives the subtitle entries from project data. Pure; the
// year falls back to the current year and the quote to DefaultQuote.
func BuildSubtitles(ctx SubtitleContext) []Subtitle {
	var subs []Subtitle
	if ctx.SchoolName != "" {
		subs = append(subs, Subtitle{LayerName: "iskola-neve", DisplayText: ctx.SchoolName, FontSize: 80})
	}
	if ctx.ClassName != "" {
		subs = append(subs, Subtitle{LayerName: "osztaly", DisplayText: ctx.ClassName, FontSize: 70})
	}
	year := ctx.ClassYear
	if year == "" {
		year = strconv.Itoa(time.Now().Year())
	}
	subs = append(subs, Subtitle{LayerName: "evfolyam", DisplayText: year, FontSize: 70})
	quote := ctx.Quote
	if quote == "" {
		quote = DefaultQuote
	}
	subs = append(subs, Subtitle{LayerName: "idezet", DisplayText: quote, FontSize: 50})
	return subs
}

// AddSubtitleLayers creates the subtitle text layers.
func (o *Operations) AddSubtitleLayers(ctx context.Context, subtitles []Subtitle, targetDoc string) error {
	if len(subtitles) == 0 {
		return nil
	}
	for i := range subtitles {
		if subtitles[i].FontSize == 0 {
			subtitles[i].FontSize = 50
		}
	}
	return o.run(ctx, "add-subtitle-layers", map[string]any{"subtitles": subtitles}, targetDoc)
}

type personPayload struct {
	LayerName   string `json:"layerName"`
	DisplayText string `json:"displayText"`
	Group       string `json:"group"`
	Position    string `json:"position,omitempty"`
	Photo       string `json:"photo,omitempty"`
}

func personPayloads(persons []domain.Person) []personPayload {
	out := make([]personPayload, 0, len(persons))
	for _, p := range persons {
		group := "Teachers"
		if p.Type == domain.Student {
			group = "Students"
		}
		out = append(out, personPayload{
			LayerName:   PersonLayerName(p),
			DisplayText: p.Name,
			Group:       group,
			Position:    p.Title,
			Photo:       p.Photo,
		})
	}
	return out
}

// AddNameLayers creates one caption text layer per person under the Names
// group, pre-broken with the configured break rule.
func (o *Operations) AddNameLayers(ctx context.Context, persons []domain.Person, targetDoc string) error {
	if len(persons) == 0 {
		return nil
	}
	payload := personPayloads(persons)
	for i := range payload {
		payload[i].DisplayText = BreakName(payload[i].DisplayText, o.settings.NameBreakAfter)
	}
	return o.run(ctx, "add-name-layers", map[string]any{
		"persons":   payload,
		"textAlign": o.settings.TextAlign,
	}, targetDoc)
}

// AddImageLayers creates one photo placeholder per person under the Images
// group, sized from the student/teacher settings.
func (o *Operations) AddImageLayers(ctx context.Context, persons []domain.Person, targetDoc string) error {
	if len(persons) == 0 {
		return nil
	}
	return o.run(ctx, "add-image-layers", map[string]any{
		"persons":       personPayloads(persons),
		"studentSizeCm": o.settings.StudentSizeCm,
		"teacherSizeCm": o.settings.TeacherSizeCm,
	}, targetDoc)
}

// ExtraNames are remembrance entries listed below the grid for persons
// without a photo.
type ExtraNames struct {
	Students string
	Teachers string
}

// ExtraNamesOptions selects which lists to include.
type ExtraNamesOptions struct {
	IncludeStudents bool
	IncludeTeachers bool
}

// AddExtraNames inserts or refreshes the extra name blocks.
func (o *Operations) AddExtraNames(ctx context.Context, extra ExtraNames, opts ExtraNamesOptions, targetDoc string) error {
	payload := map[string]any{
		"includeStudents": opts.IncludeStudents,
		"includeTeachers": opts.IncludeTeachers,
		"font":            "ArialMT",
		"fontSize":        20,
		"headerFontSize":  22,
		"textColor":       map[string]int{"r": 0, "g": 0, "b": 0},
		"textAlign":       o.settings.TextAlign,
	}
	if opts.IncludeStudents && extra.Students != "" {
		payload["students"] = map[string]string{
			"header": "Osztálytársaink voltak még:",
			"names":  normalizeNameList(extra.Students),
		}
	}
	if opts.IncludeTeachers && extra.Teachers != "" {
		payload["teachers"] = map[string]string{
			"header": "Tanítottak még:",
			"names":  normalizeNameList(extra.Teachers),
		}
	}
	return o.run(ctx, "add-extra-names", payload, targetDoc)
}

// normalizeNameList trims each line and joins non-empty ones with carriage
// returns, the line separator of the host's text engine.
func normalizeNameList(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if l := strings.TrimSpace(line); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\r")
}

// UpdatePositions creates or refreshes the title/position caption below
// each person's name.
func (o *Operations) UpdatePositions(ctx context.Context, persons []domain.Person, targetDoc string) error {
	if len(persons) == 0 {
		return nil
	}
	return o.run(ctx, "update-positions", map[string]any{
		"persons":          personPayloads(persons),
		"nameBreakAfter":   o.settings.NameBreakAfter,
		"textAlign":        o.settings.TextAlign,
		"nameGapCm":        o.settings.NameGapCm,
		"positionGapCm":    o.settings.PositionGapCm,
		"positionFontSize": o.settings.PositionFontSize,
	}, targetDoc)
}

// LinkLayers re-establishes link relationships for the named layers.
func (o *Operations) LinkLayers(ctx context.Context, layerNames []string, targetDoc string) error {
	if len(layerNames) == 0 {
		return nil
	}
	return o.run(ctx, "link-layers", map[string]any{"layerNames": layerNames}, targetDoc)
}

// UnlinkLayers releases link relationships so the host can reposition the
// named layers independently.
func (o *Operations) UnlinkLayers(ctx context.Context, layerNames []string, targetDoc string) error {
	if len(layerNames) == 0 {
		return nil
	}
	return o.run(ctx, "unlink-layers", map[string]any{"layerNames": layerNames}, targetDoc)
}

// ResizeParams describe a resize of a set of layers; a nil dimension keeps
// the layer's current value.
type ResizeParams struct {
	LayerNames []string `json:"layerNames"`
	Width      *float64 `json:"width"`
	Height     *float64 `json:"height"`
	Unit       string   `json:"unit"` // "cm" or "px"
}

// ResizeLayers resizes the named layers.
func (o *Operations) ResizeLayers(ctx context.Context, params ResizeParams) error {
	if len(params.LayerNames) == 0 {
		return nil
	}
	if params.Unit != "cm" && params.Unit != "px" {
		return fmt.Errorf("resize unit must be cm or px, got %q", params.Unit)
	}
	return o.run(ctx, "resize-layers", params, "")
}

// withUnlinked brackets fn with an unlink/relink pair. Relink runs on every
// exit path; its failure is logged, never propagated over fn's result.
func (o *Operations) withUnlinked(ctx context.Context, layerNames []string, targetDoc string, fn func() error) error {
	if len(layerNames) == 0 {
		return fn()
	}
	if err := o.UnlinkLayers(ctx, layerNames, targetDoc); err != nil {
		return fmt.Errorf("unlink before arrange: %w", err)
	}
	defer func() {
		for _, name := range layerNames {
			if err := o.LinkLayers(ctx, []string{name}, targetDoc); err != nil {
				o.log.Warn("relink failed", "layer", name, "err", err)
			}
		}
	}()
	return fn()
}

// GridRequest is the input of ArrangeGrid and ArrangeTabloLayout.
type GridRequest struct {
	WidthCm          float64
	HeightCm         float64
	DPI              int
	Students         []string
	Teachers         []string
	StudentMaxPerRow int
	TeacherMaxPerRow int
	// LinkedLayerNames are unlinked for the duration of the arrangement.
	LinkedLayerNames []string
	// Overrides for the stored packing settings; zero values defer.
	GapHCm    float64
	GapVCm    float64
	GridAlign string
}

func (o *Operations) gridParams(req GridRequest, tablo bool) GridParams {
	board := o.settings.BoardConfig(req.WidthCm, req.HeightCm)
	if req.GapHCm > 0 {
		board.GapHCm = req.GapHCm
	}
	if req.GapVCm > 0 {
		board.GapVCm = req.GapVCm
	}
	if req.GridAlign != "" {
		board.GridAlign = req.GridAlign
	}
	return GridParams{
		Board:            board,
		DPI:              req.DPI,
		StudentSizeCm:    o.settings.StudentSizeCm,
		TeacherSizeCm:    o.settings.TeacherSizeCm,
		StudentMaxPerRow: req.StudentMaxPerRow,
		TeacherMaxPerRow: req.TeacherMaxPerRow,
		TabloLayout:      tablo,
		Students:         req.Students,
		Teachers:         req.Teachers,
	}
}

type gridReply struct {
	Success        bool `json:"success"`
	FreeZoneTopPx  *int `json:"freeZoneTopPx"`
	FreeZoneBottom *int `json:"freeZoneBottomPx"`
}

// arrangeGrid runs the grid script with the planner's placements riding in
// the payload. The host-reported free zone, when present, wins over the
// planner's.
func (o *Operations) arrangeGrid(ctx context.Context, req GridRequest, tablo bool, targetDoc string) (*FreeZone, error) {
	if !o.port.Available() {
		return nil, host.ErrNotAvailable
	}
	params := o.gridParams(req, tablo)
	plan, err := PlanGrid(params)
	if err != nil {
		return nil, err
	}
	payload := map[string]any{
		"boardWidthCm":  params.Board.WidthCm,
		"boardHeightCm": params.Board.HeightCm,
		"marginCm":      params.Board.MarginCm,
		"studentSizeCm": params.StudentSizeCm,
		"teacherSizeCm": params.TeacherSizeCm,
		"gapHCm":        params.Board.GapHCm,
		"gapVCm":        params.Board.GapVCm,
		"gridAlign":     params.Board.GridAlign,
		"tabloLayout":   tablo,
		"placements":    plan.Placements,
	}
	if req.StudentMaxPerRow > 0 {
		payload["studentMaxPerRow"] = req.StudentMaxPerRow
	}
	if req.TeacherMaxPerRow > 0 {
		payload["teacherMaxPerRow"] = req.TeacherMaxPerRow
	}
	res, err := o.port.RunScript(ctx, host.Request{Script: "arrange-grid", Payload: payload, TargetDocument: targetDoc})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("arrange-grid: %s", res.Error)
	}

	zone := plan.FreeZone
	var reply gridReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(res.Output)), &reply); err == nil {
		if reply.FreeZoneTopPx != nil && reply.FreeZoneBottom != nil {
			zone = &FreeZone{TopPx: *reply.FreeZoneTopPx, BottomPx: *reply.FreeZoneBottom}
		}
	}
	return zone, nil
}

// ArrangeGrid packs the photo grid in normal mode, bracketing the call
// with unlink/relink of the given layer names.
func (o *Operations) ArrangeGrid(ctx context.Context, req GridRequest, targetDoc string) error {
	if !o.port.Available() {
		return host.ErrNotAvailable
	}
	return o.withUnlinked(ctx, req.LinkedLayerNames, targetDoc, func() error {
		_, err := o.arrangeGrid(ctx, req, false, targetDoc)
		return err
	})
}

// ArrangeNames positions caption layers under their paired images.
func (o *Operations) ArrangeNames(ctx context.Context, linkedLayerNames []string, targetDoc string) error {
	if !o.port.Available() {
		return host.ErrNotAvailable
	}
	return o.withUnlinked(ctx, linkedLayerNames, targetDoc, func() error {
		return o.arrangeNames(ctx, o.settings.TextAlign, targetDoc)
	})
}

func (o *Operations) arrangeNames(ctx context.Context, align domain.Justification, targetDoc string) error {
	return o.run(ctx, "arrange-names", map[string]any{
		"nameGapCm":      o.settings.NameGapCm,
		"textAlign":      align,
		"nameBreakAfter": o.settings.NameBreakAfter,
	}, targetDoc)
}

// ArrangeSubtitles distributes subtitle captions inside the free zone.
// gapPx of 0 uses DefaultSubtitleGapPx.
func (o *Operations) ArrangeSubtitles(ctx context.Context, zone FreeZone, gapPx int, targetDoc string) error {
	if gapPx <= 0 {
		gapPx = DefaultSubtitleGapPx
	}
	return o.run(ctx, "arrange-subtitles", map[string]any{
		"freeZoneTopPx":    zone.TopPx,
		"freeZoneBottomPx": zone.BottomPx,
		"subtitleGapPx":    gapPx,
	}, targetDoc)
}

// TabloReport describes the outcome of the tablo pipeline. The grid stage
// is mandatory; caption and subtitle failures are best-effort and recorded
// here instead of failing the pipeline.
type TabloReport struct {
	FreeZone     *FreeZone
	NamesErr     error
	SubtitlesErr error
}

// ArrangeTabloLayout runs the full three-stage composition: grid in tablo
// mode, captions center-aligned, then subtitles in the captured free zone.
// Unlink/relink brackets the whole pipeline once. A grid failure aborts;
// later failures land in the report.
func (o *Operations) ArrangeTabloLayout(ctx context.Context, req GridRequest, targetDoc string) (TabloReport, error) {
	if !o.port.Available() {
		return TabloReport{}, host.ErrNotAvailable
	}
	var report TabloReport
	err := o.withUnlinked(ctx, req.LinkedLayerNames, targetDoc, func() error {
		zone, err := o.arrangeGrid(ctx, req, true, targetDoc)
		if err != nil {
			return err
		}
		report.FreeZone = zone

		if err := o.arrangeNames(ctx, domain.JustifyCenter, targetDoc); err != nil {
			o.log.Warn("name arrangement failed after grid", "err", err)
			report.NamesErr = err
		}
		if zone != nil {
			if err := o.ArrangeSubtitles(ctx, *zone, DefaultSubtitleGapPx, targetDoc); err != nil {
				o.log.Warn("subtitle arrangement failed after grid", "err", err)
				report.SubtitlesErr = err
			}
		}
		return nil
	})
	return report, err
}

// FullLayout is the merged result of a layout read: host-reported document
// and layers plus the caller's board and the current caption settings.
type FullLayout struct {
	Document     domain.Document     `json:"document"`
	Layers       []domain.Layer      `json:"layers"`
	Board        domain.BoardConfig  `json:"board"`
	NameSettings domain.NameSettings `json:"nameSettings"`
}

type layoutPayload struct {
	Document domain.Document `json:"document"`
	Layers   []domain.Layer  `json:"layers"`
}

// ReadFullLayout runs the read-only layout script and decodes the payload
// after the layout token. A missing token or malformed JSON is terminal
// regardless of the host's success flag.
func (o *Operations) ReadFullLayout(ctx context.Context, widthCm, heightCm float64, targetDoc string) (FullLayout, error) {
	if !o.port.Available() {
		return FullLayout{}, host.ErrNotAvailable
	}
	res, err := o.port.RunScript(ctx, host.Request{Script: "read-layout", TargetDocument: targetDoc})
	if err != nil {
		return FullLayout{}, err
	}
	if !res.Success {
		return FullLayout{}, fmt.Errorf("read-layout: %s", res.Error)
	}
	var payload layoutPayload
	if err := host.ParsePayload(res.Output, host.LayoutToken, &payload); err != nil {
		return FullLayout{}, err
	}
	return FullLayout{
		Document:     payload.Document,
		Layers:       payload.Layers,
		Board:        o.settings.BoardConfig(widthCm, heightCm),
		NameSettings: o.settings.NameSettings(),
	}, nil
}
