/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package template

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"tablostudio/internal/domain"
	"tablostudio/internal/host"
	"tablostudio/internal/layout"
	applog "tablostudio/internal/log"
)

// Engine captures templates from the live document and applies stored ones
// back through the host.
type Engine struct {
	port  host.Port
	ops   *layout.Operations
	store *Store
	log   *slog.Logger

	now func() time.Time
}

// NewEngine wires an Engine over a host port, layout operations and a store.
func NewEngine(port host.Port, ops *layout.Operations, store *Store) *Engine {
	return &Engine{
		port:  port,
		ops:   ops,
		store: store,
		log:   applog.WithComponent("template"),
		now:   time.Now,
	}
}

// Store exposes the underlying template store.
func (e *Engine) Store() *Store { return e.store }

// SaveTemplate reads the current layout, abstracts it into slots and
// persists the result under a fresh id.
func (e *Engine) SaveTemplate(ctx context.Context, name string, widthCm, heightCm float64, targetDoc string) (domain.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Template{}, errors.New("template name is required")
	}
	fl, err := e.ops.ReadFullLayout(ctx, widthCm, heightCm, targetDoc)
	if err != nil {
		return domain.Template{}, fmt.Errorf("read layout for template: %w", err)
	}
	slots := ExtractSlots(fl.Layers)
	now := e.now()
	t := domain.Template{
		Version:      domain.TemplateVersion,
		Type:         "template",
		ID:           fmt.Sprintf("tmpl-%d", now.UnixMilli()),
		TemplateName: name,
		CreatedAt:    now.UTC().Format(time.RFC3339),
		Source: domain.TemplateSource{
			DocumentName: fl.Document.Name,
			WidthPx:      fl.Document.WidthPx,
			HeightPx:     fl.Document.HeightPx,
			DPI:          fl.Document.DPI,
		},
		Board:        fl.Board,
		NameSettings: fl.NameSettings,
		StudentSlots: slots.StudentSlots,
		TeacherSlots: slots.TeacherSlots,
		FixedLayers:  slots.FixedLayers,
	}
	if _, err := e.store.Save(t); err != nil {
		return domain.Template{}, err
	}
	e.log.Info("template captured",
		"id", t.ID,
		"studentSlots", len(t.StudentSlots),
		"teacherSlots", len(t.TeacherSlots),
		"fixedLayers", len(t.FixedLayers))
	return t, nil
}

// ApplyTemplate loads the template and hands it to the host for
// application on the target document.
func (e *Engine) ApplyTemplate(ctx context.Context, id, targetDoc string) error {
	t, err := e.store.Load(id)
	if err != nil {
		return err
	}
	if !e.port.Available() {
		return host.ErrNotAvailable
	}
	res, err := e.port.RunScript(ctx, host.Request{
		Script:         "apply-template",
		Payload:        map[string]any{"template": t},
		TargetDocument: targetDoc,
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("apply-template: %s", res.Error)
	}
	e.log.Info("template applied", "id", id, "doc", targetDoc)
	return nil
}
