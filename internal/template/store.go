/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package template

import (
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

// ErrNotFound is returned when no template file exists for the given id.
var ErrNotFound = errors.New("template not found")

// Store keeps templates as individual JSON files under one directory,
// named <id>.json. Writes are atomic (temp file + rename) so a crash never
// leaves a half-written template behind.
type Store struct {
	dir string
	log *slog.Logger
}

// NewStore returns a Store rooted at dir. The directory is created on the
// first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir, log: applog.WithComponent("template")}
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(id string) string { return filepath.Join(s.dir, id+".json") }

func validID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("template id is required")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("invalid template id %q", id)
	}
	return nil
}

// Save validates and persists the template, returning the file path.
func (s *Store) Save(t domain.Template) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	if err := validID(t.ID); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create template dir: %w", err)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}
	dst := s.path(t.ID)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write template: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit template: %w", err)
	}
	s.log.Info("template saved", "id", t.ID, "name", t.TemplateName, "path", dst)
	return dst, nil
}

// Load reads, schema-checks and decodes one template. A file that fails the
// schema or carries an unknown version is rejected, never partially decoded.
func (s *Store) Load(id string) (domain.Template, error) {
	if err := validID(id); err != nil {
		return domain.Template{}, err
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return domain.Template{}, fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Template{}, fmt.Errorf("read template: %w", err)
	}
	if err := validateSchema(data); err != nil {
		return domain.Template{}, fmt.Errorf("template %q: %w", id, err)
	}
	var t domain.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return domain.Template{}, fmt.Errorf("decode template %q: %w", id, err)
	}
	if err := t.Validate(); err != nil {
		return domain.Template{}, fmt.Errorf("template %q: %w", id, err)
	}
	return t, nil
}

func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(templateSchema), gojsonschema.NewBytesLoader(data))
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

// Info is the listing projection of a stored template.
type Info struct {
	ID           string
	TemplateName string
	CreatedAt    string
	StudentSlots int
	TeacherSlots int
	Path         string
}

// List scans the store directory and returns the readable templates, newest
// first. Unreadable files are logged and skipped so one corrupt template
// never hides the rest.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}
	var out []Info
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		t, err := s.Load(id)
		if err != nil {
			s.log.Warn("skipping unreadable template", "file", e.Name(), "err", err)
			continue
		}
		out = append(out, Info{
			ID:           t.ID,
			TemplateName: t.TemplateName,
			CreatedAt:    t.CreatedAt,
			StudentSlots: len(t.StudentSlots),
			TeacherSlots: len(t.TeacherSlots),
			Path:         s.path(id),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// Delete removes the template file for id.
func (s *Store) Delete(id string) error {
	if err := validID(id); err != nil {
		return err
	}
	err := os.Remove(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	s.log.Info("template deleted", "id", id)
	return nil
}

// Rename updates the display name of a stored template in place. The id and
// file name stay stable.
func (s *Store) Rename(id, newName string) (domain.Template, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return domain.Template{}, errors.New("template name is required")
	}
	t, err := s.Load(id)
	if err != nil {
		return domain.Template{}, err
	}
	t.TemplateName = newName
	if _, err := s.Save(t); err != nil {
		return domain.Template{}, err
	}
	return t, nil
}
