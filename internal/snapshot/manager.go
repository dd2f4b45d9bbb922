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
	"fmt"
	"strings"
	"time"

	"log/slog"

	"tablostudio/internal/domain"
	"tablostudio/internal/host"
	"tablostudio/internal/layout"
	applog "tablostudio/internal/log"
	"tablostudio/internal/naming"
)

// Manager captures snapshots from the live document and restores stored
// ones through the host.
type Manager struct {
	port  host.Port
	ops   *layout.Operations
	store *Store
	log   *slog.Logger

	now func() time.Time
}

// NewManager wires a Manager over a host port, layout operations and a store.
func NewManager(port host.Port, ops *layout.Operations, store *Store) *Manager {
	return &Manager{
		port:  port,
		ops:   ops,
		store: store,
		log:   applog.WithComponent("snapshot"),
		now:   time.Now,
	}
}

// Store exposes the underlying snapshot store.
func (m *Manager) Store() *Store { return m.store }

func buildSnapshot(name string, now time.Time, fl layout.FullLayout) domain.Snapshot {
	return domain.Snapshot{
		Version:      domain.SnapshotVersion,
		SnapshotName: name,
		CreatedAt:    now.UTC().Format(time.RFC3339),
		Document:     fl.Document,
		Board:        fl.Board,
		NameSettings: fl.NameSettings,
		Layers:       fl.Layers,
	}
}

// Save reads the current layout and persists it as a new snapshot named
// after the given display name.
func (m *Manager) Save(ctx context.Context, name string, widthCm, heightCm float64, targetDoc string) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, errors.New("snapshot name is required")
	}
	fl, err := m.ops.ReadFullLayout(ctx, widthCm, heightCm, targetDoc)
	if err != nil {
		return Item{}, fmt.Errorf("read layout for snapshot: %w", err)
	}
	now := m.now()
	return m.store.Save(buildSnapshot(name, now, fl), naming.SnapshotFileName(now, name))
}

// SaveAsNew persists an edited snapshot under a fresh file, marking the
// display name and leaving the original file untouched.
func (m *Manager) SaveAsNew(snap domain.Snapshot, originalName string) (Item, error) {
	originalName = strings.TrimSpace(originalName)
	if originalName == "" {
		return Item{}, errors.New("snapshot name is required")
	}
	now := m.now()
	snap.SnapshotName = originalName + " (edited)"
	snap.CreatedAt = now.UTC().Format(time.RFC3339)
	return m.store.Save(snap, naming.SnapshotFileNameEdited(now, originalName))
}

type restorePayload struct {
	domain.Snapshot
	RestoreGroups [][]string `json:"restoreGroups,omitempty"`
}

// Restore loads the snapshot and hands it to the host for application. A
// non-empty restoreGroups narrows the restore to layers under those group
// path prefixes; the prefixes also ride in the payload so the host only
// touches the selected groups.
func (m *Manager) Restore(ctx context.Context, fileName, targetDoc string, restoreGroups [][]string) error {
	snap, err := m.store.Load(fileName)
	if err != nil {
		return err
	}
	if !m.port.Available() {
		return host.ErrNotAvailable
	}
	payload := restorePayload{
		Snapshot:      snap.FilterGroups(restoreGroups),
		RestoreGroups: restoreGroups,
	}
	res, err := m.port.RunScript(ctx, host.Request{
		Script:         "restore-layout",
		Payload:        payload,
		TargetDocument: targetDoc,
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("restore-layout: %s", res.Error)
	}
	m.log.Info("snapshot restored", "file", fileName, "layers", len(payload.Layers), "doc", targetDoc)
	return nil
}
