/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"log/slog"

	"github.com/google/uuid"

	applog "tablostudio/internal/log"
)

// Known editor install locations probed before falling back to PATH.
var (
	defaultEditorPathsDarwin = []string{
		"/Applications/Adobe Photoshop 2026/Adobe Photoshop 2026.app",
		"/Applications/Adobe Photoshop 2025/Adobe Photoshop 2025.app",
		"/Applications/Adobe Photoshop 2024/Adobe Photoshop 2024.app",
		"/Applications/Adobe Photoshop CC 2024/Adobe Photoshop CC 2024.app",
	}
	defaultEditorPathsWindows = []string{
		`C:\Program Files\Adobe\Adobe Photoshop 2026\Photoshop.exe`,
		`C:\Program Files\Adobe\Adobe Photoshop 2025\Photoshop.exe`,
		`C:\Program Files\Adobe\Adobe Photoshop 2024\Photoshop.exe`,
		`C:\Program Files\Adobe\Adobe Photoshop CC 2024\Photoshop.exe`,
	}
)

// bridgeBinary is the scripting bridge looked up on PATH when no explicit
// executable is configured.
const bridgeBinary = "tablobridge"

// PersistFunc saves the editor path after a successful configuration so the
// next session starts pre-configured.
type PersistFunc func(executable string) error

// Connection is the live Port implementation. It locates and launches the
// editor, tracks the working directory and the open document, and executes
// scripts by handing a JSON payload file to the bridge executable.
type Connection struct {
	mu         sync.Mutex
	executable string
	workDir    string
	document   string
	settings   string // path of the key/value settings file
	persist    PersistFunc
	log        *slog.Logger
}

// NewConnection builds a Connection. executable may be empty, in which case
// Detect must find one before scripts can run. settingsPath is where
// StoreSetting/LoadSettings keep their key/value file. persist may be nil.
func NewConnection(executable, settingsPath string, persist PersistFunc) *Connection {
	return &Connection{
		executable: executable,
		settings:   settingsPath,
		persist:    persist,
		log:        applog.WithComponent("host"),
	}
}

// Available reports whether an editor executable is configured and present.
func (c *Connection) Available() bool {
	c.mu.Lock()
	exe := c.executable
	c.mu.Unlock()
	if exe == "" {
		return false
	}
	_, err := os.Stat(exe)
	return err == nil
}

// Detect probes the known install locations, then PATH, and keeps the first
// hit. Returns the found path, or ErrNotAvailable when nothing matched.
func (c *Connection) Detect() (string, error) {
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = defaultEditorPathsDarwin
	case "windows":
		candidates = defaultEditorPathsWindows
	}
	for _, p := range candidates {
		if validEditorPath(p) {
			c.setExecutable(p)
			return p, nil
		}
	}
	if p, err := exec.LookPath(bridgeBinary); err == nil {
		c.setExecutable(p)
		return p, nil
	}
	return "", ErrNotAvailable
}

func validEditorPath(p string) bool {
	fi, err := os.Stat(p)
	if err != nil {
		return false
	}
	if runtime.GOOS == "darwin" {
		return strings.HasSuffix(p, ".app") && fi.IsDir()
	}
	return !fi.IsDir()
}

// SetExecutable validates and stores the editor path, persisting it for the
// next session when a persist hook is configured.
func (c *Connection) SetExecutable(p string) error {
	if p == "" || len(p) > 500 {
		return fmt.Errorf("invalid editor path %q", p)
	}
	if !validEditorPath(p) {
		return fmt.Errorf("no editor found at %q", p)
	}
	c.setExecutable(p)
	if c.persist != nil {
		if err := c.persist(p); err != nil {
			c.log.Warn("editor path not persisted", "path", p, "err", err)
		}
	}
	return nil
}

func (c *Connection) setExecutable(p string) {
	c.mu.Lock()
	c.executable = p
	c.mu.Unlock()
}

// SetWorkDir records the working directory used for export paths.
func (c *Connection) SetWorkDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("work dir: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("work dir %q is not a directory", dir)
	}
	c.mu.Lock()
	c.workDir = dir
	c.mu.Unlock()
	return nil
}

// WorkDir returns the configured working directory, empty if unset.
func (c *Connection) WorkDir() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workDir
}

// TrackDocument records the path of the document being edited. Every
// subsequent script request carries it so the host can auto-open the file.
func (c *Connection) TrackDocument(path string) {
	c.mu.Lock()
	c.document = path
	c.mu.Unlock()
}

// Document returns the tracked document path.
func (c *Connection) Document() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.document
}

// Launch starts the editor process without waiting for it.
func (c *Connection) Launch(ctx context.Context) error {
	c.mu.Lock()
	exe := c.executable
	c.mu.Unlock()
	if exe == "" {
		return ErrNotAvailable
	}
	var cmd *exec.Cmd
	if runtime.GOOS == "darwin" {
		cmd = exec.CommandContext(ctx, "open", "-a", exe)
	} else {
		cmd = exec.CommandContext(ctx, exe)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch editor: %w", err)
	}
	c.log.Info("editor launched", "path", exe)
	return nil
}

// RunScript writes the request payload to a temp file and invokes the
// bridge. Stdout becomes Result.Output; a non-zero exit or host-side
// failure is reported in Result, not as a Go error, so callers can pass the
// message through verbatim.
func (c *Connection) RunScript(ctx context.Context, req Request) (Result, error) {
	if !c.Available() {
		return Result{Success: false, Error: "not connected"}, ErrNotAvailable
	}
	if req.Script == "" || strings.Contains(req.Script, "..") || strings.HasPrefix(req.Script, "/") {
		return Result{}, fmt.Errorf("invalid script name %q", req.Script)
	}

	c.mu.Lock()
	exe := c.executable
	doc := c.document
	c.mu.Unlock()
	if req.TargetDocument != "" {
		doc = req.TargetDocument
	}

	args := []string{"-run", req.Script}
	if doc != "" {
		args = append(args, "-doc", doc)
	}
	if req.Payload != nil {
		dataPath, cleanup, err := writePayloadFile(req.Payload)
		if err != nil {
			return Result{}, err
		}
		defer cleanup()
		args = append(args, "-data", dataPath)
	}

	c.log.Debug("running script", "script", req.Script, "doc", doc)
	cmd := exec.CommandContext(ctx, bridgeFor(exe), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		c.log.Warn("script failed", "script", req.Script, "err", msg)
		return Result{Success: false, Output: stdout.String(), Error: msg}, nil
	}
	return Result{Success: true, Output: stdout.String()}, nil
}

// bridgeFor maps the configured editor path to the bridge command. A .app
// bundle or .exe cannot take our arguments directly, so those rely on the
// bridge binary from PATH; a plain binary is treated as the bridge itself.
func bridgeFor(exe string) string {
	if strings.HasSuffix(exe, ".app") || strings.HasSuffix(strings.ToLower(exe), ".exe") {
		return bridgeBinary
	}
	return exe
}

func writePayloadFile(payload any) (string, func(), error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encode payload: %w", err)
	}
	name := filepath.Join(os.TempDir(), "tablo-payload-"+uuid.NewString()+".json")
	if err := os.WriteFile(name, data, 0o600); err != nil {
		return "", nil, fmt.Errorf("write payload: %w", err)
	}
	return name, func() { _ = os.Remove(name) }, nil
}

// OpenDocument asks the host to open the given file and tracks it.
func (c *Connection) OpenDocument(ctx context.Context, path string) error {
	res, err := c.RunScript(ctx, Request{Script: "open-document", Payload: map[string]string{"path": path}})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("open document: %s", res.Error)
	}
	c.TrackDocument(path)
	return nil
}

// SaveAndClose runs the save-and-close script and requires its completion
// marker in the output; a missing marker is a failure even if the script
// exited cleanly.
func (c *Connection) SaveAndClose(ctx context.Context, targetDoc string) error {
	res, err := c.RunScript(ctx, Request{Script: "save-close", TargetDocument: targetDoc})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("save and close: %s", res.Error)
	}
	if !strings.Contains(res.Output, SaveCloseMarker) {
		return &PayloadError{Token: SaveCloseMarker, Reason: "marker not found"}
	}
	return nil
}

// Backup copies the tracked document next to itself with a .bak suffix.
func (c *Connection) Backup() (string, error) {
	doc := c.Document()
	if doc == "" {
		return "", fmt.Errorf("no document tracked")
	}
	data, err := os.ReadFile(doc)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	bak := doc + ".bak"
	if err := os.WriteFile(bak, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return bak, nil
}

// StoreSetting writes one key/value pair into the settings file.
func (c *Connection) StoreSetting(_ context.Context, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, err := c.readSettingsLocked()
	if err != nil {
		return err
	}
	m[key] = value
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.settings), 0o755); err != nil {
		return err
	}
	tmp := c.settings + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, c.settings)
}

// LoadSettings returns all stored key/value pairs; a missing file is an
// empty map, not an error.
func (c *Connection) LoadSettings(_ context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readSettingsLocked()
}

func (c *Connection) readSettingsLocked() (map[string]string, error) {
	m := map[string]string{}
	data, err := os.ReadFile(c.settings)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}
	return m, nil
}
