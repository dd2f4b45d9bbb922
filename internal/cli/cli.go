/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cli implements the tablostudio command-line interface.
package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/spf13/cobra"

	"tablostudio/internal/config"
	"tablostudio/internal/host"
	"tablostudio/internal/layout"
	applog "tablostudio/internal/log"
	"tablostudio/internal/snapshot"
	"tablostudio/internal/template"
	"tablostudio/internal/version"
)

const appName = "tablostudio"

// hostSettingsFileName stores the key/value settings the host shares with
// the desktop app, kept next to the config file.
const hostSettingsFileName = "host-settings.json"

// templatesDirName holds the global template store under the config dir.
const templatesDirName = "templates"

// CLI holds the shared state of all commands.
type CLI struct {
	Config   config.AppConfig
	Conn     *host.Connection
	Port     host.Port
	Settings *layout.Settings
	Ops      *layout.Operations
	Log      *slog.Logger

	configDir string
}

// New loads the configuration and wires the full stack. The connection
// starts from the configured executable; detection is a separate command.
func New() (*CLI, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applog.Init(applog.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, File: cfg.Logging.File})

	cfgPath, err := config.ConfigPath()
	if err != nil {
		return nil, err
	}
	cfgDir := filepath.Dir(cfgPath)

	conn := host.NewConnection(cfg.Host.Executable, filepath.Join(cfgDir, hostSettingsFileName), func(exe string) error {
		cfg.Host.Executable = exe
		return config.Save(cfg)
	})
	settings := layout.NewSettings(conn)

	return &CLI{
		Config:    cfg,
		Conn:      conn,
		Port:      conn,
		Settings:  settings,
		Ops:       layout.NewOperations(conn, settings),
		Log:       applog.WithComponent("cli"),
		configDir: cfgDir,
	}, nil
}

// scriptCtx derives the per-script timeout context from the configuration.
func (c *CLI) scriptCtx(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(c.Config.Host.ScriptTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

// templateEngine builds the template engine over the global store.
func (c *CLI) templateEngine() *template.Engine {
	return template.NewEngine(c.Port, c.Ops, template.NewStore(filepath.Join(c.configDir, templatesDirName)))
}

// snapshotManager builds the snapshot manager for the given board file.
func (c *CLI) snapshotManager(docPath string) *snapshot.Manager {
	return snapshot.NewManager(c.Port, c.Ops, snapshot.NewStore(docPath))
}

// loadSettings pulls the persisted layout settings before a command that
// depends on them. Failures fall back to defaults with a warning.
func (c *CLI) loadSettings(ctx context.Context) {
	if !c.Port.Available() {
		return
	}
	if err := c.Settings.Load(ctx); err != nil {
		c.Log.Warn("stored settings not loaded, using defaults", "err", err)
	}
}

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Tablo board layout, template and snapshot engine",
		Long:          "tablostudio computes class-photo board layouts and drives a scriptable image editor: grid arrangement, caption placement, reusable templates and restorable layout snapshots.",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(fmt.Sprintf("%s %s\n", appName, version.String()))

	root.AddCommand(c.hostCommand())
	root.AddCommand(c.settingsCommand())
	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.templateCommand())
	return root
}
