/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"testing"
)

func TestEnvOverridesHostExecutable(t *testing.T) {
	old := os.Getenv(EnvHostExecutable)
	_ = os.Setenv(EnvHostExecutable, "/opt/editor/bin/editor")
	t.Cleanup(func() { _ = os.Setenv(EnvHostExecutable, old) })
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Host.Executable, "/opt/editor/bin/editor"; got != want {
		t.Fatalf("Host.Executable = %q, want %q", got, want)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	old := os.Getenv(EnvTelemetryOptIn)
	_ = os.Setenv(EnvTelemetryOptIn, "true")
	t.Cleanup(func() { _ = os.Setenv(EnvTelemetryOptIn, old) })
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestEnvOverridesScriptTimeout(t *testing.T) {
	old := os.Getenv(EnvScriptTimeoutMs)
	_ = os.Setenv(EnvScriptTimeoutMs, "45000")
	t.Cleanup(func() { _ = os.Setenv(EnvScriptTimeoutMs, old) })
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Host.ScriptTimeoutMs != 45000 {
		t.Fatalf("Host.ScriptTimeoutMs = %d, want 45000", cfg.Host.ScriptTimeoutMs)
	}
}

func TestEnvOverridesScriptTimeoutInvalidIgnored(t *testing.T) {
	old := os.Getenv(EnvScriptTimeoutMs)
	_ = os.Setenv(EnvScriptTimeoutMs, "soon")
	t.Cleanup(func() { _ = os.Setenv(EnvScriptTimeoutMs, old) })
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Host.ScriptTimeoutMs != Defaults().Host.ScriptTimeoutMs {
		t.Fatalf("invalid timeout env should keep default, got %d", cfg.Host.ScriptTimeoutMs)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.File = "C:/tmp/ts.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || dst.Logging.File != "C:/tmp/ts.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeIncludesHostAndWorkDir(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Host.Executable = "D:/Editor/editor.exe"
	src.Host.ScriptTimeoutMs = 30000
	src.General.WorkDir = "D:/Tablos"
	mergeInto(&dst, &src)
	if dst.Host.Executable != "D:/Editor/editor.exe" || dst.Host.ScriptTimeoutMs != 30000 || dst.General.WorkDir != "D:/Tablos" {
		t.Fatalf("host/work dir not merged correctly: %#v %#v", dst.Host, dst.General)
	}
}

func TestMergeEmptyKeepsDefaults(t *testing.T) {
	dst := Defaults()
	src := AppConfig{}
	mergeInto(&dst, &src)
	def := Defaults()
	if dst.Host.ScriptTimeoutMs != def.Host.ScriptTimeoutMs || dst.Logging.Level != def.Logging.Level {
		t.Fatalf("empty file config must keep defaults: %#v", dst)
	}
}

func TestConfigPathNonEmpty(t *testing.T) {
	p, err := ConfigPath()
	if err != nil {
		t.Fatalf("ConfigPath() error: %v", err)
	}
	if p == "" {
		t.Fatal("ConfigPath() returned empty path")
	}
}
