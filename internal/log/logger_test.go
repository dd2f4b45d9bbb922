/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		" DEBUG ": slog.LevelDebug,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPrettyHandlerOutput(t *testing.T) {
	var sb strings.Builder
	h := &prettyTextHandler{level: slog.LevelDebug, w: &sb}
	l := slog.New(h)
	l.Info("opening document", slog.String("name", "tablo-2026"), slog.Int("layers", 12))

	out := sb.String()
	if !strings.Contains(out, "INF") {
		t.Errorf("output missing level marker: %q", out)
	}
	if !strings.Contains(out, "opening document") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "name=tablo-2026") || !strings.Contains(out, "layers=12") {
		t.Errorf("output missing attrs: %q", out)
	}
}

func TestPrettyHandlerGroups(t *testing.T) {
	var sb strings.Builder
	h := &prettyTextHandler{level: slog.LevelDebug, w: &sb}
	l := slog.New(h).WithGroup("board").With(slog.Int("width", 2362))
	l.Warn("free zone shrunk")

	out := sb.String()
	if !strings.Contains(out, "board.width=2362") {
		t.Errorf("grouped attr missing: %q", out)
	}
	if !strings.Contains(out, "WRN") {
		t.Errorf("warn level marker missing: %q", out)
	}
}

func TestPrettyHandlerEnabled(t *testing.T) {
	h := &prettyTextHandler{level: slog.LevelWarn, w: &strings.Builder{}}
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TS_LOG_LEVEL", "debug")
	t.Setenv("TS_LOG_FORMAT", "json")
	t.Setenv("TS_LOG_FILE", "/tmp/ts.log")
	opts := FromEnv()
	if opts.Level != "debug" || opts.Format != "json" || opts.File != "/tmp/ts.log" {
		t.Errorf("unexpected opts: %+v", opts)
	}
}

func TestMultiFanOut(t *testing.T) {
	var a, b strings.Builder
	m := &multi{hs: []slog.Handler{
		&prettyTextHandler{level: slog.LevelDebug, w: &a},
		&prettyTextHandler{level: slog.LevelDebug, w: &b},
	}}
	slog.New(m).Info("snapshot saved")
	if !strings.Contains(a.String(), "snapshot saved") || !strings.Contains(b.String(), "snapshot saved") {
		t.Errorf("record not fanned out: a=%q b=%q", a.String(), b.String())
	}
}
