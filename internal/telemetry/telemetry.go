/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package telemetry is an opt-in, anonymous usage event sender. Everything
// is off by default; without an endpoint URL events are dropped even when
// opted in, and sends never block the caller.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"log/slog"

	applog "tablostudio/internal/log"
	"tablostudio/internal/version"
)

// Environment variables read by FromEnv.
const (
	EnvOptIn     = "TS_TELEMETRY_OPT_IN"
	EnvEventsURL = "TS_TELEMETRY_URL"
	EnvCrashURL  = "TS_CRASH_UPLOAD_URL"
	EnvTimeoutMs = "TS_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "TS_TELEMETRY_DEBUG"
)

// Event names emitted by the application.
const (
	EventArrange       = "arrange"
	EventSnapshotSave  = "snapshot_save"
	EventTemplateApply = "template_apply"
)

// Config controls the sender. Opt-in gates everything.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

// FromEnv reads the configuration from the TS_TELEMETRY_* variables.
func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv(EnvOptIn)),
		EventsURL:    strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:     strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv(EnvDebug) != "",
	}
	if ms := strings.TrimSpace(os.Getenv(EnvTimeoutMs)); ms != "" {
		if d, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Client queues events and sends them from a background goroutine. Errors
// drop the event; telemetry must never surface as an application failure.
type Client struct {
	cfg    Config
	log    *slog.Logger
	http   *http.Client
	queue  chan map[string]any
	closed chan struct{}
	once   sync.Once
}

// New constructs a running client.
func New(cfg Config) *Client {
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		http:   &http.Client{Timeout: cfg.Timeout},
		queue:  make(chan map[string]any, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

var (
	defaultClient *Client
	defaultOnce   sync.Once
)

// Default returns the process-wide client, initialized from the environment
// on first use.
func Default() *Client {
	defaultOnce.Do(func() { defaultClient = New(FromEnv()) })
	return defaultClient
}

// Enabled reports whether events will actually be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event enqueues an anonymous event. Props must not carry personal data;
// a full queue drops the event.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		payload[k] = v
	}
	select {
	case c.queue <- payload:
	default:
	}
}

// Event enqueues on the default client.
func Event(name string, props map[string]any) { Default().Event(name, props) }

// Flush waits briefly for the queue to drain, bounded by ctx and a short
// internal deadline.
func (c *Client) Flush(ctx context.Context) {
	deadline := time.Now().Add(500 * time.Millisecond)
	for len(c.queue) > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// Close stops the background sender.
func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case payload := <-c.queue:
			c.post(c.cfg.EventsURL, "application/json", mustJSON(payload))
		}
	}
}

func mustJSON(v any) []byte {
	b, _ := json.Marshal(v)
	return b
}

func (c *Client) post(url, contentType string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", "err", err)
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry event sent", "url", url)
	}
}

// UploadCrash posts a serialized crash report when opted in and a crash URL
// is configured. The upload runs detached from the crashing goroutine.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	body := append([]byte(nil), report...)
	go c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", body)
}

// UploadCrash posts via the default client.
func UploadCrash(report []byte) { Default().UploadCrash(report) }
