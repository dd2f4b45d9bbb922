/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package host is the bridge to the externally scriptable image editor.
// It exposes one low-level run-script primitive plus key/value persistence
// for layout settings; everything above it depends only on the Port
// interface so core logic works unchanged without a reachable editor.
package host

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotAvailable is returned by operations that require a reachable editor
// process when none is configured or running.
var ErrNotAvailable = errors.New("editor host not available")

// Markers embedded in script output.
const (
	// LayoutToken precedes the JSON payload of a layout read.
	LayoutToken = "__LAYOUT_JSON__"
	// SaveCloseMarker confirms a completed save-and-close round-trip.
	SaveCloseMarker = "__SAVE_CLOSE__OK"
)

// Request describes one script invocation. TargetDocument is the path of
// the document the script should act on; the bridge auto-opens it when it
// is not the active document.
type Request struct {
	Script         string
	Payload        any
	TargetDocument string
}

// Result is the host's reply. Output is unstructured text; callers that
// expect structured data must run it through ParsePayload and treat a parse
// failure as terminal even when Success is true.
type Result struct {
	Success bool
	Output  string
	Error   string
}

// Port is the capability-checked interface every layout component depends
// on. A Null implementation satisfies the not-connected branch uniformly.
type Port interface {
	Available() bool
	RunScript(ctx context.Context, req Request) (Result, error)
	StoreSetting(ctx context.Context, key, value string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
}

// PayloadError reports a protocol-parse failure: the delimiter token was
// missing from the output or the JSON after it was malformed.
type PayloadError struct {
	Token  string
	Reason string
	Err    error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payload after %s: %s: %v", e.Token, e.Reason, e.Err)
	}
	return fmt.Sprintf("payload after %s: %s", e.Token, e.Reason)
}

func (e *PayloadError) Unwrap() error { return e.Err }

// ParsePayload locates token in output and decodes the JSON document that
// follows it into dest. The payload runs from the first byte after the
// token to the end of its line. A missing token or malformed JSON yields a
// *PayloadError; the host's own success flag never overrides this.
func ParsePayload(output, token string, dest any) error {
	idx := strings.Index(output, token)
	if idx < 0 {
		return &PayloadError{Token: token, Reason: "token not found"}
	}
	raw := output[idx+len(token):]
	if nl := strings.IndexAny(raw, "\r\n"); nl >= 0 {
		raw = raw[:nl]
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return &PayloadError{Token: token, Reason: "empty payload"}
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return &PayloadError{Token: token, Reason: "malformed JSON", Err: err}
	}
	return nil
}
