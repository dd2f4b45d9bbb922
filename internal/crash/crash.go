/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a written crash report instead of a bare
// stack dump on stderr.
package crash

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "tablostudio/internal/log"
	"tablostudio/internal/telemetry"
	"tablostudio/internal/version"
)

// ReportsDirName is created under the work directory for crash reports.
const ReportsDirName = "crashes"

// exitFn is swapped out in tests so Recover can be exercised without
// terminating the test process.
var exitFn = os.Exit

// Recover captures a panic, logs it with the stack, writes a report file
// under workDir (or the system temp dir when workDir is empty) and exits
// non-zero.
//
// Usage: defer func() { crash.Recover(workDir) }()
func Recover(workDir string) {
	r := recover()
	if r == nil {
		return
	}
	l := applog.WithComponent("crash")
	stack := debug.Stack()
	l.Error("panic recovered", "panic", r, "stack", string(stack))

	reportPath, err := writeReport(workDir, r, stack)
	if err != nil {
		l.Error("crash report write failed", "err", err, "path", reportPath)
	}
	fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath)
	fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH)
	exitFn(2)
}

func writeReport(workDir string, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if workDir != "" {
		dir = filepath.Join(workDir, ReportsDirName)
		_ = os.MkdirAll(dir, 0o755)
	}
	path := filepath.Join(dir, fmt.Sprintf("crash-%s.log", time.Now().Format("20060102-150405")))

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Tablo Studio Crash Report\n")
	fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&buf, "Version: %s\n", version.String())
	fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if workDir != "" {
		fmt.Fprintf(&buf, "WorkDir: %s\n", workDir)
	}
	fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	fmt.Fprintf(&buf, "Stack:\n%s\n", stack)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return path, err
	}
	// Uploaded only when the user opted in and configured a crash URL.
	telemetry.UploadCrash(buf.Bytes())
	return path, nil
}
