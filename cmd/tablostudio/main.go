/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tablostudio/internal/cli"
	"tablostudio/internal/crash"
	"tablostudio/internal/telemetry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	app, err := cli.New()
	if err != nil {
		return err
	}
	defer func() { crash.Recover(app.Config.General.WorkDir) }()

	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		telemetry.Default().Flush(flushCtx)
	}()

	return app.RootCommand().ExecuteContext(ctx)
}
