/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package host

import "context"

// Null is the Port used when no editor process is reachable, for example
// when running outside the desktop shell. Every operation degrades to the
// not-connected result without side effects.
type Null struct{}

func (Null) Available() bool { return false }

func (Null) RunScript(_ context.Context, _ Request) (Result, error) {
	return Result{Success: false, Error: "not connected"}, ErrNotAvailable
}

func (Null) StoreSetting(_ context.Context, _, _ string) error { return ErrNotAvailable }

func (Null) LoadSettings(_ context.Context) (map[string]string, error) {
	return nil, ErrNotAvailable
}
