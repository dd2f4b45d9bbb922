/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import "strings"

// BreakName wraps a person name onto two lines for the caption layer.
// Words of at most two characters after removing dots (dr., ifj. and
// similar prefixes) do not count as real words. Names with fewer than
// three real words or fewer than two words stay on one line. A hyphenated
// word before the last word forces the break right after it; otherwise the
// break goes before the word where the running real-word count exceeds
// breakAfter. Lines are joined with a carriage return, which the host's
// text engine renders as a line break.
func BreakName(name string, breakAfter int) string {
	if breakAfter <= 0 {
		return name
	}
	words := strings.Split(name, " ")
	if len(words) < 2 {
		return name
	}
	realCount := 0
	for _, w := range words {
		if !isPrefixWord(w) {
			realCount++
		}
	}
	if realCount < 3 {
		return name
	}
	for i, w := range words {
		if strings.Contains(w, "-") {
			if i < len(words)-1 {
				return strings.Join(words[:i+1], " ") + "\r" + strings.Join(words[i+1:], " ")
			}
			break
		}
	}
	running := 0
	breakIndex := -1
	for i, w := range words {
		if !isPrefixWord(w) {
			running++
		}
		if running > breakAfter && breakIndex == -1 {
			breakIndex = i
		}
	}
	if breakIndex == -1 {
		return name
	}
	return strings.Join(words[:breakIndex], " ") + "\r" + strings.Join(words[breakIndex:], " ")
}

func isPrefixWord(w string) bool {
	return len([]rune(strings.ReplaceAll(w, ".", ""))) <= 2
}
