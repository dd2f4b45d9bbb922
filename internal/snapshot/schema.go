/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package snapshot

// snapshotSchema validates persisted snapshot files before decoding.
// Version 3 of the on-disk format.
const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "tablostudio snapshot v3",
  "type": "object",
  "required": ["version", "snapshotName", "createdAt", "document", "board", "layers"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "snapshotName": {"type": "string"},
    "createdAt": {"type": "string"},
    "document": {
      "type": "object",
      "required": ["name", "widthPx", "heightPx", "dpi"],
      "properties": {
        "name": {"type": "string"},
        "widthPx": {"type": "integer"},
        "heightPx": {"type": "integer"},
        "dpi": {"type": "integer"}
      }
    },
    "board": {
      "type": "object",
      "required": ["widthCm", "heightCm"],
      "properties": {
        "widthCm": {"type": "number"},
        "heightCm": {"type": "number"},
        "marginCm": {"type": "number"},
        "gapHCm": {"type": "number"},
        "gapVCm": {"type": "number"},
        "gridAlign": {"type": "string"}
      }
    },
    "nameSettings": {
      "type": "object",
      "properties": {
        "nameGapCm": {"type": "number"},
        "nameBreakAfter": {"type": "integer"},
        "textAlign": {"type": "string"}
      }
    },
    "layers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["layerName", "x", "y", "width", "height"],
        "properties": {
          "layerName": {"type": "string"},
          "groupPath": {"type": "array", "items": {"type": "string"}},
          "x": {"type": "integer"},
          "y": {"type": "integer"},
          "width": {"type": "integer"},
          "height": {"type": "integer"},
          "kind": {"type": "string"},
          "justification": {"type": "string"}
        }
      }
    }
  }
}`
