/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package template

// templateSchema validates persisted template files before decoding.
// Version 1 of the on-disk format.
const templateSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "tablostudio template v1",
  "type": "object",
  "required": ["version", "type", "id", "templateName", "createdAt", "source", "board", "nameSettings", "studentSlots", "teacherSlots"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "type": {"const": "template"},
    "id": {"type": "string", "minLength": 1},
    "templateName": {"type": "string"},
    "createdAt": {"type": "string"},
    "source": {
      "type": "object",
      "required": ["documentName", "widthPx", "heightPx", "dpi"],
      "properties": {
        "documentName": {"type": "string"},
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
    "studentSlots": {"type": "array", "items": {"$ref": "#/definitions/slot"}},
    "teacherSlots": {"type": "array", "items": {"$ref": "#/definitions/slot"}},
    "fixedLayers": {"type": "array"}
  },
  "definitions": {
    "rect": {
      "type": "object",
      "required": ["x", "y", "width", "height"],
      "properties": {
        "x": {"type": "integer"},
        "y": {"type": "integer"},
        "width": {"type": "integer"},
        "height": {"type": "integer"},
        "justification": {"type": "string"}
      }
    },
    "slot": {
      "type": "object",
      "required": ["index", "image"],
      "properties": {
        "index": {"type": "integer", "minimum": 0},
        "image": {"$ref": "#/definitions/rect"},
        "name": {"anyOf": [{"$ref": "#/definitions/rect"}, {"type": "null"}]}
      }
    }
  }
}`
