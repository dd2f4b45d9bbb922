/*
 * Copyright (c) 2025 by Tablo Studio Kft., Budapest, Hungary.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package template extracts portable slot-based layout templates from a
// live document and re-applies stored templates through the host.
package template

import "tablostudio/internal/domain"

// Slots is the result of partitioning a layer list.
type Slots struct {
	StudentSlots []domain.Slot
	TeacherSlots []domain.Slot
	FixedLayers  []domain.Layer
}

// ExtractSlots partitions a flat layer list by group path prefix into
// student/teacher image and name buckets; everything else is a fixed
// layer. Images are indexed in encountered order and paired with name
// layers by exact layer name. Unmatched images get a nil name; unmatched
// names are dropped since they cannot be applied without an image.
func ExtractSlots(layers []domain.Layer) Slots {
	var studentImages, teacherImages, studentNames, teacherNames []domain.Layer
	var fixed []domain.Layer

	for _, l := range layers {
		switch {
		case l.InGroup(domain.GroupImagesStudents):
			studentImages = append(studentImages, l)
		case l.InGroup(domain.GroupImagesTeachers):
			teacherImages = append(teacherImages, l)
		case l.InGroup(domain.GroupNamesStudents):
			studentNames = append(studentNames, l)
		case l.InGroup(domain.GroupNamesTeachers):
			teacherNames = append(teacherNames, l)
		default:
			fixed = append(fixed, l)
		}
	}

	return Slots{
		StudentSlots: buildSlots(studentImages, studentNames),
		TeacherSlots: buildSlots(teacherImages, teacherNames),
		FixedLayers:  fixed,
	}
}

func buildSlots(images, names []domain.Layer) []domain.Slot {
	nameByLayer := make(map[string]domain.Layer, len(names))
	for _, n := range names {
		nameByLayer[n.LayerName] = n
	}
	slots := make([]domain.Slot, 0, len(images))
	for i, img := range images {
		slot := domain.Slot{
			Index: i,
			Image: domain.SlotRect{X: img.X, Y: img.Y, Width: img.Width, Height: img.Height},
		}
		if n, ok := nameByLayer[img.LayerName]; ok {
			just := n.Justification
			if just == "" {
				just = domain.JustifyCenter
			}
			slot.Name = &domain.SlotRect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height, Justification: just}
		}
		slots = append(slots, slot)
	}
	return slots
}
