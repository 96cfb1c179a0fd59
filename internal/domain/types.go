/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for the map story editor: drawn
// features organized into layers on a map document, and narrated story
// timelines built from segments. Feature and segment data serializes to the
// JSON shapes the remote API already defines.

import "mapstoryeditor/internal/geo"

// MapDocument is one open map with its layers and stories.
type MapDocument struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Layers  []Layer `json:"layers"`
	Stories []Story `json:"stories,omitempty"`
}

// Layer groups features for ordering and visibility.
type Layer struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Z        int       `json:"z"`
	Visible  bool      `json:"visible"`
	Features []Feature `json:"features,omitempty"`
}

// Feature is one discrete drawn element: a point, line or polygon with
// geometry, free-form properties and a style.
type Feature struct {
	ID         string         `json:"id"`
	LayerID    string         `json:"layerId"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties,omitempty"`
	Style      Style          `json:"style"`
	// VertexEditable is false for hand-drawn paths; only whole-shape
	// translation is allowed on those after creation.
	VertexEditable bool `json:"vertexEditable"`
}

// Geometry is a GeoJSON-style tagged geometry. Coordinates are WGS84
// longitude/latitude pairs as supplied by the rendering toolkit.
type Geometry struct {
	Kind   string       `json:"type"` // Point, LineString, Polygon
	Points []geo.LngLat `json:"points"`
}

// Style defines visual styling attributes for a feature.
type Style struct {
	StrokeColor string  `json:"strokeColor,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	FillColor   string  `json:"fillColor,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
}

// FeatureState is a semantics-complete snapshot of a feature used by the
// undo history and the persistence queue. A nil *FeatureState means the
// feature does not exist (pre-create or post-delete).
type FeatureState struct {
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties,omitempty"`
	Style      Style          `json:"style"`
	// VertexEditable is false for hand-drawn paths; the flag travels with
	// the snapshot so undo and persistence restore it.
	VertexEditable bool `json:"vertexEditable"`
}

// Clone returns a deep copy so stacked snapshots cannot alias live state.
func (s *FeatureState) Clone() *FeatureState {
	if s == nil {
		return nil
	}
	cp := &FeatureState{Geometry: s.Geometry, Style: s.Style, VertexEditable: s.VertexEditable}
	cp.Geometry.Points = append([]geo.LngLat(nil), s.Geometry.Points...)
	if s.Properties != nil {
		cp.Properties = make(map[string]any, len(s.Properties))
		for k, v := range s.Properties {
			cp.Properties[k] = v
		}
	}
	return cp
}

// Story is a narrated timeline over a map document.
type Story struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Segments []Segment `json:"segments"`
}

// Segment is one step of a story with a base duration and optional nested
// route animations. Animations within a segment run concurrently; segments
// themselves never overlap.
type Segment struct {
	ID              string           `json:"id"`
	Title           string           `json:"title,omitempty"`
	DurationMs      int64            `json:"durationMs,omitempty"`
	CenterOnArrival *geo.LngLat      `json:"centerOnArrival,omitempty"`
	Routes          []RouteAnimation `json:"routeAnimations,omitempty"`
}

// RouteAnimation is a timed camera/path animation nested inside a segment.
// Timing is one of three mutually exclusive modes:
//   - explicit: EndTimeMs set
//   - time-based: StartTimeMs set, end = start + duration
//   - relative: StartDelayMs plus optional camera transitions before/after
type RouteAnimation struct {
	ID           string       `json:"id"`
	Path         []geo.LngLat `json:"path,omitempty"`
	DurationMs   int64        `json:"durationMs,omitempty"`
	StartTimeMs  *int64       `json:"startTimeMs,omitempty"`
	EndTimeMs    *int64       `json:"endTimeMs,omitempty"`
	StartDelayMs int64        `json:"startDelayMs,omitempty"`

	CameraStateBefore *CameraState `json:"cameraStateBefore,omitempty"`
	CameraStateAfter  *CameraState `json:"cameraStateAfter,omitempty"`

	ShowLocationInfoOnArrival     bool  `json:"showLocationInfoOnArrival,omitempty"`
	LocationInfoDisplayDurationMs int64 `json:"locationInfoDisplayDurationMs,omitempty"`
}

// CameraState captures a map camera pose for transitions around a route.
type CameraState struct {
	Center  geo.LngLat `json:"center"`
	Zoom    float64    `json:"zoom"`
	Bearing float64    `json:"bearing,omitempty"`
	Pitch   float64    `json:"pitch,omitempty"`
}
