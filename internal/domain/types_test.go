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

import (
	"encoding/json"
	"testing"

	"mapstoryeditor/internal/geo"
)

func TestFeatureJSONRoundTrip(t *testing.T) {
	f := Feature{
		ID:      "f1",
		LayerID: "l1",
		Geometry: Geometry{
			Kind:   "LineString",
			Points: []geo.LngLat{{Lng: 1, Lat: 2}, {Lng: 3, Lat: 4}},
		},
		Properties: map[string]any{"name": "trail"},
		Style:      Style{StrokeColor: "#ff0000", StrokeWidth: 2},
	}
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Feature
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != "f1" || back.Geometry.Kind != "LineString" || len(back.Geometry.Points) != 2 {
		t.Fatalf("round trip lost data: %+v", back)
	}
}

func TestFeatureStateCloneIsDeep(t *testing.T) {
	s := &FeatureState{
		Geometry:       Geometry{Kind: "Point", Points: []geo.LngLat{{Lng: 1, Lat: 1}}},
		Properties:     map[string]any{"k": "v"},
		VertexEditable: true,
	}
	cp := s.Clone()
	if !cp.VertexEditable {
		t.Fatalf("clone dropped vertex-editable flag")
	}
	cp.Geometry.Points[0] = geo.LngLat{Lng: 9, Lat: 9}
	cp.Properties["k"] = "changed"
	if s.Geometry.Points[0].Lng != 1 {
		t.Fatalf("clone aliased geometry points")
	}
	if s.Properties["k"] != "v" {
		t.Fatalf("clone aliased properties")
	}
}

func TestNilFeatureStateClone(t *testing.T) {
	var s *FeatureState
	if s.Clone() != nil {
		t.Fatalf("nil clone should stay nil")
	}
}

func TestRouteAnimationOptionalTiming(t *testing.T) {
	data := []byte(`{"id":"r1","durationMs":2000,"startTimeMs":500}`)
	var r RouteAnimation
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.StartTimeMs == nil || *r.StartTimeMs != 500 {
		t.Fatalf("startTimeMs not preserved: %+v", r.StartTimeMs)
	}
	if r.EndTimeMs != nil {
		t.Fatalf("endTimeMs should stay unset")
	}
}
