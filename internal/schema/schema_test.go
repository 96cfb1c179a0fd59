/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package schema

import (
	"encoding/json"
	"testing"

	"mapstoryeditor/internal/domain"
	"mapstoryeditor/internal/geo"
)

func TestValidCreatePayload(t *testing.T) {
	snap := domain.FeatureState{
		Geometry: domain.Geometry{Kind: "LineString", Points: []geo.LngLat{{Lng: 1, Lat: 2}, {Lng: 3, Lat: 4}}},
		Style:    domain.Style{StrokeColor: "#00ff00", StrokeWidth: 2, Opacity: 0.8},
	}
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := ValidatePayload("create", data); err != nil {
		t.Fatalf("valid payload rejected: %v", err)
	}
	if err := ValidatePayload("update", data); err != nil {
		t.Fatalf("valid update rejected: %v", err)
	}
}

func TestMissingGeometryRejected(t *testing.T) {
	if err := ValidatePayload("create", []byte(`{"style":{}}`)); err == nil {
		t.Fatalf("payload without geometry accepted")
	}
}

func TestBadGeometryKindRejected(t *testing.T) {
	payload := []byte(`{"geometry":{"type":"Circle","points":[{"lng":1,"lat":2}]}}`)
	if err := ValidatePayload("update", payload); err == nil {
		t.Fatalf("unknown geometry kind accepted")
	}
}

func TestCoordinateRangeRejected(t *testing.T) {
	payload := []byte(`{"geometry":{"type":"Point","points":[{"lng":400,"lat":2}]}}`)
	if err := ValidatePayload("create", payload); err == nil {
		t.Fatalf("out-of-range longitude accepted")
	}
}

func TestVertexEditableFlag(t *testing.T) {
	payload := []byte(`{"geometry":{"type":"LineString","points":[{"lng":1,"lat":2},{"lng":3,"lat":4}]},"vertexEditable":false}`)
	if err := ValidatePayload("create", payload); err != nil {
		t.Fatalf("snapshot with vertexEditable rejected: %v", err)
	}
	bad := []byte(`{"geometry":{"type":"Point","points":[{"lng":1,"lat":2}]},"vertexEditable":"no"}`)
	if err := ValidatePayload("create", bad); err == nil {
		t.Fatalf("non-boolean vertexEditable accepted")
	}
}

func TestDeletePayload(t *testing.T) {
	if err := ValidatePayload("delete", []byte(`{"id":"f1"}`)); err != nil {
		t.Fatalf("delete payload rejected: %v", err)
	}
	if err := ValidatePayload("delete", []byte(`{}`)); err != nil {
		t.Fatalf("empty delete payload rejected: %v", err)
	}
}

func TestUnknownKind(t *testing.T) {
	if err := ValidatePayload("merge", []byte(`{}`)); err == nil {
		t.Fatalf("unknown kind accepted")
	}
}
