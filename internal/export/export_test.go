/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"mapstoryeditor/internal/domain"
	"mapstoryeditor/internal/geo"
)

func sampleDocument() *domain.MapDocument {
	return &domain.MapDocument{
		ID:   "doc-1",
		Name: "Harbor Tour",
		Layers: []domain.Layer{
			{
				ID: "l1", Name: "route", Visible: true,
				Features: []domain.Feature{
					{
						ID:      "f-line",
						LayerID: "l1",
						Geometry: domain.Geometry{Kind: "LineString", Points: []geo.LngLat{
							{Lng: 8.20, Lat: 53.10},
							{Lng: 8.21, Lat: 53.11},
							{Lng: 8.22, Lat: 53.12},
						}},
						Style: domain.Style{StrokeColor: "#d7261e"},
					},
					{
						ID:       "f-stop",
						LayerID:  "l1",
						Geometry: domain.Geometry{Kind: "Point", Points: []geo.LngLat{{Lng: 8.21, Lat: 53.11}}},
					},
				},
			},
			{
				ID: "l2", Name: "hidden", Visible: false,
				Features: []domain.Feature{
					{ID: "f-skip", Geometry: domain.Geometry{Kind: "Point", Points: []geo.LngLat{{Lng: 1, Lat: 1}}}},
				},
			},
		},
	}
}

func TestExportDocumentGeoJSON(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "doc.geojson")
	if err := ExportDocumentGeoJSON(dir, sampleDocument(), out); err != nil {
		t.Fatalf("ExportDocumentGeoJSON: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(data, &fc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if fc.Type != "FeatureCollection" {
		t.Fatalf("type = %q, want FeatureCollection", fc.Type)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("exported %d features, want 2 (hidden layer skipped)", len(fc.Features))
	}
	if fc.Features[0].Geometry.Type != "LineString" {
		t.Fatalf("first geometry type = %q, want LineString", fc.Features[0].Geometry.Type)
	}
	if fc.Features[0].Properties["stroke"] != "#d7261e" {
		t.Fatalf("stroke property not flattened: %v", fc.Features[0].Properties)
	}
	if fc.Features[0].Properties["layer"] != "route" {
		t.Fatalf("layer property not flattened: %v", fc.Features[0].Properties)
	}
}

func TestFeatureGeometryRejectsUnknownKind(t *testing.T) {
	_, err := FeatureGeometry(domain.Feature{Geometry: domain.Geometry{Kind: "Circle"}})
	if err == nil {
		t.Fatal("expected error for unknown geometry kind")
	}
}

func TestFeatureGeometryPolygonClosesRing(t *testing.T) {
	g, err := FeatureGeometry(domain.Feature{Geometry: domain.Geometry{Kind: "Polygon", Points: []geo.LngLat{
		{Lng: 0, Lat: 0}, {Lng: 1, Lat: 0}, {Lng: 1, Lat: 1}, {Lng: 0, Lat: 1},
	}}})
	if err != nil {
		t.Fatalf("FeatureGeometry: %v", err)
	}
	if !g.IsPolygon() {
		t.Fatalf("expected polygon geometry")
	}
}

func TestExportStoryPDF(t *testing.T) {
	dir := t.TempDir()
	story := &domain.Story{
		ID:   "s1",
		Name: "Harbor Tour",
		Segments: []domain.Segment{
			{ID: "seg-1", Title: "Departure", DurationMs: 5000},
			{ID: "seg-2", Title: "Crossing", DurationMs: 3000, Routes: []domain.RouteAnimation{
				{ID: "r1", DurationMs: 6000},
			}},
		},
	}
	out := filepath.Join(dir, "story.pdf")
	if err := ExportStoryPDF(dir, story, out, PDFOptions{IncludeBars: true}); err != nil {
		t.Fatalf("ExportStoryPDF: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output does not look like a PDF")
	}
}

func TestExportStoryPDFRelativePathUnderExports(t *testing.T) {
	root := t.TempDir()
	story := &domain.Story{ID: "s1", Name: "Tiny", Segments: []domain.Segment{{ID: "a"}}}
	if err := ExportStoryPDF(root, story, "tiny.pdf", PDFOptions{}); err != nil {
		t.Fatalf("ExportStoryPDF: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "exports", "tiny.pdf")); err != nil {
		t.Fatalf("expected file under exports dir: %v", err)
	}
}
