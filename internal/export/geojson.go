/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	geom "github.com/peterstace/simplefeatures/geom"

	"mapstoryeditor/internal/domain"
	"mapstoryeditor/internal/geo"
)

// geoJSONFeature is one entry of a GeoJSON FeatureCollection. Geometry
// serialization is delegated to simplefeatures.
type geoJSONFeature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   geom.Geometry  `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geoJSONCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// ExportDocumentGeoJSON writes every feature of every visible layer as a
// GeoJSON FeatureCollection. Layer name and style are flattened into feature
// properties so round-tripping through GIS tools keeps them attached.
func ExportDocumentGeoJSON(root string, doc *domain.MapDocument, outPath string) error {
	if doc == nil {
		return fmt.Errorf("document is nil")
	}

	fc := geoJSONCollection{Type: "FeatureCollection"}
	for _, layer := range doc.Layers {
		if !layer.Visible {
			continue
		}
		for _, f := range layer.Features {
			g, err := FeatureGeometry(f)
			if err != nil {
				return fmt.Errorf("feature %s: %w", f.ID, err)
			}
			props := map[string]any{"layer": layer.Name}
			for k, v := range f.Properties {
				props[k] = v
			}
			if f.Style.StrokeColor != "" {
				props["stroke"] = f.Style.StrokeColor
			}
			if f.Style.FillColor != "" {
				props["fill"] = f.Style.FillColor
			}
			fc.Features = append(fc.Features, geoJSONFeature{
				Type:       "Feature",
				ID:         f.ID,
				Geometry:   g,
				Properties: props,
			})
		}
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal feature collection: %w", err)
	}

	outPath = resolveOutPath(root, outPath)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

// FeatureGeometry converts a domain feature geometry into a simplefeatures
// geometry for serialization or spatial checks.
func FeatureGeometry(f domain.Feature) (geom.Geometry, error) {
	pts := f.Geometry.Points
	switch f.Geometry.Kind {
	case "Point":
		if len(pts) != 1 {
			return geom.Geometry{}, fmt.Errorf("point needs exactly one coordinate, got %d", len(pts))
		}
		p := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: pts[0].Lng, Y: pts[0].Lat}})
		return p.AsGeometry(), nil
	case "LineString":
		ls, err := geo.LineString(pts)
		if err != nil {
			return geom.Geometry{}, err
		}
		return ls.AsGeometry(), nil
	case "Polygon":
		poly, err := geo.Ring(pts)
		if err != nil {
			return geom.Geometry{}, err
		}
		return poly.AsGeometry(), nil
	default:
		return geom.Geometry{}, fmt.Errorf("unknown geometry kind %q", f.Geometry.Kind)
	}
}
