/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package geo holds coordinate types and projection helpers shared by the
// editing engine. Map coordinates arrive from the rendering toolkit as
// WGS84 longitude/latitude; distances are measured in Web Mercator
// (EPSG:3857) units so that thresholds behave uniformly across zoom levels.
package geo

import (
	"errors"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// ErrTooFewPoints is returned when a path has fewer points than its geometry
// kind requires.
var ErrTooFewPoints = errors.New("too few points for geometry")

// LngLat is a WGS84 (EPSG:4326) map coordinate.
type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

var (
	to3857   = wgs84.EPSG().Transform(4326, 3857)
	from3857 = wgs84.EPSG().Transform(3857, 4326)
)

// ToMercator projects a lon/lat coordinate to EPSG:3857.
func ToMercator(p LngLat) geom.XY {
	x, y, _ := to3857(p.Lng, p.Lat, 0)
	return geom.XY{X: x, Y: y}
}

// FromMercator converts an EPSG:3857 coordinate back to lon/lat.
func FromMercator(xy geom.XY) LngLat {
	lng, lat, _ := from3857(xy.X, xy.Y, 0)
	return LngLat{Lng: lng, Lat: lat}
}

// MercatorDistance returns the planar distance between two map coordinates
// in EPSG:3857 units.
func MercatorDistance(a, b LngLat) float64 {
	pa := ToMercator(a)
	pb := ToMercator(b)
	return math.Hypot(pb.X-pa.X, pb.Y-pa.Y)
}

// LineString builds an EPSG:4326 line string from an ordered point slice.
func LineString(points []LngLat) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, ErrTooFewPoints
	}
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.Lng, p.Lat)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXY)), nil
}

// Ring builds a closed EPSG:4326 polygon from an ordered point slice.
// If the first and last points differ, the ring is closed by repeating the
// first point.
func Ring(points []LngLat) (geom.Polygon, error) {
	if len(points) < 3 {
		return geom.Polygon{}, ErrTooFewPoints
	}
	closed := points
	if points[0] != points[len(points)-1] {
		closed = make([]LngLat, 0, len(points)+1)
		closed = append(closed, points...)
		closed = append(closed, points[0])
	}
	ring, err := LineString(closed)
	if err != nil {
		return geom.Polygon{}, err
	}
	return geom.NewPolygon([]geom.LineString{ring}), nil
}
