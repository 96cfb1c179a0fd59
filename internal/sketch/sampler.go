/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package sketch reconstructs vector geometry from raw pointer motion while
// a free-hand tool is active. One Sampler instance belongs to one editing
// session; gesture state is never shared across sessions. Panning and path
// capture read the same pointer stream, so the sampler suspends panning for
// the duration of a gesture and guarantees it is re-enabled on every exit
// path: normal finish, discarded stroke and external interruption alike.
package sketch

import (
	"log/slog"
	"sync"

	geom "github.com/peterstace/simplefeatures/geom"

	"mapstoryeditor/internal/geo"
	applog "mapstoryeditor/internal/log"
)

// Mode selects the visual kind of a free-hand stroke.
type Mode string

const (
	// ModeAnnotation is a thin annotation line.
	ModeAnnotation Mode = "annotation"
	// ModeHighlighter is a thick translucent line.
	ModeHighlighter Mode = "highlighter"
	// ModeFilledArea is a closed filled area.
	ModeFilledArea Mode = "filled-area"
)

const (
	// MinPointDistance is the minimum EPSG:3857 distance between captured
	// points. This is a noise and density filter: it bounds the final
	// vertex count regardless of pointer sampling rate.
	MinPointDistance = 5.0
	// minPoints is the fewest captured points that form a valid shape.
	// A tap or jitter is not a shape.
	minPoints = 3
)

// Surface is the subset of the map rendering toolkit the sampler drives.
type Surface interface {
	// SetPanEnabled suspends or restores map panning.
	SetPanEnabled(enabled bool)
	// DisableActiveTool leaves whatever exclusive drawing/edit mode is
	// currently active on the map surface.
	DisableActiveTool()
	// ShowPreview renders the uncommitted stroke.
	ShowPreview(points []geo.LngLat, mode Mode)
	// ClearPreview removes the uncommitted stroke visual.
	ClearPreview()
}

// Shape is the finished geometry emitted by a successful capture. It is
// indistinguishable downstream from a normally drawn shape, so layer and
// undo handling stay uniform.
type Shape struct {
	Mode     Mode
	Points   []geo.LngLat
	Geometry geom.Geometry
	// VertexEditable is always false for hand-drawn paths: they have no
	// meaningful discrete vertices, only whole-shape translation applies.
	VertexEditable bool
}

// Stroke is a free-hand capture in progress. It is transient input only and
// is never persisted.
type Stroke struct {
	Mode   Mode
	Points []geo.LngLat
	Active bool
}

// Sampler converts one drag gesture at a time into a vector path.
type Sampler struct {
	surface Surface
	onShape func(Shape)
	log     *slog.Logger

	mu     sync.Mutex
	stroke Stroke
}

// New creates a sampler over the given map surface. onShape, if non-nil, is
// invoked with every finished shape.
func New(surface Surface, onShape func(Shape)) *Sampler {
	return &Sampler{
		surface: surface,
		onShape: onShape,
		log:     applog.WithComponent("sketch"),
	}
}

// Active reports whether a stroke capture is in progress.
func (s *Sampler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stroke.Active
}

// Start begins a stroke at the pointer-down position. Any previous
// uncommitted stroke is discarded first. The surface's active exclusive
// mode is left and panning is suspended until the gesture ends.
func (s *Sampler) Start(mode Mode, initial geo.LngLat) {
	s.mu.Lock()
	if s.stroke.Active {
		s.mu.Unlock()
		s.Abort()
		s.mu.Lock()
	}
	s.stroke = Stroke{Mode: mode, Points: []geo.LngLat{initial}, Active: true}
	points := append([]geo.LngLat(nil), s.stroke.Points...)
	s.mu.Unlock()

	s.surface.DisableActiveTool()
	s.surface.SetPanEnabled(false)
	s.surface.ShowPreview(points, mode)
	s.log.Debug("stroke started", slog.String("mode", string(mode)))
}

// Extend appends a pointer-move position if it is far enough from the last
// captured point. Calls while no stroke is active are ignored.
func (s *Sampler) Extend(p geo.LngLat) {
	s.mu.Lock()
	if !s.stroke.Active {
		s.mu.Unlock()
		return
	}
	last := s.stroke.Points[len(s.stroke.Points)-1]
	if geo.MercatorDistance(last, p) < MinPointDistance {
		s.mu.Unlock()
		return
	}
	s.stroke.Points = append(s.stroke.Points, p)
	points := append([]geo.LngLat(nil), s.stroke.Points...)
	mode := s.stroke.Mode
	s.mu.Unlock()

	s.surface.ShowPreview(points, mode)
}

// Finish ends the gesture on pointer-up. Fewer than three captured points
// is a defined no-op outcome: the stroke is silently discarded and no
// creation event fires. A filled-area path is closed by repeating its first
// point. Panning is re-enabled on every path through this method.
func (s *Sampler) Finish() (Shape, bool) {
	s.mu.Lock()
	if !s.stroke.Active {
		s.mu.Unlock()
		return Shape{}, false
	}
	stroke := s.stroke
	s.stroke = Stroke{}
	s.mu.Unlock()

	s.surface.ClearPreview()
	s.surface.SetPanEnabled(true)

	if len(stroke.Points) < minPoints {
		s.log.Debug("stroke discarded", slog.Int("points", len(stroke.Points)))
		return Shape{}, false
	}

	shape, err := buildShape(stroke)
	if err != nil {
		s.log.Warn("stroke geometry rejected", slog.Any("err", err))
		return Shape{}, false
	}
	s.log.Debug("stroke finished",
		slog.String("mode", string(stroke.Mode)),
		slog.Int("points", len(shape.Points)))
	if s.onShape != nil {
		s.onShape(shape)
	}
	return shape, true
}

// Abort discards an uncommitted stroke on external interruption, e.g. when
// the session is torn down mid-gesture. The preview is removed and panning
// re-enabled; no event fires.
func (s *Sampler) Abort() {
	s.mu.Lock()
	active := s.stroke.Active
	s.stroke = Stroke{}
	s.mu.Unlock()
	if !active {
		return
	}
	s.surface.ClearPreview()
	s.surface.SetPanEnabled(true)
	s.log.Debug("stroke aborted")
}

func buildShape(stroke Stroke) (Shape, error) {
	points := stroke.Points
	if stroke.Mode == ModeFilledArea {
		// Close the ring for the emitted coordinate list as well, so the
		// shape's first and last points are equal.
		if points[0] != points[len(points)-1] {
			points = append(append([]geo.LngLat(nil), points...), points[0])
		}
		poly, err := geo.Ring(points)
		if err != nil {
			return Shape{}, err
		}
		return Shape{Mode: stroke.Mode, Points: points, Geometry: poly.AsGeometry()}, nil
	}
	ls, err := geo.LineString(points)
	if err != nil {
		return Shape{}, err
	}
	return Shape{Mode: stroke.Mode, Points: points, Geometry: ls.AsGeometry()}, nil
}
