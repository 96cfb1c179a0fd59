/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package timeline

import (
	"testing"

	"mapstoryeditor/internal/domain"
	"mapstoryeditor/internal/geo"
)

func i64(v int64) *int64 { return &v }

func TestRouteEndTimeExplicit(t *testing.T) {
	// Explicit endTimeMs wins regardless of duration.
	r := domain.RouteAnimation{EndTimeMs: i64(4200), DurationMs: 99999}
	if got := RouteEndTime(r); got != 4200 {
		t.Fatalf("explicit end: got %d", got)
	}
}

func TestRouteEndTimeTimeBased(t *testing.T) {
	r := domain.RouteAnimation{StartTimeMs: i64(500), DurationMs: 2000, ShowLocationInfoOnArrival: true, LocationInfoDisplayDurationMs: 3000}
	// Time-based mode adds no implicit extras, arrival info included.
	if got := RouteEndTime(r); got != 2500 {
		t.Fatalf("time-based end: got %d", got)
	}
}

func TestRouteEndTimeRelative(t *testing.T) {
	cam := &domain.CameraState{Center: geo.LngLat{Lng: 1, Lat: 2}, Zoom: 10}
	cases := []struct {
		name string
		r    domain.RouteAnimation
		want int64
	}{
		{"delay plus duration", domain.RouteAnimation{StartDelayMs: 1000, DurationMs: 2000}, 3000},
		{"camera before", domain.RouteAnimation{DurationMs: 2000, CameraStateBefore: cam}, 3000},
		{"camera both sides", domain.RouteAnimation{DurationMs: 2000, CameraStateBefore: cam, CameraStateAfter: cam}, 4000},
		{"arrival info", domain.RouteAnimation{DurationMs: 2000, ShowLocationInfoOnArrival: true, LocationInfoDisplayDurationMs: 1500}, 3500},
		{"default duration", domain.RouteAnimation{}, DefaultSegmentDurationMs},
		{"everything", domain.RouteAnimation{StartDelayMs: 500, DurationMs: 2000, CameraStateBefore: cam, CameraStateAfter: cam, ShowLocationInfoOnArrival: true, LocationInfoDisplayDurationMs: 1000}, 5500},
	}
	for _, tc := range cases {
		if got := RouteEndTime(tc.r); got != tc.want {
			t.Fatalf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestMaxRouteEndTimeConcurrentRoutes(t *testing.T) {
	routes := []domain.RouteAnimation{
		{EndTimeMs: i64(3000)},
		{EndTimeMs: i64(8000)},
		{EndTimeMs: i64(5000)},
	}
	if got := MaxRouteEndTime(routes); got != 8000 {
		t.Fatalf("max end: got %d", got)
	}
	if got := MaxRouteEndTime(nil); got != 0 {
		t.Fatalf("no routes should yield 0, got %d", got)
	}
}

func TestEffectiveSegmentDurationHonorsBase(t *testing.T) {
	// Route fits inside the authored base: base wins.
	seg := domain.Segment{DurationMs: 5000, Routes: []domain.RouteAnimation{{StartDelayMs: 1000, DurationMs: 2000}}}
	if got := EffectiveSegmentDuration(seg); got != 5000 {
		t.Fatalf("base should win: got %d", got)
	}
}

func TestEffectiveSegmentDurationExtends(t *testing.T) {
	seg := domain.Segment{DurationMs: 5000, Routes: []domain.RouteAnimation{{StartDelayMs: 1000, DurationMs: 6000}}}
	if got := EffectiveSegmentDuration(seg); got != 7000 {
		t.Fatalf("extension: got %d, want 7000", got)
	}
	if !HasExtension(seg) {
		t.Fatalf("HasExtension should be true")
	}
	if got := ExtensionAmount(seg); got != 2000 {
		t.Fatalf("ExtensionAmount: got %d, want 2000", got)
	}
}

func TestEffectiveSegmentDurationMonotonic(t *testing.T) {
	// Effective duration must never drop below the authored base.
	segs := []domain.Segment{
		{DurationMs: 5000},
		{DurationMs: 5000, Routes: []domain.RouteAnimation{{EndTimeMs: i64(100)}}},
		{Routes: []domain.RouteAnimation{{DurationMs: 100}}},
	}
	for i, seg := range segs {
		base := seg.DurationMs
		if base <= 0 {
			base = DefaultSegmentDurationMs
		}
		if got := EffectiveSegmentDuration(seg); got < base {
			t.Fatalf("segment %d: effective %d below base %d", i, got, base)
		}
	}
}

func TestTotalDuration(t *testing.T) {
	segs := []domain.Segment{
		{DurationMs: 5000},
		{DurationMs: 4000, Routes: []domain.RouteAnimation{{StartDelayMs: 1000, DurationMs: 6000}}},
		{}, // defaults to 5000
	}
	if got := TotalDuration(segs); got != 5000+7000+5000 {
		t.Fatalf("total: got %d", got)
	}
}

func TestHasExtensionFalseWithoutRoutes(t *testing.T) {
	if HasExtension(domain.Segment{DurationMs: 5000}) {
		t.Fatalf("segment without routes cannot extend")
	}
}
