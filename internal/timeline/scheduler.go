/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package timeline computes authoritative playback durations for story
// timelines. A segment's nominal duration is reconciled with the time its
// nested route animations actually need: animations can extend a segment,
// never shorten it. The package is pure computation over read-only segment
// data owned by the remote store; malformed input falls back to documented
// defaults instead of erroring.
package timeline

import "mapstoryeditor/internal/domain"

const (
	// DefaultSegmentDurationMs applies when a segment or route carries no
	// duration of its own.
	DefaultSegmentDurationMs int64 = 5000
	// CameraTransitionMs is the fixed cost of flying the camera to or from
	// a route's stored camera state in relative timing mode.
	CameraTransitionMs int64 = 1000
)

// RouteEndTime returns the time at which one route animation finishes,
// relative to its segment start. Three mutually exclusive timing modes are
// applied in priority order: explicit end time, start time plus duration,
// and relative accumulation.
func RouteEndTime(r domain.RouteAnimation) int64 {
	if r.EndTimeMs != nil {
		return *r.EndTimeMs
	}
	dur := r.DurationMs
	if dur <= 0 {
		dur = DefaultSegmentDurationMs
	}
	if r.StartTimeMs != nil {
		// Time-based mode: no implicit camera or arrival extras.
		return *r.StartTimeMs + dur
	}
	// Relative mode: camera fly-in, author delay, the route itself,
	// camera fly-out, then the arrival card if enabled.
	end := r.StartDelayMs + dur
	if r.CameraStateBefore != nil {
		end += CameraTransitionMs
	}
	if r.CameraStateAfter != nil {
		end += CameraTransitionMs
	}
	if r.ShowLocationInfoOnArrival {
		end += r.LocationInfoDisplayDurationMs
	}
	return end
}

// MaxRouteEndTime returns the latest end time across a segment's routes.
// Routes run concurrently within a segment, so the maximum wins. Zero routes
// yield zero.
func MaxRouteEndTime(routes []domain.RouteAnimation) int64 {
	var max int64
	for _, r := range routes {
		if end := RouteEndTime(r); end > max {
			max = end
		}
	}
	return max
}

// EffectiveSegmentDuration returns how long a segment actually stays on
// screen: the authored base duration, extended if nested animations need
// more time. The authored minimum is always honored.
func EffectiveSegmentDuration(seg domain.Segment) int64 {
	base := seg.DurationMs
	if base <= 0 {
		base = DefaultSegmentDurationMs
	}
	if end := MaxRouteEndTime(seg.Routes); end > base {
		return end
	}
	return base
}

// TotalDuration sums effective durations over an ordered segment sequence.
// Segments never overlap one another.
func TotalDuration(segments []domain.Segment) int64 {
	var total int64
	for _, seg := range segments {
		total += EffectiveSegmentDuration(seg)
	}
	return total
}

// HasExtension reports whether a segment's animations push it beyond its
// authored base duration. Used by the editor UI to warn authors; the data
// itself is never changed.
func HasExtension(seg domain.Segment) bool {
	return ExtensionAmount(seg) > 0
}

// ExtensionAmount returns by how many milliseconds the animations extend
// the segment past its authored base, or zero.
func ExtensionAmount(seg domain.Segment) int64 {
	base := seg.DurationMs
	if base <= 0 {
		base = DefaultSegmentDurationMs
	}
	if end := MaxRouteEndTime(seg.Routes); end > base {
		return end - base
	}
	return 0
}
