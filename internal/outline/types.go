/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package outline

// Outline represents a parsed story outline: an ordered list of segment
// stanzas authored in plain text, convertible into a story timeline.

type Outline struct {
	Title    string
	Segments []SegmentStanza
}

// SegmentStanza is one "#"-headed block of the outline.
// DurationMs is 0 when the author gave no explicit duration; conversion
// falls back to the default segment duration.
type SegmentStanza struct {
	Title      string
	DurationMs int64
	Routes     []RouteLine
	Notes      []string
	LineNo     int // 1-based starting line number in the source
}

// RouteLine is one "route NAME: <duration> [+delay <d>]" line inside a
// segment stanza.
type RouteLine struct {
	Name         string
	DurationMs   int64
	StartDelayMs int64
	LineNo       int
}

// Error represents a parse error with position context.

type Error struct {
	Line    int
	Column  int
	Message string
}
