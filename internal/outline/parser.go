/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package outline parses plain-text story outlines into timeline segments,
// so a narrated story can be drafted in any text editor and imported.
package outline

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"mapstoryeditor/internal/domain"
)

// Parse parses an outline text into structured segment stanzas.
// Supported syntax (minimal):
//   - Story title: a "Story:" line anywhere before the first segment.
//   - Segment headings: lines starting with "#" or "Segment:" introduce a new
//     segment. The rest of the line is the title; an optional trailing
//     duration tag like "@8s" or "@7500ms" sets the base duration.
//   - Routes: "route NAME: 6s" adds a route animation with the given
//     duration; an optional "+delay 2s" suffix delays its start.
//   - Notes: lines starting with ';' are kept as author notes.
//
// Blank lines separate stanzas but are not represented. Anything else is an
// error with position context; parsing continues on following lines.
func Parse(input string) (Outline, []Error) {
	o := Outline{Segments: []SegmentStanza{}}
	var errs []Error

	reHeading := regexp.MustCompile(`^(#+)\s*(.*)$`)
	reHeadingAlt := regexp.MustCompile(`^(?i)\s*Segment:\s*(.+)$`)
	reStory := regexp.MustCompile(`^(?i)\s*Story:\s*(.+)$`)
	reRoute := regexp.MustCompile(`^(?i)\s*route\s+([A-Za-z0-9_\- ]{1,64})\s*:\s*(\S+)(?:\s+\+delay\s+(\S+))?\s*$`)
	reDurTag := regexp.MustCompile(`(?i)@(\d+(?:ms|s))\s*$`)

	var current *SegmentStanza
	flush := func() {
		if current != nil && (strings.TrimSpace(current.Title) != "" || len(current.Routes) > 0) {
			o.Segments = append(o.Segments, *current)
		}
		current = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		trim := strings.TrimSpace(scanner.Text())
		if trim == "" {
			continue
		}

		if m := reStory.FindStringSubmatch(trim); m != nil && current == nil && o.Title == "" {
			o.Title = strings.TrimSpace(m[1])
			continue
		}

		var title string
		if m := reHeading.FindStringSubmatch(trim); m != nil {
			title = strings.TrimSpace(m[2])
		} else if m := reHeadingAlt.FindStringSubmatch(trim); m != nil {
			title = strings.TrimSpace(m[1])
		}
		if title != "" || strings.HasPrefix(trim, "#") {
			flush()
			current = &SegmentStanza{LineNo: lineNo}
			if m := reDurTag.FindStringSubmatch(title); m != nil {
				ms, err := parseDuration(m[1])
				if err != nil {
					errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
				} else {
					current.DurationMs = ms
				}
				title = strings.TrimSpace(reDurTag.ReplaceAllString(title, ""))
			}
			current.Title = title
			continue
		}

		if strings.HasPrefix(trim, ";") {
			if current != nil {
				current.Notes = append(current.Notes, strings.TrimSpace(strings.TrimPrefix(trim, ";")))
			}
			continue
		}

		if m := reRoute.FindStringSubmatch(trim); m != nil {
			if current == nil {
				errs = append(errs, Error{Line: lineNo, Column: 1, Message: "route line before any segment heading"})
				continue
			}
			r := RouteLine{Name: strings.TrimSpace(m[1]), LineNo: lineNo}
			ms, err := parseDuration(m[2])
			if err != nil {
				errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
				continue
			}
			r.DurationMs = ms
			if m[3] != "" {
				delay, err := parseDuration(m[3])
				if err != nil {
					errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
					continue
				}
				r.StartDelayMs = delay
			}
			current.Routes = append(current.Routes, r)
			continue
		}

		errs = append(errs, Error{Line: lineNo, Column: 1, Message: fmt.Sprintf("unrecognized line: %q", trim)})
	}
	flush()

	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
	}
	return o, errs
}

// parseDuration accepts "250ms", "6s" or a bare millisecond count.
func parseDuration(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasSuffix(s, "ms"):
		n, err := strconv.ParseInt(strings.TrimSuffix(s, "ms"), 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad duration %q", s)
		}
		return n, nil
	case strings.HasSuffix(s, "s"):
		n, err := strconv.ParseInt(strings.TrimSuffix(s, "s"), 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad duration %q", s)
		}
		return n * 1000, nil
	default:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad duration %q", s)
		}
		return n, nil
	}
}

// ToStory converts a parsed outline into a story with fresh IDs. Route lines
// become relative-mode animations (start delay plus duration).
func (o Outline) ToStory() domain.Story {
	story := domain.Story{
		ID:   uuid.NewString(),
		Name: o.Title,
	}
	if story.Name == "" {
		story.Name = "Imported Story"
	}
	for _, st := range o.Segments {
		seg := domain.Segment{
			ID:         uuid.NewString(),
			Title:      st.Title,
			DurationMs: st.DurationMs,
		}
		for _, r := range st.Routes {
			seg.Routes = append(seg.Routes, domain.RouteAnimation{
				ID:           uuid.NewString(),
				DurationMs:   r.DurationMs,
				StartDelayMs: r.StartDelayMs,
			})
		}
		story.Segments = append(story.Segments, seg)
	}
	return story
}
