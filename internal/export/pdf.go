/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes shareable artifacts from an open map document: a
// story timeline summary as PDF and the drawn features as GeoJSON. Exports
// read the in-memory document only; they never touch the persistence queue.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"mapstoryeditor/internal/domain"
	"mapstoryeditor/internal/timeline"
)

// PDFOptions controls timeline PDF export behavior. Units are points (pt).
// Built-in Helvetica keeps text vector without font embedding.
type PDFOptions struct {
	Title       string
	IncludeBars bool // draw per-segment duration bars
}

const (
	pdfMargin    = 48.0
	pdfLineH     = 16.0
	pdfBarH      = 8.0
	pdfBarMaxW   = 320.0
	pdfTitleSize = 18.0
	pdfBodySize  = 11.0
)

// ExportStoryPDF writes a one-story timeline summary to outPath: one row per
// segment with its effective duration, route count and extension, plus a
// proportional duration bar. Relative outPath is placed under <root>/exports.
func ExportStoryPDF(root string, story *domain.Story, outPath string, opt PDFOptions) error {
	if story == nil {
		return fmt.Errorf("story is nil")
	}

	title := opt.Title
	if title == "" {
		title = story.Name
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAuthor("Map Story Editor", false)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", pdfTitleSize)
	pdf.Text(pdfMargin, pdfMargin, title)

	total := timeline.TotalDuration(story.Segments)
	pdf.SetFont("Helvetica", "", pdfBodySize)
	pdf.Text(pdfMargin, pdfMargin+pdfLineH*1.5, fmt.Sprintf("%d segments, total %s", len(story.Segments), formatMs(total)))

	// Longest segment scales every bar.
	var longest int64
	for i := range story.Segments {
		if d := timeline.EffectiveSegmentDuration(story.Segments[i]); d > longest {
			longest = d
		}
	}

	y := pdfMargin + pdfLineH*3.5
	for i := range story.Segments {
		seg := &story.Segments[i]
		eff := timeline.EffectiveSegmentDuration(*seg)

		label := seg.Title
		if label == "" {
			label = seg.ID
		}
		line := fmt.Sprintf("%d. %s — %s, %d routes", i+1, label, formatMs(eff), len(seg.Routes))
		if timeline.HasExtension(*seg) {
			line += fmt.Sprintf(" (+%s from routes)", formatMs(timeline.ExtensionAmount(*seg)))
		}
		pdf.SetFont("Helvetica", "", pdfBodySize)
		pdf.Text(pdfMargin, y, line)
		y += pdfLineH

		if opt.IncludeBars && longest > 0 {
			w := pdfBarMaxW * float64(eff) / float64(longest)
			pdf.SetFillColor(44, 127, 184)
			pdf.Rect(pdfMargin, y-pdfBarH, w, pdfBarH, "F")
			y += pdfLineH * 0.75
		}

		if y > 780 { // near A4 bottom in pt
			pdf.AddPage()
			y = pdfMargin
		}
	}

	outPath = resolveOutPath(root, outPath)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func resolveOutPath(root, outPath string) string {
	if filepath.IsAbs(outPath) || root == "" {
		return outPath
	}
	return filepath.Join(root, "exports", outPath)
}

func formatMs(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}
