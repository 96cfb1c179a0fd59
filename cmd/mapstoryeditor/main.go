/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"mapstoryeditor/internal/backend"
	"mapstoryeditor/internal/config"
	"mapstoryeditor/internal/crash"
	"mapstoryeditor/internal/export"
	applog "mapstoryeditor/internal/log"
	"mapstoryeditor/internal/outline"
	"mapstoryeditor/internal/persist"
	"mapstoryeditor/internal/storage"
	"mapstoryeditor/internal/stylepack"
	"mapstoryeditor/internal/telemetry"
	"mapstoryeditor/internal/timeline"
	"mapstoryeditor/internal/version"
)

func usage() {
	fmt.Println("Map Story Editor — editing engine CLI")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mapstoryeditor version|-v|--version                  Show version")
	fmt.Println("  mapstoryeditor docs                                  List map documents on the backend")
	fmt.Println("  mapstoryeditor summary <mapId> <storyId>             Print a story timeline summary")
	fmt.Println("  mapstoryeditor export-pdf <mapId> <storyId> <out>    Export a story timeline PDF")
	fmt.Println("  mapstoryeditor export-geojson <mapId> <out>          Export a document as GeoJSON")
	fmt.Println("  mapstoryeditor import-outline <mapId> <file>         Import a plain-text story outline")
	fmt.Println("  mapstoryeditor styles-export <dir> <zip>             Export the document's style presets as a pack")
	fmt.Println("  mapstoryeditor styles-install <dir> <zip>            Install a style pack into a document")
	fmt.Println("  mapstoryeditor drafts <dir>                          List unsynced drafts cached under <dir>")
	fmt.Println("  mapstoryeditor drafts-flush <dir>                    Push cached drafts to the backend and clear them")
	fmt.Println("  mapstoryeditor health                                Check backend connectivity")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var h *storage.SessionHandle
	defer func() { crash.Recover(h) }()

	cfg, token, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}
	cli := backend.NewClient(cfg.Backend.BaseURL, token, cfg.Backend.EffectiveTimeout())
	ctx := context.Background()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Map Story Editor — editing engine CLI")
			fmt.Println(version.String())
			return
		case "docs":
			docs, err := cli.ListDocuments(ctx)
			if err != nil {
				fail(l, "list documents", err)
			}
			for _, d := range docs {
				fmt.Printf("%s  %s (%d layers, %d stories)\n", d.ID, d.Name, len(d.Layers), len(d.Stories))
			}
			return
		case "summary":
			if len(args) < 4 {
				fmt.Println("summary requires <mapId> and <storyId>")
				usage()
				os.Exit(2)
			}
			story, err := cli.GetStory(ctx, args[2], args[3])
			if err != nil {
				fail(l, "fetch story", err)
			}
			fmt.Printf("Story: %s (%d segments, total %dms)\n", story.Name, len(story.Segments), timeline.TotalDuration(story.Segments))
			for i, seg := range story.Segments {
				eff := timeline.EffectiveSegmentDuration(seg)
				fmt.Printf("  %d. %s  %dms, %d routes", i+1, seg.Title, eff, len(seg.Routes))
				if timeline.HasExtension(seg) {
					fmt.Printf("  (extended %dms by routes)", timeline.ExtensionAmount(seg))
				}
				fmt.Println()
			}
			return
		case "export-pdf":
			if len(args) < 5 {
				fmt.Println("export-pdf requires <mapId>, <storyId> and <out>")
				usage()
				os.Exit(2)
			}
			story, err := cli.GetStory(ctx, args[2], args[3])
			if err != nil {
				fail(l, "fetch story", err)
			}
			if err := export.ExportStoryPDF("", story, args[4], export.PDFOptions{IncludeBars: true}); err != nil {
				fail(l, "export pdf", err)
			}
			telemetry.Event(telemetry.EventExport, map[string]any{"format": "pdf"})
			fmt.Println("Wrote", args[4])
			return
		case "export-geojson":
			if len(args) < 4 {
				fmt.Println("export-geojson requires <mapId> and <out>")
				usage()
				os.Exit(2)
			}
			doc, err := cli.GetDocument(ctx, args[2])
			if err != nil {
				fail(l, "fetch document", err)
			}
			h = &storage.SessionHandle{Document: doc}
			if err := export.ExportDocumentGeoJSON("", doc, args[3]); err != nil {
				fail(l, "export geojson", err)
			}
			telemetry.Event(telemetry.EventExport, map[string]any{"format": "geojson"})
			fmt.Println("Wrote", args[3])
			return
		case "import-outline":
			if len(args) < 4 {
				fmt.Println("import-outline requires <mapId> and <file>")
				usage()
				os.Exit(2)
			}
			text, err := os.ReadFile(args[3])
			if err != nil {
				fail(l, "read outline", err)
			}
			o, perrs := outline.Parse(string(text))
			for _, pe := range perrs {
				fmt.Printf("%s:%d: %s\n", args[3], pe.Line, pe.Message)
			}
			if len(perrs) > 0 {
				os.Exit(1)
			}
			story := o.ToStory()
			for _, seg := range story.Segments {
				if err := cli.SaveSegment(ctx, args[2], story.ID, seg); err != nil {
					fail(l, "save segment", err)
				}
			}
			telemetry.Event(telemetry.EventOutlineImport, map[string]any{"segments": len(story.Segments)})
			fmt.Printf("Imported story %q with %d segments (total %dms)\n",
				story.Name, len(story.Segments), timeline.TotalDuration(story.Segments))
			return
		case "styles-export":
			if len(args) < 4 {
				fmt.Println("styles-export requires <dir> and <zip>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			if err := stylepack.ExportPack(abs, args[3]); err != nil {
				fail(l, "export style pack", err)
			}
			fmt.Println("Wrote", args[3])
			return
		case "styles-install":
			if len(args) < 4 {
				fmt.Println("styles-install requires <dir> and <zip>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			n, err := stylepack.InstallPack(abs, args[3])
			if err != nil {
				fail(l, "install style pack", err)
			}
			fmt.Printf("Installed %d preset files.\n", n)
			return
		case "drafts":
			if len(args) < 3 {
				fmt.Println("drafts requires <dir>")
				usage()
				os.Exit(2)
			}
			if err := listDrafts(ctx, args[2]); err != nil {
				fail(l, "list drafts", err)
			}
			return
		case "drafts-flush":
			if len(args) < 3 {
				fmt.Println("drafts-flush requires <dir>")
				usage()
				os.Exit(2)
			}
			if err := flushDrafts(ctx, cfg, cli, args[2]); err != nil {
				fail(l, "flush drafts", err)
			}
			return
		case "health":
			if err := cli.Healthcheck(ctx); err != nil {
				fail(l, "backend healthcheck", err)
			}
			fmt.Println("Backend OK:", cfg.Backend.BaseURL)
			return
		}
	}

	usage()
}

// listDrafts prints the unsynced draft journal cached under dir. The cache
// handle is closed before returning so errors never leak the connection.
func listDrafts(ctx context.Context, dir string) error {
	abs, _ := filepath.Abs(dir)
	ds, err := storage.OpenDrafts(abs)
	if err != nil {
		return fmt.Errorf("open draft cache: %w", err)
	}
	defer func() { _ = ds.Close() }()
	drafts, err := ds.List(ctx)
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		fmt.Println("No unsynced drafts.")
		return nil
	}
	for _, d := range drafts {
		fmt.Printf("%s  %s  %s\n", d.UpdatedAt.Format("2006-01-02 15:04:05"), d.Operation, d.FeatureID)
	}
	return nil
}

// flushDrafts pushes every cached draft through the configured store and
// removes it on success.
func flushDrafts(ctx context.Context, cfg config.AppConfig, cli *backend.Client, dir string) error {
	abs, _ := filepath.Abs(dir)
	ds, err := storage.OpenDrafts(abs)
	if err != nil {
		return fmt.Errorf("open draft cache: %w", err)
	}
	defer func() { _ = ds.Close() }()
	store, closeStore, err := selectStore(ctx, cfg, cli)
	if err != nil {
		return fmt.Errorf("select backend store: %w", err)
	}
	defer closeStore()
	drafts, err := ds.List(ctx)
	if err != nil {
		return err
	}
	flushed := 0
	for _, d := range drafts {
		intent := persist.Intent{
			FeatureID: d.FeatureID,
			Operation: persist.Operation(d.Operation),
			Payload:   d.Payload,
		}
		if err := store.Save(ctx, intent); err != nil {
			return fmt.Errorf("flush draft %s: %w", d.FeatureID, err)
		}
		if err := ds.Delete(ctx, d.FeatureID, d.Operation); err != nil {
			return fmt.Errorf("remove flushed draft %s: %w", d.FeatureID, err)
		}
		flushed++
	}
	fmt.Printf("Flushed %d drafts.\n", flushed)
	return nil
}

// selectStore picks the persistence store per config: HTTP by default, a
// direct Postgres connection when backend.mode is "direct".
func selectStore(ctx context.Context, cfg config.AppConfig, cli *backend.Client) (persist.Store, func(), error) {
	if cfg.Backend.Mode == "direct" {
		ds, err := backend.OpenDirect(ctx, cfg.Backend.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return ds, func() { _ = ds.Close() }, nil
	}
	return cli, func() {}, nil
}

func fail(l *slog.Logger, what string, err error) {
	l.Error(what+" failed", slog.Any("err", err))
	fmt.Println("Error:", err)
	os.Exit(1)
}
