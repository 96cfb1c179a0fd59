/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */

// Package stylepack manages named feature style presets: per-document YAML
// files under <root>/.mse/styles, shareable between documents as a zip pack.
package stylepack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mapstoryeditor/internal/domain"
	applog "mapstoryeditor/internal/log"
	"mapstoryeditor/internal/storage"
)

const stylesDirName = "styles"

// Preset is one named, reusable feature style.
type Preset struct {
	Name  string       `yaml:"name"`
	Style domain.Style `yaml:"style"`
}

func stylesDir(docRoot string) string {
	return filepath.Join(docRoot, storage.CacheDirName, stylesDirName)
}

// SavePreset writes one preset as <root>/.mse/styles/<name>.yaml,
// overwriting any existing preset of the same name.
func SavePreset(docRoot string, p Preset) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("preset name is required")
	}
	dir := stylesDir(docRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure styles dir: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preset: %w", err)
	}
	path := filepath.Join(dir, p.Name+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write preset: %w", err)
	}
	return nil
}

// LoadPresets reads every preset under the document's styles directory,
// sorted by name. A missing directory yields an empty slice.
func LoadPresets(docRoot string) ([]Preset, error) {
	dir := stylesDir(docRoot)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read styles dir: %w", err)
	}
	var out []Preset
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read preset %s: %w", e.Name(), err)
		}
		var p Preset
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse preset %s: %w", e.Name(), err)
		}
		if p.Name == "" {
			p.Name = strings.TrimSuffix(e.Name(), ".yaml")
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ExportPack zips the document's styles directory into a single .zip file.
// The produced archive preserves the directory structure and adds a small
// manifest file at the root named stylepack.manifest.txt for quick human
// inspection. An empty styles directory still yields an archive with only
// the manifest.
func ExportPack(docRoot string, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "export").With(slog.String("root", docRoot))
	if strings.TrimSpace(docRoot) == "" {
		return errors.New("docRoot is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	dir := stylesDir(docRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure styles dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)
	defer func() { _ = zw.Close() }()

	manifest := fmt.Sprintf("Map Story Editor Style Pack\nCreated: %s\nDocument root: %s\n\nContents mirror the document's styles directory.\n",
		time.Now().Format(time.RFC3339), docRoot)
	w, err := zw.Create("stylepack.manifest.txt")
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	added := 0
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		// Forward slashes inside the archive regardless of platform.
		fw, err := zw.Create(filepath.ToSlash(filepath.Join(stylesDirName, rel)))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	l.Info("style pack exported", slog.Int("files", added), slog.String("zip", destZipPath))
	return nil
}

// InstallPack extracts the given .zip pack into the document's styles
// directory. Existing presets are not overwritten; if a file already exists,
// it is skipped. Returns the count of files installed (skipped files are not
// counted).
func InstallPack(docRoot string, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "install").With(slog.String("root", docRoot))
	if strings.TrimSpace(docRoot) == "" {
		return 0, errors.New("docRoot is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	dir := stylesDir(docRoot)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure styles dir: %w", err)
	}

	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		name := f.Name
		if name == "stylepack.manifest.txt" {
			continue
		}
		// Entries are either "styles/..." from ExportPack or bare preset
		// files from hand-built packs; both land under the styles dir.
		targetRel := strings.TrimPrefix(name, stylesDirName+"/")
		targetPath := filepath.Join(dir, filepath.FromSlash(targetRel))
		if !strings.HasPrefix(targetPath, dir) {
			l.Warn("skip entry escaping styles dir", slog.String("name", name))
			continue
		}
		if _, err := os.Stat(targetPath); err == nil {
			l.Warn("skip existing file", slog.String("path", targetPath))
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return installed, err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return installed, err
		}
		rc, err := f.Open()
		if err != nil {
			return installed, err
		}
		out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			_ = rc.Close()
			return installed, err
		}
		if _, err := io.Copy(out, rc); err != nil {
			_ = out.Close()
			_ = rc.Close()
			return installed, err
		}
		_ = out.Close()
		_ = rc.Close()
		installed++
	}
	l.Info("style pack installed", slog.Int("files", installed))
	return installed, nil
}
