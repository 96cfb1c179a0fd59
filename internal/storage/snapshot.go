/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"mapstoryeditor/internal/domain"
)

// SessionHandle tracks the document a session has open on disk.
type SessionHandle struct {
	Root     string
	Document *domain.MapDocument
}

const crashDirName = "crash"

// AutosaveCrashSnapshot writes the in-memory document to a timestamped JSON
// file under <root>/.mse/crash/ so an interrupted session can be inspected
// or restored. Returns the written path.
func AutosaveCrashSnapshot(h *SessionHandle) (string, error) {
	if h == nil || h.Document == nil {
		return "", errors.New("no document to snapshot")
	}
	dir := filepath.Join(h.Root, CacheDirName, crashDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create crash dir: %w", err)
	}
	data, err := json.MarshalIndent(h.Document, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("document-%s.json", time.Now().UTC().Format("20060102T150405")))
	if err := writeFileSync(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// LatestCrashSnapshot loads the most recent crash snapshot, if any.
func LatestCrashSnapshot(root string) (*domain.MapDocument, error) {
	dir := filepath.Join(root, CacheDirName, crashDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read crash dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)
	data, err := os.ReadFile(filepath.Join(dir, names[len(names)-1]))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var doc domain.MapDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &doc, nil
}

// writeFileSync writes data then fsyncs both file and directory so the
// snapshot survives a hard crash.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if _, err = f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if d, derr := os.Open(filepath.Dir(path)); derr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}
