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
	"context"
	"os"
	"testing"

	"mapstoryeditor/internal/domain"
)

func TestDraftUpsertCoalesces(t *testing.T) {
	root := t.TempDir()
	s, err := OpenDrafts(root)
	if err != nil {
		t.Fatalf("open drafts: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Upsert(ctx, "f1", "update", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Upsert(ctx, "f1", "update", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("upsert 2: %v", err)
	}
	drafts, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected one coalesced draft, got %d", len(drafts))
	}
	if string(drafts[0].Payload) != `{"v":2}` {
		t.Fatalf("last payload should win, got %s", drafts[0].Payload)
	}
}

func TestDraftDeleteAndClear(t *testing.T) {
	root := t.TempDir()
	s, err := OpenDrafts(root)
	if err != nil {
		t.Fatalf("open drafts: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	_ = s.Upsert(ctx, "f1", "update", []byte(`{}`))
	_ = s.Upsert(ctx, "f2", "create", []byte(`{}`))

	if err := s.Delete(ctx, "f1", "update"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	drafts, _ := s.List(ctx)
	if len(drafts) != 1 || drafts[0].FeatureID != "f2" {
		t.Fatalf("unexpected drafts after delete: %+v", drafts)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if drafts, _ := s.List(ctx); len(drafts) != 0 {
		t.Fatalf("drafts remain after clear: %+v", drafts)
	}
}

func TestOpenDraftsRequiresRoot(t *testing.T) {
	if _, err := OpenDrafts(""); err == nil {
		t.Fatalf("empty root accepted")
	}
}

func TestCrashSnapshotRoundTrip(t *testing.T) {
	root := t.TempDir()
	doc := &domain.MapDocument{ID: "m1", Name: "Alps"}
	path, err := AutosaveCrashSnapshot(&SessionHandle{Root: root, Document: doc})
	if err != nil {
		t.Fatalf("autosave: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}
	got, err := LatestCrashSnapshot(root)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got == nil || got.ID != "m1" || got.Name != "Alps" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestLatestCrashSnapshotNone(t *testing.T) {
	got, err := LatestCrashSnapshot(t.TempDir())
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", got, err)
	}
}
