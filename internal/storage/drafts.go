/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package storage keeps per-document local state under a .mse directory:
// an embedded SQLite cache of unsynced mutation payloads (so a crashed or
// offline session can be replayed against the remote store) and crash
// snapshots of the open document.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	applog "mapstoryeditor/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// CacheDirName stores all per-document ephemeral data under the
	// document root.
	CacheDirName   = ".mse"
	DraftsFileName = "drafts.sqlite"

	// schemaVersion tracks the local SQLite schema. Bump on breaking
	// schema changes and add migrations.
	schemaVersion = 1
)

// Draft is one unsynced mutation payload.
type Draft struct {
	FeatureID string
	Operation string
	Payload   []byte
	UpdatedAt time.Time
}

// DraftStore is the embedded draft cache for one document root.
type DraftStore struct {
	db   *sql.DB
	root string
}

// DraftsPath returns the full path to the document's draft database file.
func DraftsPath(docRoot string) string {
	return filepath.Join(docRoot, CacheDirName, DraftsFileName)
}

// OpenDrafts ensures the draft cache exists at <root>/.mse/drafts.sqlite,
// opens it in WAL mode, and ensures the schema is present.
func OpenDrafts(docRoot string) (*DraftStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "drafts_open").With(
		slog.String("root", docRoot),
	)
	if docRoot == "" {
		return nil, errors.New("document root is required")
	}
	if err := os.MkdirAll(filepath.Join(docRoot, CacheDirName), 0o755); err != nil {
		l.Error("create cache dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(DraftsPath(docRoot)))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	return &DraftStore{db: db, root: docRoot}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS drafts (
    feature_id TEXT NOT NULL,
    operation  TEXT NOT NULL,
    payload    BLOB NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (feature_id, operation)
);`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", schemaVersion))
	if err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

// Upsert records the latest unsynced payload for a (feature, operation)
// pair, mirroring the queue's coalescing rule.
func (s *DraftStore) Upsert(ctx context.Context, featureID, operation string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drafts(feature_id, operation, payload, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(feature_id, operation) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		featureID, operation, payload, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert draft %s/%s: %w", featureID, operation, err)
	}
	return nil
}

// Delete removes a draft once its write has been durably acknowledged.
func (s *DraftStore) Delete(ctx context.Context, featureID, operation string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE feature_id = ? AND operation = ?`, featureID, operation)
	if err != nil {
		return fmt.Errorf("delete draft %s/%s: %w", featureID, operation, err)
	}
	return nil
}

// List returns all unsynced drafts, oldest first, so a recovering session
// can replay them in order.
func (s *DraftStore) List(ctx context.Context) ([]Draft, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT feature_id, operation, payload, updated_at FROM drafts ORDER BY updated_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()
	var out []Draft
	for rows.Next() {
		var d Draft
		var ts string
		if err := rows.Scan(&d.FeatureID, &d.Operation, &d.Payload, &ts); err != nil {
			return nil, fmt.Errorf("scan draft: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			d.UpdatedAt = t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Clear drops all drafts, e.g. after a successful full replay.
func (s *DraftStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts`)
	return err
}

// Close releases the database handle.
func (s *DraftStore) Close() error { return s.db.Close() }
