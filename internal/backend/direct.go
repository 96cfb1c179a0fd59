/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mapstoryeditor/internal/persist"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DirectStore writes features straight to a Postgres database, for
// self-hosted deployments that skip the hosted API. It implements
// persist.Store just like the HTTP client, so the queue does not care which
// mode is configured.
type DirectStore struct {
	db *sql.DB
}

// OpenDirect connects to Postgres at dsn and ensures the features table
// exists.
func OpenDirect(ctx context.Context, dsn string) (*DirectStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS features (
    id         TEXT PRIMARY KEY,
    payload    JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure features table: %w", err)
	}
	return &DirectStore{db: db}, nil
}

// Save implements persist.Store via upsert or delete.
func (s *DirectStore) Save(ctx context.Context, intent persist.Intent) error {
	switch intent.Operation {
	case persist.OpCreate, persist.OpUpdate:
		_, err := s.db.ExecContext(ctx, `
INSERT INTO features (id, payload, updated_at) VALUES ($1, $2, now())
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
			intent.FeatureID, []byte(intent.Payload))
		if err != nil {
			return fmt.Errorf("upsert feature %s: %w", intent.FeatureID, err)
		}
		return nil
	case persist.OpDelete:
		_, err := s.db.ExecContext(ctx, `DELETE FROM features WHERE id = $1`, intent.FeatureID)
		if err != nil {
			return fmt.Errorf("delete feature %s: %w", intent.FeatureID, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown operation %q", intent.Operation)
	}
}

// Close releases the database connection pool.
func (s *DirectStore) Close() error { return s.db.Close() }
