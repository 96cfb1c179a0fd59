/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend talks to the remote persistence API. It offers two
// interchangeable stores for the persistence queue: an HTTP JSON client for
// the hosted service and a direct-Postgres store for self-hosted
// deployments.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mapstoryeditor/internal/domain"
	"mapstoryeditor/internal/persist"
)

// Client is a minimal HTTP client for the map story API.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing
// slash; it will be normalized.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// Save implements persist.Store. One mutation payload per call, keyed by the
// feature identifier; any rejection is recoverable from the queue's point of
// view.
func (c *Client) Save(ctx context.Context, intent persist.Intent) error {
	path := "/api/features/" + url.PathEscape(intent.FeatureID)
	switch intent.Operation {
	case persist.OpCreate:
		return c.doJSON(ctx, http.MethodPost, "/api/features", envelope(intent), nil)
	case persist.OpUpdate:
		return c.doJSON(ctx, http.MethodPut, path, envelope(intent), nil)
	case persist.OpDelete:
		return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
	default:
		return fmt.Errorf("unknown operation %q", intent.Operation)
	}
}

func envelope(intent persist.Intent) map[string]any {
	return map[string]any{
		"featureId": intent.FeatureID,
		"payload":   intent.Payload,
	}
}

// GetDocument fetches a map document with its layers and stories.
func (c *Client) GetDocument(ctx context.Context, id string) (*domain.MapDocument, error) {
	var doc domain.MapDocument
	if err := c.doJSON(ctx, http.MethodGet, "/api/maps/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns available map documents.
func (c *Client) ListDocuments(ctx context.Context) ([]domain.MapDocument, error) {
	var list []domain.MapDocument
	if err := c.doJSON(ctx, http.MethodGet, "/api/maps", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetStory fetches one story timeline with its segments.
func (c *Client) GetStory(ctx context.Context, mapID, storyID string) (*domain.Story, error) {
	var story domain.Story
	p := fmt.Sprintf("/api/maps/%s/stories/%s", url.PathEscape(mapID), url.PathEscape(storyID))
	if err := c.doJSON(ctx, http.MethodGet, p, nil, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

// SaveSegment persists one story segment.
func (c *Client) SaveSegment(ctx context.Context, mapID, storyID string, seg domain.Segment) error {
	p := fmt.Sprintf("/api/maps/%s/stories/%s/segments/%s",
		url.PathEscape(mapID), url.PathEscape(storyID), url.PathEscape(seg.ID))
	return c.doJSON(ctx, http.MethodPut, p, seg, nil)
}

// Healthcheck verifies the remote API is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil, nil)
}
