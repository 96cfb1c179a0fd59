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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mapstoryeditor/internal/persist"
)

func TestSaveRoutesByOperation(t *testing.T) {
	type call struct {
		method string
		path   string
	}
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", auth)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", time.Second)
	payload := json.RawMessage(`{"geometry":{"type":"Point","points":[{"lng":1,"lat":2}]}}`)
	ops := []struct {
		op     persist.Operation
		method string
		path   string
	}{
		{persist.OpCreate, http.MethodPost, "/api/features"},
		{persist.OpUpdate, http.MethodPut, "/api/features/f1"},
		{persist.OpDelete, http.MethodDelete, "/api/features/f1"},
	}
	for _, tc := range ops {
		if err := c.Save(context.Background(), persist.Intent{FeatureID: "f1", Operation: tc.op, Payload: payload}); err != nil {
			t.Fatalf("save %s: %v", tc.op, err)
		}
	}
	for i, tc := range ops {
		if calls[i].method != tc.method || calls[i].path != tc.path {
			t.Fatalf("call %d was %+v, want %s %s", i, calls[i], tc.method, tc.path)
		}
	}
}

func TestSaveReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	err := c.Save(context.Background(), persist.Intent{FeatureID: "f1", Operation: persist.OpDelete})
	if err == nil {
		t.Fatalf("expected error from 500 response")
	}
}

func TestGetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/maps/m1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "m1", "name": "Alps"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "", time.Second) // trailing slash normalized
	doc, err := c.GetDocument(context.Background(), "m1")
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if doc.ID != "m1" || doc.Name != "Alps" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestUnknownOperation(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "", time.Second)
	if err := c.Save(context.Background(), persist.Intent{FeatureID: "f1", Operation: "merge"}); err == nil {
		t.Fatalf("unknown operation accepted")
	}
}
