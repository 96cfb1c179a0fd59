/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Leveler{
		"debug":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandlerFormatsAttrs(t *testing.T) {
	var sb strings.Builder
	h := &consoleHandler{level: slog.LevelDebug, w: &sb}
	l := slog.New(h).With(slog.String("component", "queue"))
	l.Info("saved", slog.Int("pending", 3))
	out := sb.String()
	if !strings.Contains(out, "INF saved") {
		t.Fatalf("missing level/message in %q", out)
	}
	if !strings.Contains(out, "component=queue") || !strings.Contains(out, "pending=3") {
		t.Fatalf("missing attributes in %q", out)
	}
}

func TestConsoleHandlerGroups(t *testing.T) {
	var sb strings.Builder
	base := &consoleHandler{level: slog.LevelDebug, w: &sb}
	h := base.WithGroup("sync").WithAttrs([]slog.Attr{slog.String("status", "saving")})
	if err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "drain", 0)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(sb.String(), "sync.status=saving") {
		t.Fatalf("group prefix missing in %q", sb.String())
	}
}

func TestInitFromEnvDefaults(t *testing.T) {
	opts := FromEnv()
	if opts.Level != "info" || opts.Format != "console" {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}
