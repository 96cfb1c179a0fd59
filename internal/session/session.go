/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package session ties the editing engine together: one Session per open
// map document owns the mutation history, the persistence queue and the
// free-hand sampler, and wires them so that every local edit, undo and redo
// eventually becomes durable. The presentation layer talks only to the
// Session: it issues edits and undo/redo, and reads back queue status and
// history depth for its indicators.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"mapstoryeditor/internal/domain"
	"mapstoryeditor/internal/history"
	applog "mapstoryeditor/internal/log"
	"mapstoryeditor/internal/persist"
	"mapstoryeditor/internal/sketch"
	"mapstoryeditor/internal/storage"
	"mapstoryeditor/internal/stylepack"
	"mapstoryeditor/internal/telemetry"
)

// Applier applies feature state to the map surface. A nil state removes the
// feature from the map.
type Applier interface {
	ApplyFeature(featureID string, state *domain.FeatureState)
}

// Config bundles engine tuning for one session.
type Config struct {
	HistoryDepth int
	Queue        persist.Config
	// SketchStyles overrides the built-in style per free-hand mode, e.g.
	// from the document's style presets. Missing modes use the defaults.
	SketchStyles map[sketch.Mode]domain.Style
}

// Session is the editing engine for one open map document. MutationIntent
// and HistoryEntry state live only here; both are discarded when the
// session closes.
type Session struct {
	log     *slog.Logger
	history *history.History
	queue   *persist.Queue
	sampler *sketch.Sampler
	applier Applier
	drafts  *storage.DraftStore // optional unsynced-payload journal
	styles  map[sketch.Mode]domain.Style

	// OnSaveError is invoked when a mutation is dropped after exhausting
	// its retries, so the presentation layer can surface a save-failed
	// notice. Set before the first edit.
	OnSaveError func(featureID string, err error)

	mu     sync.Mutex
	closed bool
}

// New builds a session over the given store and map surface. drafts may be
// nil to disable the local journal. sched may be nil for real timers.
func New(cfg Config, store persist.Store, surface sketch.Surface, applier Applier, drafts *storage.DraftStore, sched persist.Scheduler) *Session {
	s := &Session{
		log:     applog.WithComponent("session"),
		history: history.New(history.Config{MaxDepth: cfg.HistoryDepth}),
		applier: applier,
		drafts:  drafts,
		styles:  cfg.SketchStyles,
	}
	s.queue = persist.NewQueue(cfg.Queue, store, sched)
	s.queue.OnSaved = func(it persist.Intent) {
		if s.drafts != nil {
			if err := s.drafts.Delete(context.Background(), it.FeatureID, string(it.Operation)); err != nil {
				s.log.Warn("draft cleanup failed", slog.String("feature", it.FeatureID), slog.Any("err", err))
			}
		}
	}
	s.queue.OnError = func(it persist.Intent, err error) {
		s.log.Error("save failed permanently",
			slog.String("feature", it.FeatureID),
			slog.String("op", string(it.Operation)),
			slog.Any("err", err))
		telemetry.Event(telemetry.EventSyncFailed, map[string]any{
			"op":      string(it.Operation),
			"retries": it.Retries,
		})
		if s.OnSaveError != nil {
			s.OnSaveError(it.FeatureID, err)
		}
	}
	s.sampler = sketch.New(surface, s.onShape)
	return s
}

// Queue exposes the persistence queue for status callbacks and flushing.
func (s *Session) Queue() *persist.Queue { return s.queue }

// Sampler exposes the free-hand capture state machine for pointer wiring.
func (s *Session) Sampler() *sketch.Sampler { return s.sampler }

// ApplyEdit records one locally-applied mutation: it enters the undo
// history and is scheduled for persistence. prev is nil for a create, next
// is nil for a delete.
func (s *Session) ApplyEdit(featureID string, action history.Action, prev, next *domain.FeatureState, description string) error {
	if err := s.schedule(featureID, operationFor(action, next), next); err != nil {
		// A mutation the queue rejects must not become undoable either.
		return err
	}
	s.history.Record(history.Entry{
		FeatureID:   featureID,
		Action:      action,
		Previous:    prev.Clone(),
		Next:        next.Clone(),
		Description: description,
	})
	return nil
}

// Undo reverts the most recent mutation: the feature's previous state is
// re-applied to the map and the reversal itself is queued for persistence.
// A no-op with nothing to undo.
func (s *Session) Undo() bool {
	e, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.applier.ApplyFeature(e.FeatureID, e.Previous.Clone())
	op := persist.OpUpdate
	switch {
	case e.Previous == nil:
		// Undoing a create removes the feature.
		op = persist.OpDelete
	case e.Action == history.ActionDelete:
		// Undoing a delete restores the feature remotely.
		op = persist.OpCreate
	}
	if err := s.schedule(e.FeatureID, op, e.Previous); err != nil {
		s.log.Warn("undo persistence failed", slog.String("feature", e.FeatureID), slog.Any("err", err))
	}
	return true
}

// Redo re-applies the most recently undone mutation and queues it for
// persistence. A no-op with nothing to redo.
func (s *Session) Redo() bool {
	e, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.applier.ApplyFeature(e.FeatureID, e.Next.Clone())
	op := persist.OpUpdate
	switch {
	case e.Next == nil:
		op = persist.OpDelete
	case e.Action == history.ActionCreate:
		op = persist.OpCreate
	}
	if err := s.schedule(e.FeatureID, op, e.Next); err != nil {
		s.log.Warn("redo persistence failed", slog.String("feature", e.FeatureID), slog.Any("err", err))
	}
	return true
}

// CanUndo reports whether an undo step is available, for button states.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether a redo step is available.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// Status returns the persistence queue status for the saving indicator.
func (s *Session) Status() persist.Status { return s.queue.Status() }

// Close is the single teardown path: any in-progress gesture is aborted,
// pending work and timers are dropped, and the history is cleared. In-flight
// network results are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.sampler.Abort()
	s.queue.Dispose()
	s.history.Clear()
	if s.drafts != nil {
		if err := s.drafts.Close(); err != nil {
			s.log.Warn("draft store close failed", slog.Any("err", err))
		}
	}
	s.log.Debug("session closed")
}

// onShape turns a finished free-hand stroke into a feature creation
// indistinguishable from a normally drawn shape.
func (s *Session) onShape(shape sketch.Shape) {
	style, ok := s.styles[shape.Mode]
	if !ok {
		style = defaultStyleFor(shape.Mode)
	}
	state := &domain.FeatureState{
		Geometry:       domain.Geometry{Kind: geometryKind(shape), Points: shape.Points},
		Style:          style,
		VertexEditable: shape.VertexEditable,
	}
	featureID := uuid.NewString()
	telemetry.Event(telemetry.EventFreehandStroke, map[string]any{
		"mode":   string(shape.Mode),
		"points": len(shape.Points),
	})
	s.applier.ApplyFeature(featureID, state)
	if err := s.ApplyEdit(featureID, history.ActionCreate, nil, state, "freehand "+string(shape.Mode)); err != nil {
		s.log.Warn("freehand persistence failed", slog.String("feature", featureID), slog.Any("err", err))
	}
}

// schedule serializes the state and hands it to the queue, journaling it in
// the draft cache first when one is configured.
func (s *Session) schedule(featureID string, op persist.Operation, state *domain.FeatureState) error {
	var payload json.RawMessage
	if op == persist.OpDelete {
		payload = json.RawMessage(fmt.Sprintf(`{"id":%q}`, featureID))
	} else {
		data, err := json.Marshal(state)
		if err != nil {
			return fmt.Errorf("marshal feature state: %w", err)
		}
		payload = data
	}
	if s.drafts != nil {
		if err := s.drafts.Upsert(context.Background(), featureID, string(op), payload); err != nil {
			s.log.Warn("draft journal failed", slog.String("feature", featureID), slog.Any("err", err))
		}
	}
	return s.queue.Enqueue(featureID, op, payload, 0)
}

func operationFor(action history.Action, next *domain.FeatureState) persist.Operation {
	switch {
	case action == history.ActionCreate:
		return persist.OpCreate
	case action == history.ActionDelete || next == nil:
		return persist.OpDelete
	default:
		return persist.OpUpdate
	}
}

func geometryKind(shape sketch.Shape) string {
	if shape.Mode == sketch.ModeFilledArea {
		return "Polygon"
	}
	return "LineString"
}

// SketchStylesFromPresets maps style presets named after the free-hand modes
// ("annotation", "highlighter", "filled-area") onto sketch styles. Presets
// with other names are ignored here; they remain selectable for regular
// feature styling.
func SketchStylesFromPresets(presets []stylepack.Preset) map[sketch.Mode]domain.Style {
	known := map[string]sketch.Mode{
		string(sketch.ModeAnnotation):  sketch.ModeAnnotation,
		string(sketch.ModeHighlighter): sketch.ModeHighlighter,
		string(sketch.ModeFilledArea):  sketch.ModeFilledArea,
	}
	out := make(map[sketch.Mode]domain.Style)
	for _, p := range presets {
		if mode, ok := known[p.Name]; ok {
			out[mode] = p.Style
		}
	}
	return out
}

func defaultStyleFor(mode sketch.Mode) domain.Style {
	switch mode {
	case sketch.ModeHighlighter:
		return domain.Style{StrokeColor: "#ffe84d", StrokeWidth: 12, Opacity: 0.45}
	case sketch.ModeFilledArea:
		return domain.Style{StrokeColor: "#2c7fb8", StrokeWidth: 2, FillColor: "#2c7fb8", Opacity: 0.3}
	default:
		return domain.Style{StrokeColor: "#d7261e", StrokeWidth: 3, Opacity: 1}
	}
}
