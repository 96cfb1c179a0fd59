/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history records reversible feature mutations for one editing
// session and supports linear undo/redo. The history is two bounded stacks;
// recording a new entry invalidates the redo stack (branching history is not
// supported). Entries are immutable once recorded.
package history

import (
	"sync"
	"time"

	"mapstoryeditor/internal/domain"
)

// Action classifies an undoable step. The persistence queue only knows
// create/update/delete; style and geometry are update sub-kinds kept for
// undo granularity and UI labels.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionStyle    Action = "style"
	ActionGeometry Action = "geometry"
)

// Entry is one undoable step. Previous is nil for a create, Next is nil for
// a delete.
type Entry struct {
	FeatureID   string
	Action      Action
	Previous    *domain.FeatureState
	Next        *domain.FeatureState
	At          time.Time
	Description string
}

// Config controls stack depth.
type Config struct {
	// MaxDepth limits entries kept per stack; the oldest are dropped
	// silently on overflow. 0 means the default.
	MaxDepth int
}

const defaultMaxDepth = 100

// History provides the bounded undo/redo stacks for a session.
// It is safe for concurrent use.
type History struct {
	maxDepth int
	mu       sync.Mutex
	undo     []Entry
	redo     []Entry
}

func New(cfg Config) *History {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = defaultMaxDepth
	}
	return &History{maxDepth: cfg.MaxDepth}
}

// Record pushes an entry onto the undo stack and clears the redo stack.
// Overflow drops the oldest entry, never errors.
func (h *History) Record(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if e.At.IsZero() {
		e.At = time.Now()
	}
	h.undo = append(h.undo, e)
	if len(h.undo) > h.maxDepth {
		h.undo = append(h.undo[:0], h.undo[len(h.undo)-h.maxDepth:]...)
	}
	// Any new change invalidates redo.
	h.redo = nil
}

// Undo pops the most recent entry and moves it to the redo stack. The caller
// re-applies entry.Previous (nil meaning delete the feature). Returns false
// with nothing to undo.
func (h *History) Undo() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undo) == 0 {
		return Entry{}, false
	}
	e := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, e)
	if len(h.redo) > h.maxDepth {
		h.redo = append(h.redo[:0], h.redo[len(h.redo)-h.maxDepth:]...)
	}
	return e, true
}

// Redo pops from the redo stack and moves the entry back to undo. The caller
// re-applies entry.Next. Returns false with nothing to redo.
func (h *History) Redo() (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.redo) == 0 {
		return Entry{}, false
	}
	e := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, e)
	return e, true
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo) > 0
}

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redo) > 0
}

// Depths returns current stack sizes for diagnostics and button states.
func (h *History) Depths() (undo, redo int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undo), len(h.redo)
}

// Clear drops both stacks, e.g. when the session closes or switches documents.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undo = nil
	h.redo = nil
}
