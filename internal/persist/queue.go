/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package persist reconciles locally-applied feature mutations with the
// remote store without blocking the editor, under bursty input. It is a
// write-behind queue: debounced, coalescing (last write wins per feature and
// operation), draining strictly one item at a time, retrying failures with a
// fixed delay up to a bounded count, and reporting progress only through a
// status value and callbacks.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	applog "mapstoryeditor/internal/log"
	"mapstoryeditor/internal/schema"
)

// Operation is the persistence-level mutation kind.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Intent is one requested change to one feature. Payload is a
// semantics-complete snapshot, not a diff.
type Intent struct {
	FeatureID string
	Operation Operation
	Payload   json.RawMessage
	Priority  int
	QueuedAt  time.Time

	// Retries counts failed write attempts so far.
	Retries int

	seq uint64 // insertion order, breaks priority ties
}

// Status is the only state the presentation layer reads to drive a
// "saving…" indicator.
type Status string

const (
	StatusIdle   Status = "idle"
	StatusSaving Status = "saving"
	StatusSaved  Status = "saved" // transient, auto-reverts to idle
	StatusError  Status = "error"
)

// Store issues one durable write per intent. Any rejection is treated as
// recoverable up to the queue's retry limit.
type Store interface {
	Save(ctx context.Context, intent Intent) error
}

// ErrDisposed is returned by Enqueue after Dispose.
var ErrDisposed = errors.New("persist: queue disposed")

// Config controls queue timing and limits. Zero values take defaults.
type Config struct {
	// Debounce is the quiet period after the last enqueue before draining
	// begins. Default 1s.
	Debounce time.Duration
	// MaxQueue triggers an immediate drain when the queue reaches this many
	// pending items, bypassing the debounce window. Default 50.
	MaxQueue int
	// MaxRetries is the number of failed attempts after which an item is
	// dropped and reported as a terminal failure. Default 3.
	MaxRetries int
	// RetryDelay is the fixed wait before the drain loop continues after a
	// failed write. Deliberately linear, not exponential.
	RetryDelay time.Duration
	// SavedGrace is how long the transient "saved" status is shown before
	// reverting to idle. Default 2s.
	SavedGrace time.Duration
}

func (c *Config) setDefaults() {
	if c.Debounce <= 0 {
		c.Debounce = time.Second
	}
	if c.MaxQueue <= 0 {
		c.MaxQueue = 50
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
	if c.SavedGrace <= 0 {
		c.SavedGrace = 2 * time.Second
	}
}

// Queue is the write-behind persistence queue for one editing session.
// All public methods return immediately; completion is reported via the
// status and error callbacks.
type Queue struct {
	cfg   Config
	store Store
	sched Scheduler
	log   *slog.Logger

	// OnStatus is invoked on every status transition. Optional.
	OnStatus func(Status)
	// OnSaved is invoked after each successfully written intent. Optional.
	OnSaved func(Intent)
	// OnError is invoked exactly once per terminally failed item, carrying
	// the dropped intent and the last underlying error. Optional.
	OnError func(Intent, error)

	mu       sync.Mutex
	items    []Intent
	status   Status
	debounce Timer
	grace    Timer
	draining bool
	disposed bool
	drainErr bool // a terminal failure occurred in the current drain
	gen      uint64
	nextSeq  uint64
}

// NewQueue creates a queue writing through the given store. A nil scheduler
// uses real timers.
func NewQueue(cfg Config, store Store, sched Scheduler) *Queue {
	cfg.setDefaults()
	if sched == nil {
		sched = wallClock{}
	}
	return &Queue{
		cfg:    cfg,
		store:  store,
		sched:  sched,
		log:    applog.WithComponent("persist"),
		status: StatusIdle,
	}
}

// Enqueue registers a mutation intent. A pending item with the same
// (featureID, operation) is replaced in place with the new payload; otherwise
// the intent is appended. The queue is kept sorted by descending priority
// with insertion order breaking ties. Reaching the configured cap triggers an
// immediate drain instead of waiting out the debounce window.
func (q *Queue) Enqueue(featureID string, op Operation, payload json.RawMessage, priority int) error {
	if err := schema.ValidatePayload(string(op), payload); err != nil {
		return err
	}

	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return ErrDisposed
	}

	replaced := false
	for i := range q.items {
		if q.items[i].FeatureID == featureID && q.items[i].Operation == op {
			// Last write wins; the item keeps its queue position.
			q.items[i].Payload = payload
			q.items[i].Priority = priority
			q.items[i].QueuedAt = time.Now()
			replaced = true
			break
		}
	}
	if !replaced {
		q.nextSeq++
		q.items = append(q.items, Intent{
			FeatureID: featureID,
			Operation: op,
			Payload:   payload,
			Priority:  priority,
			QueuedAt:  time.Now(),
			seq:       q.nextSeq,
		})
	}
	sort.SliceStable(q.items, func(i, j int) bool {
		if q.items[i].Priority != q.items[j].Priority {
			return q.items[i].Priority > q.items[j].Priority
		}
		return q.items[i].seq < q.items[j].seq
	})

	if q.debounce != nil {
		q.debounce.Stop()
		q.debounce = nil
	}

	if len(q.items) >= q.cfg.MaxQueue {
		// Backpressure valve: drain now rather than buffering further.
		q.log.Debug("queue cap reached, draining immediately", slog.Int("pending", len(q.items)))
		notify := q.startDrainLocked()
		q.mu.Unlock()
		notify()
		return nil
	}

	gen := q.gen
	q.debounce = q.sched.AfterFunc(q.cfg.Debounce, func() {
		q.mu.Lock()
		if q.disposed || gen != q.gen {
			q.mu.Unlock()
			return
		}
		notify := q.startDrainLocked()
		q.mu.Unlock()
		notify()
	})
	q.mu.Unlock()
	return nil
}

// Flush forces an immediate drain of all pending items without waiting for
// the debounce window.
func (q *Queue) Flush() {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return
	}
	if q.debounce != nil {
		q.debounce.Stop()
		q.debounce = nil
	}
	notify := q.startDrainLocked()
	q.mu.Unlock()
	notify()
}

// Pending returns the number of queued intents.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Status returns the current queue status.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

// Dispose clears all pending items and timers. In-flight writes are not
// aborted but their results are ignored. The queue cannot be reused.
func (q *Queue) Dispose() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.disposed = true
	q.gen++
	if q.debounce != nil {
		q.debounce.Stop()
		q.debounce = nil
	}
	if q.grace != nil {
		q.grace.Stop()
		q.grace = nil
	}
	q.items = nil
	q.draining = false
}

// startDrainLocked begins draining if not already in progress. Caller holds
// q.mu; the returned function delivers any status notification after the
// lock is released.
func (q *Queue) startDrainLocked() func() {
	if q.draining || len(q.items) == 0 {
		return func() {}
	}
	q.draining = true
	q.drainErr = false
	notify := q.setStatusLocked(StatusSaving)
	gen := q.gen
	go q.drainStep(gen)
	return notify
}

// drainStep processes exactly one queued item, then either recurses, waits
// out a retry delay, or finishes. Writes are strictly serial: no two are
// ever in flight concurrently from the same session.
func (q *Queue) drainStep(gen uint64) {
	q.mu.Lock()
	if q.disposed || gen != q.gen {
		q.mu.Unlock()
		return
	}
	if len(q.items) == 0 {
		q.draining = false
		var notify func()
		if q.drainErr {
			notify = q.setStatusLocked(StatusError)
		} else {
			notify = q.setStatusLocked(StatusSaved)
			savedGen := q.gen
			q.grace = q.sched.AfterFunc(q.cfg.SavedGrace, func() {
				q.mu.Lock()
				if q.disposed || savedGen != q.gen || q.status != StatusSaved {
					q.mu.Unlock()
					return
				}
				n := q.setStatusLocked(StatusIdle)
				q.mu.Unlock()
				n()
			})
		}
		q.mu.Unlock()
		notify()
		return
	}
	item := q.items[0]
	q.items = q.items[1:]
	q.mu.Unlock()

	err := q.store.Save(context.Background(), item)

	q.mu.Lock()
	if q.disposed || gen != q.gen {
		// Session closed while the write was in flight; drop the result.
		q.mu.Unlock()
		return
	}
	if err == nil {
		q.mu.Unlock()
		if q.OnSaved != nil {
			q.OnSaved(item)
		}
		q.drainStep(gen)
		return
	}

	item.Retries++
	if item.Retries >= q.cfg.MaxRetries {
		// Terminal failure: drop the item, tell the caller, keep going.
		q.drainErr = true
		q.mu.Unlock()
		q.log.Error("write abandoned after retries",
			slog.String("feature", item.FeatureID),
			slog.String("op", string(item.Operation)),
			slog.Int("retries", item.Retries),
			slog.Any("err", err))
		if q.OnError != nil {
			q.OnError(item, err)
		}
		q.drainStep(gen)
		return
	}

	// Recoverable: move the item to the back and continue after a fixed
	// delay. Linear backoff is intentional (documented limitation).
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.log.Warn("write failed, will retry",
		slog.String("feature", item.FeatureID),
		slog.Int("attempt", item.Retries),
		slog.Any("err", err))
	q.sched.AfterFunc(q.cfg.RetryDelay, func() { q.drainStep(gen) })
}

// setStatusLocked updates the status and returns a function that fires the
// callback outside the lock.
func (q *Queue) setStatusLocked(s Status) func() {
	if q.status == s {
		return func() {}
	}
	q.status = s
	cb := q.OnStatus
	if cb == nil {
		return func() {}
	}
	return func() { cb(s) }
}
