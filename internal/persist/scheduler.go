/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package persist

import "time"

// Timer is a cancellable deferred callback handle.
type Timer interface {
	// Stop cancels the timer. Reports whether the callback was prevented
	// from running.
	Stop() bool
}

// Scheduler abstracts deferred callbacks so queue timing (debounce, retry
// delay, saved-status grace) can be simulated deterministically in tests
// without wall-clock waits.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// wallClock is the production scheduler backed by time.AfterFunc.
type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
