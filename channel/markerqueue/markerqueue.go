/*
 * Copyright 2026 The tll-go Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package markerqueue is the multi-producer/single-consumer pointer
// queue from spec §4.7, used to fan per-client request markers into
// one awakening point on a server channel. It reuses gopool's
// buffered-channel-plus-full-fallback shape (concurrency/gopool.Go:
// non-blocking send, caller decides the fallback) adapted from a queue
// of closures to a queue of opaque non-nil pointer markers, with Pop's
// empty return standing in for the spec's sentinel "zero" slot.
package markerqueue

import "unsafe"

// Queue is a bounded MPSC queue of non-nil pointer markers.
type Queue struct {
	ch chan unsafe.Pointer
}

// New creates a queue with the given buffer capacity.
func New(capacity int) *Queue {
	return &Queue{ch: make(chan unsafe.Pointer, capacity)}
}

// Push enqueues marker from any producer goroutine. It never blocks:
// like gopool.CtxGo's "full? fall back to go directly" policy, a full
// queue reports false and leaves the fallback decision to the caller.
func (q *Queue) Push(marker unsafe.Pointer) bool {
	if marker == nil {
		panic("markerqueue: nil marker")
	}
	select {
	case q.ch <- marker:
		return true
	default:
		return false
	}
}

// Pop dequeues one marker for the single consumer. ok is false when
// the queue is empty (the spec's sentinel "zero" slot).
func (q *Queue) Pop() (marker unsafe.Pointer, ok bool) {
	select {
	case m := <-q.ch:
		return m, true
	default:
		return nil, false
	}
}

// Len reports the number of markers currently queued.
func (q *Queue) Len() int { return len(q.ch) }
