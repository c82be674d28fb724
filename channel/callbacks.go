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

package channel

import (
	"reflect"
	"sync"
)

// CallbackFunc receives a dispatched Message. c is the channel that
// raised it; msg.Data is only valid for the duration of the call
// (spec §3 zero-copy contract).
type CallbackFunc func(c *Channel, msg *Message) error

// callbackKey identifies a (fn, user) registration for Add's
// idempotency and Remove's matching. Go func values aren't
// comparable, so identity is the function's code pointer plus the
// user value, the common idiom for "same callback" comparison.
type callbackKey struct {
	fn   uintptr
	user any
}

func keyOf(fn CallbackFunc, user any) callbackKey {
	return callbackKey{fn: reflect.ValueOf(fn).Pointer(), user: user}
}

type callbackEntry struct {
	key  callbackKey
	fn   CallbackFunc
	mask MsgClass
}

// callbackTable is a realloc-grown slice of {fn, user, mask}, shrunk
// to the last live entry after removals — grounded on
// concurrency/gopool's worker-slice bookkeeping (mutex-guarded
// growth/shrink of a live-entry slice), generalized here from
// goroutine-count accounting to callback-entry accounting.
type callbackTable struct {
	mu      sync.Mutex
	entries []callbackEntry
}

// add registers fn/user for mask, OR-ing into an existing entry for
// the same (fn, user) pair (spec §4.6 "Add is idempotent... and ORs
// the mask").
func (t *callbackTable) add(fn CallbackFunc, user any, mask MsgClass) {
	k := keyOf(fn, user)
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].key == k {
			t.entries[i].mask |= mask
			return
		}
	}
	t.entries = append(t.entries, callbackEntry{key: k, fn: fn, mask: mask})
}

// remove ANDs mask out of the matching entry and drops it once its
// mask becomes empty (spec §4.6), shrinking the backing slice to its
// last live element.
func (t *callbackTable) remove(fn CallbackFunc, user any, mask MsgClass) {
	k := keyOf(fn, user)
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if t.entries[i].key != k {
			continue
		}
		t.entries[i].mask &^= mask
		if t.entries[i].mask == 0 {
			last := len(t.entries) - 1
			t.entries[i] = t.entries[last]
			t.entries = t.entries[:last]
		}
		return
	}
}

// snapshot returns a copy of the live entries whose mask intersects
// class, taken under the table lock but called outside it so a
// callback that re-enters the channel (e.g. to remove itself, spec §9
// "callback reentrancy") never deadlocks against this table's mutex.
func (t *callbackTable) snapshot(class MsgClass) []callbackEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]callbackEntry, 0, len(t.entries))
	for _, e := range t.entries {
		if e.mask&class != 0 {
			out = append(out, e)
		}
	}
	return out
}

func (t *callbackTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
