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

// Package namemap is a small open-addressing string->V table used for
// the channel context's proto/alias registry and channel-name index.
//
// It is grounded on container/strmap's preference for a flat slice of
// entries over a Go map (avoids per-entry pointer chasing, keeps the
// whole table cache-friendly) but, unlike strmap, supports incremental
// Put/Delete: the registry gains implementations at startup (and
// sometimes from a loaded module later) and the name index gains and
// loses entries for the whole process lifetime as channels come and
// go, so a rebuild-the-whole-table-on-every-write design does not fit.
//
// Slot placement and the package's exported HashString/HashBytes both
// run on the same hash: a fast, non-cross-platform-stable FNV-1a
// variant that reads a string/slice's backing array 8 bytes at a time.
// It is for in-memory lookups only — proto registries and channel-name
// indexes built fresh per process — never for anything persisted or
// compared across processes, so the per-arch instability this buys in
// exchange for speed is harmless, and so is dropping per-table random
// seeding: every key this package ever hashes comes from the scheme
// and config this same process loaded, not from an adversary.
package namemap

import "unsafe"

const (
	hashOffset = uint64(14695981039346656037)
	hashPrime  = uint64(1099511628211)
)

// HashString returns an in-memory-only hash of s, exported for callers
// that just need a quick dedup hash and not a full Map — the channel
// context's proto alias-loop and init-replace-cycle detection sets use
// it this way instead of pulling in a second hashing package.
func HashString(s string) uint64 {
	if len(s) == 0 {
		return hashOffset
	}
	return hashBytesFrom(unsafe.Pointer(unsafe.StringData(s)), len(s))
}

// HashBytes returns an in-memory-only hash of b.
func HashBytes(b []byte) uint64 {
	if len(b) == 0 {
		return hashOffset
	}
	return hashBytesFrom(unsafe.Pointer(unsafe.SliceData(b)), len(b))
}

func hashBytesFrom(p unsafe.Pointer, n int) uint64 {
	h := hashOffset
	i := 0
	for m := n >> 3; i < m; i++ {
		h ^= *(*uint64)(unsafe.Add(p, i<<3))
		h *= hashPrime
	}
	i <<= 3
	for ; i < n; i++ {
		h ^= uint64(*(*byte)(unsafe.Add(p, i)))
		h *= hashPrime
	}
	return h
}

type entry[V any] struct {
	key           string
	value         V
	used, deleted bool
}

// Map is a linear-probed open-addressing table. Not safe for
// concurrent use without an external lock (callers already hold one —
// see channel.Context's registry mutex).
type Map[V any] struct {
	entries []entry[V]
	count   int // live entries
	used    int // live + tombstoned
}

func New[V any]() *Map[V] {
	return &Map[V]{}
}

func (m *Map[V]) Len() int { return m.count }

func (m *Map[V]) slot(key string, cap int) int {
	return int(HashString(key) % uint64(cap))
}

func (m *Map[V]) ensureCapacity() {
	if len(m.entries) == 0 {
		m.entries = make([]entry[V], 8)
		return
	}
	// grow when 75% full (counting tombstones, so repeated
	// put/delete churn still triggers a compaction eventually)
	if m.used*4 >= len(m.entries)*3 {
		m.rehash(len(m.entries) * 2)
	}
}

func (m *Map[V]) rehash(newCap int) {
	old := m.entries
	m.entries = make([]entry[V], newCap)
	m.used = 0
	m.count = 0
	for _, e := range old {
		if e.used && !e.deleted {
			m.put(e.key, e.value)
		}
	}
}

// Put inserts or overwrites the value for key.
func (m *Map[V]) Put(key string, v V) {
	m.ensureCapacity()
	m.put(key, v)
}

func (m *Map[V]) put(key string, v V) {
	n := len(m.entries)
	i := m.slot(key, n)
	firstTombstone := -1
	for probes := 0; probes < n; probes++ {
		e := &m.entries[i]
		if !e.used {
			if firstTombstone >= 0 {
				i = firstTombstone
				e = &m.entries[i]
			}
			e.key, e.value, e.used, e.deleted = key, v, true, false
			m.count++
			m.used++
			return
		}
		if e.deleted {
			if firstTombstone < 0 {
				firstTombstone = i
			}
		} else if e.key == key {
			e.value = v
			return
		}
		i = (i + 1) % n
	}
	// table full of tombstones/collisions; grow and retry
	m.rehash(n * 2)
	m.put(key, v)
}

// Get returns the value for key and whether it was present.
func (m *Map[V]) Get(key string) (v V, ok bool) {
	n := len(m.entries)
	if n == 0 {
		return v, false
	}
	i := m.slot(key, n)
	for probes := 0; probes < n; probes++ {
		e := &m.entries[i]
		if !e.used {
			return v, false
		}
		if !e.deleted && e.key == key {
			return e.value, true
		}
		i = (i + 1) % n
	}
	return v, false
}

// Delete removes key if present.
func (m *Map[V]) Delete(key string) {
	n := len(m.entries)
	if n == 0 {
		return
	}
	i := m.slot(key, n)
	for probes := 0; probes < n; probes++ {
		e := &m.entries[i]
		if !e.used {
			return
		}
		if !e.deleted && e.key == key {
			e.deleted = true
			m.count--
			return
		}
		i = (i + 1) % n
	}
}

// Range calls f for every live entry in unspecified order. f must not
// mutate the map.
func (m *Map[V]) Range(f func(key string, v V) bool) {
	for _, e := range m.entries {
		if e.used && !e.deleted {
			if !f(e.key, e.value) {
				return
			}
		}
	}
}
