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

// Package stat implements the lock-free, page-swapping statistics
// block every channel that tracks throughput holds, plus a removal-safe
// list for a collector to enumerate all live blocks.
//
// Field method dispatch follows the one-method-per-(method,type) table
// shape protocol/thrift/binary.go uses for its scalar codec: no
// reflection on the hot path, a small switch picked once when the
// field descriptor is built.
package stat

import (
	"sync/atomic"
	"unsafe"
)

// Method is the aggregation rule applied to repeated Update calls on a
// field within one page lifetime.
type Method int

const (
	Sum Method = iota
	Min
	Max
	Last
)

// ValueType is the wire/storage representation of a field's value.
type ValueType int

const (
	Int64 ValueType = iota
	Double
)

// FieldDescriptor is the 16-byte stat field descriptor from spec §6:
// method/type/unit (1 byte each) + a 7-byte name + an 8-byte value.
type FieldDescriptor struct {
	Method Method
	Type   ValueType
	Unit   string // stored as given; only the name is truncated
	name   [7]byte
	bits   uint64 // int64 or math.Float64bits, depending on Type
}

func (f *FieldDescriptor) Name() string {
	n := 0
	for n < len(f.name) && f.name[n] != 0 {
		n++
	}
	return string(f.name[:n])
}

func (f *FieldDescriptor) setName(name string) {
	n := copy(f.name[:], name)
	for i := n; i < len(f.name); i++ {
		f.name[i] = 0
	}
}

func (f *FieldDescriptor) identity() uint64 {
	switch f.Method {
	case Min:
		return uint64(int64(1)<<63 - 1) // +maxInt64, reduced downward
	case Max:
		return uint64(-(int64(1) << 62)) // a very negative sentinel, reduced upward
	default: // Sum, Last
		return 0
	}
}

func (f *FieldDescriptor) reset() { f.bits = f.identity() }

func (f *FieldDescriptor) apply(delta int64) {
	switch f.Method {
	case Sum:
		atomicAddInt64(&f.bits, delta)
	case Last:
		atomic.StoreUint64((*uint64)(unsafe.Pointer(&f.bits)), uint64(delta))
	case Min:
		atomicReduce(&f.bits, delta, func(cur, v int64) bool { return v < cur })
	case Max:
		atomicReduce(&f.bits, delta, func(cur, v int64) bool { return v > cur })
	}
}

func atomicAddInt64(addr *uint64, delta int64) {
	for {
		old := atomic.LoadUint64(addr)
		nv := uint64(int64(old) + delta)
		if atomic.CompareAndSwapUint64(addr, old, nv) {
			return
		}
	}
}

func atomicReduce(addr *uint64, v int64, better func(cur, v int64) bool) {
	for {
		old := atomic.LoadUint64(addr)
		if !better(int64(old), v) {
			return
		}
		if atomic.CompareAndSwapUint64(addr, old, uint64(v)) {
			return
		}
	}
}

// NewField builds a field descriptor for use in a Block layout. name
// is truncated to 7 bytes, matching the wire form in spec §6.
func NewField(name string, method Method, typ ValueType, unit string) FieldDescriptor {
	f := FieldDescriptor{Method: method, Type: typ, Unit: unit}
	f.setName(name)
	return f
}

// Int64Value returns the field's current raw int64 value.
func (f *FieldDescriptor) Int64Value() int64 {
	return int64(atomic.LoadUint64((*uint64)(unsafe.Pointer(&f.bits))))
}

// page is one fixed layout of fields; a Block holds two and swaps
// between them.
type page struct {
	fields []FieldDescriptor
}

func newPage(layout []FieldDescriptor) *page {
	p := &page{fields: make([]FieldDescriptor, len(layout))}
	copy(p.fields, layout)
	for i := range p.fields {
		p.fields[i].reset()
	}
	return p
}

func (p *page) field(name string) *FieldDescriptor {
	for i := range p.fields {
		if p.fields[i].Name() == name {
			return &p.fields[i]
		}
	}
	return nil
}

// Block is a named statistics block: two pages plus the active pointer
// and lock slot from spec §4.2.
type Block struct {
	Name string

	pages  [2]*page
	active atomic.Pointer[page]
	lock   atomic.Pointer[page]
}

// NewBlock creates a block with the given field layout, used to
// initialize both pages identically.
func NewBlock(name string, layout []FieldDescriptor) *Block {
	b := &Block{Name: name}
	b.pages[0] = newPage(layout)
	b.pages[1] = newPage(layout)
	b.active.Store(b.pages[0])
	b.lock.Store(b.pages[0])
	return b
}

// Acquire implements the "exchange-to-null" acquire protocol: it
// returns the active page if free, or nil if another writer currently
// holds it and this writer must skip the sample. While a writer holds
// the page, a collector's Swap fails instead of swapping under it.
func (b *Block) Acquire() *page {
	return b.lock.Swap(nil)
}

// Release returns the page obtained from Acquire.
func (b *Block) Release(p *page) {
	b.lock.Store(p)
}

// Update applies delta to the named field on the active page, skipping
// the sample entirely if another writer holds the page.
func (b *Block) Update(name string, delta int64) {
	p := b.Acquire()
	if p == nil {
		return // another writer holds the page; drop this sample rather than block
	}
	defer b.Release(p)
	if f := p.field(name); f != nil {
		f.apply(delta)
	}
}

// Swap implements the collector-side compare-exchange protocol: if the
// lock slot still points at the active page (no writer holds it), swap
// active/lock to the other page and return the now-inactive one for
// the collector to read. ok is false if a writer currently holds the
// lock; the collector should retry later.
func (b *Block) Swap() (inactive *page, ok bool) {
	cur := b.active.Load()
	other := b.pages[0]
	if cur == b.pages[0] {
		other = b.pages[1]
	}
	// Reset before publishing: once the CAS lands a writer may Acquire
	// other at once, and a reset after that would erase its update.
	for i := range other.fields {
		other.fields[i].reset()
	}
	if !b.lock.CompareAndSwap(cur, other) {
		return nil, false
	}
	b.active.Store(other)
	inactive = cur
	return inactive, true
}

// Value reads a named field's current value off a page returned by
// Swap (or, for debugging, off the live active page — racy but
// harmless for a read-only peek).
func (p *page) Value(name string) (int64, bool) {
	if f := p.field(name); f != nil {
		return f.Int64Value(), true
	}
	return 0, false
}

// Page exposes Value to callers holding a swapped-out page.
type Page = page
