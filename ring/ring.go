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

// Package ring is a single-producer/single-consumer ring buffer of
// variable-length byte records, the primitive every channel transport
// that crosses a thread boundary builds on.
//
// It generalizes container/ring's generics idiom (a typed, indexable
// Ring[V]) from a fixed-slot ring to a byte-framed SPSC queue: instead
// of N fixed Item[V] slots, Ring holds one contiguous []byte and
// frames each record with a 4-byte little-endian length prefix,
// padded so the next frame header stays 8-byte aligned. A size of -1
// is a "skip to start of buffer" marker written when a reservation
// would straddle the wrap point.
package ring

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/tll-go/tll/cache/pagepool"
	"github.com/tll-go/tll/tllerr"
)

const (
	headerSize = 4 // int32 size prefix
	align      = 8
	skipMarker = -1
)

// Ring is a fixed-capacity SPSC byte-record queue. One goroutine may
// call the Write* methods, a (possibly different) single goroutine may
// call the Read*/Shift methods; no further coordination is provided.
type Ring struct {
	buf  []byte
	pool bool // true if buf came from pagepool and must be Put back on Close

	head atomic.Uint64 // reader consumes from here
	tail atomic.Uint64 // writer publishes here

	// preGen/postGen bracket each Shift so an out-of-band Iterator can
	// detect it read memory the writer has since lapped.
	preGen  atomic.Uint64
	postGen atomic.Uint64

	// reserved holds the in-flight write_begin state: offset and
	// framed size of the reservation not yet committed by write_end.
	// Single writer only, so plain fields suffice.
	reservedOff  int
	reservedSize int
	reserving    bool
}

// frameAt reads the frame header at pos, transparently following a
// skip marker to offset 0, and returns (payloadSize, actualPos).
func (r *Ring) frameAt(pos uint32) (int, int) {
	size := int(int32(binary.LittleEndian.Uint32(r.buf[pos:])))
	if size == skipMarker {
		return skipMarker, 0
	}
	return size, int(pos)
}

// New allocates a ring of exactly capacity bytes (raised to a minimum
// of one header plus one alignment unit) backed by pooled memory; the
// pooled block may be larger, but the ring uses only capacity bytes.
func New(capacity int) *Ring {
	if capacity < headerSize+align {
		capacity = headerSize + align
	}
	buf := pagepool.Get(capacity)
	return &Ring{buf: buf, pool: true}
}

// NewFromBytes wraps caller-owned memory (e.g. a memory-mapped region
// shared with another process); Close will not return it to any pool.
func NewFromBytes(buf []byte) *Ring {
	return &Ring{buf: buf}
}

// Close releases pooled backing memory, if any.
func (r *Ring) Close() {
	if r.pool && r.buf != nil {
		pagepool.Put(r.buf)
		r.buf = nil
	}
}

func frameSize(payload int) int {
	total := headerSize + payload
	return (total + align - 1) &^ (align - 1)
}

// free returns the number of bytes available to the writer right now,
// using the capacity+head-tail-1 accounting from spec §4.1 (one byte
// reserved to distinguish full from empty).
func (r *Ring) free() int {
	cap := len(r.buf)
	head := int(uint32(r.head.Load()))
	tail := int(uint32(r.tail.Load()))
	return ((cap + head - tail - 1) % cap)
}

// WriteBegin reserves room for a record of the given payload size and
// returns a []byte view to fill in. Call WriteEnd with the same size
// once the payload has been written.
func (r *Ring) WriteBegin(size int) ([]byte, error) {
	if r.reserving {
		return nil, tllerr.New(tllerr.ProtocolError, "write_begin called without a matching write_end")
	}
	framed := frameSize(size)
	capacity := len(r.buf)
	if framed > capacity-1 {
		return nil, tllerr.New(tllerr.RangeOverflow, "record exceeds ring capacity")
	}
	tail := int(uint32(r.tail.Load()))
	head := int(uint32(r.head.Load()))
	used := (tail - head + capacity) % capacity
	free := capacity - used - 1

	if tail+framed <= capacity {
		// contiguous: fits between tail and the physical end
		if framed > free {
			return nil, tllerr.ErrAgain
		}
		r.reservedOff, r.reservedSize, r.reserving = tail, size, true
		return r.buf[tail+headerSize : tail+headerSize+size], nil
	}

	// would straddle the wrap point: drop a skip marker at tail (the
	// bytes from tail to capacity are abandoned, not reclaimed until
	// the reader passes over the marker) and allocate fresh from 0.
	// The fresh allocation must not run into the reader's head, and a
	// head past the tail means unread data already occupies [0, tail).
	if head > tail || framed >= head {
		return nil, tllerr.ErrAgain
	}
	binary.LittleEndian.PutUint32(r.buf[tail:], uint32(int32(skipMarker)))
	r.reservedOff, r.reservedSize, r.reserving = 0, size, true
	return r.buf[headerSize : headerSize+size], nil
}

// WriteEnd commits a previously reserved record, publishing the new
// tail with release ordering so a concurrent reader sees either the
// whole record or nothing.
func (r *Ring) WriteEnd(size int) error {
	if !r.reserving || size != r.reservedSize {
		return tllerr.New(tllerr.ProtocolError, "write_end does not match the pending write_begin")
	}
	binary.LittleEndian.PutUint32(r.buf[r.reservedOff:], uint32(int32(size)))
	newTail := r.reservedOff + frameSize(size)
	if newTail >= len(r.buf) {
		newTail = 0
	}
	r.reserving = false
	r.tail.Store(uint64(uint32(newTail)))
	return nil
}

// Read peeks at the head record without consuming it. Transparently
// follows a skip marker and re-peeks from offset 0.
func (r *Ring) Read() ([]byte, error) {
	head := int(uint32(r.head.Load()) & 0xffffffff)
	tail := int(uint32(r.tail.Load()))
	if head == tail {
		return nil, tllerr.ErrAgain
	}
	size := int(int32(binary.LittleEndian.Uint32(r.buf[head:])))
	if size == skipMarker {
		head = 0
		if head == tail {
			return nil, tllerr.ErrAgain
		}
		size = int(int32(binary.LittleEndian.Uint32(r.buf[head:])))
	}
	if size < 0 {
		return nil, tllerr.New(tllerr.ProtocolError, "corrupt ring frame")
	}
	return r.buf[head+headerSize : head+headerSize+size], nil
}

// Shift advances the head past the current record. It is the caller's
// responsibility to have consumed the bytes returned by Read first.
func (r *Ring) Shift() error {
	head := uint32(r.head.Load())
	tail := uint32(r.tail.Load())
	if head == tail {
		return tllerr.ErrAgain
	}
	size := int(int32(binary.LittleEndian.Uint32(r.buf[head:])))
	if size == skipMarker {
		head = 0
		if head == tail {
			return tllerr.ErrAgain
		}
		size = int(int32(binary.LittleEndian.Uint32(r.buf[head:])))
	}
	newHead := int(head) + frameSize(size)
	if newHead >= len(r.buf) {
		newHead = 0
	}
	r.head.Store(uint64(uint32(newHead)))
	return nil
}

// Empty reports whether the ring currently holds no records.
func (r *Ring) Empty() bool {
	return uint32(r.head.Load()) == uint32(r.tail.Load())
}

// Cap returns the total backing capacity in bytes.
func (r *Ring) Cap() int { return len(r.buf) }
