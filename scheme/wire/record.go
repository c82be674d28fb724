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

package wire

import (
	"github.com/bytedance/gopkg/lang/dirtmake"

	"github.com/tll-go/tll/tllerr"
)

// Record is a growable view over one message's byte-packed fixed
// region plus a tail of variable-length pointer trailers. It grows the
// way gridbuf.WriteBuffer's chunked writer does: a new, larger backing
// array is allocated (via dirtmake.Bytes, leaving the grown region
// uninitialized since every byte gets overwritten by a field write
// before it is read) and the existing bytes are copied over. New
// trailers are appended at the end, so pointers already written keep
// their self-relative offsets and AllocTail does not rewrite them.
type Record struct {
	buf    []byte
	layout Layout
	fixed  int // length of the byte-packed fixed region, fields[0:fixed]

	// ptrOffsets tracks where in buf each already-allocated pointer
	// field lives, so ShiftPointersAfter can rewrite it when an
	// enclosing buffer is moved.
	ptrOffsets []int
}

// NewRecord allocates a record with a fixed region of the given size
// and no tail yet.
func NewRecord(layout Layout, fixedSize int) *Record {
	return &Record{
		buf:    dirtmake.Bytes(fixedSize, fixedSize),
		layout: layout,
		fixed:  fixedSize,
	}
}

// NewRecordFromBytes wraps existing wire bytes (e.g. a received
// message) without copying; AllocTail on such a record still grows via
// a fresh allocation on first write, since the caller's buffer is not
// guaranteed to have spare capacity.
func NewRecordFromBytes(layout Layout, fixedSize int, buf []byte) *Record {
	return &Record{buf: buf, layout: layout, fixed: fixedSize}
}

// Bytes returns the full backing buffer: fixed region followed by tail.
func (r *Record) Bytes() []byte { return r.buf }

// Layout returns the offset-pointer encoding this record was built
// with, so a caller decoding a pointer field out of Fixed() knows which
// of Default/LegacyLong/LegacyShort to apply.
func (r *Record) Layout() Layout { return r.layout }

// Fixed returns the byte-packed fixed-size region, the part addressed
// by field offsets computed at scheme-resolution time.
func (r *Record) Fixed() []byte { return r.buf[:r.fixed] }

// AllocTail grows the record by n bytes, writes a Ptr at ptrFieldOff in
// the fixed region pointing (self-relatively) at the new trailer, and
// returns the trailer view for the caller to fill in. entity is stored
// in the pointer per layout (Default/LegacyLong only; LegacyShort
// derives it from the element's static size by convention, so callers
// pass 0 there).
func (r *Record) AllocTail(ptrFieldOff int, n int, entity uint16) ([]byte, error) {
	oldLen := len(r.buf)
	grown := dirtmake.Bytes(oldLen+n, oldLen+n)
	copy(grown, r.buf)
	r.buf = grown

	trailerOff := oldLen
	selfRelOffset := uint32(trailerOff - ptrFieldOff)
	p := Ptr{Offset: selfRelOffset, Size: uint32(n), Entity: entity}
	if err := Encode(r.buf[ptrFieldOff:], r.layout, p); err != nil {
		return nil, err
	}
	r.ptrOffsets = append(r.ptrOffsets, ptrFieldOff)
	return r.buf[trailerOff : trailerOff+n], nil
}

// PtrAt decodes the pointer stored at fieldOff and returns the trailer
// bytes it addresses (self-relative to fieldOff), following §4.3's
// "offset measured from the address of the pointer itself" rule.
func (r *Record) PtrAt(fieldOff int, entitySize uint16) ([]byte, error) {
	p := Decode(r.buf[fieldOff:], r.layout, entitySize)
	if p.Empty() {
		return nil, nil
	}
	start := fieldOff + int(p.Offset)
	end := start + int(p.Size)
	if start < 0 || end > len(r.buf) || start > end {
		return nil, tllerr.New(tllerr.MessageSize, "offset pointer addresses bytes outside the record")
	}
	return r.buf[start:end], nil
}

// ShiftPointersAfter adds delta to the Offset of every pointer field
// registered via AllocTail whose trailer lies at or after cutoff, used
// when an enclosing buffer that embeds this record is itself moved
// (spec §4.3 "Nested pointers are shifted by the delta when an
// enclosing buffer is moved").
func (r *Record) ShiftPointersAfter(cutoff int, delta int32) error {
	for _, off := range r.ptrOffsets {
		p := Decode(r.buf[off:], r.layout, 0)
		if p.Empty() {
			continue
		}
		trailer := off + int(p.Offset)
		if trailer < cutoff {
			continue
		}
		p.Offset = uint32(int32(p.Offset) + delta)
		if err := Encode(r.buf[off:], r.layout, p); err != nil {
			return err
		}
	}
	return nil
}
