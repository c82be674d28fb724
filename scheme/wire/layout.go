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

import "encoding/binary"

// ArrayCount reads the element count field preceding an array's
// element region (spec §6: "arrays place their count field before the
// element region"). countSize is 1, 2 or 4 bytes depending on the
// scheme's declared count type.
func ArrayCount(buf []byte, countSize int) int {
	switch countSize {
	case 1:
		return int(buf[0])
	case 2:
		return int(binary.LittleEndian.Uint16(buf))
	default:
		return int(binary.LittleEndian.Uint32(buf))
	}
}

// PutArrayCount writes n into an array's count field.
func PutArrayCount(buf []byte, countSize int, n int) {
	switch countSize {
	case 1:
		buf[0] = byte(n)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(n))
	default:
		binary.LittleEndian.PutUint32(buf, uint32(n))
	}
}

// UnionTag reads a union's tag scalar, which precedes the fixed
// max(arm_size) region (spec §6).
func UnionTag(buf []byte, tagSize int) uint32 {
	switch tagSize {
	case 1:
		return uint32(buf[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(buf))
	default:
		return binary.LittleEndian.Uint32(buf)
	}
}

// PutUnionTag writes a union's tag scalar.
func PutUnionTag(buf []byte, tagSize int, tag uint32) {
	switch tagSize {
	case 1:
		buf[0] = byte(tag)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(tag))
	default:
		binary.LittleEndian.PutUint32(buf, tag)
	}
}

// Pmap is a presence bitmap: one bit per field whose declared index is
// non-negative. A zero bit means "absent, use the zero value" (spec §6
// and §9 "Pmap handling").
type Pmap []byte

// NewPmap allocates a zeroed pmap wide enough for nbits fields.
func NewPmap(nbits int) Pmap {
	return make(Pmap, (nbits+7)/8)
}

// Has reports whether bit i is set.
func (p Pmap) Has(i int) bool {
	byteIdx := i / 8
	if byteIdx >= len(p) {
		return false
	}
	return p[byteIdx]&(1<<uint(i%8)) != 0
}

// Set sets or clears bit i.
func (p Pmap) Set(i int, v bool) {
	byteIdx := i / 8
	if byteIdx >= len(p) {
		return
	}
	if v {
		p[byteIdx] |= 1 << uint(i%8)
	} else {
		p[byteIdx] &^= 1 << uint(i%8)
	}
}
