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

// Package wire encodes and decodes the binary record format scheme
// messages use on the wire: byte-packed fields, offset pointers with
// three coexisting layouts, arrays, unions and pmaps.
//
// The split between a single in-memory Ptr and per-layout codec
// methods follows protocol/thrift/binary.go's BinaryProtocol shape: one
// struct of methods per wire variant, no per-call branching on which
// variant is active once a Layout has been picked for a scheme.
package wire

import (
	"encoding/binary"

	"github.com/tll-go/tll/tllerr"
)

// Layout selects which of the three on-wire offset-pointer encodings a
// scheme uses. A scheme picks one layout for all its pointers; mixing
// layouts within a single record is not supported.
type Layout int

const (
	// Default is { uint32 offset; uint24 size; uint8 entity }, 8 bytes.
	Default Layout = iota
	// LegacyLong is { uint32 offset; uint16 size; uint16 entity }, 8 bytes.
	LegacyLong
	// LegacyShort is { uint16 offset; uint16 size }, 4 bytes; entity is
	// implied by the pointed-to element's static size and is not stored.
	LegacyShort
)

// Size returns the on-wire byte width of a pointer in this layout.
func (l Layout) Size() int {
	if l == LegacyShort {
		return 4
	}
	return 8
}

// Ptr is the single in-memory view of an offset pointer regardless of
// its on-wire layout, per spec §9 "Offset pointers" design note.
// Offset is self-relative: measured from the address of the pointer
// field itself, matching §4.3's "offset is measured from the address
// of the pointer itself (self-relative)".
type Ptr struct {
	Offset uint32
	Size   uint32
	Entity uint16
}

// Empty reports whether p is the empty-pointer sentinel (offset=0,
// size=0), which for a string field means the empty string with no
// trailing NUL.
func (p Ptr) Empty() bool { return p.Offset == 0 && p.Size == 0 }

const maxLegacyShortOffset = 1<<16 - 1

// Encode writes p at buf[0:layout.Size()] in the given layout. It
// returns a RangeOverflow error rather than silently truncating when a
// field does not fit — the spec's §9 open question flags legacy-short's
// unenforced 64 KiB ceiling and directs a conformant implementation to
// refuse instead.
func Encode(buf []byte, layout Layout, p Ptr) error {
	switch layout {
	case Default:
		if p.Size > 1<<24-1 {
			return tllerr.New(tllerr.RangeOverflow, "pointer size exceeds 24-bit default layout")
		}
		binary.LittleEndian.PutUint32(buf[0:], p.Offset)
		buf[4] = byte(p.Size)
		buf[5] = byte(p.Size >> 8)
		buf[6] = byte(p.Size >> 16)
		buf[7] = byte(p.Entity)
		return nil
	case LegacyLong:
		if p.Size > 1<<16-1 {
			return tllerr.New(tllerr.RangeOverflow, "pointer size exceeds 16-bit legacy-long layout")
		}
		binary.LittleEndian.PutUint32(buf[0:], p.Offset)
		binary.LittleEndian.PutUint16(buf[4:], uint16(p.Size))
		binary.LittleEndian.PutUint16(buf[6:], p.Entity)
		return nil
	case LegacyShort:
		if p.Offset > maxLegacyShortOffset {
			return tllerr.New(tllerr.RangeOverflow, "pointer offset exceeds 64KiB legacy-short layout")
		}
		if p.Size > 1<<16-1 {
			return tllerr.New(tllerr.RangeOverflow, "pointer size exceeds 16-bit legacy-short layout")
		}
		binary.LittleEndian.PutUint16(buf[0:], uint16(p.Offset))
		binary.LittleEndian.PutUint16(buf[2:], uint16(p.Size))
		return nil
	default:
		return tllerr.New(tllerr.InvalidArgument, "unknown pointer layout")
	}
}

// Decode reads a Ptr from buf[0:layout.Size()]. entitySize is the
// static element size used to recover Entity for LegacyShort, which
// does not store it on the wire; it is ignored for the other layouts.
func Decode(buf []byte, layout Layout, entitySize uint16) Ptr {
	switch layout {
	case Default:
		off := binary.LittleEndian.Uint32(buf[0:])
		size := uint32(buf[4]) | uint32(buf[5])<<8 | uint32(buf[6])<<16
		entity := uint16(buf[7])
		return Ptr{Offset: off, Size: size, Entity: entity}
	case LegacyLong:
		off := binary.LittleEndian.Uint32(buf[0:])
		size := uint32(binary.LittleEndian.Uint16(buf[4:]))
		entity := binary.LittleEndian.Uint16(buf[6:])
		return Ptr{Offset: off, Size: size, Entity: entity}
	case LegacyShort:
		off := uint32(binary.LittleEndian.Uint16(buf[0:]))
		size := uint32(binary.LittleEndian.Uint16(buf[2:]))
		return Ptr{Offset: off, Size: size, Entity: entitySize}
	default:
		return Ptr{}
	}
}
