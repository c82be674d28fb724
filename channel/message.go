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

// Package channel is the transport-layer channel substrate: context
// (registry, alias expansion, module loading, scheme cache), the
// channel state machine and callback fabric, and the parent/child
// tree every concrete transport composes with.
package channel

import "encoding/binary"

// MsgClass classifies a Message for callback dispatch (spec §3). The
// bits compose into a mask so one callback can subscribe to more than
// one class at once.
type MsgClass int

const (
	ClassData MsgClass = 1 << iota
	ClassState
	ClassControl
	ClassChannel
	ClassAll = ClassData | ClassState | ClassControl | ClassChannel
)

func (c MsgClass) String() string {
	switch c {
	case ClassData:
		return "data"
	case ClassState:
		return "state"
	case ClassControl:
		return "control"
	case ClassChannel:
		return "channel"
	default:
		return "mixed"
	}
}

// Message is the flat record every channel produces and consumes
// (spec §3). Data is a zero-copy view into memory owned by the
// emitter until the callback returns; callees must not retain it.
type Message struct {
	Type  MsgClass
	MsgID int32
	Seq   int64
	Addr  uint64
	Time  int64
	Flags uint16
	Data  []byte
}

// headerSize is the runtime-only (not on-wire) message header layout
// from spec §6: "{ int16 type; int32 msgid; int64 seq; uint64 addr;
// int64 time; uint16 flags; data_ptr; size; }", used verbatim by
// transport/mem to cross the ring buffer, grounded on
// protocol/ttheader's fixed binary header style (one field per line,
// little-endian, length/size carried out of band from the pointer).
const headerSize = 2 + 4 + 8 + 8 + 8 + 2

// EncodeHeader writes m's fixed header fields (everything but Data)
// into buf[:headerSize] using little-endian encoding, the same
// one-method-per-field-group shape as ttheader.encode's fixed-header
// writer.
func EncodeHeader(buf []byte, m *Message) {
	binary.LittleEndian.PutUint16(buf[0:2], uint16(m.Type))
	binary.LittleEndian.PutUint32(buf[2:6], uint32(m.MsgID))
	binary.LittleEndian.PutUint64(buf[6:14], uint64(m.Seq))
	binary.LittleEndian.PutUint64(buf[14:22], m.Addr)
	binary.LittleEndian.PutUint64(buf[22:30], uint64(m.Time))
	binary.LittleEndian.PutUint16(buf[30:32], m.Flags)
}

// DecodeHeader is EncodeHeader's inverse; Data is left unset, the
// caller attaches the payload view separately (it lives past the
// fixed header in the ring record, not in this struct).
func DecodeHeader(buf []byte) Message {
	return Message{
		Type:  MsgClass(binary.LittleEndian.Uint16(buf[0:2])),
		MsgID: int32(binary.LittleEndian.Uint32(buf[2:6])),
		Seq:   int64(binary.LittleEndian.Uint64(buf[6:14])),
		Addr:  binary.LittleEndian.Uint64(buf[14:22]),
		Time:  int64(binary.LittleEndian.Uint64(buf[22:30])),
		Flags: binary.LittleEndian.Uint16(buf[30:32]),
	}
}

// HeaderSize returns the encoded fixed-header length in bytes.
func HeaderSize() int { return headerSize }
