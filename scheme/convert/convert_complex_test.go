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

package convert

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tll-go/tll/scheme/wire"
)

// TestConverterArrayToPointer covers the array->pointer half of §4.4's
// "array <-> pointer in either direction with per-element recursion":
// a 4-capacity inline array with 3 elements set converts into a
// destination whose tail holds exactly those 3 elements.
func TestConverterArrayToPointer(t *testing.T) {
	a := mustParse(t, `
messages:
  - name: m
    id: 1
    fields: [{name: arr, type: int32[4]}]
`)
	b := mustParse(t, `
messages:
  - name: m
    id: 1
    fields: [{name: arr, type: "*int32"}]
`)
	plan, err := Build(a, b, &a.Messages[0], &b.Messages[0])
	require.NoError(t, err)

	fromBuf := make([]byte, a.Messages[0].Size)
	fromBuf[0] = 3 // count
	binary.LittleEndian.PutUint32(fromBuf[1:5], 10)
	binary.LittleEndian.PutUint32(fromBuf[5:9], 20)
	binary.LittleEndian.PutUint32(fromBuf[9:13], 30)
	fromRec := wire.NewRecordFromBytes(wire.Default, len(fromBuf), fromBuf)

	intoBuf := make([]byte, b.Messages[0].Size)
	intoRec := wire.NewRecordFromBytes(wire.Default, len(intoBuf), intoBuf)

	require.NoError(t, plan.ConvertRecord(fromRec, intoRec))

	ptr := wire.Decode(intoRec.Fixed(), wire.Default, 4)
	require.False(t, ptr.Empty())
	assert.EqualValues(t, 12, ptr.Size)
	tail, err := intoRec.PtrAt(0, 4)
	require.NoError(t, err)
	assert.EqualValues(t, 10, binary.LittleEndian.Uint32(tail[0:4]))
	assert.EqualValues(t, 20, binary.LittleEndian.Uint32(tail[4:8]))
	assert.EqualValues(t, 30, binary.LittleEndian.Uint32(tail[8:12]))
}

// TestConverterPointerToArray covers the reverse half: a source pointer
// field with a 3-element tail converts into a fixed-capacity inline
// array, zero-padding the unused tail of the destination's capacity.
func TestConverterPointerToArray(t *testing.T) {
	a := mustParse(t, `
messages:
  - name: m
    id: 1
    fields: [{name: p, type: "*int32"}]
`)
	b := mustParse(t, `
messages:
  - name: m
    id: 1
    fields: [{name: p, type: int32[4]}]
`)
	plan, err := Build(a, b, &a.Messages[0], &b.Messages[0])
	require.NoError(t, err)

	fromRec := wire.NewRecord(wire.Default, a.Messages[0].Size)
	tail, err := fromRec.AllocTail(0, 3*4, 4)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(tail[0:4], 100)
	binary.LittleEndian.PutUint32(tail[4:8], 200)
	binary.LittleEndian.PutUint32(tail[8:12], 300)

	intoBuf := make([]byte, b.Messages[0].Size)
	for i := range intoBuf {
		intoBuf[i] = 0xFF
	}
	intoRec := wire.NewRecordFromBytes(wire.Default, len(intoBuf), intoBuf)

	require.NoError(t, plan.ConvertRecord(fromRec, intoRec))

	fixed := intoRec.Fixed()
	assert.EqualValues(t, 3, wire.ArrayCount(fixed[0:1], 1))
	assert.EqualValues(t, 100, binary.LittleEndian.Uint32(fixed[1:5]))
	assert.EqualValues(t, 200, binary.LittleEndian.Uint32(fixed[5:9]))
	assert.EqualValues(t, 300, binary.LittleEndian.Uint32(fixed[9:13]))
	assert.EqualValues(t, 0, binary.LittleEndian.Uint32(fixed[13:17]), "unused destination capacity is zeroed, not left at its prior 0xFF filler")
}

// TestConverterUnionArmByName is §4.4's "union arm translated by
// matching tag names": the two schemes assign swapped numeric tags to
// the same arm names, so a pass-through-by-number would misconvert.
func TestConverterUnionArmByName(t *testing.T) {
	a := mustParse(t, `
unions:
  - name: U
    type: uint8
    union:
      - {name: Ok, type: int32, tag: 0}
      - {name: Err, type: int32, tag: 1}
messages:
  - name: m
    id: 1
    fields: [{name: u, type: U}]
`)
	b := mustParse(t, `
unions:
  - name: U
    type: uint8
    union:
      - {name: Err, type: int32, tag: 0}
      - {name: Ok, type: int32, tag: 1}
messages:
  - name: m
    id: 1
    fields: [{name: u, type: U}]
`)
	plan, err := Build(a, b, &a.Messages[0], &b.Messages[0])
	require.NoError(t, err)

	from := make([]byte, a.Messages[0].Size)
	from[0] = 0 // tag 0 in a is "Ok"
	binary.LittleEndian.PutUint32(from[1:5], 42)

	into := make([]byte, b.Messages[0].Size)
	require.NoError(t, plan.Convert(from, into))

	assert.EqualValues(t, 1, into[0], "Ok is tag 1 in the destination union, not tag 0")
	assert.EqualValues(t, 42, binary.LittleEndian.Uint32(into[1:5]))
}

// TestConverterUnionArmUnmapped is the failure half: a source arm with
// no same-named destination arm is a ConversionError when that arm is
// actually selected, not at Build time (matching remapEnum's policy).
func TestConverterUnionArmUnmapped(t *testing.T) {
	a := mustParse(t, `
unions:
  - name: U
    type: uint8
    union:
      - {name: Ok, type: int32, tag: 0}
      - {name: Weird, type: int32, tag: 1}
messages:
  - name: m
    id: 1
    fields: [{name: u, type: U}]
`)
	b := mustParse(t, `
unions:
  - name: U
    type: uint8
    union:
      - {name: Ok, type: int32, tag: 0}
messages:
  - name: m
    id: 1
    fields: [{name: u, type: U}]
`)
	plan, err := Build(a, b, &a.Messages[0], &b.Messages[0])
	require.NoError(t, err)

	from := make([]byte, a.Messages[0].Size)
	from[0] = 1 // tag 1 in a is "Weird", absent from b
	into := make([]byte, b.Messages[0].Size)
	err = plan.Convert(from, into)
	assert.Error(t, err)
}

// TestConverterNestedMessage is §4.4's inline sub-message recursion:
// the nested message's own field is widened exactly as a top-level
// field would be, alongside an ordinary sibling field.
func TestConverterNestedMessage(t *testing.T) {
	a := mustParse(t, `
messages:
  - name: Inner
    id: 2
    fields: [{name: v, type: int32}]
  - name: m
    id: 1
    fields: [{name: sub, type: Inner}, {name: x, type: int32}]
`)
	b := mustParse(t, `
messages:
  - name: Inner
    id: 2
    fields: [{name: v, type: int64}]
  - name: m
    id: 1
    fields: [{name: sub, type: Inner}, {name: x, type: int32}]
`)
	fromM := &a.Messages[1]
	intoM := &b.Messages[1]
	plan, err := Build(a, b, fromM, intoM)
	require.NoError(t, err)

	subF, ok := fromM.FieldByName("sub")
	require.True(t, ok)
	xF, ok := fromM.FieldByName("x")
	require.True(t, ok)

	from := make([]byte, fromM.Size)
	binary.LittleEndian.PutUint32(from[subF.Offset:subF.Offset+4], 7)
	binary.LittleEndian.PutUint32(from[xF.Offset:xF.Offset+4], 99)

	into := make([]byte, intoM.Size)
	require.NoError(t, plan.Convert(from, into))

	intoSubF, ok := intoM.FieldByName("sub")
	require.True(t, ok)
	intoXF, ok := intoM.FieldByName("x")
	require.True(t, ok)

	assert.EqualValues(t, 7, binary.LittleEndian.Uint64(into[intoSubF.Offset:intoSubF.Offset+8]))
	assert.EqualValues(t, 99, binary.LittleEndian.Uint32(into[intoXF.Offset:intoXF.Offset+4]))
}

// TestConverterTextToNumber and TestConverterNumberToText cover §4.4's
// text <-> primitive conversion.
func TestConverterTextToNumber(t *testing.T) {
	a := mustParse(t, `
messages:
  - name: m
    id: 1
    fields: [{name: v, type: byte8}]
`)
	b := mustParse(t, `
messages:
  - name: m
    id: 1
    fields: [{name: v, type: int32}]
`)
	plan, err := Build(a, b, &a.Messages[0], &b.Messages[0])
	require.NoError(t, err)

	from := make([]byte, 8)
	copy(from, "123")
	into := make([]byte, 4)
	require.NoError(t, plan.Convert(from, into))
	assert.EqualValues(t, 123, binary.LittleEndian.Uint32(into))
}

func TestConverterNumberToText(t *testing.T) {
	a := mustParse(t, `
messages:
  - name: m
    id: 1
    fields: [{name: v, type: int32}]
`)
	b := mustParse(t, `
messages:
  - name: m
    id: 1
    fields: [{name: v, type: byte8}]
`)
	plan, err := Build(a, b, &a.Messages[0], &b.Messages[0])
	require.NoError(t, err)

	from := make([]byte, 4)
	binary.LittleEndian.PutUint32(from, 123)
	into := make([]byte, 8)
	require.NoError(t, plan.Convert(from, into))
	assert.Equal(t, "123\x00\x00\x00\x00\x00", string(into))
}

func TestConverterNumberToTextOverflow(t *testing.T) {
	a := mustParse(t, `
messages:
  - name: m
    id: 1
    fields: [{name: v, type: int32}]
`)
	b := mustParse(t, `
messages:
  - name: m
    id: 1
    fields: [{name: v, type: byte2}]
`)
	plan, err := Build(a, b, &a.Messages[0], &b.Messages[0])
	require.NoError(t, err)

	from := make([]byte, 4)
	binary.LittleEndian.PutUint32(from, 12345)
	into := make([]byte, 2)
	err = plan.Convert(from, into)
	assert.Error(t, err)
}
