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
	"fmt"

	"github.com/tll-go/tll/scheme"
	"github.com/tll-go/tll/scheme/wire"
	"github.com/tll-go/tll/tllerr"
)

// classification is how a single field pair is converted.
type classification int

const (
	trivial classification = iota // identical type+size: raw memcpy
	copyWiden
	complex
	messageClass      // nested sub-message: recurse via a precomputed sub-Plan
	arrayPointerClass // array/pointer in either direction: per-element recursion
	unionClass        // tagged union: arm translated by matching name
)

// routineFunc is a precomputed, reusable conversion step for one field
// pair. fromBase/intoBase are the absolute byte offsets within
// fromRec/intoRec that from.Offset/into.Offset are relative to — 0 at
// the top level, the enclosing field's offset when recursing into a
// sub-message or an array/pointer element.
type routineFunc func(fromScheme, intoScheme *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, from, into *scheme.Field) error

// fieldPlan is one precomputed instruction: read fromField out of a
// source record, write intoField into a destination record.
type fieldPlan struct {
	name  string
	from  *scheme.Field
	into  *scheme.Field
	class classification

	routine routineFunc // copyWiden, complex

	sub *Plan // messageClass: from.MessageRef -> into.MessageRef

	elem *fieldPlan // arrayPointerClass: from.Elem -> into.Elem, Offset 0

	unionArmPlans  []*fieldPlan // unionClass: indexed by source arm index
	unionArmIntoTag []int64     // unionClass: matching destination tag, by source arm index
}

// Plan is the precomputed, reusable conversion instruction list for
// one (from, into) message pair (spec §4.4 "built once at init and
// reused for every message").
type Plan struct {
	From   *scheme.Scheme
	Into   *scheme.Scheme
	FromM  *scheme.Message
	IntoM  *scheme.Message
	fields []fieldPlan
}

// Build constructs the conversion plan from fromM (in fromS) into intoM
// (in intoS): for each destination field, the like-named source field
// is found and classified; destination fields with no source match are
// not written, so they keep whatever the destination buffer held (zero
// for a freshly zeroed buffer, spec §4.4).
func Build(fromS, intoS *scheme.Scheme, fromM, intoM *scheme.Message) (*Plan, error) {
	p := &Plan{From: fromS, Into: intoS, FromM: fromM, IntoM: intoM}
	for i := range intoM.Fields {
		into := &intoM.Fields[i]
		if into.Name == "_pmap" {
			continue
		}
		from, ok := fromM.FieldByName(into.Name)
		if !ok {
			continue // missing source field: destination keeps its zero value
		}
		fp, err := classifyWithSchemes(fromS, intoS, from, into)
		if err != nil {
			return nil, tllerr.WithField(into.Name, err)
		}
		fp.name = into.Name
		p.fields = append(p.fields, fp)
	}
	return p, nil
}

// classifyWithSchemes classifies one from/into field pair, with access
// to the owning schemes needed for enum/union arm/sub-message lookups.
//
// Property 6 ("converter enum extension... is trivial"): an into enum
// that is from's enum plus additional values, with every shared name
// carrying the same value, permits the plain memcpy path instead of
// remapEnum.
func classifyWithSchemes(fromS, intoS *scheme.Scheme, from, into *scheme.Field) (fieldPlan, error) {
	if from.Kind == scheme.KindEnum && into.Kind == scheme.KindEnum && fromS != nil && intoS != nil {
		if from.Size == into.Size && enumIsExtension(&fromS.Enums[from.EnumRef], &intoS.Enums[into.EnumRef]) {
			return fieldPlan{from: from, into: into, class: trivial}, nil
		}
		return fieldPlan{from: from, into: into, class: complex, routine: remapEnum}, nil
	}

	// Pointer/Array/Union/Message are never taken via the plain memcpy
	// path even when the two fields are otherwise identical: a Pointer's
	// offset is self-relative to its own position, so copying its raw
	// bytes into a field at a different position (or into a record with
	// no tail written yet) produces a dangling reference. Array, Union
	// and Message route through their own handlers below for the same
	// kind of reason, uniformly.
	if from.Kind == into.Kind && from.Sub == into.Sub && from.Size == into.Size &&
		from.Resolution == into.Resolution && from.FixedPrec == into.FixedPrec &&
		from.Kind != scheme.KindEnum &&
		from.Kind != scheme.KindArray && from.Kind != scheme.KindPointer &&
		from.Kind != scheme.KindUnion && from.Kind != scheme.KindMessage {
		return fieldPlan{from: from, into: into, class: trivial}, nil
	}

	if isInteger(from.Kind) && isInteger(into.Kind) && from.Sub == scheme.SubNone && into.Sub == scheme.SubNone {
		if bitSize(into.Kind) >= bitSize(from.Kind) && unsigned(from.Kind) == unsigned(into.Kind) {
			return fieldPlan{from: from, into: into, class: copyWiden, routine: widenInt}, nil
		}
		return fieldPlan{from: from, into: into, class: complex, routine: narrowInt}, nil
	}

	switch {
	case from.Sub == scheme.SubTimePoint && into.Sub == scheme.SubTimePoint,
		from.Sub == scheme.SubDuration && into.Sub == scheme.SubDuration:
		return fieldPlan{from: from, into: into, class: complex, routine: rescaleTime}, nil
	case from.Sub == scheme.SubFixedPoint && into.Sub == scheme.SubFixedPoint:
		return fieldPlan{from: from, into: into, class: complex, routine: rescaleFixed}, nil
	case from.Kind == scheme.KindDecimal128 && into.Kind == scheme.KindDecimal128:
		return fieldPlan{from: from, into: into, class: complex, routine: passthroughDecimal}, nil
	case from.Kind == scheme.KindDecimal128 && into.Kind == scheme.KindDouble:
		return fieldPlan{from: from, into: into, class: complex, routine: decimalToFloat}, nil
	case from.Kind == into.Kind && from.Kind == scheme.KindBytes:
		// Covers bytes<->bytestring too: Sub differing is exactly why
		// this pair fell through the plain-equality branch above.
		return fieldPlan{from: from, into: into, class: complex, routine: copyBytes}, nil
	}

	if from.Kind == scheme.KindMessage && into.Kind == scheme.KindMessage && fromS != nil && intoS != nil {
		sub, err := Build(fromS, intoS, &fromS.Messages[from.MessageRef], &intoS.Messages[into.MessageRef])
		if err != nil {
			return fieldPlan{}, err
		}
		return fieldPlan{from: from, into: into, class: messageClass, sub: sub}, nil
	}

	if isArrayOrPointer(from.Kind) && isArrayOrPointer(into.Kind) {
		fe := *from.Elem
		fe.Offset = 0
		ie := *into.Elem
		ie.Offset = 0
		efp, err := classifyWithSchemes(fromS, intoS, &fe, &ie)
		if err != nil {
			return fieldPlan{}, tllerr.WithField("[]", err)
		}
		return fieldPlan{from: from, into: into, class: arrayPointerClass, elem: &efp}, nil
	}

	if from.Kind == scheme.KindUnion && into.Kind == scheme.KindUnion && fromS != nil && intoS != nil {
		fp, err := classifyUnion(fromS, intoS, from, into)
		if err != nil {
			return fieldPlan{}, err
		}
		return fp, nil
	}

	if from.Kind == scheme.KindBytes && isNumeric(into.Kind) {
		return fieldPlan{from: from, into: into, class: complex, routine: textToNumber}, nil
	}
	if isNumeric(from.Kind) && into.Kind == scheme.KindBytes {
		return fieldPlan{from: from, into: into, class: complex, routine: numberToText}, nil
	}

	return fieldPlan{}, tllerr.New(tllerr.ConversionError,
		fmt.Sprintf("no conversion routine for %s -> %s", kindName(from.Kind), kindName(into.Kind)))
}

func isArrayOrPointer(k scheme.Kind) bool {
	return k == scheme.KindArray || k == scheme.KindPointer
}

func isNumeric(k scheme.Kind) bool {
	return isInteger(k) || k == scheme.KindDouble
}

func kindName(k scheme.Kind) string {
	return fmt.Sprintf("kind(%d)", int(k))
}

// fieldOffset resolves a field's absolute offset within a record's
// fixed region, given the base its own Offset is relative to.
func fieldOffset(base int, f *scheme.Field) int { return base + f.Offset }

// fieldBuf slices out a field's own bytes from a record's backing
// buffer. base+f.Offset is always within rec's fixed region for a
// top-level field, but can fall inside the tail when recursing into an
// array/pointer element or union arm that itself lives in a trailer, so
// this slices the full buffer (Bytes()) rather than Fixed() alone.
func fieldBuf(rec *wire.Record, base int, f *scheme.Field) []byte {
	off := fieldOffset(base, f)
	return rec.Bytes()[off : off+f.Size]
}

// applyFieldPlan executes one precomputed field plan against a
// specific (fromRec, fromBase)/(intoRec, intoBase) position, used both
// for a Plan's own top-level fields and recursively for array/pointer
// elements and union arm payloads.
func applyFieldPlan(fp *fieldPlan, fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int) error {
	switch fp.class {
	case trivial:
		copy(fieldBuf(intoRec, intoBase, fp.into), fieldBuf(fromRec, fromBase, fp.from))
		return nil
	case messageClass:
		return fp.sub.convertAt(fromRec, intoRec, fieldOffset(fromBase, fp.from), fieldOffset(intoBase, fp.into))
	case arrayPointerClass:
		return convertArrayOrPointer(fromS, intoS, fromRec, intoRec, fromBase, intoBase, fp)
	case unionClass:
		return convertUnion(fromS, intoS, fromRec, intoRec, fromBase, intoBase, fp)
	default: // copyWiden, complex
		return fp.routine(fromS, intoS, fromRec, intoRec, fromBase, intoBase, fp.from, fp.into)
	}
}

// convertAt applies p to one message instance living at fromBase within
// fromRec and intoBase within intoRec. Range and string-overflow
// failures carry the offending field name via tllerr's path stack (spec
// §4.4 "Error policy").
func (p *Plan) convertAt(fromRec, intoRec *wire.Record, fromBase, intoBase int) error {
	for i := range p.fields {
		fp := &p.fields[i]
		if err := applyFieldPlan(fp, p.From, p.Into, fromRec, intoRec, fromBase, intoBase); err != nil {
			return tllerr.WithField(fp.name, err)
		}
	}
	return nil
}

// ConvertRecord applies p to one top-level message instance, reading
// from fromRec and writing into intoRec; pointer fields grow intoRec's
// tail via AllocTail and pointer fields in fromRec are read via its
// existing tail (spec §4.3/§4.4).
func (p *Plan) ConvertRecord(fromRec, intoRec *wire.Record) error {
	return p.convertAt(fromRec, intoRec, 0, 0)
}

// Convert applies p to one message instance addressed by its fixed
// region alone: fromBuf/intoBuf are each message's Size bytes, with no
// pointer trailer. This is the entry point for schemes with no
// Array/Pointer fields; a plan that needs to grow a tail should use
// ConvertRecord with records built over buffers that have room to grow
// (or start empty and read back via intoRec.Bytes()).
func (p *Plan) Convert(fromBuf, intoBuf []byte) error {
	fromRec := wire.NewRecordFromBytes(wire.Default, len(fromBuf), fromBuf)
	intoRec := wire.NewRecordFromBytes(wire.Default, len(intoBuf), intoBuf)
	if err := p.ConvertRecord(fromRec, intoRec); err != nil {
		return err
	}
	copy(intoBuf, intoRec.Fixed())
	return nil
}
