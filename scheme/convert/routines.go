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
	"math"

	"github.com/tll-go/tll/scheme"
	"github.com/tll-go/tll/scheme/wire"
	"github.com/tll-go/tll/tllerr"
)

// widenInt copies a same-signedness integer into a same-or-wider
// destination; always safe, no overflow check needed.
func widenInt(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, from, into *scheme.Field) error {
	fromBuf := fieldBuf(fromRec, fromBase, from)
	intoBuf := fieldBuf(intoRec, intoBase, into)
	putInt(intoBuf, into.Kind, getInt(fromBuf, from.Kind))
	return nil
}

// narrowInt copies a source integer into a narrower, or
// signedness-changing, destination, failing with RangeOverflow if the
// value does not fit (spec §4.4 "numeric widening/narrowing with
// overflow detection").
func narrowInt(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, from, into *scheme.Field) error {
	fromBuf := fieldBuf(fromRec, fromBase, from)
	intoBuf := fieldBuf(intoRec, intoBase, into)
	v := getInt(fromBuf, from.Kind)
	if !fitsInto(v, from.Kind, into.Kind) {
		return tllerr.New(tllerr.RangeOverflow, "integer value does not fit destination field")
	}
	putInt(intoBuf, into.Kind, v)
	return nil
}

func fitsInto(v int64, fromKind, intoKind scheme.Kind) bool {
	toBits := bitSize(intoKind)
	if unsigned(intoKind) {
		if v < 0 {
			return false
		}
		if toBits == 64 {
			return true
		}
		return uint64(v) <= uint64(1)<<uint(toBits)-1
	}
	if toBits == 64 {
		if unsigned(fromKind) {
			return v >= 0 // reinterpreting a uint64 bit pattern as int64 is the caller's business
		}
		return true
	}
	lo := -(int64(1) << uint(toBits-1))
	hi := int64(1)<<uint(toBits-1) - 1
	return v >= lo && v <= hi
}

// rescaleTime rescales a time-point or duration integer from the
// source resolution to the destination resolution by the ratio of
// their nanosecond-per-unit factors (spec §4.4), using integer
// division (loss accepted, per spec S3).
func rescaleTime(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, from, into *scheme.Field) error {
	fromBuf := fieldBuf(fromRec, fromBase, from)
	intoBuf := fieldBuf(intoRec, intoBase, into)
	v := getInt(fromBuf, from.Kind)
	fromNanos := resolutionNanos[from.Resolution]
	intoNanos := resolutionNanos[into.Resolution]

	var scaled int64
	if fromNanos >= intoNanos {
		ratio := fromNanos / intoNanos
		hi, lo := bitsMulHi(v, ratio)
		if hi != lo>>63 {
			return tllerr.New(tllerr.RangeOverflow, "time rescale overflows destination width")
		}
		scaled = lo
	} else {
		ratio := intoNanos / fromNanos
		scaled = v / ratio
	}
	if !fitsInto(scaled, scheme.KindInt64, into.Kind) {
		return tllerr.New(tllerr.RangeOverflow, "time rescale overflows destination width")
	}
	putInt(intoBuf, into.Kind, scaled)
	return nil
}

// bitsMulHi returns the high and low 64 bits of the signed 128-bit
// product a*b, used to detect overflow before narrowing a
// coarser-to-finer time rescale (e.g. us -> ns of a value near
// MaxInt64 must be rejected, not silently wrapped).
func bitsMulHi(a, b int64) (hi, lo int64) {
	neg := (a < 0) != (b < 0)
	ua, ub := absU64(a), absU64(b)
	h, l := mul64(ua, ub)
	if neg {
		// negate the 128-bit (h,l) pair
		l = ^l + 1
		h = ^h
		if l == 0 {
			h++
		}
	}
	return int64(h), int64(l)
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(-v)
	}
	return uint64(v)
}

func mul64(a, b uint64) (hi, lo uint64) {
	const mask = 0xFFFFFFFF
	aLo, aHi := a&mask, a>>32
	bLo, bHi := b&mask, b>>32

	t := aLo * bLo
	w0 := t & mask
	k := t >> 32

	t = aHi*bLo + k
	w1 := t & mask
	w2 := t >> 32

	t = aLo*bHi + w1
	k = t >> 32

	hi = aHi*bHi + w2 + k
	lo = (t << 32) | w0
	return hi, lo
}

// rescaleFixed rescales a fixed-point integer (spec "fixedN" options
// type) by the power-of-ten ratio between source and destination
// precision.
func rescaleFixed(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, from, into *scheme.Field) error {
	fromBuf := fieldBuf(fromRec, fromBase, from)
	intoBuf := fieldBuf(intoRec, intoBase, into)
	v := getInt(fromBuf, from.Kind)
	if into.FixedPrec >= from.FixedPrec {
		for i := from.FixedPrec; i < into.FixedPrec; i++ {
			v *= 10
		}
	} else {
		for i := into.FixedPrec; i < from.FixedPrec; i++ {
			v /= 10
		}
	}
	if !fitsInto(v, scheme.KindInt64, into.Kind) {
		return tllerr.New(tllerr.RangeOverflow, "fixed-point rescale overflows destination width")
	}
	putInt(intoBuf, into.Kind, v)
	return nil
}

// remapEnum translates a source enum value by name: the source value
// is looked up for its name, then the destination enum is searched for
// the same name. An unmapped source value is a ConversionError (spec
// §4.4: "unknown source values are errors").
func remapEnum(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, from, into *scheme.Field) error {
	fromBuf := fieldBuf(fromRec, fromBase, from)
	intoBuf := fieldBuf(intoRec, intoBase, into)
	fromEnum := &fromS.Enums[from.EnumRef]
	intoEnum := &intoS.Enums[into.EnumRef]

	v := getInt(fromBuf, underlyingIntKind(fromEnum.Size))
	name, ok := fromEnum.ByValue(v)
	if !ok {
		return tllerr.New(tllerr.ConversionError, "source enum value has no name")
	}
	nv, ok := intoEnum.ByName(name)
	if !ok {
		return tllerr.New(tllerr.ConversionError, "destination enum has no value named "+name)
	}
	putInt(intoBuf, underlyingIntKind(intoEnum.Size), nv)
	return nil
}

// enumIsExtension reports whether into's enum contains every value
// from's enum declares, under the same name, permitting the trivial
// memcpy path (spec's testable property 6).
func enumIsExtension(from, into *scheme.Enum) bool {
	for _, fv := range from.Values {
		iv, ok := into.ByName(fv.Name)
		if !ok || iv != fv.Value {
			return false
		}
	}
	return true
}

func underlyingIntKind(size int) scheme.Kind {
	switch size {
	case 1:
		return scheme.KindUInt8
	case 2:
		return scheme.KindUInt16
	case 4:
		return scheme.KindUInt32
	default:
		return scheme.KindUInt64
	}
}

// passthroughDecimal copies a decimal128 field bit-for-bit, including
// NaN, between two decimal128 fields. Per spec §9's open question, this
// is deliberately different from the to-float complex routine's NaN
// rejection — both behaviors are implemented exactly as the ambiguity
// is described, not resolved.
func passthroughDecimal(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, from, into *scheme.Field) error {
	fromBuf := fieldBuf(fromRec, fromBase, from)
	intoBuf := fieldBuf(intoRec, intoBase, into)
	copy(intoBuf[:16], fromBuf[:16])
	return nil
}

// decimalToFloat reads the first 8 bytes of a decimal128 field as an
// IEEE-754 double (this package's decimal128 storage keeps a double
// approximation in its low word and leaves the high word reserved —
// full IEEE 754-2008 decimal128 arithmetic is out of scope here; see
// DESIGN.md) and rejects NaN sources, unlike passthroughDecimal's
// decimal-to-decimal copy which lets NaN through unchanged. This is
// the asymmetry spec §9's open question flags without resolving.
func decimalToFloat(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, from, into *scheme.Field) error {
	fromBuf := fieldBuf(fromRec, fromBase, from)
	intoBuf := fieldBuf(intoRec, intoBase, into)
	v := getFloat(fromBuf)
	if math.IsNaN(v) {
		return tllerr.New(tllerr.RangeOverflow, "decimal128 source is NaN, cannot convert to float")
	}
	putFloat(intoBuf, v)
	return nil
}

// copyBytes copies a fixed-size byte field into another fixed-size
// byte field of possibly different length, zero-padding a longer
// destination and failing with MessageSize if the source does not fit
// (e.g. a bytestring target too small for the source text, spec §4.4
// "String overflows... fail").
func copyBytes(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, from, into *scheme.Field) error {
	fromBuf := fieldBuf(fromRec, fromBase, from)
	intoBuf := fieldBuf(intoRec, intoBase, into)
	if from.Size > into.Size {
		return tllerr.New(tllerr.MessageSize, "source byte field does not fit destination")
	}
	n := copy(intoBuf[:into.Size], fromBuf[:from.Size])
	for i := n; i < into.Size; i++ {
		intoBuf[i] = 0
	}
	return nil
}
