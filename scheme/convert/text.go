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
	"bytes"
	"strconv"

	"github.com/tll-go/tll/scheme"
	"github.com/tll-go/tll/scheme/wire"
	"github.com/tll-go/tll/tllerr"
)

// textToNumber parses a fixed byte/bytestring field as decimal text
// into a numeric destination (spec §4.4 "text <-> primitive"). The
// source is NUL-trimmed before parsing, matching how bytestring fields
// are otherwise read.
func textToNumber(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, from, into *scheme.Field) error {
	fromBuf := fieldBuf(fromRec, fromBase, from)
	intoBuf := fieldBuf(intoRec, intoBase, into)
	s := string(bytes.TrimRight(fromBuf, "\x00"))

	if into.Kind == scheme.KindDouble {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return tllerr.New(tllerr.ConversionError, "text does not parse as a number: "+err.Error())
		}
		putFloat(intoBuf, v)
		return nil
	}

	var v int64
	var err error
	if unsigned(into.Kind) {
		var uv uint64
		uv, err = strconv.ParseUint(s, 10, 64)
		v = int64(uv)
	} else {
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return tllerr.New(tllerr.ConversionError, "text does not parse as a number: "+err.Error())
	}
	if !fitsInto(v, scheme.KindInt64, into.Kind) {
		return tllerr.New(tllerr.RangeOverflow, "parsed text value does not fit destination field")
	}
	putInt(intoBuf, into.Kind, v)
	return nil
}

// numberToText formats a numeric source as decimal text into a fixed
// byte/bytestring destination, zero-padding the remainder the same way
// copyBytes does, and failing with MessageSize if the formatted text
// does not fit.
func numberToText(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, from, into *scheme.Field) error {
	fromBuf := fieldBuf(fromRec, fromBase, from)
	intoBuf := fieldBuf(intoRec, intoBase, into)

	var s string
	if from.Kind == scheme.KindDouble {
		s = strconv.FormatFloat(getFloat(fromBuf), 'g', -1, 64)
	} else if unsigned(from.Kind) {
		s = strconv.FormatUint(uint64(getInt(fromBuf, from.Kind)), 10)
	} else {
		s = strconv.FormatInt(getInt(fromBuf, from.Kind), 10)
	}

	if len(s) > into.Size {
		return tllerr.New(tllerr.MessageSize, "formatted number does not fit destination text field")
	}
	n := copy(intoBuf, s)
	for i := n; i < into.Size; i++ {
		intoBuf[i] = 0
	}
	return nil
}
