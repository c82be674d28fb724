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

// readElements locates a source Array or Pointer field's elements: an
// Array stores its count and elements inline in the fixed region
// (scheme.Field.Size == CountSize + capacity*Elem.Size); a Pointer
// stores a Ptr{Offset,Size,Entity} inline and the elements in the
// record's tail, addressed self-relatively from the pointer field's own
// position (spec §4.3 "offset is measured from the address of the
// pointer itself").
func readElements(rec *wire.Record, base int, f *scheme.Field) (count, elemsOff int, err error) {
	off := fieldOffset(base, f)
	switch f.Kind {
	case scheme.KindArray:
		n := wire.ArrayCount(rec.Bytes()[off:off+f.CountSize], f.CountSize)
		return n, off + f.CountSize, nil
	case scheme.KindPointer:
		ptr := wire.Decode(rec.Bytes()[off:], rec.Layout(), uint16(f.Elem.Size))
		if ptr.Empty() || f.Elem.Size == 0 {
			return 0, 0, nil
		}
		trailerOff := off + int(ptr.Offset)
		if trailerOff < 0 || trailerOff+int(ptr.Size) > len(rec.Bytes()) {
			return 0, 0, tllerr.New(tllerr.MessageSize, "offset pointer addresses bytes outside the record")
		}
		return int(ptr.Size) / f.Elem.Size, trailerOff, nil
	default:
		return 0, 0, tllerr.New(tllerr.InvalidArgument, "not an array or pointer field")
	}
}

// writeElements prepares room for count destination elements: an Array
// writes its count prefix and zeroes unused inline capacity; a Pointer
// grows intoRec's tail via AllocTail. Returns the absolute offset of
// the first element.
func writeElements(rec *wire.Record, base int, f *scheme.Field, count int) (elemsOff int, err error) {
	off := fieldOffset(base, f)
	switch f.Kind {
	case scheme.KindArray:
		capacity := (f.Size - f.CountSize) / f.Elem.Size
		if count > capacity {
			return 0, tllerr.New(tllerr.MessageSize, "array destination capacity exceeded")
		}
		wire.PutArrayCount(rec.Bytes()[off:off+f.CountSize], f.CountSize, count)
		elemsOff = off + f.CountSize
		buf := rec.Bytes()
		for i := count * f.Elem.Size; i < capacity*f.Elem.Size; i++ {
			buf[elemsOff+i] = 0
		}
		return elemsOff, nil
	case scheme.KindPointer:
		trailerOff := len(rec.Bytes())
		entity := uint16(0)
		if rec.Layout() != wire.LegacyShort {
			entity = uint16(f.Elem.Size)
		}
		if _, err := rec.AllocTail(off, count*f.Elem.Size, entity); err != nil {
			return 0, err
		}
		return trailerOff, nil
	default:
		return 0, tllerr.New(tllerr.InvalidArgument, "not an array or pointer field")
	}
}

// convertArrayOrPointer converts an Array or Pointer field into an
// Array or Pointer field of the other scheme, in any of the four
// combinations, with one recursive conversion per element (spec §4.4
// "array <-> pointer in either direction with per-element recursion").
func convertArrayOrPointer(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, fp *fieldPlan) error {
	count, fromElemsOff, err := readElements(fromRec, fromBase, fp.from)
	if err != nil {
		return err
	}
	intoElemsOff, err := writeElements(intoRec, intoBase, fp.into, count)
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		fromOff := fromElemsOff + i*fp.from.Elem.Size
		intoOff := intoElemsOff + i*fp.into.Elem.Size
		if err := applyFieldPlan(fp.elem, fromS, intoS, fromRec, intoRec, fromOff, intoOff); err != nil {
			return tllerr.WithField(fmt.Sprintf("[%d]", i), err)
		}
	}
	return nil
}
