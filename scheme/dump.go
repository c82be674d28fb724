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

package scheme

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Dump renders s back to the YAML-subset text form Parse accepts,
// structured as a mapping of messages/enums/unions/bits/options (one
// of the two shapes Parse understands) rather than the bare-sequence
// shorthand, since a scheme dumped for round-tripping generally also
// carries enum/union/bits declarations a bare sequence has no room for.
//
// Per spec §4.3 "Format-to-text": the output is not guaranteed
// byte-identical to hand-written source, only structurally equivalent
// after a second Parse (spec's testable property 3).
func Dump(s *Scheme) (string, error) {
	raw := toRaw(s)
	out, err := yaml.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func toRaw(s *Scheme) *rawScheme {
	raw := &rawScheme{Options: s.Options}

	for _, e := range s.Enums {
		values := make([]rawEnumValue, len(e.Values))
		for i, v := range e.Values {
			values[i] = rawEnumValue{Name: v.Name, Value: v.Value}
		}
		raw.Enums = append(raw.Enums, rawEnum{Name: e.Name, Type: scalarTypeName(e.Size, false), Values: values})
	}

	for _, u := range s.Unions {
		arms := make([]rawArm, len(u.Arms))
		for i, a := range u.Arms {
			arms[i] = rawArm{Name: a.Name, Type: armTypeName(s, a), Tag: a.Tag}
		}
		raw.Unions = append(raw.Unions, rawUnion{Name: u.Name, Type: scalarTypeName(u.TagSize, false), Arms: arms})
	}

	for _, b := range s.Bits {
		fields := make([]rawBitField, len(b.Bits))
		for i, bf := range b.Bits {
			fields[i] = rawBitField{Name: bf.Name, Pos: bf.Pos, Size: bf.Size}
		}
		raw.Bits = append(raw.Bits, rawBits{Name: b.Name, Type: scalarTypeName(b.Size, false), Bits: fields})
	}

	for _, m := range s.Messages {
		fields := make([]rawField, 0, len(m.Fields))
		for _, f := range m.Fields {
			if f.Name == "_pmap" {
				continue
			}
			rf := rawField{Name: f.Name, Type: typeStringOf(s, f)}
			if f.Index >= 0 {
				idx := f.Index
				rf.Index = &idx
			}
			if opts := optionsOf(f); len(opts) > 0 {
				rf.Options = opts
			}
			fields = append(fields, rf)
		}
		raw.Messages = append(raw.Messages, rawMessage{Name: m.Name, ID: m.MsgID, Fields: fields})
	}
	return raw
}

func scalarTypeName(size int, float bool) string {
	if float {
		return "double"
	}
	switch size {
	case 1:
		return "uint8"
	case 2:
		return "uint16"
	case 4:
		return "uint32"
	default:
		return "uint64"
	}
}

func armTypeName(s *Scheme, a UnionArm) string {
	switch a.Kind {
	case KindMessage:
		return s.Messages[a.MessageRef].Name
	case KindEnum:
		return s.Enums[a.EnumRef].Name
	default:
		return kindTypeName(a.Kind, a.Size)
	}
}

func kindTypeName(k Kind, size int) string {
	switch k {
	case KindInt8:
		return "int8"
	case KindInt16:
		return "int16"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUInt8:
		return "uint8"
	case KindUInt16:
		return "uint16"
	case KindUInt32:
		return "uint32"
	case KindUInt64:
		return "uint64"
	case KindDouble:
		return "double"
	case KindDecimal128:
		return "decimal128"
	case KindBytes:
		if size == 1 {
			return "string"
		}
		return "byte" + strconv.Itoa(size)
	default:
		return fmt.Sprintf("<kind %d>", int(k))
	}
}

func typeStringOf(s *Scheme, f Field) string {
	switch f.Kind {
	case KindPointer:
		return "*" + typeStringOf(s, *f.Elem)
	case KindArray:
		n := (f.Size - f.CountSize) / f.Elem.Size
		return fmt.Sprintf("%s[%d]", typeStringOf(s, *f.Elem), n)
	case KindMessage:
		return s.Messages[f.MessageRef].Name
	case KindEnum:
		return s.Enums[f.EnumRef].Name
	case KindUnion:
		return s.Unions[f.UnionRef].Name
	case KindBits:
		return s.Bits[f.BitsRef].Name
	default:
		return kindTypeName(f.Kind, f.Size)
	}
}

func optionsOf(f Field) map[string]any {
	switch f.Sub {
	case SubTimePoint:
		return map[string]any{"type": "time_point", "resolution": resolutionName(f.Resolution)}
	case SubDuration:
		return map[string]any{"type": "duration", "resolution": resolutionName(f.Resolution)}
	case SubFixedPoint:
		return map[string]any{"type": fmt.Sprintf("fixed%d", f.FixedPrec)}
	case SubByteString:
		return map[string]any{"type": "bytestring"}
	default:
		return nil
	}
}

func resolutionName(r Resolution) string {
	switch r {
	case ResNS:
		return "ns"
	case ResUS:
		return "us"
	case ResMS:
		return "ms"
	case ResS:
		return "s"
	case ResMin:
		return "min"
	case ResHour:
		return "hour"
	case ResDay:
		return "day"
	default:
		return "ns"
	}
}
