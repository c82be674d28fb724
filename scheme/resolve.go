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

	"github.com/tll-go/tll/tllerr"
)

// resolve turns a rawScheme into a fully-offset-computed Scheme: pass
// one registers every name into the arena so forward and cyclic
// references resolve; pass two walks fields in declaration order,
// resolving types and packing offsets byte-tight (spec §4.3: "records
// are attribute-packed").
func resolve(raw *rawScheme) (*Scheme, error) {
	s := New()
	s.Options = raw.Options

	s.Enums = make([]Enum, len(raw.Enums))
	s.Unions = make([]Union, len(raw.Unions))
	s.Bits = make([]Bits, len(raw.Bits))
	s.Messages = make([]Message, len(raw.Messages))

	n := &names{
		messages: map[string]int{},
		enums:    map[string]int{},
		unions:   map[string]int{},
		bits:     map[string]int{},
	}
	for i, m := range raw.Messages {
		if _, dup := n.messages[m.Name]; dup {
			return nil, tllerr.New(tllerr.AlreadyExists, "duplicate message name "+m.Name)
		}
		n.messages[m.Name] = i
	}
	for i, e := range raw.Enums {
		n.enums[e.Name] = i
	}
	for i, b := range raw.Bits {
		n.bits[b.Name] = i
	}
	for i, u := range raw.Unions {
		n.unions[u.Name] = i
	}

	// Enums, bits and unions have no forward-referencing needs among
	// themselves beyond their own declared underlying scalar type, so
	// they resolve in one pass.
	for i, e := range raw.Enums {
		_, size, ok := scalarSize(e.Type)
		if !ok {
			return nil, tllerr.New(tllerr.InvalidArgument, "enum "+e.Name+": unknown underlying type "+e.Type)
		}
		values := make([]EnumValue, len(e.Values))
		for j, v := range e.Values {
			values[j] = EnumValue{Name: v.Name, Value: v.Value}
		}
		s.Enums[i] = Enum{Name: e.Name, Size: size, Values: values}
	}
	for i, b := range raw.Bits {
		_, size, ok := scalarSize(b.Type)
		if !ok {
			return nil, tllerr.New(tllerr.InvalidArgument, "bits "+b.Name+": unknown underlying type "+b.Type)
		}
		fields := make([]BitField, len(b.Bits))
		for j, bf := range b.Bits {
			sz := bf.Size
			if sz == 0 {
				sz = 1
			}
			fields[j] = BitField{Name: bf.Name, Pos: bf.Pos, Size: sz}
		}
		s.Bits[i] = Bits{Name: b.Name, Size: size, Bits: fields}
	}
	for i, u := range raw.Unions {
		_, tagSize, ok := scalarSize(u.Type)
		if !ok {
			return nil, tllerr.New(tllerr.InvalidArgument, "union "+u.Name+": unknown tag type "+u.Type)
		}
		arms := make([]UnionArm, len(u.Arms))
		for j, a := range u.Arms {
			f, err := n.resolveType(s, a.Type)
			if err != nil {
				return nil, tllerr.WithField(fmt.Sprintf("%s.%s", u.Name, a.Name), err)
			}
			arms[j] = UnionArm{
				Name: a.Name, Tag: a.Tag,
				Kind: f.Kind, Sub: f.Sub, Size: f.Size,
				MessageRef: f.MessageRef, EnumRef: f.EnumRef,
			}
		}
		s.Unions[i] = Union{Name: u.Name, TagSize: tagSize, Arms: arms}
	}

	for i, m := range raw.Messages {
		msg, err := resolveMessage(s, n, m)
		if err != nil {
			return nil, tllerr.WithField(m.Name, err)
		}
		s.Messages[i] = msg
	}
	return s, nil
}

func resolveMessage(s *Scheme, n *names, m rawMessage) (Message, error) {
	fields := make([]Field, 0, len(m.Fields))
	offset := 0
	maxIndex := -1

	for _, rf := range m.Fields {
		f, err := n.resolveType(s, rf.Type)
		if err != nil {
			return Message{}, tllerr.WithField(rf.Name, err)
		}
		f.Name = rf.Name
		f.Index = -1
		if rf.Index != nil {
			f.Index = *rf.Index
			if f.Index > maxIndex {
				maxIndex = f.Index
			}
		}
		applyOptions(&f, rf.Options)
		f.Offset = offset
		offset += f.Size
		fields = append(fields, f)
	}

	pmapAt := -1
	if maxIndex >= 0 {
		pmapSize := (maxIndex + 1 + 7) / 8
		pmapAt = offset
		fields = append(fields, Field{
			Name:   "_pmap",
			Index:  -1,
			Kind:   KindBytes,
			Size:   pmapSize,
			Offset: offset,
		})
		offset += pmapSize
	}

	return Message{
		Name:   m.Name,
		MsgID:  m.ID,
		Fields: fields,
		Size:   offset,
		PmapAt: pmapAt,
	}, nil
}

// applyOptions layers the options.* sub-typing hints (spec §6) onto an
// already base-resolved field: a numeric field additionally tagged
// options.type=time_point becomes a SubTimePoint with the declared
// resolution, and so on.
func applyOptions(f *Field, opts map[string]any) {
	if opts == nil {
		return
	}
	typ, _ := opts["type"].(string)
	switch typ {
	case "time_point":
		f.Sub = SubTimePoint
		f.Resolution = resolutionOf(opts["resolution"])
	case "duration":
		f.Sub = SubDuration
		f.Resolution = resolutionOf(opts["resolution"])
	case "bytestring":
		f.Sub = SubByteString
	default:
		if len(typ) > 5 && typ[:5] == "fixed" {
			f.Sub = SubFixedPoint
			f.FixedPrec = atoiSafe(typ[5:])
		}
	}
}

func resolutionOf(v any) Resolution {
	s, _ := v.(string)
	switch s {
	case "ns":
		return ResNS
	case "us":
		return ResUS
	case "ms":
		return ResMS
	case "s":
		return ResS
	case "min":
		return ResMin
	case "hour", "hr":
		return ResHour
	case "day":
		return ResDay
	default:
		return ResNS
	}
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}
