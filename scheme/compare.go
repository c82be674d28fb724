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

// Equivalent reports whether a and b describe the same structure per
// spec §4.3 "Compare": recursively, message names and msgids match,
// field lists match pairwise by name and declared type (including
// inner sub-types, resolution, precision and enum value sets), and bit
// layouts match. Byte offsets are not compared directly — they are a
// deterministic function of field order and type, so identical field
// lists always pack identically.
func Equivalent(a, b *Scheme) bool {
	if len(a.Messages) != len(b.Messages) {
		return false
	}
	for i := range a.Messages {
		bm, ok := b.MessageByName(a.Messages[i].Name)
		if !ok || !messageEquivalent(a, &a.Messages[i], b, bm) {
			return false
		}
	}
	return true
}

func messageEquivalent(sa *Scheme, a *Message, sb *Scheme, b *Message) bool {
	if a.MsgID != b.MsgID {
		return false
	}
	af := visibleFields(a)
	bf := visibleFields(b)
	if len(af) != len(bf) {
		return false
	}
	for i := range af {
		bField, ok := fieldByName(bf, af[i].Name)
		if !ok || !fieldEquivalent(sa, af[i], sb, bField) {
			return false
		}
	}
	return true
}

func visibleFields(m *Message) []*Field {
	out := make([]*Field, 0, len(m.Fields))
	for i := range m.Fields {
		if m.Fields[i].Name == "_pmap" {
			continue
		}
		out = append(out, &m.Fields[i])
	}
	return out
}

func fieldByName(fields []*Field, name string) (*Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func fieldEquivalent(sa *Scheme, a *Field, sb *Scheme, b *Field) bool {
	if a.Kind != b.Kind || a.Sub != b.Sub {
		return false
	}
	if a.Sub == SubTimePoint || a.Sub == SubDuration {
		if a.Resolution != b.Resolution {
			return false
		}
	}
	if a.Sub == SubFixedPoint && a.FixedPrec != b.FixedPrec {
		return false
	}
	switch a.Kind {
	case KindMessage:
		return messageEquivalent(sa, &sa.Messages[a.MessageRef], sb, &sb.Messages[b.MessageRef])
	case KindEnum:
		return enumEquivalent(&sa.Enums[a.EnumRef], &sb.Enums[b.EnumRef])
	case KindUnion:
		return unionEquivalent(sa, &sa.Unions[a.UnionRef], sb, &sb.Unions[b.UnionRef])
	case KindBits:
		return bitsEquivalent(&sa.Bits[a.BitsRef], &sb.Bits[b.BitsRef])
	case KindArray, KindPointer:
		return fieldEquivalent(sa, a.Elem, sb, b.Elem)
	default:
		return a.Size == b.Size
	}
}

func enumEquivalent(a, b *Enum) bool {
	if a.Size != b.Size || len(a.Values) != len(b.Values) {
		return false
	}
	for _, av := range a.Values {
		bv, ok := b.ByName(av.Name)
		if !ok || bv != av.Value {
			return false
		}
	}
	return true
}

func bitsEquivalent(a, b *Bits) bool {
	if a.Size != b.Size || len(a.Bits) != len(b.Bits) {
		return false
	}
	for _, ab := range a.Bits {
		found := false
		for _, bb := range b.Bits {
			if bb.Name == ab.Name {
				found = ab.Pos == bb.Pos && ab.Size == bb.Size
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func unionEquivalent(sa *Scheme, a *Union, sb *Scheme, b *Union) bool {
	if a.TagSize != b.TagSize || len(a.Arms) != len(b.Arms) {
		return false
	}
	for _, aa := range a.Arms {
		found := false
		for _, ba := range b.Arms {
			if ba.Name == aa.Name {
				found = aa.Tag == ba.Tag && armEquivalent(sa, aa, sb, ba)
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func armEquivalent(sa *Scheme, a UnionArm, sb *Scheme, b UnionArm) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindMessage:
		return messageEquivalent(sa, &sa.Messages[a.MessageRef], sb, &sb.Messages[b.MessageRef])
	case KindEnum:
		return enumEquivalent(&sa.Enums[a.EnumRef], &sb.Enums[b.EnumRef])
	default:
		return a.Size == b.Size
	}
}
