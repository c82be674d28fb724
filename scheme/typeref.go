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
	"strings"

	"github.com/tll-go/tll/tllerr"
)

// names indexes every entity arena by name, built in resolve's first
// pass so field type strings can be resolved against it in the second
// (spec §9 "Cyclic refs": a message may reference a message defined
// later in the same source, or itself).
type names struct {
	messages map[string]int
	enums    map[string]int
	unions   map[string]int
	bits     map[string]int
}

func scalarSize(t string) (Kind, int, bool) {
	switch t {
	case "int8":
		return KindInt8, 1, true
	case "int16":
		return KindInt16, 2, true
	case "int32":
		return KindInt32, 4, true
	case "int64":
		return KindInt64, 8, true
	case "uint8", "byte", "bool":
		return KindUInt8, 1, true
	case "uint16":
		return KindUInt16, 2, true
	case "uint32":
		return KindUInt32, 4, true
	case "uint64":
		return KindUInt64, 8, true
	case "double":
		return KindDouble, 8, true
	case "decimal128":
		return KindDecimal128, 16, true
	case "string":
		return KindBytes, 1, true // element entity of a pointer trailer; see resolveType
	}
	return 0, 0, false
}

// parseBytesN recognizes "byteN" fixed-size byte array types, e.g.
// "byte16".
func parseBytesN(t string) (int, bool) {
	if !strings.HasPrefix(t, "byte") || t == "byte" {
		return 0, false
	}
	n, err := strconv.Atoi(t[len("byte"):])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseArraySuffix splits "base[N]" into ("base", N, true).
func parseArraySuffix(t string) (string, int, bool) {
	if !strings.HasSuffix(t, "]") {
		return "", 0, false
	}
	i := strings.LastIndexByte(t, '[')
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(t[i+1 : len(t)-1])
	if err != nil {
		return "", 0, false
	}
	return t[:i], n, true
}

func countSizeFor(maxCount int) int {
	switch {
	case maxCount <= 0xFF:
		return 1
	case maxCount <= 0xFFFF:
		return 2
	default:
		return 4
	}
}

// resolveBase resolves a type string with no '*' or '[...]' wrapping
// against scalars, fixed byte arrays, and named entities.
func (n *names) resolveBase(s *Scheme, t string) (Field, error) {
	if kind, size, ok := scalarSize(t); ok {
		return Field{Kind: kind, Size: size}, nil
	}
	if size, ok := parseBytesN(t); ok {
		return Field{Kind: KindBytes, Size: size}, nil
	}
	if idx, ok := n.enums[t]; ok {
		return Field{Kind: KindEnum, EnumRef: idx, Size: s.Enums[idx].Size}, nil
	}
	if idx, ok := n.unions[t]; ok {
		maxSize := 0
		for _, a := range s.Unions[idx].Arms {
			if a.Size > maxSize {
				maxSize = a.Size
			}
		}
		return Field{Kind: KindUnion, UnionRef: idx, Size: s.Unions[idx].TagSize + maxSize}, nil
	}
	if idx, ok := n.bits[t]; ok {
		return Field{Kind: KindBits, BitsRef: idx, Size: s.Bits[idx].Size}, nil
	}
	if idx, ok := n.messages[t]; ok {
		return Field{Kind: KindMessage, MessageRef: idx, Size: s.Messages[idx].Size}, nil
	}
	return Field{}, tllerr.New(tllerr.NotFound, fmt.Sprintf("unknown type %q", t))
}

// resolveType resolves a full field type string, including the '*'
// pointer prefix and the "[N]" inline-array suffix, into a Field ready
// to be placed at a caller-assigned Offset.
func (n *names) resolveType(s *Scheme, t string) (Field, error) {
	if strings.HasPrefix(t, "*") {
		elem, err := n.resolveType(s, t[1:])
		if err != nil {
			return Field{}, err
		}
		elemCopy := elem
		return Field{Kind: KindPointer, Size: 8, Elem: &elemCopy}, nil
	}
	if base, count, ok := parseArraySuffix(t); ok {
		elem, err := n.resolveType(s, base)
		if err != nil {
			return Field{}, err
		}
		elemCopy := elem
		cs := countSizeFor(count)
		return Field{
			Kind:      KindArray,
			CountSize: cs,
			Elem:      &elemCopy,
			Size:      cs + count*elem.Size,
		}, nil
	}
	return n.resolveBase(s, t)
}
