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

// Package convert builds a per-message, per-field conversion plan
// between two schemes and applies it with no per-message allocation
// beyond what pointer-field growth requires.
//
// The plan-once-reuse-per-message shape mirrors protocol/thrift/
// fastcodec.go's FastRead/FastWrite split: a dispatch table is
// precomputed per field at Build time, and Convert performs no
// reflection or per-call classification.
package convert

import (
	"encoding/binary"
	"math"

	"github.com/tll-go/tll/scheme"
)

// getInt reads a little-endian integer scalar of the given kind as a
// sign-extended int64.
func getInt(buf []byte, k scheme.Kind) int64 {
	switch k {
	case scheme.KindInt8:
		return int64(int8(buf[0]))
	case scheme.KindInt16:
		return int64(int16(binary.LittleEndian.Uint16(buf)))
	case scheme.KindInt32:
		return int64(int32(binary.LittleEndian.Uint32(buf)))
	case scheme.KindInt64:
		return int64(binary.LittleEndian.Uint64(buf))
	case scheme.KindUInt8:
		return int64(buf[0])
	case scheme.KindUInt16:
		return int64(binary.LittleEndian.Uint16(buf))
	case scheme.KindUInt32:
		return int64(binary.LittleEndian.Uint32(buf))
	case scheme.KindUInt64:
		return int64(binary.LittleEndian.Uint64(buf))
	default:
		return 0
	}
}

func putInt(buf []byte, k scheme.Kind, v int64) {
	switch k {
	case scheme.KindInt8, scheme.KindUInt8:
		buf[0] = byte(v)
	case scheme.KindInt16, scheme.KindUInt16:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case scheme.KindInt32, scheme.KindUInt32:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	case scheme.KindInt64, scheme.KindUInt64:
		binary.LittleEndian.PutUint64(buf, uint64(v))
	}
}

func getFloat(buf []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf))
}

func putFloat(buf []byte, v float64) {
	binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
}

// unsigned reports whether k is an unsigned integer kind, which
// changes how widen/narrow overflow checks are performed.
func unsigned(k scheme.Kind) bool {
	switch k {
	case scheme.KindUInt8, scheme.KindUInt16, scheme.KindUInt32, scheme.KindUInt64:
		return true
	default:
		return false
	}
}

func bitSize(k scheme.Kind) int {
	switch k {
	case scheme.KindInt8, scheme.KindUInt8:
		return 8
	case scheme.KindInt16, scheme.KindUInt16:
		return 16
	case scheme.KindInt32, scheme.KindUInt32:
		return 32
	default:
		return 64
	}
}

func isInteger(k scheme.Kind) bool {
	switch k {
	case scheme.KindInt8, scheme.KindInt16, scheme.KindInt32, scheme.KindInt64,
		scheme.KindUInt8, scheme.KindUInt16, scheme.KindUInt32, scheme.KindUInt64:
		return true
	default:
		return false
	}
}

var resolutionNanos = map[scheme.Resolution]int64{
	scheme.ResNS:   1,
	scheme.ResUS:   1_000,
	scheme.ResMS:   1_000_000,
	scheme.ResS:    1_000_000_000,
	scheme.ResMin:  60 * 1_000_000_000,
	scheme.ResHour: 3600 * 1_000_000_000,
	scheme.ResDay:  24 * 3600 * 1_000_000_000,
}
