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

// Package pagepool is a size-classed []byte pool: each class is a
// sync.Pool of a fixed capacity, rounded up to the next power of two.
// A magic footer written after the visible length lets Free validate
// and locate the owning class without the caller tracking it, the
// same trick cache/mempool in the reference corpus uses for its
// Malloc/Free pair.
//
// ring.Ring uses this for its backing memory (the spec requires "at
// least one page" of contiguous space). scheme/wire.Record does not use
// it: its tail-allocation growth goes through dirtmake.
package pagepool

import (
	"math/bits"
	"sync"
	"unsafe"
)

const (
	minClassSize = 4 << 10   // 4KiB floor: spec's "at least one page"
	maxClassSize = 256 << 20 // 256MiB ceiling, Malloc panics above this
	footerLen    = 8
	footerMagic  = uint64(0xCACEDA7A00000000)
	footerMask   = uint64(0xFFFFFFFFFFFFFFC0)
	indexMask    = uint64(0x3F)
)

type class struct {
	sync.Pool
	size int
}

var (
	classes   []*class
	sizeToIdx [64]int
)

func init() {
	i := 0
	for sz := minClassSize; sz <= maxClassSize; sz <<= 1 {
		c := &class{size: sz}
		c.New = func() any {
			b := make([]byte, sz)
			return &b[0]
		}
		classes = append(classes, c)
		sizeToIdx[bits.Len(uint(sz))] = i
		i++
	}
}

func classIndex(need int) int {
	if need <= minClassSize {
		return 0
	}
	i := sizeToIdx[bits.Len(uint(need))]
	if uint(need)&uint(need-1) == 0 {
		return i
	}
	return i + 1
}

// Get returns a []byte of len(size) with capacity rounded up to the
// pool's size class. The contents are not zeroed.
func Get(size int) []byte {
	if size <= 0 {
		return nil
	}
	need := size + footerLen
	idx := classIndex(need)
	if idx >= len(classes) {
		panic("pagepool: requested size exceeds max class")
	}
	c := classes[idx]
	p := c.Get().(*byte)
	out := unsafe.Slice(p, c.size)[:size]
	writeFooter(out, c.size, idx)
	return out
}

// Cap returns the usable capacity (excluding the footer) of a slice
// obtained from Get.
func Cap(b []byte) int {
	idx, classSize, ok := readFooter(b)
	if !ok {
		panic("pagepool: buf was not allocated by Get, or its length changed past its footer")
	}
	_ = idx
	return classSize - footerLen
}

// Put returns b to its owning class. It is a no-op for slices not
// obtained from Get (e.g. ones grown past their original class by
// append), mirroring cache/mempool's "best effort" Free.
func Put(b []byte) {
	idx, classSize, ok := readFooter(b)
	if !ok || idx >= len(classes) || classes[idx].size != classSize {
		return
	}
	p := unsafe.SliceData(b[:classSize])
	classes[idx].Put(p)
}

func writeFooter(b []byte, classSize, idx int) {
	full := unsafe.Slice(unsafe.SliceData(b), classSize)
	*(*uint64)(unsafe.Pointer(&full[classSize-footerLen])) = footerMagic | uint64(idx)
}

func readFooter(b []byte) (idx int, classSize int, ok bool) {
	c := cap(b)
	if c < minClassSize || c&(c-1) != 0 {
		return 0, 0, false
	}
	full := unsafe.Slice(unsafe.SliceData(b), c)
	footer := *(*uint64)(unsafe.Pointer(&full[c-footerLen]))
	if footer&footerMask != footerMagic {
		return 0, 0, false
	}
	return int(footer & indexMask), c, true
}
