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

package markerqueue

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopOrderAndEmpty(t *testing.T) {
	q := New(4)
	_, ok := q.Pop()
	assert.False(t, ok)

	var a, b int
	require.True(t, q.Push(unsafe.Pointer(&a)))
	require.True(t, q.Push(unsafe.Pointer(&b)))
	assert.Equal(t, 2, q.Len())

	m1, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, unsafe.Pointer(&a), m1)

	m2, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, unsafe.Pointer(&b), m2)

	_, ok = q.Pop()
	assert.False(t, ok)
}

func TestPushFullReturnsFalse(t *testing.T) {
	q := New(1)
	var a, b int
	require.True(t, q.Push(unsafe.Pointer(&a)))
	assert.False(t, q.Push(unsafe.Pointer(&b)), "push must not block when the buffer is full")
}

func TestPushNilPanics(t *testing.T) {
	q := New(1)
	assert.Panics(t, func() { q.Push(nil) })
}

func TestConcurrentProducersSingleConsumer(t *testing.T) {
	q := New(1024)
	markers := make([]int, 2000)

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(start int) {
			defer wg.Done()
			for i := start; i < len(markers); i += 4 {
				for !q.Push(unsafe.Pointer(&markers[i])) {
				}
			}
		}(p)
	}

	seen := 0
	for seen < len(markers) {
		if _, ok := q.Pop(); ok {
			seen++
		}
	}
	wg.Wait()
	assert.Equal(t, len(markers), seen)
}
