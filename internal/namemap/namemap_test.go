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

package namemap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashString(t *testing.T) {
	require.Equal(t, HashString("1234"), HashString("1234"))
	require.NotEqual(t, HashString("12345"), HashString("12346"))
	require.Equal(t, HashString("12345678"), HashString("12345678"))
	require.NotEqual(t, HashString("123456789"), HashString("123456788"))
	assert.Equal(t, hashOffset, HashString(""))
}

func TestHashBytesMatchesHashString(t *testing.T) {
	s := "a longer key than 8 bytes, crossing several rounds"
	assert.Equal(t, HashString(s), HashBytes([]byte(s)))
}

func TestMapPutGetDelete(t *testing.T) {
	m := New[int]()
	m.Put("a", 1)
	m.Put("b", 2)

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	m.Delete("a")
	_, ok = m.Get("a")
	assert.False(t, ok)

	v, ok = m.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, m.Len())
}

func TestMapOverwrite(t *testing.T) {
	m := New[string]()
	m.Put("k", "first")
	m.Put("k", "second")
	v, ok := m.Get("k")
	require.True(t, ok)
	assert.Equal(t, "second", v)
	assert.Equal(t, 1, m.Len())
}

// TestMapGrowsAndRehashes exercises the 75%-full rehash path and
// confirms every inserted key survives repeated doublings.
func TestMapGrowsAndRehashes(t *testing.T) {
	m := New[int]()
	for i := 0; i < 500; i++ {
		m.Put(fmt.Sprintf("key-%d", i), i)
	}
	require.Equal(t, 500, m.Len())
	for i := 0; i < 500; i++ {
		v, ok := m.Get(fmt.Sprintf("key-%d", i))
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

// TestMapTombstoneReuse confirms a deleted slot can be reused by a
// later Put without leaking a live entry count.
func TestMapTombstoneReuse(t *testing.T) {
	m := New[int]()
	for i := 0; i < 50; i++ {
		m.Put(fmt.Sprintf("k%d", i), i)
	}
	for i := 0; i < 25; i++ {
		m.Delete(fmt.Sprintf("k%d", i))
	}
	require.Equal(t, 25, m.Len())
	for i := 0; i < 25; i++ {
		m.Put(fmt.Sprintf("new%d", i), i+100)
	}
	assert.Equal(t, 50, m.Len())
}

func TestMapRange(t *testing.T) {
	m := New[int]()
	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		m.Put(k, v)
	}
	got := map[string]int{}
	m.Range(func(k string, v int) bool {
		got[k] = v
		return true
	})
	assert.Equal(t, want, got)
}

func TestMapRangeStopsEarly(t *testing.T) {
	m := New[int]()
	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("c", 3)

	n := 0
	m.Range(func(k string, v int) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}
