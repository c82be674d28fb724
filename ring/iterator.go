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

package ring

// ShiftPublish is the "publish" variant of Shift from spec §4.1: it
// bumps a pre-generation, advances head, then bumps the
// post-generation, so a concurrent Iterator can tell a torn read from
// a consistent one by comparing generations before/after copying.
func (r *Ring) ShiftPublish() error {
	r.preGen.Add(1)
	err := r.Shift()
	r.postGen.Add(1)
	return err
}

// NewIterator returns a snapshot reader starting at the ring's current
// head. It never mutates the ring; Next may report stale=true if the
// writer has lapped the memory the iterator is about to read.
func (r *Ring) NewIterator() *Iterator {
	return &Iterator{r: r, pos: uint32(r.head.Load()), gen: r.postGen.Load()}
}

// Iterator is a read-only cursor independent of the ring's own head,
// used by out-of-band readers (e.g. a debug dump) that must not
// disturb the real consumer's position.
type Iterator struct {
	r   *Ring
	pos uint32
	gen uint64
}

// Next returns the record at the iterator's current position and
// advances it. ok is false once the iterator reaches the writer's
// tail. stale is true if the generation observed while copying the
// record does not match the generation observed before starting,
// meaning the writer may have overwritten the memory mid-copy and the
// returned bytes must not be trusted.
func (it *Iterator) Next() (data []byte, stale bool, ok bool) {
	tail := uint32(it.r.tail.Load())
	if it.pos == tail {
		return nil, false, false
	}
	preGen := it.r.preGen.Load()
	size, pos := it.r.frameAt(it.pos)
	if size < 0 {
		it.pos = 0
		return it.Next()
	}
	out := append([]byte(nil), it.r.buf[pos+headerSize:pos+headerSize+size]...)
	postGen := it.r.postGen.Load()
	newPos := pos + frameSize(size)
	if newPos >= len(it.r.buf) {
		newPos = 0
	}
	it.pos = uint32(newPos)
	return out, preGen != postGen, true
}
