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

package stat

import "sync"

// List is a registry of Blocks a collector walks periodically. It
// favors the flat-slice-over-pointer-chasing layout container/strmap
// uses for its read side: Range copies a snapshot slice under the lock
// and then walks it lock-free, so a concurrent Add/Remove triggered
// from within the callback (or from another goroutine) never
// deadlocks and never corrupts an in-progress iteration.
type List struct {
	mu     sync.Mutex
	blocks []*Block
}

// NewList returns an empty registry.
func NewList() *List {
	return &List{}
}

// Add registers b. The caller owns b's lifetime; List only holds a
// reference until Remove.
func (l *List) Add(b *Block) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocks = append(l.blocks, b)
}

// Remove drops b from the registry. It is a no-op if b was already
// removed or never added.
func (l *List) Remove(b *Block) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, x := range l.blocks {
		if x == b {
			l.blocks = append(l.blocks[:i], l.blocks[i+1:]...)
			return
		}
	}
}

// Len returns the number of currently registered blocks.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.blocks)
}

// Range calls f for a snapshot of the blocks registered at the time
// Range was called. A block removed mid-iteration still gets visited
// once; a block added mid-iteration is not. f may itself call Add or
// Remove on l without deadlocking.
func (l *List) Range(f func(b *Block) bool) {
	l.mu.Lock()
	snap := make([]*Block, len(l.blocks))
	copy(snap, l.blocks)
	l.mu.Unlock()

	for _, b := range snap {
		if !f(b) {
			return
		}
	}
}

// SwapAll walks the registry once, swaps every block whose writer is
// not mid-Update, and invokes collect with each block's name and the
// inactive page ready to read. Blocks whose Swap fails (a writer held
// the lock) are skipped this round; the collector will pick them up
// next time SwapAll runs.
func (l *List) SwapAll(collect func(name string, p *Page)) {
	l.Range(func(b *Block) bool {
		if p, ok := b.Swap(); ok {
			collect(b.Name, p)
		}
		return true
	})
}
