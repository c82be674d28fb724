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

package channel

// AddChild attaches child under c (e.g. a prefix owning its wrapped
// transport), publishing the child's config under tag if non-empty
// and emitting a channel-class message (spec §3 "Parent/child tree").
func (c *Channel) AddChild(child *Channel, tag string) {
	child.parent = c
	c.children = append(c.children, child)
	if tag != "" {
		c.config.SubOrCreate("children." + tag).Merge(child.config, true)
	}
	c.Dispatch(&Message{Type: ClassChannel, Seq: c.nextSeq()})
}

// RemoveChild detaches child from c's children list, emitting a
// channel-class message. Destroying a child auto-removes it from its
// parent (spec §3); callers that destroy a child should call this
// first (detachFromParent does it automatically).
func (c *Channel) RemoveChild(child *Channel) {
	for i, ch := range c.children {
		if ch == child {
			last := len(c.children) - 1
			c.children[i] = c.children[last]
			c.children = c.children[:last]
			child.parent = nil
			c.Dispatch(&Message{Type: ClassChannel, Seq: c.nextSeq()})
			return
		}
	}
}

// detachFromParent auto-removes c from its parent's children list on
// destruction (spec §3 "A child's destruction auto-removes it from
// its parent").
func (c *Channel) detachFromParent() {
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
}
