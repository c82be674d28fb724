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

// Package config is a dotted-key configuration tree: channel URL
// parameters and nested subtrees (a.b.c) resolve against it the way
// http/binding walks a tag path against a reflect.Value tree, except
// the destination here is a generic key/value node graph instead of a
// Go struct field.
package config

import "strings"

// Tree is one node: an optional scalar Value and a set of named
// children. The root of a channel's configuration is a Tree; "a.b.c"
// addresses the child named "c" of the child named "b" of the child
// named "a".
type Tree struct {
	value    string
	hasValue bool
	children map[string]*Tree
}

// New returns an empty tree node.
func New() *Tree {
	return &Tree{}
}

// NewValue returns a tree node whose root value is v.
func NewValue(v string) *Tree {
	return &Tree{value: v, hasValue: true}
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// Get returns the scalar value stored at the dotted path, and whether
// it was present.
func (t *Tree) Get(path string) (string, bool) {
	n := t.sub(splitPath(path), false)
	if n == nil || !n.hasValue {
		return "", false
	}
	return n.value, true
}

// GetDefault returns Get's value or def if absent.
func (t *Tree) GetDefault(path, def string) string {
	if v, ok := t.Get(path); ok {
		return v
	}
	return def
}

// Set stores v at the dotted path, creating intermediate nodes.
func (t *Tree) Set(path, v string) {
	n := t.sub(splitPath(path), true)
	n.value, n.hasValue = v, true
}

// SetValue sets this node's own scalar value (the "" path).
func (t *Tree) SetValue(v string) {
	t.value, t.hasValue = v, true
}

// Value returns this node's own scalar value.
func (t *Tree) Value() (string, bool) {
	return t.value, t.hasValue
}

// Sub returns the subtree at the dotted path, or nil if absent.
func (t *Tree) Sub(path string) *Tree {
	return t.sub(splitPath(path), false)
}

// SubOrCreate returns the subtree at the dotted path, creating
// intermediate nodes (and the target) as needed.
func (t *Tree) SubOrCreate(path string) *Tree {
	return t.sub(splitPath(path), true)
}

func (t *Tree) sub(parts []string, create bool) *Tree {
	n := t
	for _, p := range parts {
		if n.children == nil {
			if !create {
				return nil
			}
			n.children = make(map[string]*Tree)
		}
		c, ok := n.children[p]
		if !ok {
			if !create {
				return nil
			}
			c = &Tree{}
			n.children[p] = c
		}
		n = c
	}
	return n
}

// Has reports whether the dotted path resolves to any node (value or
// subtree).
func (t *Tree) Has(path string) bool {
	return t.sub(splitPath(path), false) != nil
}

// Keys returns the immediate child names of this node, in unspecified
// order.
func (t *Tree) Keys() []string {
	keys := make([]string, 0, len(t.children))
	for k := range t.children {
		keys = append(keys, k)
	}
	return keys
}

// Child returns the direct child named key, or nil.
func (t *Tree) Child(key string) *Tree {
	if t.children == nil {
		return nil
	}
	return t.children[key]
}

// DeleteChild removes the direct child named key, if present.
func (t *Tree) DeleteChild(key string) {
	delete(t.children, key)
}

// Merge copies other's values and subtrees into t. When override is
// true, other's scalar values win on conflict (the prefix "Override"
// config-merge policy); when false, t's existing values are kept and
// only missing keys are filled in (the "Extend" policy, spec §4.6).
func (t *Tree) Merge(other *Tree, override bool) {
	if other == nil {
		return
	}
	if other.hasValue && (override || !t.hasValue) {
		t.value, t.hasValue = other.value, true
	}
	for k, oc := range other.children {
		if t.children == nil {
			t.children = make(map[string]*Tree)
		}
		tc, ok := t.children[k]
		if !ok {
			tc = &Tree{}
			t.children[k] = tc
		}
		tc.Merge(oc, override)
	}
}

// Clone returns a deep copy of t.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	c := &Tree{value: t.value, hasValue: t.hasValue}
	if t.children != nil {
		c.children = make(map[string]*Tree, len(t.children))
		for k, v := range t.children {
			c.children[k] = v.Clone()
		}
	}
	return c
}
