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

import (
	"strings"
	"sync"

	"github.com/tll-go/tll/config"
	"github.com/tll-go/tll/internal/namemap"
	"github.com/tll-go/tll/tllerr"
)

// Factory builds a fresh, unconfigured Impl for one channel instance.
type Factory func() Impl

// regEntry is either a concrete implementation factory or an alias
// that expands to a different proto chain plus extra parameters.
type regEntry struct {
	factory     Factory
	isAlias     bool
	aliasProto  string
	aliasParams *config.Tree
}

// registry is the name->impl map and alias tree from spec §4.5,
// grounded on container/strmap's flat, GC-friendly map shape (here
// internal/namemap, the incremental-write generalization of it) for
// the name->implementation index.
type registry struct {
	mu      sync.RWMutex
	entries *namemap.Map[regEntry]
}

func newRegistry() *registry {
	return &registry{entries: namemap.New[regEntry]()}
}

// Register adds a concrete implementation factory under name.
func (r *registry) Register(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries.Get(name); ok {
		return tllerr.New(tllerr.AlreadyExists, "channel impl already registered: "+name)
	}
	r.entries.Put(name, regEntry{factory: f})
	return nil
}

// RegisterAlias adds a name whose lookup expands to protoTemplate (a
// "+"-joined proto chain) with params merged on top of the caller's
// own parameters (spec §4.5 "If the entry is an alias, substitutes its
// proto and merges its parameters").
func (r *registry) RegisterAlias(name, protoTemplate string, params *config.Tree) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries.Get(name); ok {
		return tllerr.New(tllerr.AlreadyExists, "channel impl already registered: "+name)
	}
	r.entries.Put(name, regEntry{isAlias: true, aliasProto: protoTemplate, aliasParams: params})
	return nil
}

// lookup resolves proto per spec §4.5 step 1: exact match first, else
// the longest registered "name+" entry that proto has as a prefix
// (the alias-tree's wildcard-prefix convention), else NotFound.
func (r *registry) lookup(proto string) (regEntry, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries.Get(proto); ok {
		return e, proto, nil
	}
	bestLen := -1
	var best regEntry
	var bestName string
	r.entries.Range(func(key string, e regEntry) bool {
		if !strings.HasSuffix(key, "+") {
			return true
		}
		if strings.HasPrefix(proto, key) && len(key) > bestLen {
			bestLen, best, bestName = len(key), e, key
		}
		return true
	})
	if bestLen < 0 {
		return regEntry{}, "", tllerr.New(tllerr.NotFound, "no channel impl for proto: "+proto)
	}
	return best, bestName, nil
}
