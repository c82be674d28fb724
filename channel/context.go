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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"reflect"
	"sync"

	"github.com/tll-go/tll/config"
	"github.com/tll-go/tll/internal/namemap"
	"github.com/tll-go/tll/scheme"
	"github.com/tll-go/tll/stat"
	"github.com/tll-go/tll/tllerr"
	"github.com/tll-go/tll/tlllog"
)

// Context is the registry and factory from spec §4.5: it owns the
// impl registry/alias tree, the channel-name index, the scheme cache,
// the list of loaded modules, and the shared stat list. Per spec §9
// "Global state", there is no package-level default instance — a
// caller builds one explicitly with NewContext/NewDefaultContext.
type Context struct {
	mu sync.RWMutex

	reg    *registry
	names  *namemap.Map[*Channel]
	config *config.Tree

	schemesByURL  *namemap.Map[*scheme.Scheme]
	schemesByHash *namemap.Map[*scheme.Scheme]

	modules []string

	stats *stat.List

	log *tlllog.Logger

	anon int
}

// NewContext builds an empty context. base may be nil (defaults to the
// standard logger, spec's ambient logging convention).
func NewContext(base *log.Logger) *Context {
	return newContext(base)
}

// NewDefaultContext is the idiomatic entry point for a cmd/ binary: an
// explicitly constructed, non-global Context (spec §9).
func NewDefaultContext() *Context {
	return newContext(nil)
}

func newContext(base *log.Logger) *Context {
	return &Context{
		reg:           newRegistry(),
		names:         namemap.New[*Channel](),
		config:        config.New(),
		schemesByURL:  namemap.New[*scheme.Scheme](),
		schemesByHash: namemap.New[*scheme.Scheme](),
		stats:         stat.NewList(),
		log:           tlllog.New("context", base),
	}
}

// Register adds a concrete channel implementation factory under name.
func (ctx *Context) Register(name string, f Factory) error {
	return ctx.reg.Register(name, f)
}

// RegisterAlias adds a name that expands to protoTemplate with params
// merged over the caller's own (spec §4.5).
func (ctx *Context) RegisterAlias(name, protoTemplate string, params *config.Tree) error {
	return ctx.reg.RegisterAlias(name, protoTemplate, params)
}

// RegisterModule records a loaded module's path (see modules.go); it
// does not itself call the module's Register hook.
func (ctx *Context) RegisterModule(path string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.modules = append(ctx.modules, path)
}

// Get looks up a previously created channel by name (spec §4.5
// "channel-name index for cross-channel lookup").
func (ctx *Context) Get(name string) (*Channel, bool) {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	return ctx.names.Get(name)
}

// Stats returns the shared stat list every channel's block registers
// with.
func (ctx *Context) Stats() *stat.List { return ctx.stats }

// Config returns the context's published configuration root
// (each channel's config is published under "channels.<name>", spec
// §4.5 step 3).
func (ctx *Context) Config() *config.Tree { return ctx.config }

// LoadScheme parses source (a literal scheme URL/YAML/"yamls+gz://"
// string) through the shared cache: identical sources, whether shared
// by URL or by SHA-256 content hash, are interned to one *scheme.Scheme
// (spec §4.5 "shared scheme cache keyed by both the original URL and a
// content hash"). The caller receives its own reference and must call
// Release when done.
func (ctx *Context) LoadScheme(source string) (*scheme.Scheme, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if s, ok := ctx.schemesByURL.Get(source); ok {
		return s.Acquire(), nil
	}

	sum := sha256.Sum256([]byte(source))
	hash := hex.EncodeToString(sum[:])
	if s, ok := ctx.schemesByHash.Get(hash); ok {
		ctx.schemesByURL.Put(source, s)
		return s.Acquire(), nil
	}

	s, err := scheme.Parse(source)
	if err != nil {
		return nil, err
	}
	ctx.schemesByURL.Put(source, s)
	ctx.schemesByHash.Put(hash, s)
	return s, nil
}

// New is the instantiation pipeline from spec §4.5: lookup -> master
// resolution -> name assignment -> config publish -> init-replace loop
// -> stat registration.
func (ctx *Context) New(urlStr string) (*Channel, error) {
	u, err := config.ParseURL(urlStr)
	if err != nil {
		return nil, err
	}
	if len(u.Protos) > 1 {
		return ctx.newChain(u)
	}
	return ctx.newLeaf(u, nil)
}

// newChain builds a "prefix+...+proto://" chain innermost-first,
// attaching each prefix as the parent of the previously built channel
// (spec §4.6 "a prefix wraps exactly one child"). A prefix impl reads
// its wrapped child back out of c.Children()[0] during Init.
func (ctx *Context) newChain(u config.URL) (*Channel, error) {
	inner := config.URL{Protos: u.Protos[1:], Host: u.Host, Params: u.Params}
	var child *Channel
	var err error
	if len(inner.Protos) == 1 {
		child, err = ctx.newLeaf(inner, nil)
	} else {
		child, err = ctx.newChain(inner)
	}
	if err != nil {
		return nil, err
	}
	outer := config.URL{Protos: u.Protos[:1], Host: u.Host, Params: u.Params}
	c, err := ctx.newLeafWithChild(outer, child)
	if err != nil {
		child.Close(true)
		return nil, err
	}
	return c, nil
}

func (ctx *Context) newLeaf(u config.URL, presetChild *Channel) (*Channel, error) {
	return ctx.newLeafWithChild(u, presetChild)
}

func (ctx *Context) newLeafWithChild(u config.URL, presetChild *Channel) (*Channel, error) {
	proto := u.Protos[0]

	var master *Channel
	if name, ok := u.Params.Get("master"); ok {
		m, ok := ctx.Get(name)
		if !ok {
			return nil, tllerr.New(tllerr.NotFound, "unknown master channel: "+name)
		}
		master = m
	}

	name, ok := u.Params.Get("name")
	if !ok {
		ctx.mu.Lock()
		ctx.anon++
		name = fmt.Sprintf("noname-%d", ctx.anon)
		ctx.mu.Unlock()
	}

	caps := Caps(0)
	c := New(name, nil, caps, u.Params.Clone(), ctx.log.Named(name))

	if presetChild != nil {
		c.AddChild(presetChild, "")
	}

	seen := map[uint64]struct{}{}
	curProto := proto
	var impl Impl
	for impl == nil {
		entry, matchedName, err := ctx.reg.lookup(curProto)
		if err != nil {
			return nil, err
		}
		if entry.isAlias {
			aliasURL, perr := config.ParseURL(entry.aliasProto + "://" + u.Host)
			if perr != nil {
				return nil, perr
			}
			merged := entry.aliasParams.Clone()
			if merged == nil {
				merged = config.New()
			}
			merged.Merge(u.Params, false)
			u.Params = merged
			curProto = aliasURL.Protos[len(aliasURL.Protos)-1]
			h := namemap.HashString(matchedName)
			if _, dup := seen[h]; dup {
				return nil, tllerr.New(tllerr.InvalidArgument, "alias loop detected at: "+matchedName)
			}
			seen[h] = struct{}{}
			continue
		}
		impl = entry.factory()
		c.SetImpl(impl)
	}

	// Init-replace loop (spec §4.5 step 4): impl.Init may install a
	// different impl on c via c.SetImpl and return Again to ask for a
	// retry with that new impl, without going back through the
	// registry — curProto's resolution above already picked the
	// concrete impl; a replace is the impl substituting itself, not a
	// different proto.
	for {
		if cp, ok := impl.(CapsProvider); ok {
			c.SetCaps(cp.ChannelCaps())
		}
		h := namemap.HashString(reflect.TypeOf(impl).String())
		if _, dup := seen[h]; dup {
			return nil, tllerr.New(tllerr.InvalidArgument, "init-replace cycle detected")
		}
		seen[h] = struct{}{}

		initErr := impl.Init(c, u, master)
		if initErr == nil {
			break
		}
		if tllerr.IsAgain(initErr) && c.impl != impl {
			impl = c.impl
			continue // retry Init on the impl it swapped in
		}
		return nil, initErr
	}

	if !truthy(u.Params.GetDefault("tll.internal", "")) {
		ctx.config.SubOrCreate("channels." + name).Merge(c.config, true)
	}

	ctx.mu.Lock()
	ctx.names.Put(name, c)
	ctx.mu.Unlock()

	if c.stat != nil {
		ctx.stats.Add(c.stat)
	}

	return c, nil
}

func truthy(v string) bool {
	switch v {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// Free tears a channel down (spec §4.5 "Destruction"): force-closes it
// if still Active/Opening, deregisters its stat block, unlinks it from
// the name index and published config, detaches it from its parent,
// then calls the impl's Free.
func (ctx *Context) Free(c *Channel) {
	if c.state == Active || c.state == Opening || c.state == Closing {
		c.Close(true)
	}
	c.dying = true

	ctx.mu.Lock()
	ctx.names.Delete(c.name)
	ctx.mu.Unlock()

	if c.stat != nil {
		ctx.stats.Remove(c.stat)
	}
	if ch := ctx.config.Sub("channels"); ch != nil {
		ch.DeleteChild(c.name)
	}

	c.detachFromParent()
	for _, child := range c.Children() {
		ctx.Free(child)
	}
	if c.impl != nil {
		c.impl.Free(c)
	}
	c.state = Destroy
}
