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
	"fmt"
	"plugin"

	"github.com/tll-go/tll/tllerr"
)

// registerSymbol is the exported function name every loadable module
// must provide: func Register(ctx *channel.Context).
const registerSymbol = "Register"

// LoadModule opens a Go plugin (".so", built with `go build
// -buildmode=plugin`) and calls its exported Register(ctx) function,
// the idiomatic Go analog of the spec's "dynamic shared objects"
// module loader (spec §4.5 "a list of loaded plugin modules"). No
// in-pack example loads code dynamically; this piece is grounded on
// stdlib plugin's own idiom alone (see DESIGN.md).
func (ctx *Context) LoadModule(path string) error {
	p, err := plugin.Open(path)
	if err != nil {
		return tllerr.New(tllerr.IoError, fmt.Sprintf("loading module %s: %v", path, err))
	}
	sym, err := p.Lookup(registerSymbol)
	if err != nil {
		return tllerr.New(tllerr.InvalidArgument, fmt.Sprintf("module %s has no %s symbol: %v", path, registerSymbol, err))
	}
	register, ok := sym.(func(*Context))
	if !ok {
		return tllerr.New(tllerr.InvalidArgument, fmt.Sprintf("module %s's %s has the wrong signature", path, registerSymbol))
	}
	register(ctx)
	ctx.RegisterModule(path)
	return nil
}

// Modules returns the paths of every module loaded so far.
func (ctx *Context) Modules() []string {
	ctx.mu.RLock()
	defer ctx.mu.RUnlock()
	out := make([]string, len(ctx.modules))
	copy(out, ctx.modules)
	return out
}
