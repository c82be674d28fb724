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

// Package zero is the "zero://" reference transport: it dispatches a
// zero-filled data message of a configured size to its callbacks on
// every Process call, exercising the callback dispatch path without any
// real I/O. It does not touch the ring buffer.
package zero

import (
	"strconv"

	"github.com/tll-go/tll/channel"
	"github.com/tll-go/tll/channel/base"
	"github.com/tll-go/tll/config"
)

const defaultSize = 64

// Impl emits a fixed-size zero-filled message each time Process runs.
type Impl struct {
	base.Base
	size int
	seq  int64
}

// New returns a factory suitable for Context.Register("zero", ...).
func New() channel.Factory {
	return func() channel.Impl { return &Impl{size: defaultSize} }
}

func (i *Impl) ChannelCaps() channel.Caps {
	return channel.CapOutput
}

func (i *Impl) Init(c *channel.Channel, u config.URL, master *channel.Channel) error {
	if v, ok := u.Params.Get("size"); ok {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			i.size = n
		}
	}
	return nil
}

func (i *Impl) Open(c *channel.Channel, params *config.Tree) error {
	c.SetState(channel.Active)
	c.SetDcaps(channel.DcapProcess)
	return nil
}

func (i *Impl) Process(c *channel.Channel, timeoutMS int, flags int) error {
	i.seq++
	c.Dispatch(&channel.Message{
		Type: channel.ClassData,
		Seq:  i.seq,
		Data: make([]byte, i.size),
	})
	return nil
}
