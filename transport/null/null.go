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

// Package null is the "null://" reference transport: it discards
// every posted message and produces nothing, always Active. It exists
// to give Context/Channel something real to instantiate end-to-end in
// tests, the smallest possible stand-in that still satisfies the Impl
// interface — grounded on internal/testutils/netpoll's
// minimal-fake-poller pattern (the smallest implementation that still
// satisfies a real interface, here applied to a whole channel impl
// instead of a poller).
package null

import (
	"github.com/tll-go/tll/channel"
	"github.com/tll-go/tll/channel/base"
	"github.com/tll-go/tll/config"
)

// Impl is the null transport: caps Input|Output, transitions straight
// to Active on Open, discards every Post.
type Impl struct {
	base.Base
}

// New returns a factory suitable for Context.Register("null", ...).
func New() channel.Factory {
	return func() channel.Impl { return &Impl{} }
}

func (i *Impl) ChannelCaps() channel.Caps {
	return channel.CapInput | channel.CapOutput
}

func (i *Impl) Post(c *channel.Channel, msg *channel.Message) error {
	return nil
}
