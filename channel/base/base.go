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

// Package base provides the default-behavior Impl mixin concrete
// transports embed and selectively override (spec §2 "Base / Prefix:
// Default-behavior mixins for concrete transports to reuse"). A
// transport that only needs a custom Post, say, embeds Base and
// defines just that one method; Go's method-shadowing over an
// embedded field gives the override for free.
package base

import (
	"github.com/tll-go/tll/channel"
	"github.com/tll-go/tll/config"
)

// Base is the zero-configuration Impl: Open/Close simply flip the
// channel straight to Active/Closed (the common case for a transport
// with no handshake), Process/Post are no-ops, and Init/Free do
// nothing. Embedders override whichever of these their protocol
// actually needs.
type Base struct{}

func (Base) Init(c *channel.Channel, u config.URL, master *channel.Channel) error {
	return nil
}

func (Base) Free(c *channel.Channel) {}

func (Base) Open(c *channel.Channel, params *config.Tree) error {
	c.SetState(channel.Active)
	return nil
}

func (Base) Close(c *channel.Channel, force bool) error {
	c.SetState(channel.Closed)
	return nil
}

func (Base) Process(c *channel.Channel, timeoutMS int, flags int) error {
	return nil
}

func (Base) Post(c *channel.Channel, msg *channel.Message) error {
	return nil
}
