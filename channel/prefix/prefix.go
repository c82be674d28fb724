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

// Package prefix implements the wrap-one-child, intercept-some-calls
// channel composition from spec §4.6. The shape (wrap one underlying
// object, intercept specific calls, forward the rest unchanged) is the
// same one the reference corpus's apache_adaptor/bridge packages use
// to bridge two generations of a codec object, generalized here from
// byte-buffer bridging to channel composition; no code is shared with
// those packages; see DESIGN.md.
package prefix

import (
	"github.com/tll-go/tll/channel"
	"github.com/tll-go/tll/config"
	"github.com/tll-go/tll/scheme"
)

// Policy controls how the prefix's own config and the wrapped child's
// config combine (spec §4.6).
type Policy int

const (
	// Override: the prefix's parameters (and scheme, if it carries
	// one) replace the child's on conflict.
	Override Policy = iota
	// Extend: the child keeps its own values; the prefix's
	// parameters only fill in what the child didn't already set.
	Extend
)

// Transform lets a concrete prefix (e.g. a codec) rewrite messages
// flowing up from the wrapped child before they reach this prefix's
// own subscribers. A nil Transform on Prefix means pure passthrough.
type Transform interface {
	// OnData transforms a data message from the child; ok=false drops it.
	OnData(msg *channel.Message) (out *channel.Message, ok bool)
	// OnState transforms a state/control/channel message from the child.
	OnState(msg *channel.Message) (out *channel.Message, ok bool)
}

// Prefix is an Impl that wraps exactly one child channel (attached as
// c.Children()[0] by Context.New before Init runs, per the "+"-chain
// instantiation order) and forwards Open/Close/Process/Post to it,
// intercepting the child's data/state callbacks through Transform.
type Prefix struct {
	Policy    Policy
	Transform Transform

	c     *channel.Channel
	child *channel.Channel
}

// Init wires the prefix to its already-attached child and subscribes
// to its callbacks; it does not call child.Open (the outer Channel's
// Open drives that through Prefix.Open).
func (p *Prefix) Init(c *channel.Channel, u config.URL, master *channel.Channel) error {
	p.c = c
	kids := c.Children()
	if len(kids) != 1 {
		return nil // misconfigured chain; Open will fail loudly instead
	}
	p.child = kids[0]

	switch p.Policy {
	case Override:
		p.child.Config().Merge(c.Config(), true)
	case Extend:
		p.child.Config().Merge(c.Config(), false)
	}

	p.child.AddCallback(p.onChildData, p, channel.ClassData)
	p.child.AddCallback(p.onChildOther, p, channel.ClassState|channel.ClassControl|channel.ClassChannel)
	return nil
}

func (p *Prefix) onChildData(_ *channel.Channel, msg *channel.Message) error {
	out := msg
	if p.Transform != nil {
		m, ok := p.Transform.OnData(msg)
		if !ok {
			return nil
		}
		out = m
	}
	p.c.Dispatch(out)
	return nil
}

func (p *Prefix) onChildOther(_ *channel.Channel, msg *channel.Message) error {
	out := msg
	if p.Transform != nil {
		m, ok := p.Transform.OnState(msg)
		if !ok {
			return nil
		}
		out = m
	}
	p.c.Dispatch(out)
	return nil
}

func (p *Prefix) Free(c *channel.Channel) {}

// Open opens the wrapped child and mirrors its resulting state.
func (p *Prefix) Open(c *channel.Channel, params *config.Tree) error {
	if err := p.child.Open(params); err != nil {
		return err
	}
	c.SetState(p.child.State())
	return nil
}

// Close closes the wrapped child and mirrors the result.
func (p *Prefix) Close(c *channel.Channel, force bool) error {
	err := p.child.Close(force)
	c.SetState(channel.Closed)
	return err
}

// Process forwards to the wrapped child; a prefix has no processing
// of its own beyond what Transform does inline in the callbacks above.
func (p *Prefix) Process(c *channel.Channel, timeoutMS int, flags int) error {
	return p.child.Process(timeoutMS, flags)
}

// Post forwards to the wrapped child (a write-side codec would
// transform msg here before forwarding; the base Prefix passes it
// through unchanged).
func (p *Prefix) Post(c *channel.Channel, msg *channel.Message) error {
	return p.child.Post(msg)
}

// Scheme defaults to the child's (spec §4.6 "Prefixes default to
// returning the child's; codecs may override per type").
func (p *Prefix) Scheme(typ channel.MsgClass) (*scheme.Scheme, bool) {
	sp, ok := p.child.Impl().(channel.SchemeProvider)
	if !ok {
		return nil, false
	}
	return sp.Scheme(typ)
}
