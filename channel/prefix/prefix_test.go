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

package prefix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tll-go/tll/channel"
	"github.com/tll-go/tll/channel/base"
	"github.com/tll-go/tll/config"
)

type echoChild struct {
	base.Base
}

func (echoChild) Post(c *channel.Channel, msg *channel.Message) error {
	c.Dispatch(msg)
	return nil
}

func buildPrefix(t *testing.T, p *Prefix) (outer, child *channel.Channel) {
	t.Helper()
	child = channel.New("child", &echoChild{}, channel.CapInput|channel.CapOutput, config.New(), nil)
	outer = channel.New("outer", p, channel.CapInput|channel.CapOutput, config.New(), nil)
	outer.AddChild(child, "")
	require.NoError(t, p.Init(outer, config.URL{Params: config.New()}, nil))
	return outer, child
}

func TestPrefixOpenMirrorsChildState(t *testing.T) {
	p := &Prefix{}
	outer, _ := buildPrefix(t, p)

	require.NoError(t, outer.Open(nil))
	assert.Equal(t, channel.Active, outer.State())
}

func TestPrefixForwardsPostToChild(t *testing.T) {
	p := &Prefix{}
	outer, _ := buildPrefix(t, p)
	require.NoError(t, outer.Open(nil))

	var got *channel.Message
	outer.AddCallback(func(c *channel.Channel, msg *channel.Message) error {
		got = msg
		return nil
	}, nil, channel.ClassData)

	require.NoError(t, outer.Post(&channel.Message{Type: channel.ClassData, Data: []byte("x")}))
	require.NotNil(t, got)
	assert.Equal(t, []byte("x"), got.Data)
}

type upcaseTransform struct{}

func (upcaseTransform) OnData(msg *channel.Message) (*channel.Message, bool) {
	out := *msg
	out.Flags = 1
	return &out, true
}

func (upcaseTransform) OnState(msg *channel.Message) (*channel.Message, bool) {
	return msg, true
}

func TestPrefixAppliesTransform(t *testing.T) {
	p := &Prefix{Transform: upcaseTransform{}}
	outer, _ := buildPrefix(t, p)
	require.NoError(t, outer.Open(nil))

	var got *channel.Message
	outer.AddCallback(func(c *channel.Channel, msg *channel.Message) error {
		got = msg
		return nil
	}, nil, channel.ClassData)

	require.NoError(t, outer.Post(&channel.Message{Type: channel.ClassData, Data: []byte("x")}))
	require.NotNil(t, got)
	assert.EqualValues(t, 1, got.Flags)
}

func TestPrefixExtendPolicyKeepsChildConfig(t *testing.T) {
	p := &Prefix{Policy: Extend}
	child := channel.New("child", &echoChild{}, channel.CapInput, config.New(), nil)
	child.Config().Set("mode", "child")

	outer := channel.New("outer", p, channel.CapInput, config.New(), nil)
	outer.Config().Set("mode", "outer")
	outer.AddChild(child, "")

	require.NoError(t, p.Init(outer, config.URL{Params: config.New()}, nil))
	mode, _ := child.Config().Get("mode")
	assert.Equal(t, "child", mode, "extend only backfills the child's missing keys, doesn't touch its own existing value")
}
