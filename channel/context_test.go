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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tll-go/tll/config"
	"github.com/tll-go/tll/tllerr"
)

func TestContextNewInstantiatesRegisteredImpl(t *testing.T) {
	ctx := NewDefaultContext()
	require.NoError(t, ctx.Register("fake", func() Impl { return &fakeImpl{} }))

	c, err := ctx.New("fake://host;name=in")
	require.NoError(t, err)
	assert.Equal(t, "in", c.Name())

	got, ok := ctx.Get("in")
	require.True(t, ok)
	assert.Same(t, c, got)
}

func TestContextNewAnonymousNameIsUnique(t *testing.T) {
	ctx := NewDefaultContext()
	require.NoError(t, ctx.Register("fake", func() Impl { return &fakeImpl{} }))

	a, err := ctx.New("fake://host")
	require.NoError(t, err)
	b, err := ctx.New("fake://host")
	require.NoError(t, err)
	assert.NotEqual(t, a.Name(), b.Name())
}

func TestContextNewUnknownProtoFails(t *testing.T) {
	ctx := NewDefaultContext()
	_, err := ctx.New("nosuch://host")
	assert.Error(t, err)
}

func TestContextMasterLookup(t *testing.T) {
	ctx := NewDefaultContext()
	require.NoError(t, ctx.Register("fake", func() Impl { return &fakeImpl{} }))

	_, err := ctx.New("fake://host;name=base")
	require.NoError(t, err)

	_, err = ctx.New("fake://host;master=base")
	require.NoError(t, err)

	_, err = ctx.New("fake://host;master=nosuchname")
	assert.Error(t, err, "an unresolvable master must fail construction")
}

// TestContextAliasExpansion is testable property 10: an alias resolves
// to its registered target without looping.
func TestContextAliasExpansion(t *testing.T) {
	ctx := NewDefaultContext()
	require.NoError(t, ctx.Register("fake", func() Impl { return &fakeImpl{} }))
	require.NoError(t, ctx.RegisterAlias("shortcut", "fake", config.New()))

	c, err := ctx.New("shortcut://host;name=aliased")
	require.NoError(t, err)
	assert.Equal(t, "aliased", c.Name())
}

func TestContextAliasLoopDetected(t *testing.T) {
	ctx := NewDefaultContext()
	require.NoError(t, ctx.RegisterAlias("foo", "bar", config.New()))
	require.NoError(t, ctx.RegisterAlias("bar", "foo", config.New()))

	_, err := ctx.New("foo://host")
	require.Error(t, err)
	assert.ErrorIs(t, err, tllerr.ErrInvalidArgument)
}

// initReplaceImpl swaps itself for a fakeImpl once, returning ErrAgain
// the first time (the init-replace hook, spec §4.5 step 4).
type initReplaceImpl struct {
	replaced bool
}

func (i *initReplaceImpl) Init(c *Channel, u config.URL, master *Channel) error {
	c.SetImpl(&fakeImpl{})
	return tllerr.ErrAgain
}
func (i *initReplaceImpl) Free(c *Channel)                                      {}
func (i *initReplaceImpl) Open(c *Channel, params *config.Tree) error           { return nil }
func (i *initReplaceImpl) Close(c *Channel, force bool) error                   { return nil }
func (i *initReplaceImpl) Process(c *Channel, timeoutMS int, flags int) error   { return nil }
func (i *initReplaceImpl) Post(c *Channel, msg *Message) error                  { return nil }

func TestContextInitReplaceSwapsImpl(t *testing.T) {
	ctx := NewDefaultContext()
	require.NoError(t, ctx.Register("swap", func() Impl { return &initReplaceImpl{} }))

	c, err := ctx.New("swap://host;name=s")
	require.NoError(t, err)
	_, ok := c.Impl().(*fakeImpl)
	assert.True(t, ok, "init-replace must leave the swapped-in impl installed")
}

// loopImpl always swaps itself for a fresh loopImpl, modeling scenario
// S4's init-replace cycle (e.g. "bar -> foo" repeating forever).
type loopImpl struct{}

func (i *loopImpl) Init(c *Channel, u config.URL, master *Channel) error {
	c.SetImpl(&loopImpl{})
	return tllerr.ErrAgain
}
func (i *loopImpl) Free(c *Channel)                                    {}
func (i *loopImpl) Open(c *Channel, params *config.Tree) error         { return nil }
func (i *loopImpl) Close(c *Channel, force bool) error                 { return nil }
func (i *loopImpl) Process(c *Channel, timeoutMS int, flags int) error { return nil }
func (i *loopImpl) Post(c *Channel, msg *Message) error                { return nil }

func TestContextInitReplaceCycleDetected(t *testing.T) {
	ctx := NewDefaultContext()
	require.NoError(t, ctx.Register("loop", func() Impl { return &loopImpl{} }))

	_, err := ctx.New("loop://host")
	require.Error(t, err)
	assert.ErrorIs(t, err, tllerr.ErrInvalidArgument)
}

func TestContextFreeRemovesFromIndex(t *testing.T) {
	ctx := NewDefaultContext()
	require.NoError(t, ctx.Register("fake", func() Impl { return &fakeImpl{} }))

	c, err := ctx.New("fake://host;name=doomed")
	require.NoError(t, err)
	require.NoError(t, c.Open(nil))

	ctx.Free(c)

	_, ok := ctx.Get("doomed")
	assert.False(t, ok)
	assert.Equal(t, Destroy, c.State())
}

func TestContextLoadSchemeCachesByURL(t *testing.T) {
	ctx := NewDefaultContext()
	const src = "- name: foo\n  id: 1\n  fields: []\n"
	s1, err := ctx.LoadScheme(src)
	require.NoError(t, err)
	s2, err := ctx.LoadScheme(src)
	require.NoError(t, err)
	assert.Same(t, s1, s2, "identical source strings must hit the URL-keyed cache")
}
