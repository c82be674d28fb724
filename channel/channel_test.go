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
	"github.com/tll-go/tll/stat"
	"github.com/tll-go/tll/tllerr"
)

// fakeImpl is a minimal Impl for exercising Channel's state machine,
// callback dispatch and Post/Process plumbing without a real
// transport.
type fakeImpl struct {
	openErr  error
	postErr  error
	posted   []*Message
	freed    bool
}

func (f *fakeImpl) Init(c *Channel, u config.URL, master *Channel) error { return nil }
func (f *fakeImpl) Free(c *Channel)                                      { f.freed = true }
func (f *fakeImpl) Open(c *Channel, params *config.Tree) error {
	if f.openErr != nil {
		return f.openErr
	}
	c.SetState(Active)
	return nil
}
func (f *fakeImpl) Close(c *Channel, force bool) error { return nil }
func (f *fakeImpl) Process(c *Channel, timeoutMS int, flags int) error { return nil }
func (f *fakeImpl) Post(c *Channel, msg *Message) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, msg)
	return nil
}

func newTestChannel(impl Impl) *Channel {
	return New("test", impl, CapInput|CapOutput, config.New(), nil)
}

func TestChannelOpenTransitionsToActive(t *testing.T) {
	c := newTestChannel(&fakeImpl{})
	require.NoError(t, c.Open(nil))
	assert.Equal(t, Active, c.State())
}

func TestChannelOpenFailureGoesToError(t *testing.T) {
	c := newTestChannel(&fakeImpl{openErr: tllerr.New(tllerr.InvalidArgument, "boom")})
	err := c.Open(nil)
	assert.Error(t, err)
	assert.Equal(t, Error, c.State())
}

func TestChannelOpenRequiresClosed(t *testing.T) {
	c := newTestChannel(&fakeImpl{})
	require.NoError(t, c.Open(nil))
	err := c.Open(nil)
	assert.Error(t, err, "opening an already-Active channel must fail")
}

// TestDataNeverDispatchedOutsideActive is testable property 8: no
// channel delivers a data callback outside Active.
func TestDataNeverDispatchedOutsideActive(t *testing.T) {
	c := newTestChannel(&fakeImpl{})
	var got int
	c.AddCallback(func(c *Channel, msg *Message) error {
		got++
		return nil
	}, nil, ClassData)

	c.Dispatch(&Message{Type: ClassData})
	assert.Equal(t, 0, got, "channel starts Closed, data must not be dispatched")

	require.NoError(t, c.Open(nil))
	c.Dispatch(&Message{Type: ClassData})
	assert.Equal(t, 1, got)
}

func TestStateCallbackFiresOnTransition(t *testing.T) {
	c := newTestChannel(&fakeImpl{})
	var states []State
	c.AddCallback(func(c *Channel, msg *Message) error {
		states = append(states, State(msg.MsgID))
		return nil
	}, nil, ClassState)

	require.NoError(t, c.Open(nil))
	require.Contains(t, states, Opening)
	require.Contains(t, states, Active)
}

func TestPostUpdatesStatOnDataMessage(t *testing.T) {
	impl := &fakeImpl{}
	c := newTestChannel(impl)
	require.NoError(t, c.Open(nil))

	b := stat.NewBlock("test", []stat.FieldDescriptor{
		stat.NewField(statFieldCount, stat.Sum, stat.Int64, ""),
		stat.NewField(statFieldBytes, stat.Sum, stat.Int64, "b"),
	})
	c.AttachStat(b)
	err := c.Post(&Message{Type: ClassData, Data: []byte("hello")})
	require.NoError(t, err)

	p, ok := b.Swap()
	require.True(t, ok)
	count, _ := p.Value("count")
	bytes, _ := p.Value("bytes")
	assert.EqualValues(t, 1, count)
	assert.EqualValues(t, 5, bytes)
}

func TestPostPropagatesImplError(t *testing.T) {
	c := newTestChannel(&fakeImpl{postErr: tllerr.ErrAgain})
	err := c.Post(&Message{Type: ClassData})
	assert.ErrorIs(t, err, tllerr.ErrAgain)
}

func TestProcessRequiresDcapProcess(t *testing.T) {
	c := newTestChannel(&fakeImpl{})
	err := c.Process(0, 0)
	assert.ErrorIs(t, err, tllerr.ErrAgain)

	c.SetDcaps(DcapProcess)
	assert.NoError(t, c.Process(0, 0))
}

// TestSuspendPermanentSurvivesParentResume is testable property 9: a
// child suspended directly stays suspended across a parent's Resume.
func TestSuspendPermanentSurvivesParentResume(t *testing.T) {
	parent := newTestChannel(&fakeImpl{})
	child := newTestChannel(&fakeImpl{})
	parent.AddChild(child, "")

	child.Suspend()
	assert.True(t, child.Dcaps().has(DcapSuspend))

	parent.Resume()
	assert.True(t, child.Dcaps().has(DcapSuspend), "directly-suspended child must stay suspended")
}

func TestResumePropagatesToChildrenNotDirectlySuspended(t *testing.T) {
	parent := newTestChannel(&fakeImpl{})
	child := newTestChannel(&fakeImpl{})
	parent.AddChild(child, "")

	parent.Suspend()
	assert.True(t, child.Dcaps().has(DcapSuspend))

	parent.Resume()
	assert.False(t, child.Dcaps().has(DcapSuspend), "child only inherited suspension, must clear with parent")
}
