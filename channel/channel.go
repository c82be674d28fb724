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
	"github.com/tll-go/tll/config"
	"github.com/tll-go/tll/scheme"
	"github.com/tll-go/tll/stat"
	"github.com/tll-go/tll/tllerr"
	"github.com/tll-go/tll/tlllog"
)

const (
	statFieldCount = "count"
	statFieldBytes = "bytes"
)

// Impl is the per-protocol vtable a concrete transport or logic
// component implements (spec §4.6): "a handle plus an implementation
// vtable". Channel owns the state machine and callback fabric; Impl
// only does the protocol-specific work.
type Impl interface {
	// Init runs the init-replace hook (spec §4.5 step 4): it may set a
	// different Impl on c via c.SetImpl and return tllerr.ErrAgain to
	// ask the context to retry construction with the new impl.
	Init(c *Channel, u config.URL, master *Channel) error
	Free(c *Channel)
	Open(c *Channel, params *config.Tree) error
	Close(c *Channel, force bool) error
	Process(c *Channel, timeoutMS int, flags int) error
	Post(c *Channel, msg *Message) error
}

// SchemeProvider is the optional "scheme(type)" accessor (spec §4.6);
// impls that carry no scheme simply don't implement it.
type SchemeProvider interface {
	Scheme(typ MsgClass) (*scheme.Scheme, bool)
}

// Channel is a handle: vtable plus the bookkeeping spec §4.6 assigns
// to the core rather than to the impl (name, state, caps, dcaps, fd,
// config, tree, schemes, callback tables).
type Channel struct {
	name   string
	state  State
	caps   Caps
	dcaps  Dcaps
	fd     int
	config *config.Tree
	impl   Impl
	log    *tlllog.Logger

	parent   *Channel
	children []*Channel

	stat *stat.Block

	dataCB  callbackTable
	otherCB callbackTable

	seq   int64
	dying bool // spec §9 "callback reentrancy": deferred destruction marker

	// suspendedByUser is true only when Suspend was called directly on
	// this channel (as opposed to inherited from a parent's
	// propagation); Resume on an ancestor does not clear suspension on
	// a channel where this is true (spec §4.6).
	suspendedByUser bool
}

// New constructs a channel around impl with the given name, caps and
// config subtree. Context.New is the normal entry point; this
// constructor is exported for impls and tests that need a bare
// channel without the full registry pipeline.
func New(name string, impl Impl, caps Caps, cfg *config.Tree, log *tlllog.Logger) *Channel {
	if cfg == nil {
		cfg = config.New()
	}
	return &Channel{
		name:   name,
		caps:   caps,
		config: cfg,
		impl:   impl,
		log:    log,
		fd:     -1,
		state:  Closed,
	}
}

func (c *Channel) Name() string        { return c.name }
func (c *Channel) State() State        { return c.state }
func (c *Channel) Caps() Caps          { return c.caps }
func (c *Channel) Dcaps() Dcaps        { return c.dcaps }
func (c *Channel) Fd() int             { return c.fd }
func (c *Channel) Config() *config.Tree { return c.config }
func (c *Channel) Parent() *Channel    { return c.parent }
func (c *Channel) Impl() Impl          { return c.impl }
func (c *Channel) Children() []*Channel {
	out := make([]*Channel, len(c.children))
	copy(out, c.children)
	return out
}

// SetImpl replaces the vtable (the init-replace hook, spec §4.5 step
// 4): Context.New calls impl.Init again on the new impl when this is
// invoked from inside a failed Init.
func (c *Channel) SetImpl(impl Impl) { c.impl = impl }

// SetCaps sets the immutable capability bitset; impls that implement
// CapsProvider have this called once by Context.New before Init runs.
func (c *Channel) SetCaps(caps Caps) { c.caps = caps }

// CapsProvider lets an Impl declare its caps (Input/Output/Custom/...)
// before Init runs, since caps are fixed at construction (spec §3).
type CapsProvider interface {
	ChannelCaps() Caps
}

// SetDcaps ORs bits into the driver-capability set; impls call this to
// signal Process/Pending/poll readiness.
func (c *Channel) SetDcaps(bits Dcaps) { c.dcaps |= bits }

// ClearDcaps ANDs bits out of the driver-capability set.
func (c *Channel) ClearDcaps(bits Dcaps) { c.dcaps &^= bits }

// SetFd records the channel's OS file descriptor (-1 for none).
func (c *Channel) SetFd(fd int) { c.fd = fd }

// AttachStat registers a statistics block with the channel; Context.New
// does this after a successful Init (spec §4.5 step 5).
func (c *Channel) AttachStat(b *stat.Block) { c.stat = b }

func (c *Channel) Stat() *stat.Block { return c.stat }

// SetState transitions the channel and emits a ClassState message to
// subscribers carrying the new state as MsgID (spec §3 "Transitions
// emit a state-class message to subscribers").
func (c *Channel) SetState(s State) {
	c.state = s
	c.Dispatch(&Message{Type: ClassState, MsgID: int32(s), Seq: c.nextSeq()})
}

func (c *Channel) nextSeq() int64 {
	c.seq++
	return c.seq
}

// AddCallback registers fn for the classes in mask. A mixed mask
// (e.g. data|state) is split across the two tables, matching spec
// §4.6's "data callbacks live in a dedicated table" design without
// forcing callers to register twice for a combined subscription.
func (c *Channel) AddCallback(fn CallbackFunc, user any, mask MsgClass) {
	if mask&ClassData != 0 {
		c.dataCB.add(fn, user, ClassData)
	}
	if rest := mask &^ ClassData; rest != 0 {
		c.otherCB.add(fn, user, rest)
	}
}

// RemoveCallback ANDs mask out of fn/user's registration in both
// tables, dropping empty entries (spec §4.6).
func (c *Channel) RemoveCallback(fn CallbackFunc, user any, mask MsgClass) {
	if mask&ClassData != 0 {
		c.dataCB.remove(fn, user, ClassData)
	}
	if rest := mask &^ ClassData; rest != 0 {
		c.otherCB.remove(fn, user, rest)
	}
}

// Dispatch delivers msg to subscribed callbacks. Data messages are
// never delivered outside Active (spec property 8: "no channel
// delivers a data callback outside Active").
func (c *Channel) Dispatch(msg *Message) {
	if msg.Type == ClassData {
		if c.state != Active {
			return
		}
		c.dispatchTable(&c.dataCB, msg)
		return
	}
	c.dispatchTable(&c.otherCB, msg)
}

func (c *Channel) dispatchTable(t *callbackTable, msg *Message) {
	for _, e := range t.snapshot(msg.Type) {
		if err := e.fn(c, msg); err != nil && c.log != nil {
			c.log.Printf("callback error (class %s): %v", msg.Type, err)
		}
	}
}

// Post dispatches msg to the implementation and, on success for a
// data message, updates the stat block's count/bytes sum fields under
// the acquire/release protocol (spec §4.6 "Post").
func (c *Channel) Post(msg *Message) error {
	if c.dying {
		return tllerr.New(tllerr.InvalidArgument, "channel is being destroyed")
	}
	if err := c.impl.Post(c, msg); err != nil {
		return err
	}
	if msg.Type == ClassData && c.stat != nil {
		c.stat.Update(statFieldCount, 1)
		c.stat.Update(statFieldBytes, int64(len(msg.Data)))
	}
	return nil
}

// Process returns Again if dcaps.Process is not set, otherwise
// forwards to the implementation (spec §4.6 "Process"): one call
// makes at most one step of progress.
func (c *Channel) Process(timeoutMS int, flags int) error {
	if !c.dcaps.has(DcapProcess) {
		return tllerr.ErrAgain
	}
	return c.impl.Process(c, timeoutMS, flags)
}

// Open transitions Closed -> Opening and calls the implementation
// (spec §4.6 "Open/Close"). The impl is responsible for calling
// SetState(Active) itself, possibly after several further Process
// calls if the handshake is long-running; Open only reports a
// synchronous failure from impl.Open.
func (c *Channel) Open(params *config.Tree) error {
	if c.state != Closed {
		return tllerr.New(tllerr.InvalidArgument, "channel is not Closed")
	}
	if params != nil {
		c.config.Merge(params, true)
	}
	c.SetState(Opening)
	if err := c.impl.Open(c, c.config); err != nil {
		c.SetState(Error)
		return err
	}
	return nil
}

// Close tears the channel down. force=false lets the impl linger in
// Closing and finish asynchronously (it must call SetState(Closed)
// itself); force=true closes immediately and unconditionally (spec
// §4.6, §7 "force=true close is always performed on teardown").
func (c *Channel) Close(force bool) error {
	if c.state == Closed || c.state == Destroy {
		return nil
	}
	if !force {
		c.SetState(Closing)
		return c.impl.Close(c, false)
	}
	err := c.impl.Close(c, true)
	c.detachFromParent()
	c.SetState(Closed)
	return err
}

// Suspend sets Suspend+SuspendPermanent on c and recursively on every
// child (spec property 9), emitting a channel-class update so
// event-loop adapters can drop registration.
func (c *Channel) Suspend() {
	c.suspendedByUser = true
	c.applySuspend()
}

func (c *Channel) applySuspend() {
	c.dcaps |= DcapSuspend | DcapSuspendPermanent
	c.Dispatch(&Message{Type: ClassChannel, Seq: c.nextSeq()})
	for _, ch := range c.children {
		ch.applySuspend()
	}
}

// Resume clears suspension on c and its children, except a child that
// had Suspend called on it directly stays suspended (spec §4.6 "A
// child may stay suspended via SuspendPermanent even if the parent
// resumes").
func (c *Channel) Resume() {
	c.suspendedByUser = false
	c.applyResume()
}

func (c *Channel) applyResume() {
	if c.suspendedByUser {
		return
	}
	c.dcaps &^= DcapSuspend | DcapSuspendPermanent
	c.Dispatch(&Message{Type: ClassChannel, Seq: c.nextSeq()})
	for _, ch := range c.children {
		ch.applyResume()
	}
}
