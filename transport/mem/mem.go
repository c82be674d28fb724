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

// Package mem is the "mem://" reference transport: a pair of channels
// sharing one ring.Ring, the in-process analog of a socket pair. The
// first channel opened (no "master" param) owns the ring and is the
// writer; a second channel opened with master=<writer-name> shares it
// and is the reader. Framing uses channel.EncodeHeader/DecodeHeader
// over the ring's variable-length byte records.
//
// Post and Process are meant to run on different goroutines (spec
// §4.7: the writer is typically a producer thread, the reader an event
// loop polling Fd): the writer wakes the reader's poller through a
// notifier.Notifier, and an out-of-band force-Close from the writer
// side reaches the reader through a markerqueue.Queue instead of
// racing the data ring.
package mem

import (
	"strconv"
	"unsafe"

	"github.com/tll-go/tll/channel"
	"github.com/tll-go/tll/channel/base"
	"github.com/tll-go/tll/channel/markerqueue"
	"github.com/tll-go/tll/channel/notifier"
	"github.com/tll-go/tll/config"
	"github.com/tll-go/tll/ring"
	"github.com/tll-go/tll/tllerr"
)

const (
	defaultCapacity = 64 * 1024
	markerQueueCap  = 16
)

// closeMarker is the single sentinel value pushed onto markers to
// signal a force-Close from the writer side; its address, not its
// (empty) contents, is the payload.
var closeMarker int

// Impl is the mem:// transport. isWriter distinguishes which side of
// the pair this instance is; it is decided in Init, once the master
// param has been resolved, so caps are set directly rather than via
// CapsProvider (spec §4.5's init-replace hook point would be the
// alternative, but the role never changes once Init returns).
type Impl struct {
	base.Base
	ring     *ring.Ring
	isWriter bool

	// notify and markers are created once by the writer's Init and
	// shared with the reader the same way ring is: looked up off the
	// master channel's Impl.
	notify  notifier.Notifier
	markers *markerqueue.Queue
}

// New returns a factory suitable for Context.Register("mem", ...).
func New() channel.Factory {
	return func() channel.Impl { return &Impl{} }
}

// Ring exposes the shared buffer so a paired reader's Init can reach
// into a writer channel's Impl (via Channel.Impl().(*Impl).Ring()) and
// bind to the same memory.
func (i *Impl) Ring() *ring.Ring { return i.ring }

func (i *Impl) Init(c *channel.Channel, u config.URL, master *channel.Channel) error {
	if master != nil {
		mi, ok := master.Impl().(*Impl)
		if !ok || mi.ring == nil {
			return tllerr.New(tllerr.InvalidArgument, "mem: master is not a mem:// writer channel")
		}
		i.ring = mi.ring
		i.notify = mi.notify
		i.markers = mi.markers
		i.isWriter = false
		c.SetCaps(channel.CapInput)
		if i.notify != nil {
			c.SetFd(i.notify.Fd())
			c.SetDcaps(channel.DcapPollIn)
		}
		return nil
	}

	capacity := defaultCapacity
	if v, ok := u.Params.Get("size"); ok {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 {
			capacity = n
		}
	}
	i.ring = ring.New(capacity)
	i.isWriter = true
	i.markers = markerqueue.New(markerQueueCap)
	// eventfd/self-pipe creation can fail under fd-exhaustion; the pair
	// still works without it, falling back to plain polling of Process.
	if n, err := notifier.New(); err == nil {
		i.notify = n
	}
	c.SetCaps(channel.CapOutput)
	return nil
}

func (i *Impl) Free(c *channel.Channel) {
	if i.isWriter {
		if i.ring != nil {
			i.ring.Close()
		}
		if i.notify != nil {
			i.notify.Close()
		}
	}
}

func (i *Impl) Open(c *channel.Channel, params *config.Tree) error {
	c.SetState(channel.Active)
	if !i.isWriter {
		c.SetDcaps(channel.DcapProcess)
	}
	return nil
}

// Close on the writer side, when forced, pushes a marker the reader's
// Process observes ahead of any queued data, so a concurrent reader
// blocked polling Fd for ring activity still sees the close promptly
// instead of waiting on a wakeup the writer may never send again.
func (i *Impl) Close(c *channel.Channel, force bool) error {
	if i.isWriter && force && i.markers != nil {
		i.markers.Push(unsafe.Pointer(&closeMarker))
		if i.notify != nil {
			return i.notify.Notify()
		}
	}
	return nil
}

// Post frames msg onto the shared ring (writer side only) and wakes
// the reader's poller, since Post and Process are expected to run on
// different goroutines.
func (i *Impl) Post(c *channel.Channel, msg *channel.Message) error {
	if !i.isWriter {
		return tllerr.New(tllerr.InvalidArgument, "mem: Post on reader channel")
	}
	total := channel.HeaderSize() + len(msg.Data)
	buf, err := i.ring.WriteBegin(total)
	if err != nil {
		return err
	}
	channel.EncodeHeader(buf, msg)
	copy(buf[channel.HeaderSize():], msg.Data)
	if err := i.ring.WriteEnd(total); err != nil {
		return err
	}
	if i.notify != nil {
		return i.notify.Notify()
	}
	return nil
}

// Process first drains any out-of-band close marker (spec §4.7's
// fan-in-to-one-wakeup pattern, here fanning in exactly one producer)
// ahead of ordinary ring records, then pulls one record off the shared
// ring (reader side only) and dispatches it as a data message. When the
// ring empties out, the notifier is cleared so the next Post's Notify
// edge is the one that wakes a blocked poller.
func (i *Impl) Process(c *channel.Channel, timeoutMS int, flags int) error {
	if i.isWriter {
		return tllerr.ErrAgain
	}
	if i.markers != nil {
		if _, ok := i.markers.Pop(); ok {
			c.SetState(channel.Closing)
			c.SetState(channel.Closed)
			return nil
		}
	}
	buf, err := i.ring.Read()
	if err != nil {
		if tllerr.IsAgain(err) && i.notify != nil {
			i.notify.Clear()
		}
		return err
	}
	msg := channel.DecodeHeader(buf)
	if n := len(buf) - channel.HeaderSize(); n > 0 {
		data := make([]byte, n)
		copy(data, buf[channel.HeaderSize():])
		msg.Data = data
	}
	c.Dispatch(&msg)
	if err := i.ring.Shift(); err != nil {
		return err
	}
	if i.ring.Empty() && i.notify != nil {
		i.notify.Clear()
	}
	return nil
}
