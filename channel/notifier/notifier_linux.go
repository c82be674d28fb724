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

//go:build linux

package notifier

import (
	"encoding/binary"
	"syscall"
)

const efdNonblock = 0x800 // EFD_NONBLOCK

// eventfdNotifier wraps a Linux eventfd(2) object opened directly via
// syscall.RawSyscall(SYS_EVENTFD2), the same raw-syscall style
// connstate/poll_linux.go uses for EpollCtl/EpollWait instead of
// reaching for golang.org/x/sys/unix.
type eventfdNotifier struct {
	fd int
}

// New opens a Linux eventfd in non-blocking mode.
func New() (Notifier, error) {
	r1, _, errno := syscall.RawSyscall(syscall.SYS_EVENTFD2, 0, efdNonblock, 0)
	if errno != 0 {
		return nil, errno
	}
	return &eventfdNotifier{fd: int(r1)}, nil
}

func (n *eventfdNotifier) Notify() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := syscall.Write(n.fd, buf[:])
	return err
}

func (n *eventfdNotifier) Clear() error {
	var buf [8]byte
	_, err := syscall.Read(n.fd, buf[:])
	if err == syscall.EAGAIN {
		return nil
	}
	return err
}

func (n *eventfdNotifier) Fd() int { return n.fd }

func (n *eventfdNotifier) Close() error { return syscall.Close(n.fd) }
