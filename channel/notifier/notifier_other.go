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

//go:build !linux

package notifier

import "syscall"

// pipeNotifier is the self-pipe fallback (spec §4.7) for platforms
// without eventfd: a one-byte write to the pipe's write end wakes a
// poller blocked reading the read end.
type pipeNotifier struct {
	r, w int
}

// New opens a non-blocking pipe pair.
func New() (Notifier, error) {
	var fds [2]int
	if err := syscall.Pipe(fds[:]); err != nil {
		return nil, err
	}
	if err := syscall.SetNonblock(fds[0], true); err != nil {
		return nil, err
	}
	if err := syscall.SetNonblock(fds[1], true); err != nil {
		return nil, err
	}
	return &pipeNotifier{r: fds[0], w: fds[1]}, nil
}

func (n *pipeNotifier) Notify() error {
	_, err := syscall.Write(n.w, []byte{1})
	return err
}

func (n *pipeNotifier) Clear() error {
	var buf [64]byte
	for {
		_, err := syscall.Read(n.r, buf[:])
		if err == syscall.EAGAIN {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (n *pipeNotifier) Fd() int { return n.r }

func (n *pipeNotifier) Close() error {
	syscall.Close(n.w)
	return syscall.Close(n.r)
}
