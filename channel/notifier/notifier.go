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

// Package notifier is the optional OS-level readiness primitive from
// spec §4.7: an eventfd on Linux, a self-pipe fallback elsewhere.
// Channels that hand work off to a background goroutine call Notify;
// the event loop polls the exposed Fd.
//
// Grounded directly on connstate/poll_linux.go's and
// internal/epoll's preference for raw stdlib syscall.EpollCtl/
// EpollWait/Kevent calls with no golang.org/x/sys dependency — this
// package reaches for the same stdlib syscall primitives for eventfd.
package notifier

// Notifier is a one-shot-per-edge wakeup signal with an OS file
// descriptor an event loop can multiplex on.
type Notifier interface {
	// Notify signals the fd readable; safe to call from any goroutine.
	Notify() error
	// Clear drains the pending signal so Fd stops reporting readable.
	Clear() error
	// Fd returns the OS descriptor to register with the event loop's
	// poller (CPOLLIN, spec §6).
	Fd() int
	Close() error
}
