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

// Package tlllog is the plain-log.Printf texture the rest of tll-go
// logs with: no levels, no structured fields, just a channel-name
// prefix, matching how gopool.SetPanicHandler's default path logs a
// recovered panic with log.Printf and nothing fancier.
package tlllog

import "log"

// Logger prefixes every line with a channel (or context) name. The
// zero value is invalid; use New.
type Logger struct {
	name string
	base *log.Logger
}

// New wraps base with the given name prefix. A nil base defaults to
// log.Default(), so callers never need to construct one just to get a
// channel logger (spec's ambient logging: "optional *log.Logger, nil
// defaults to log.Default(), never a global").
func New(name string, base *log.Logger) *Logger {
	if base == nil {
		base = log.Default()
	}
	return &Logger{name: name, base: base}
}

func (l *Logger) Printf(format string, args ...any) {
	l.base.Printf(l.name+": "+format, args...)
}

func (l *Logger) Print(args ...any) {
	l.base.Print(append([]any{l.name + ": "}, args...)...)
}

// Named returns a logger for a nested name, e.g. a child channel under
// its parent's logger ("parent.child: ...").
func (l *Logger) Named(child string) *Logger {
	return &Logger{name: l.name + "." + child, base: l.base}
}
