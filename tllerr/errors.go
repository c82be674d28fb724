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

// Package tllerr defines the error kinds shared across the channel
// substrate: construction/runtime errors from channels and contexts,
// and scheme conversion failures carrying a field-path stack.
package tllerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies the kind of failure, not a concrete Go type.
type Code int

const (
	OK Code = iota
	InvalidArgument
	NotFound
	AlreadyExists
	RangeOverflow
	MessageSize
	Again
	IoError
	ProtocolError
	ConversionError
)

func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case InvalidArgument:
		return "invalid argument"
	case NotFound:
		return "not found"
	case AlreadyExists:
		return "already exists"
	case RangeOverflow:
		return "range overflow"
	case MessageSize:
		return "message size"
	case Again:
		return "again"
	case IoError:
		return "io error"
	case ProtocolError:
		return "protocol error"
	case ConversionError:
		return "conversion error"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Error is a structured error carrying a Code and, for ConversionError,
// a stack of field names pinpointing where in a nested record the
// failure occurred (outermost field first).
type Error struct {
	Code Code
	Msg  string
	Path []string
}

func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

func (e *Error) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, strings.Join(e.Path, "."), e.Msg)
}

// WithField prepends a field-path segment, building the diagnostic
// stack as the error unwinds out of nested converter recursion.
func (e *Error) WithField(name string) *Error {
	path := make([]string, 0, len(e.Path)+1)
	path = append(path, name)
	path = append(path, e.Path...)
	return &Error{Code: e.Code, Msg: e.Msg, Path: path}
}

// Is supports errors.Is against the sentinel values below by code.
func (e *Error) Is(target error) bool {
	var o *Error
	if errors.As(target, &o) {
		return e.Code == o.Code
	}
	return false
}

// WithField wraps err with an additional leading field-path segment
// when err is (or wraps) an *Error, building the diagnostic stack as
// the error unwinds out of nested scheme resolution or conversion
// recursion. Errors of any other type pass through unchanged.
func WithField(name string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e.WithField(name)
	}
	return err
}

// Sentinels for errors.Is comparisons against a bare code, mirroring
// the teacher's package-level sentinel error values.
var (
	ErrAgain           = New(Again, "temporarily unavailable")
	ErrInvalidArgument = New(InvalidArgument, "invalid argument")
	ErrNotFound        = New(NotFound, "not found")
	ErrAlreadyExists   = New(AlreadyExists, "already exists")
)

// IsAgain reports whether err (or a wrapped error) signals backpressure.
func IsAgain(err error) bool {
	return errors.Is(err, ErrAgain)
}
