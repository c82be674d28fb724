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

package config

import (
	"strings"

	"github.com/tll-go/tll/tllerr"
)

// URL is a parsed channel descriptor: "proto://host;key=value;...".
// Proto may be a "+"-separated prefix chain ("prefix+proto://"); Host
// is opaque to this package and interpreted per-implementation.
type URL struct {
	Protos []string // prefix chain, innermost transport last
	Host   string
	Params *Tree
}

// ParseURL splits s into its protocol chain, host and dotted-key
// parameter tree (spec §6 "URL syntax").
func ParseURL(s string) (URL, error) {
	schemeIdx := strings.Index(s, "://")
	if schemeIdx < 0 {
		return URL{}, tllerr.New(tllerr.InvalidArgument, "url missing '://': "+s)
	}
	protoChain := s[:schemeIdx]
	rest := s[schemeIdx+3:]
	if protoChain == "" {
		return URL{}, tllerr.New(tllerr.InvalidArgument, "url missing protocol: "+s)
	}
	protos := strings.Split(protoChain, "+")

	parts := strings.Split(rest, ";")
	host := parts[0]
	params := New()
	for _, kv := range parts[1:] {
		if kv == "" {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			return URL{}, tllerr.New(tllerr.InvalidArgument, "url parameter missing '=': "+kv)
		}
		key, val := kv[:eq], kv[eq+1:]
		if key == "" {
			return URL{}, tllerr.New(tllerr.InvalidArgument, "url parameter has empty key: "+kv)
		}
		params.Set(key, val)
	}
	return URL{Protos: protos, Host: host, Params: params}, nil
}

// String reassembles the URL in canonical form (used for re-parsing
// after alias expansion substitutes a new proto chain).
func (u URL) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(u.Protos, "+"))
	b.WriteString("://")
	b.WriteString(u.Host)
	writeParams(&b, "", u.Params)
	return b.String()
}

func writeParams(b *strings.Builder, prefix string, t *Tree) {
	if t == nil {
		return
	}
	if v, ok := t.Value(); ok && prefix != "" {
		b.WriteByte(';')
		b.WriteString(prefix)
		b.WriteByte('=')
		b.WriteString(v)
	}
	for _, k := range t.Keys() {
		child := prefix
		if child != "" {
			child += "."
		}
		child += k
		writeParams(b, child, t.Child(k))
	}
}
