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

package scheme

import (
	"fmt"
	"reflect"

	"github.com/tll-go/tll/tllerr"
)

// Merge combines schemes N-ways per spec §4.3 "Merge": global
// enums/unions/bits are unioned by name (a name appearing in more than
// one input must resolve identically), and messages are unioned by
// name with the same identicality rule; a msgid reused across two
// different message names is an error. The merge works over each
// input's raw (textual) form rather than its resolved arena, so
// identical-by-construction reuses the same reflect.DeepEqual check
// spec.md leaves open as "structurally identical" without prescribing
// a comparison strategy.
//
// The merged scheme's enum/union/bits arena is the full union across
// all inputs, which is always a superset of "all dependencies of each
// kept message" (spec's transitive-closure requirement) since nothing
// referenced by a kept message can come from outside the inputs it was
// read from.
func Merge(schemes ...*Scheme) (*Scheme, error) {
	out := &rawScheme{Options: map[string]string{}}
	msgByID := map[int32]string{}

	for _, s := range schemes {
		raw := toRaw(s)
		for k, v := range raw.Options {
			out.Options[k] = v
		}
		if err := mergeEnums(out, raw.Enums); err != nil {
			return nil, err
		}
		if err := mergeUnions(out, raw.Unions); err != nil {
			return nil, err
		}
		if err := mergeBits(out, raw.Bits); err != nil {
			return nil, err
		}
		if err := mergeMessages(out, msgByID, raw.Messages); err != nil {
			return nil, err
		}
	}
	return resolve(out)
}

func mergeEnums(out *rawScheme, in []rawEnum) error {
	for _, e := range in {
		if existing, i := findEnum(out.Enums, e.Name); i >= 0 {
			if !reflect.DeepEqual(existing, e) {
				return tllerr.New(tllerr.AlreadyExists, "merge: enum "+e.Name+" redefined incompatibly")
			}
			continue
		}
		out.Enums = append(out.Enums, e)
	}
	return nil
}

func findEnum(list []rawEnum, name string) (rawEnum, int) {
	for i, e := range list {
		if e.Name == name {
			return e, i
		}
	}
	return rawEnum{}, -1
}

func mergeUnions(out *rawScheme, in []rawUnion) error {
	for _, u := range in {
		found := false
		for _, existing := range out.Unions {
			if existing.Name == u.Name {
				found = true
				if !reflect.DeepEqual(existing, u) {
					return tllerr.New(tllerr.AlreadyExists, "merge: union "+u.Name+" redefined incompatibly")
				}
			}
		}
		if !found {
			out.Unions = append(out.Unions, u)
		}
	}
	return nil
}

func mergeBits(out *rawScheme, in []rawBits) error {
	for _, b := range in {
		found := false
		for _, existing := range out.Bits {
			if existing.Name == b.Name {
				found = true
				if !reflect.DeepEqual(existing, b) {
					return tllerr.New(tllerr.AlreadyExists, "merge: bits "+b.Name+" redefined incompatibly")
				}
			}
		}
		if !found {
			out.Bits = append(out.Bits, b)
		}
	}
	return nil
}

func mergeMessages(out *rawScheme, msgByID map[int32]string, in []rawMessage) error {
	for _, m := range in {
		found := false
		for _, existing := range out.Messages {
			if existing.Name == m.Name {
				found = true
				if !reflect.DeepEqual(existing, m) {
					return tllerr.New(tllerr.AlreadyExists, "merge: message "+m.Name+" redefined incompatibly")
				}
			}
		}
		if owner, ok := msgByID[m.ID]; ok && owner != m.Name {
			return tllerr.New(tllerr.AlreadyExists, fmt.Sprintf("merge: msgid %d claimed by both %s and %s", m.ID, owner, m.Name))
		}
		msgByID[m.ID] = m.Name
		if !found {
			out.Messages = append(out.Messages, m)
		}
	}
	return nil
}
