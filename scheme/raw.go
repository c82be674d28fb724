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

// rawScheme is the direct yaml.v3 unmarshal target for scheme text
// sources: a flat list of message definitions plus optional top-level
// enum/union/bits and options blocks, matching the corpus's preference
// (coordinator/cfg.go) for unmarshaling straight into tagged structs
// rather than hand-walking a node tree.
//
// The top-level source is either a bare YAML sequence of messages
// (spec S2: "- {name: m, id: 1, fields: [...]}"), which fills Messages
// only, or a mapping with "messages" plus optional enums/unions/bits/
// options sections; see parse.go for how the two are told apart.
type rawScheme struct {
	Options  map[string]string `yaml:"options,omitempty"`
	Enums    []rawEnum         `yaml:"enums,omitempty"`
	Unions   []rawUnion        `yaml:"unions,omitempty"`
	Bits     []rawBits         `yaml:"bits,omitempty"`
	Messages []rawMessage      `yaml:"messages,omitempty"`
}

type rawMessage struct {
	Name   string     `yaml:"name"`
	ID     int32      `yaml:"id"`
	Fields []rawField `yaml:"fields"`
}

type rawField struct {
	Name    string         `yaml:"name"`
	Type    string         `yaml:"type"`
	Index   *int           `yaml:"index,omitempty"`
	Options map[string]any `yaml:"options,omitempty"`
}

// rawEnumValue keeps declaration order, unlike a bare map, so dump can
// reproduce the same text a second parse would accept identically.
type rawEnumValue struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

type rawEnum struct {
	Name   string         `yaml:"name"`
	Type   string         `yaml:"type"`
	Values []rawEnumValue `yaml:"values"`
}

type rawArm struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Tag  int64  `yaml:"tag"`
}

type rawUnion struct {
	Name string   `yaml:"name"`
	Type string   `yaml:"type"` // tag scalar type, e.g. uint8
	Arms []rawArm `yaml:"union"`
}

type rawBitField struct {
	Name string `yaml:"name"`
	Pos  int    `yaml:"pos"`
	Size int    `yaml:"size"`
}

type rawBits struct {
	Name string        `yaml:"name"`
	Type string        `yaml:"type"`
	Bits []rawBitField `yaml:"bits"`
}
