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
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tll-go/tll/tllerr"
)

// Parse resolves a scheme from textual source. The source is either
// plain YAML, or a "yamls+gz://" URL whose body is base64 of gzipped
// YAML (spec §6 "Scheme text source").
//
// Two top-level shapes are accepted: a bare sequence of message
// definitions (spec S2: "- {name: m, id: 1, fields: [...]}"), or a map
// carrying "messages" alongside optional "enums"/"unions"/"bits"/
// "options" sections.
func Parse(source string) (*Scheme, error) {
	text, err := decodeSource(source)
	if err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, tllerr.New(tllerr.InvalidArgument, "scheme: "+err.Error())
	}
	if len(root.Content) == 0 {
		return &Scheme{}, nil
	}
	doc := root.Content[0]

	var raw rawScheme
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&raw.Messages); err != nil {
			return nil, tllerr.New(tllerr.InvalidArgument, "scheme: "+err.Error())
		}
	case yaml.MappingNode:
		if err := doc.Decode(&raw); err != nil {
			return nil, tllerr.New(tllerr.InvalidArgument, "scheme: "+err.Error())
		}
	default:
		return nil, tllerr.New(tllerr.InvalidArgument, "scheme: top-level source must be a sequence or mapping")
	}

	return resolve(&raw)
}

const gzipSourcePrefix = "yamls+gz://"

func decodeSource(source string) (string, error) {
	if !strings.HasPrefix(source, gzipSourcePrefix) {
		return source, nil
	}
	body := source[len(gzipSourcePrefix):]
	compressed, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", tllerr.New(tllerr.InvalidArgument, "scheme: invalid base64 in yamls+gz source: "+err.Error())
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return "", tllerr.New(tllerr.InvalidArgument, "scheme: invalid gzip in yamls+gz source: "+err.Error())
	}
	defer zr.Close()
	text, err := io.ReadAll(zr)
	if err != nil {
		return "", tllerr.New(tllerr.InvalidArgument, "scheme: corrupt gzip in yamls+gz source: "+err.Error())
	}
	return string(text), nil
}
