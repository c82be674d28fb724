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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURLSimple(t *testing.T) {
	u, err := ParseURL("tcp://localhost:4477;name=in;mode=server")
	require.NoError(t, err)
	assert.Equal(t, []string{"tcp"}, u.Protos)
	assert.Equal(t, "localhost:4477", u.Host)
	name, ok := u.Params.Get("name")
	require.True(t, ok)
	assert.Equal(t, "in", name)
	mode, _ := u.Params.Get("mode")
	assert.Equal(t, "server", mode)
}

func TestParseURLPrefixChain(t *testing.T) {
	u, err := ParseURL("zlib+tcp://localhost:4477")
	require.NoError(t, err)
	assert.Equal(t, []string{"zlib", "tcp"}, u.Protos)
}

func TestParseURLDottedParam(t *testing.T) {
	u, err := ParseURL("mem://;tll.internal=yes")
	require.NoError(t, err)
	v, ok := u.Params.Get("tll.internal")
	require.True(t, ok)
	assert.Equal(t, "yes", v)
}

func TestParseURLErrors(t *testing.T) {
	_, err := ParseURL("no-scheme-separator")
	assert.Error(t, err)

	_, err = ParseURL("://host")
	assert.Error(t, err)

	_, err = ParseURL("tcp://host;badparam")
	assert.Error(t, err)
}

func TestURLStringRoundTrip(t *testing.T) {
	u, err := ParseURL("tcp://localhost:4477;name=in")
	require.NoError(t, err)
	again, err := ParseURL(u.String())
	require.NoError(t, err)
	assert.Equal(t, u.Protos, again.Protos)
	assert.Equal(t, u.Host, again.Host)
	name, _ := again.Params.Get("name")
	assert.Equal(t, "in", name)
}
