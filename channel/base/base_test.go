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

package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tll-go/tll/channel"
	"github.com/tll-go/tll/config"
)

type plainImpl struct{ Base }

func TestBaseOpenCloseDefaults(t *testing.T) {
	c := channel.New("test", &plainImpl{}, channel.CapInput, config.New(), nil)

	require.NoError(t, c.Open(nil))
	assert.Equal(t, channel.Active, c.State())

	require.NoError(t, c.Close(true))
	assert.Equal(t, channel.Closed, c.State())
}

func TestBaseImplProcessAndPostAreNoops(t *testing.T) {
	c := channel.New("test", &plainImpl{}, channel.CapInput, config.New(), nil)
	impl := &plainImpl{}

	assert.NoError(t, impl.Process(c, 0, 0))
	assert.NoError(t, impl.Post(c, &channel.Message{}))
}
