// Copyright 2023 StreamNative, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package distribution

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamnative/cachering/ring"
	"github.com/streamnative/cachering/serverset"
)

func TestSample(t *testing.T) {
	set, err := serverset.Build([]string{"cache1.lvh.me:11210", "cache2.lvh.me:11211:2"})
	require.NoError(t, err)
	r, err := ring.New(set, ring.WithPointsPerServer(160))
	require.NoError(t, err)

	stats, err := Sample(r, "key-", 20_000)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, "cache1.lvh.me:11210", stats[0].Server)
	assert.Equal(t, 160, stats[0].Points)
	assert.Equal(t, 320, stats[1].Points)
	assert.Equal(t, 20_000, stats[0].Keys+stats[1].Keys)
	assert.InDelta(t, 1.0, stats[0].Share+stats[1].Share, 1e-9)
	assert.InDelta(t, 1.0, stats[0].ArcShare+stats[1].ArcShare, 1e-9)
	assert.Greater(t, stats[1].Keys, stats[0].Keys)

	_, err = Sample(r, "key-", 0)
	assert.ErrorIs(t, err, ErrInvalidSamples)
}

func TestDistributionCmd(t *testing.T) {
	cmd := NewCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"-s", "localhost:11211", "--samples", "12345"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "12,345 keys over 1 servers, 40 points (ketama)")
	assert.Contains(t, out.String(), "SERVER")
	assert.Regexp(t, `localhost:11211\s+1\s+40\s+12,345\s+100.00%\s+100.00%`, out.String())
}

func TestDistributionCmd_Errors(t *testing.T) {
	cmd := NewCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-s", "localhost:11211", "--samples", "0"})
	assert.ErrorIs(t, cmd.Execute(), ErrInvalidSamples)

	cmd = NewCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--samples", "10"})
	assert.ErrorIs(t, cmd.Execute(), serverset.ErrNoServers)
}
