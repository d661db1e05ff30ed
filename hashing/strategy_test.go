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

package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyHash(t *testing.T) {
	for _, test := range []struct {
		strategy Strategy
		key      string
		expected uint32
	}{
		{NewKetama(), "api:foo", 3259390633},
		{NewKetama(), "foo:info/baz", 4082232668},
		{NewKetama(), "", 3649838548},
		{NewDalli(), "api:foo", 3272156196},
		{NewDalli(), "api:bar", 965070255},
		{NewDalli(), "foo", 2356372769},
		{NewDalli(), "", 0},
		{NewXxh3(), "foo", 125730186},
		{NewXxh3(), "bar", 2687685474},
		{NewXxh3(), "baz", 862947621},
	} {
		t.Run(test.strategy.Name()+"/"+test.key, func(t *testing.T) {
			assert.Equal(t, test.expected, test.strategy.KeyHash(test.key))
		})
	}
}

func TestKetamaPointHashes(t *testing.T) {
	points := NewKetama().PointHashes("cache1.lvh.me:11210", 5)

	// four slices of the digest of "cache1.lvh.me:11210-0", then the first
	// slice of "cache1.lvh.me:11210-1"
	assert.Equal(t, []uint32{2596539352, 2050903457, 2318440894, 3974687495, 2986500051}, points)
}

func TestDalliPointHashes(t *testing.T) {
	points := NewDalli().PointHashes("cache1.lvh.me:11210", 2)
	assert.Equal(t, []uint32{272795523, 244554749}, points)
}

func TestPointHashesArePrefixStable(t *testing.T) {
	for _, s := range []Strategy{NewKetama(), NewDalli(), NewXxh3()} {
		t.Run(s.Name(), func(t *testing.T) {
			long := s.PointHashes("10.0.0.1:11211", 23)
			short := s.PointHashes("10.0.0.1:11211", 9)
			assert.Len(t, long, 23)
			assert.Equal(t, long[:9], short)
			assert.Empty(t, s.PointHashes("10.0.0.1:11211", 0))
		})
	}
}

func TestPointCount(t *testing.T) {
	ketama := NewKetama()
	assert.Equal(t, 40, ketama.PointCount(1, 3, 3, 40))
	assert.Equal(t, 800, ketama.PointCount(20, 55, 3, 40))
	assert.Equal(t, 250, NewXxh3().PointCount(25, 55, 3, 10))

	dalli := NewDalli()
	// floor(3 * 160 * w / 55)
	assert.Equal(t, 174, dalli.PointCount(20, 55, 3, 40))
	assert.Equal(t, 218, dalli.PointCount(25, 55, 3, 40))
	assert.Equal(t, 87, dalli.PointCount(10, 55, 3, 40))
	assert.Equal(t, 160, dalli.PointCount(7, 7, 1, 40))
	assert.Equal(t, 0, dalli.PointCount(1, 0, 1, 40))
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		s, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}

	s, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, KetamaName, s.Name())

	s, err = ByName(" Dalli ")
	require.NoError(t, err)
	assert.Equal(t, Predecessor, s.Direction())

	_, err = ByName("md4")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "successor", Successor.String())
	assert.Equal(t, "predecessor", Predecessor.String())
	assert.Equal(t, "unknown", Direction(7).String())
}
