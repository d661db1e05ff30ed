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
	"crypto/sha1" //nolint:gosec
	"encoding/binary"
	"hash/crc32"
	"strconv"
)

// DalliPointsPerServer is fixed by the Dalli client and does not follow the
// ring's configured points per server.
const DalliPointsPerServer = 160

type dalli struct{}

// NewDalli returns a strategy that reproduces the continuum of the Ruby Dalli
// client bit for bit, so that keys land on the same servers as in an
// application sharing the cache with it.
func NewDalli() Strategy {
	return dalli{}
}

func (dalli) Name() string {
	return DalliName
}

func (dalli) Direction() Direction {
	return Predecessor
}

func (dalli) KeyHash(key string) uint32 {
	return crc32.ChecksumIEEE([]byte(key))
}

// PointCount spreads servers*160 points in proportion to the weights, rounding
// each share down.
func (dalli) PointCount(weight, totalWeight, servers, _ int) int {
	if totalWeight <= 0 {
		return 0
	}
	return servers * DalliPointsPerServer * weight / totalWeight
}

// PointHashes takes the first 8 hex digits of SHA1("<server>:<i>"), which is
// the big-endian value of the first four digest bytes.
func (dalli) PointHashes(server string, count int) []uint32 {
	points := make([]uint32, count)
	label := make([]byte, 0, len(server)+12)

	for i := 0; i < count; i++ {
		label = append(label[:0], server...)
		label = append(label, ':')
		label = strconv.AppendInt(label, int64(i), 10)
		digest := sha1.Sum(label) //nolint:gosec
		points[i] = binary.BigEndian.Uint32(digest[0:4])
	}
	return points
}
