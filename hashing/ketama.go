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
	"crypto/md5"
	"encoding/binary"
	"strconv"
)

// pointsPerDigest is the number of 32-bit points sliced out of one MD5 digest.
const pointsPerDigest = md5.Size / 4

type ketama struct{}

// NewKetama returns the libketama-style strategy: each MD5 digest of the label
// "<server>-<n>" yields four little-endian points, and keys are hashed with
// the first four bytes of their MD5 digest.
func NewKetama() Strategy {
	return ketama{}
}

func (ketama) Name() string {
	return KetamaName
}

func (ketama) Direction() Direction {
	return Successor
}

func (ketama) KeyHash(key string) uint32 {
	digest := md5.Sum([]byte(key))
	return binary.LittleEndian.Uint32(digest[0:4])
}

func (ketama) PointCount(weight, totalWeight, servers, pointsPerServer int) int {
	return linearPointCount(weight, totalWeight, servers, pointsPerServer)
}

func (ketama) PointHashes(server string, count int) []uint32 {
	points := make([]uint32, 0, count)
	label := make([]byte, 0, len(server)+12)

	for d := 0; len(points) < count; d++ {
		label = append(label[:0], server...)
		label = append(label, '-')
		label = strconv.AppendInt(label, int64(d), 10)
		digest := md5.Sum(label)

		for slot := 0; slot < pointsPerDigest && len(points) < count; slot++ {
			points = append(points, binary.LittleEndian.Uint32(digest[slot*4:slot*4+4]))
		}
	}
	return points
}
