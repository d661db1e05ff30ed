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
	"strconv"

	"github.com/zeebo/xxh3"
)

type xxh3Strategy struct{}

// NewXxh3 returns a strategy hashing keys and "<server>-<i>" labels with the
// low 32 bits of XXH3.
func NewXxh3() Strategy {
	return xxh3Strategy{}
}

func Xxh332(key string) uint32 {
	return uint32(xxh3.HashString(key))
}

func (xxh3Strategy) Name() string {
	return Xxh3Name
}

func (xxh3Strategy) Direction() Direction {
	return Successor
}

func (xxh3Strategy) KeyHash(key string) uint32 {
	return Xxh332(key)
}

func (xxh3Strategy) PointCount(weight, totalWeight, servers, pointsPerServer int) int {
	return linearPointCount(weight, totalWeight, servers, pointsPerServer)
}

func (xxh3Strategy) PointHashes(server string, count int) []uint32 {
	points := make([]uint32, count)
	label := make([]byte, 0, len(server)+12)

	for i := 0; i < count; i++ {
		label = append(label[:0], server...)
		label = append(label, '-')
		label = strconv.AppendInt(label, int64(i), 10)
		points[i] = uint32(xxh3.Hash(label))
	}
	return points
}
