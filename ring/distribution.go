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

package ring

import (
	"math"

	"github.com/streamnative/cachering/hashing"
)

const hashSpace = uint64(math.MaxUint32) + 1

// Distribution returns, per server name, the fraction of the 32-bit hash
// space whose keys resolve to that server. The fractions add up to 1.
func (r *Ring) Distribution() map[string]float64 {
	n := len(r.points)
	if n == 0 {
		return map[string]float64{}
	}
	owned := make(map[string]uint64, r.set.Len())

	first, last := uint64(r.points[0].Hash), uint64(r.points[n-1].Hash)
	wrapped := hashSpace - last + first

	for i, p := range r.points {
		var arc uint64
		if r.strategy.Direction() == hashing.Predecessor {
			// point i owns [p, next)
			if i == n-1 {
				arc = wrapped
			} else {
				arc = uint64(r.points[i+1].Hash) - uint64(p.Hash)
			}
		} else {
			// point i owns (previous, p]
			if i == 0 {
				arc = wrapped
			} else {
				arc = uint64(p.Hash) - uint64(r.points[i-1].Hash)
			}
		}
		owned[p.Server.Name()] += arc
	}

	res := make(map[string]float64, len(owned))
	for name, arc := range owned {
		res[name] = float64(arc) / float64(hashSpace)
	}
	return res
}
