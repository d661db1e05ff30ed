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

package fixture

import (
	"fmt"

	"github.com/streamnative/cachering/ring"
)

// Mismatch is a key whose owner on the ring differs from the recorded one.
type Mismatch struct {
	Key            string
	Expected       string
	Actual         string
	ExpectedWeight int
	ActualWeight   int
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %s (weight %d), got %s (weight %d)",
		m.Key, m.Expected, m.ExpectedWeight, m.Actual, m.ActualWeight)
}

// Verify looks up every recorded key on the ring. A recorded weight of zero is
// not compared.
func Verify(f *Fixture, r *ring.Ring) ([]Mismatch, error) {
	var mismatches []Mismatch
	for _, result := range f.Results {
		server, err := r.ServerFor(result.Key)
		if err != nil {
			return nil, err
		}

		weightDiffers := result.Weight != 0 && result.Weight != server.Weight()
		if server.Name() != result.Server || weightDiffers {
			mismatches = append(mismatches, Mismatch{
				Key:            result.Key,
				Expected:       result.Server,
				Actual:         server.Name(),
				ExpectedWeight: result.Weight,
				ActualWeight:   server.Weight(),
			})
		}
	}
	return mismatches, nil
}
