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

import "github.com/pkg/errors"

var ErrNilServerSet = errors.New("server set cannot be nil")

// EmptyRingError is returned by lookups on a ring without continuum points.
// A ring built from a valid ServerSet never has zero points, so this signals
// misuse by the caller rather than a runtime condition.
type EmptyRingError struct{}

func (*EmptyRingError) Error() string {
	return "ring has no continuum points"
}

var ErrEmptyRing error = &EmptyRingError{}
