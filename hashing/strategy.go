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
	"strings"

	"github.com/pkg/errors"
)

// Direction selects how a key hash is resolved against the sorted continuum.
type Direction int

const (
	// Successor resolves to the first point whose hash is >= the key hash,
	// wrapping to the first point of the continuum.
	Successor Direction = iota
	// Predecessor resolves to the last point whose hash is <= the key hash,
	// wrapping to the last point of the continuum.
	Predecessor
)

func (d Direction) String() string {
	switch d {
	case Successor:
		return "successor"
	case Predecessor:
		return "predecessor"
	}
	return "unknown"
}

var ErrUnknownStrategy = errors.New("unknown hash strategy")

// Strategy encapsulates everything the continuum needs to know about hashing:
// how keys are hashed, how many points a server gets and how those points are
// derived from the server label ("host:port" as configured).
type Strategy interface {
	Name() string

	// KeyHash hashes a cache key onto the 32-bit ring.
	KeyHash(key string) uint32

	// PointCount returns the number of continuum points for a server with the
	// given weight.
	PointCount(weight, totalWeight, servers, pointsPerServer int) int

	// PointHashes returns count point hashes for the server label, in
	// generation order.
	PointHashes(label string, count int) []uint32

	Direction() Direction
}

const (
	KetamaName = "ketama"
	DalliName  = "dalli"
	Xxh3Name   = "xxh3"
)

// Names lists the registered strategies.
func Names() []string {
	return []string{KetamaName, DalliName, Xxh3Name}
}

// ByName returns the strategy registered under the given name.
func ByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case KetamaName, "":
		return NewKetama(), nil
	case DalliName:
		return NewDalli(), nil
	case Xxh3Name:
		return NewXxh3(), nil
	}
	return nil, errors.Wrapf(ErrUnknownStrategy, "%q (expected one of %s)", name, strings.Join(Names(), ", "))
}

// linearPointCount scales the number of points exactly with the weight.
func linearPointCount(weight, _, _, pointsPerServer int) int {
	return pointsPerServer * weight
}
