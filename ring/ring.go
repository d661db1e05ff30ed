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

// Package ring assigns cache keys to servers with a weighted consistent
// hashing continuum.
//
// A Ring is built once from a serverset.ServerSet and is immutable afterwards:
// lookups take no locks and may be issued from any number of goroutines. A
// new server list means building a new Ring.
package ring

import (
	"log/slog"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/streamnative/cachering/hashing"
	"github.com/streamnative/cachering/serverset"
)

// Point is a single position of a server on the continuum.
type Point struct {
	Hash   uint32
	Server *serverset.Server
}

type Ring struct {
	set             *serverset.ServerSet
	points          []Point
	strategy        hashing.Strategy
	pointsPerServer int
	metrics         *ringMetrics
}

// New builds the continuum for the given servers. The same servers, in the
// same order, with the same options always produce the same continuum.
func New(set *serverset.ServerSet, opts ...Option) (*Ring, error) {
	if set == nil {
		return nil, ErrNilServerSet
	}

	o, err := newOptions(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "invalid ring options")
	}

	r := &Ring{
		set:             set,
		strategy:        o.strategy,
		pointsPerServer: o.pointsPerServer,
		metrics:         newRingMetrics(o.meterProvider, o.strategy.Name()),
	}

	start := time.Now()
	r.points = buildContinuum(set, o.strategy, o.pointsPerServer)
	r.metrics.recordBuild(start, len(r.points))

	o.logger.Debug(
		"Built continuum",
		slog.String("strategy", o.strategy.Name()),
		slog.Int("servers", set.Len()),
		slog.Int("points", len(r.points)),
	)
	return r, nil
}

func buildContinuum(set *serverset.ServerSet, strategy hashing.Strategy, pointsPerServer int) []Point {
	servers := set.Servers()
	totalWeight := set.TotalWeight()

	counts := make([]int, len(servers))
	total := 0
	for i, server := range servers {
		counts[i] = strategy.PointCount(server.Weight(), totalWeight, len(servers), pointsPerServer)
		total += counts[i]
	}

	points := make([]Point, 0, total)
	for i, server := range servers {
		for _, hash := range strategy.PointHashes(server.Label(), counts[i]) {
			points = append(points, Point{Hash: hash, Server: server})
		}
	}

	// Stable, so that on equal hashes the first generated point wins
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Hash < points[j].Hash
	})
	return points
}

// ServerFor returns the server owning the key. It only fails on a ring
// without points.
func (r *Ring) ServerFor(key string) (*serverset.Server, error) {
	if len(r.points) == 0 {
		r.metrics.recordLookup(ErrEmptyRing)
		return nil, ErrEmptyRing
	}

	idx := r.search(r.strategy.KeyHash(key))
	r.metrics.recordLookup(nil)
	return r.points[idx].Server, nil
}

// search resolves a key hash to a continuum index, wrapping around the ends.
func (r *Ring) search(keyHash uint32) int {
	n := len(r.points)

	if r.strategy.Direction() == hashing.Predecessor {
		idx := sort.Search(n, func(i int) bool {
			return r.points[i].Hash > keyHash
		}) - 1
		if idx < 0 {
			idx = n - 1
		}
		return idx
	}

	idx := sort.Search(n, func(i int) bool {
		return r.points[i].Hash >= keyHash
	})
	if idx == n {
		idx = 0
	}
	return idx
}

// Assignment is the owner of a single key.
type Assignment struct {
	Key    string
	Server *serverset.Server
}

// ServersFor resolves every key, preserving the order of keys.
func (r *Ring) ServersFor(keys []string) ([]Assignment, error) {
	assignments := make([]Assignment, len(keys))
	for i, key := range keys {
		server, err := r.ServerFor(key)
		if err != nil {
			return nil, err
		}
		assignments[i] = Assignment{Key: key, Server: server}
	}
	return assignments, nil
}

// Len returns the number of points on the continuum.
func (r *Ring) Len() int {
	return len(r.points)
}

// Points returns a copy of the continuum, sorted by hash.
func (r *Ring) Points() []Point {
	res := make([]Point, len(r.points))
	copy(res, r.points)
	return res
}

func (r *Ring) ServerSet() *serverset.ServerSet {
	return r.set
}

func (r *Ring) Strategy() hashing.Strategy {
	return r.strategy
}

func (r *Ring) PointsPerServer() int {
	return r.pointsPerServer
}
