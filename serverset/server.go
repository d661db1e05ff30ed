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

package serverset

import (
	"net"
	"strconv"
	"strings"
)

// Server is an immutable cache server entry.
type Server struct {
	host       string
	configured string
	port       int
	weight     int
	name       string
	label      string
}

func newServer(spec Spec) *Server {
	host := strings.ToLower(spec.Host)
	port := strconv.Itoa(spec.Port)
	return &Server{
		host:       host,
		configured: spec.Host,
		port:       spec.Port,
		weight:     spec.ResolvedWeight(),
		name:       net.JoinHostPort(host, port),
		label:      net.JoinHostPort(spec.Host, port),
	}
}

func (s *Server) Host() string {
	return s.host
}

func (s *Server) Port() int {
	return s.port
}

func (s *Server) Weight() int {
	return s.weight
}

// Name is the normalized "host:port" identity of the server. Two servers with
// the same name cannot be part of one ServerSet.
func (s *Server) Name() string {
	return s.name
}

// Label is "host:port" with the host as configured. Continuum points are
// derived from it, so that clients hashing the configured name agree with us.
func (s *Server) Label() string {
	return s.label
}

func (s *Server) String() string {
	return s.name
}

func (s *Server) spec() Spec {
	return Spec{Host: s.configured, Port: s.port, Weight: s.weight, Kind: ExplicitWeight}
}
