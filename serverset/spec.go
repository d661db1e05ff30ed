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

	"github.com/pkg/errors"
)

const (
	DefaultWeight = 1

	minPort = 1
	maxPort = 65535
)

// WeightKind tells whether a Spec carried its own weight.
type WeightKind int

const (
	ImplicitWeight WeightKind = iota
	ExplicitWeight
)

// Spec is a parsed "host:port[:weight]" entry. Weight is only meaningful when
// Kind is ExplicitWeight.
type Spec struct {
	Host   string     `json:"host" yaml:"host" mapstructure:"host"`
	Port   int        `json:"port" yaml:"port" mapstructure:"port"`
	Weight int        `json:"weight,omitempty" yaml:"weight,omitempty" mapstructure:"weight"`
	Kind   WeightKind `json:"-" yaml:"-" mapstructure:"-"`
}

// ResolvedWeight is the weight the server will be built with.
func (s Spec) ResolvedWeight() int {
	if s.Kind == ExplicitWeight {
		return s.Weight
	}
	return DefaultWeight
}

func (s Spec) String() string {
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	if s.Kind == ExplicitWeight {
		return addr + ":" + strconv.Itoa(s.Weight)
	}
	return addr
}

// ParseSpec parses "host:port" or "host:port:weight". IPv6 hosts must be
// written in brackets, as in "[::1]:11211:2".
func ParseSpec(entry string) (Spec, error) {
	s := strings.TrimSpace(entry)

	host, rest, err := splitHost(s)
	if err != nil {
		return Spec{}, newConfigError(entry, err)
	}

	parts := strings.Split(rest, ":")
	if len(parts) > 2 {
		return Spec{}, newConfigError(entry, ErrMalformedAddress)
	}

	port, err := parsePort(parts[0])
	if err != nil {
		return Spec{}, newConfigError(entry, err)
	}

	spec := Spec{Host: host, Port: port, Kind: ImplicitWeight}
	if len(parts) == 2 {
		weight, err := strconv.Atoi(parts[1])
		if err != nil || weight <= 0 {
			return Spec{}, newConfigError(entry, errors.Wrapf(ErrInvalidWeight, "got %q", parts[1]))
		}
		spec.Weight = weight
		spec.Kind = ExplicitWeight
	}
	return spec, nil
}

// splitHost separates the host from the ":port[:weight]" remainder, which is
// returned without its leading colon.
func splitHost(s string) (host string, rest string, err error) {
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 || end+1 >= len(s) || s[end+1] != ':' {
			return "", "", ErrMalformedAddress
		}
		host, rest = s[1:end], s[end+2:]
		if net.ParseIP(host) == nil {
			return "", "", errors.Wrapf(ErrMalformedAddress, "invalid IPv6 address %q", host)
		}
		return host, rest, nil
	}

	idx := strings.IndexByte(s, ':')
	if idx <= 0 {
		return "", "", ErrMalformedAddress
	}
	host, rest = s[:idx], s[idx+1:]
	if strings.ContainsAny(host, " /[]") {
		return "", "", errors.Wrapf(ErrMalformedAddress, "invalid host %q", host)
	}
	return host, rest, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidPort, "got %q", s)
	}
	if port < minPort || port > maxPort {
		return 0, errors.Wrapf(ErrInvalidPort, "got %d", port)
	}
	return port, nil
}
