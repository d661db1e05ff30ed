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
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ServerSet is a non-empty, ordered list of servers with unique names.
type ServerSet struct {
	servers     []*Server
	byName      map[string]*Server
	totalWeight int
}

// Build parses every entry and validates the resulting list. All the invalid
// entries are reported, each as a *ConfigError.
func Build(entries []string) (*ServerSet, error) {
	if len(entries) == 0 {
		return nil, newConfigError("", ErrNoServers)
	}

	specs := make([]Spec, 0, len(entries))
	var errs error
	for _, entry := range entries {
		spec, err := ParseSpec(entry)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		specs = append(specs, spec)
	}
	if errs != nil {
		return nil, errs
	}

	return FromSpecs(specs)
}

// FromSpecs validates already parsed specs, e.g. the structured server
// records of a configuration file.
func FromSpecs(specs []Spec) (*ServerSet, error) {
	if len(specs) == 0 {
		return nil, newConfigError("", ErrNoServers)
	}

	set := &ServerSet{
		servers: make([]*Server, 0, len(specs)),
		byName:  make(map[string]*Server, len(specs)),
	}

	var errs error
	for _, spec := range specs {
		if err := validate(spec); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		server := newServer(spec)
		if _, ok := set.byName[server.Name()]; ok {
			errs = multierr.Append(errs, newConfigError(spec.String(), errors.Wrapf(ErrDuplicateServer, "%s is already configured", server.Name())))
			continue
		}

		set.byName[server.Name()] = server
		set.servers = append(set.servers, server)
		set.totalWeight += server.Weight()
	}

	if errs != nil {
		return nil, errs
	}
	return set, nil
}

func validate(spec Spec) error {
	if spec.Host == "" {
		return newConfigError(spec.String(), errors.Wrap(ErrMalformedAddress, "empty host"))
	}
	if spec.Port < minPort || spec.Port > maxPort {
		return newConfigError(spec.String(), errors.Wrapf(ErrInvalidPort, "got %d", spec.Port))
	}
	if spec.Kind == ExplicitWeight && spec.Weight <= 0 {
		return newConfigError(spec.String(), errors.Wrapf(ErrInvalidWeight, "got %d", spec.Weight))
	}
	return nil
}

// Len returns the number of servers.
func (s *ServerSet) Len() int {
	return len(s.servers)
}

// Servers returns the servers in configuration order.
func (s *ServerSet) Servers() []*Server {
	res := make([]*Server, len(s.servers))
	copy(res, s.servers)
	return res
}

// Each calls f for every server in configuration order, stopping at the first
// error.
func (s *ServerSet) Each(f func(*Server) error) error {
	for _, server := range s.servers {
		if err := f(server); err != nil {
			return err
		}
	}
	return nil
}

func (s *ServerSet) TotalWeight() int {
	return s.totalWeight
}

// Lookup finds a server by its "host:port" name.
func (s *ServerSet) Lookup(name string) (*Server, bool) {
	server, ok := s.byName[name]
	return server, ok
}

// Without returns a copy of the set with the named server removed.
func (s *ServerSet) Without(name string) (*ServerSet, error) {
	specs := make([]Spec, 0, len(s.servers))
	for _, server := range s.servers {
		if server.Name() == name {
			continue
		}
		specs = append(specs, server.spec())
	}
	return FromSpecs(specs)
}

// Names returns the server names in configuration order.
func (s *ServerSet) Names() []string {
	names := make([]string, len(s.servers))
	for i, server := range s.servers {
		names[i] = server.Name()
	}
	return names
}
