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

// Package fixture produces and checks the key assignment tables that are used
// to verify that different client implementations agree on key ownership.
package fixture

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/streamnative/cachering/ring"
	"github.com/streamnative/cachering/serverset"
)

type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown fixture format")

// Result is the owner of one key. Weight is absent in fixtures produced by
// clients that do not report it.
type Result struct {
	Key    string `json:"key" yaml:"key"`
	Server string `json:"server" yaml:"server"`
	Weight int    `json:"weight,omitempty" yaml:"weight,omitempty"`
}

type Fixture struct {
	Results  []Result `json:"results" yaml:"results"`
	Servers  []string `json:"servers" yaml:"servers"`
	Keys     []string `json:"keys" yaml:"keys"`
	Strategy string   `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// Generate builds a ring for the servers and records the owner of every key.
func Generate(servers []string, keys []string, opts ...ring.Option) (*Fixture, error) {
	set, err := serverset.Build(servers)
	if err != nil {
		return nil, err
	}

	r, err := ring.New(set, opts...)
	if err != nil {
		return nil, err
	}

	return FromRing(r, servers, keys)
}

// FromRing records the owner of every key on an existing ring.
func FromRing(r *ring.Ring, servers []string, keys []string) (*Fixture, error) {
	assignments, err := r.ServersFor(keys)
	if err != nil {
		return nil, err
	}

	f := &Fixture{
		Results:  make([]Result, len(assignments)),
		Servers:  append([]string{}, servers...),
		Keys:     append([]string{}, keys...),
		Strategy: r.Strategy().Name(),
	}
	for i, a := range assignments {
		f.Results[i] = Result{
			Key:    a.Key,
			Server: a.Server.Name(),
			Weight: a.Server.Weight(),
		}
	}
	return f, nil
}

// FormatOf guesses the format of a fixture file from its extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	}
	return JSON
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case JSON:
		return JSON, nil
	case YAML, "yml":
		return YAML, nil
	}
	return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
}

func Marshal(f *Fixture, format Format) ([]byte, error) {
	switch format {
	case YAML:
		buf := &bytes.Buffer{}
		encoder := yaml.NewEncoder(buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(f); err != nil {
			return nil, err
		}
		if err := encoder.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case JSON:
		b, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	}
	return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
}

func Unmarshal(b []byte, format Format) (*Fixture, error) {
	f := &Fixture{}
	var err error
	switch format {
	case YAML:
		err = yaml.Unmarshal(b, f)
	case JSON:
		err = json.Unmarshal(b, f)
	default:
		err = errors.Wrapf(ErrUnknownFormat, "%q", format)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func Load(path string) (*Fixture, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read fixture %s", path)
	}

	f, err := Unmarshal(b, FormatOf(path))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse fixture %s", path)
	}
	return f, nil
}

func Write(path string, f *Fixture) error {
	b, err := Marshal(f, FormatOf(path))
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, b, 0o644), "failed to write fixture %s", path)
}
