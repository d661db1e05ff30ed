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

// Package config resolves the ring configuration of the command line tools
// from flags, environment and an optional YAML file.
package config

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/streamnative/cachering/cmd/flag"
	"github.com/streamnative/cachering/hashing"
	"github.com/streamnative/cachering/ring"
	"github.com/streamnative/cachering/serverset"
)

const (
	KeyServers         = "servers"
	KeyStrategy        = "strategy"
	KeyPointsPerServer = "pointsPerServer"
	KeyMetricsAddr     = "metricsAddr"

	EnvPrefix = "CACHERING"
)

var ErrNoConfigFile = errors.New("no config file given")

// Config is the resolved ring configuration.
type Config struct {
	Servers         []serverset.Spec
	Strategy        hashing.Strategy
	PointsPerServer int
	MetricsAddr     string
}

// serverRecord is one entry of the servers list. It is either a
// "host:port[:weight]" string or a record with host, port and weight.
type serverRecord struct {
	Entry  string `mapstructure:"-"`
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Weight *int   `mapstructure:"weight"`
}

func (r serverRecord) spec() (serverset.Spec, error) {
	if r.Entry != "" {
		return serverset.ParseSpec(r.Entry)
	}

	spec := serverset.Spec{Host: r.Host, Port: r.Port, Kind: serverset.ImplicitWeight}
	if r.Weight != nil {
		spec.Weight = *r.Weight
		spec.Kind = serverset.ExplicitWeight
	}
	return spec, nil
}

type settings struct {
	Servers         []serverRecord `mapstructure:"servers"`
	Strategy        string         `mapstructure:"strategy"`
	PointsPerServer int            `mapstructure:"pointsPerServer"`
	MetricsAddr     string         `mapstructure:"metricsAddr"`
}

func stringToServerRecordHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(serverRecord{}) {
			return data, nil
		}
		return serverRecord{Entry: data.(string)}, nil //nolint:forcetypeassert
	}
}

// NewViper binds the ring flags of cmd, when present, and reads the config
// file named by the conf flag.
func NewViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyStrategy, hashing.KetamaName)
	v.SetDefault(KeyPointsPerServer, ring.DefaultPointsPerServer)
	v.SetDefault(KeyMetricsAddr, flag.DefaultMetricsAddr)

	flags := cmd.Flags()
	for key, name := range map[string]string{
		KeyServers:         flag.ServerName,
		KeyStrategy:        flag.StrategyName,
		KeyPointsPerServer: flag.PointsPerServerName,
		KeyMetricsAddr:     flag.MetricsAddrName,
	} {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errors.Wrapf(err, "failed to bind flag %s", name)
			}
		}
	}

	if f := flags.Lookup(flag.ConfigFileName); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", f.Value.String())
		}
	}
	return v, nil
}

// Load decodes the current viper settings. Server entries are parsed but not
// validated as a set, see Config.ServerSet.
func Load(v *viper.Viper) (Config, error) {
	s := settings{}
	if err := v.Unmarshal(&s, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		stringToServerRecordHook(),
		mapstructure.StringToSliceHookFunc(","), // default hook
	))); err != nil {
		return Config{}, errors.Wrap(err, "failed to load ring config")
	}

	strategy, err := hashing.ByName(s.Strategy)
	if err != nil {
		return Config{}, err
	}

	conf := Config{
		Servers:         make([]serverset.Spec, 0, len(s.Servers)),
		Strategy:        strategy,
		PointsPerServer: s.PointsPerServer,
		MetricsAddr:     s.MetricsAddr,
	}
	for _, record := range s.Servers {
		spec, err := record.spec()
		if err != nil {
			return Config{}, err
		}
		conf.Servers = append(conf.Servers, spec)
	}
	return conf, nil
}

// FromCommand is NewViper followed by Load.
func FromCommand(cmd *cobra.Command) (Config, error) {
	v, err := NewViper(cmd)
	if err != nil {
		return Config{}, err
	}
	return Load(v)
}

// ConfigFile returns the config file viper is reading, failing when there is
// none.
func ConfigFile(v *viper.Viper) (string, error) {
	if v.ConfigFileUsed() == "" {
		return "", ErrNoConfigFile
	}
	return v.ConfigFileUsed(), nil
}

func (c Config) ServerSet() (*serverset.ServerSet, error) {
	return serverset.FromSpecs(c.Servers)
}

// Entries renders the servers back in "host:port[:weight]" form.
func (c Config) Entries() []string {
	entries := make([]string, len(c.Servers))
	for i, spec := range c.Servers {
		entries[i] = spec.String()
	}
	return entries
}

// RingOptions are the options selected by the configuration.
func (c Config) RingOptions() []ring.Option {
	return []ring.Option{
		ring.WithStrategy(c.Strategy),
		ring.WithPointsPerServer(c.PointsPerServer),
	}
}

// Ring builds the configured ring. opts are applied after the configured
// options.
func (c Config) Ring(opts ...ring.Option) (*ring.Ring, error) {
	set, err := c.ServerSet()
	if err != nil {
		return nil, err
	}
	return ring.New(set, append(c.RingOptions(), opts...)...)
}
