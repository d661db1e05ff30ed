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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/streamnative/cachering/cmd/flag"
	"github.com/streamnative/cachering/hashing"
	"github.com/streamnative/cachering/ring"
	"github.com/streamnative/cachering/serverset"
)

func newTestCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	flag.Ring(cmd)
	flag.MetricsAddr(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func writeConfig(t *testing.T, content map[string]any) string {
	t.Helper()
	b, err := yaml.Marshal(content)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cachering.yaml")
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestFromCommand_Defaults(t *testing.T) {
	conf, err := FromCommand(newTestCmd(t))
	require.NoError(t, err)

	assert.Empty(t, conf.Servers)
	assert.Equal(t, hashing.KetamaName, conf.Strategy.Name())
	assert.Equal(t, ring.DefaultPointsPerServer, conf.PointsPerServer)
	assert.Equal(t, flag.DefaultMetricsAddr, conf.MetricsAddr)

	_, err = conf.ServerSet()
	assert.ErrorIs(t, err, serverset.ErrNoServers)
}

func TestFromCommand_Flags(t *testing.T) {
	conf, err := FromCommand(newTestCmd(t,
		"-s", "cache1.lvh.me:11210:20",
		"--server", "cache2.lvh.me:11211",
		"--strategy", "dalli",
		"--points-per-server", "80",
		"--metrics-addr", "localhost:0",
	))
	require.NoError(t, err)

	assert.Equal(t, []serverset.Spec{
		{Host: "cache1.lvh.me", Port: 11210, Weight: 20, Kind: serverset.ExplicitWeight},
		{Host: "cache2.lvh.me", Port: 11211, Kind: serverset.ImplicitWeight},
	}, conf.Servers)
	assert.Equal(t, hashing.DalliName, conf.Strategy.Name())
	assert.Equal(t, 80, conf.PointsPerServer)
	assert.Equal(t, "localhost:0", conf.MetricsAddr)
	assert.Equal(t, []string{"cache1.lvh.me:11210:20", "cache2.lvh.me:11211"}, conf.Entries())
}

func TestFromCommand_ConfigFile(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"servers": []any{
			"cache1.lvh.me:11210:20",
			map[string]any{"host": "cache2.lvh.me", "port": 11211, "weight": 25},
			map[string]any{"host": "cache3.lvh.me", "port": 11212},
		},
		"strategy":        "xxh3",
		"pointsPerServer": 10,
		"metricsAddr":     "127.0.0.1:9090",
	})

	conf, err := FromCommand(newTestCmd(t, "--conf", path))
	require.NoError(t, err)

	assert.Equal(t, []serverset.Spec{
		{Host: "cache1.lvh.me", Port: 11210, Weight: 20, Kind: serverset.ExplicitWeight},
		{Host: "cache2.lvh.me", Port: 11211, Weight: 25, Kind: serverset.ExplicitWeight},
		{Host: "cache3.lvh.me", Port: 11212, Kind: serverset.ImplicitWeight},
	}, conf.Servers)
	assert.Equal(t, hashing.Xxh3Name, conf.Strategy.Name())
	assert.Equal(t, 10, conf.PointsPerServer)
	assert.Equal(t, "127.0.0.1:9090", conf.MetricsAddr)

	r, err := conf.Ring()
	require.NoError(t, err)
	assert.Equal(t, 10*(20+25+1), r.Len())
	assert.Equal(t, hashing.Xxh3Name, r.Strategy().Name())
}

func TestFromCommand_FlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, map[string]any{
		"servers":  []any{"cache1.lvh.me:11210"},
		"strategy": "xxh3",
	})

	conf, err := FromCommand(newTestCmd(t, "-f", path, "--strategy", "dalli", "-s", "cache9.lvh.me:11219"))
	require.NoError(t, err)

	assert.Equal(t, hashing.DalliName, conf.Strategy.Name())
	assert.Equal(t, []string{"cache9.lvh.me:11219"}, conf.Entries())
}

func TestFromCommand_Env(t *testing.T) {
	t.Setenv("CACHERING_STRATEGY", "xxh3")

	conf, err := FromCommand(newTestCmd(t))
	require.NoError(t, err)
	assert.Equal(t, hashing.Xxh3Name, conf.Strategy.Name())

	conf, err = FromCommand(newTestCmd(t, "--strategy", "ketama"))
	require.NoError(t, err)
	assert.Equal(t, hashing.KetamaName, conf.Strategy.Name())
}

func TestFromCommand_Errors(t *testing.T) {
	_, err := FromCommand(newTestCmd(t, "--strategy", "rendezvous"))
	assert.ErrorIs(t, err, hashing.ErrUnknownStrategy)

	_, err = FromCommand(newTestCmd(t, "-s", "bad-host-no-port"))
	var configErr *serverset.ConfigError
	require.True(t, errors.As(err, &configErr))
	assert.ErrorIs(t, err, serverset.ErrMalformedAddress)

	_, err = FromCommand(newTestCmd(t, "-f", filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)

	path := writeConfig(t, map[string]any{
		"servers": []any{map[string]any{"host": "cache1.lvh.me", "port": 11210, "weight": 0}},
	})
	conf, err := FromCommand(newTestCmd(t, "-f", path))
	require.NoError(t, err)
	_, err = conf.Ring()
	assert.ErrorIs(t, err, serverset.ErrInvalidWeight)
}

func TestConfigFile(t *testing.T) {
	v, err := NewViper(newTestCmd(t))
	require.NoError(t, err)
	_, err = ConfigFile(v)
	assert.ErrorIs(t, err, ErrNoConfigFile)

	path := writeConfig(t, map[string]any{"servers": []any{"cache1.lvh.me:11210"}})
	v, err = NewViper(newTestCmd(t, "-f", path))
	require.NoError(t, err)
	file, err := ConfigFile(v)
	require.NoError(t, err)
	assert.Equal(t, path, file)
}
