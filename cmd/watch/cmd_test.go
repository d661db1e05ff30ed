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

package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"gopkg.in/yaml.v3"

	"github.com/streamnative/cachering/cmd/config"
	"github.com/streamnative/cachering/cmd/flag"
	"github.com/streamnative/cachering/ring"
	"github.com/streamnative/cachering/serverset"
)

func writeConfig(t *testing.T, path string, servers ...string) {
	t.Helper()
	b, err := yaml.Marshal(map[string]any{
		"servers":  servers,
		"strategy": "ketama",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
}

func newViper(t *testing.T, path string) *viper.Viper {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	flag.Ring(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"-f", path}))

	v, err := config.NewViper(cmd)
	require.NoError(t, err)
	return v
}

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string, result string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				value, found := dp.Attributes.Value(attribute.Key("result"))
				if result == "" || (found && value.AsString() == result) {
					return dp.Value
				}
			}
		}
	}
	return 0
}

func TestWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cachering.yaml")
	writeConfig(t, path, "cache1.lvh.me:11210", "cache2.lvh.me:11211", "cache3.lvh.me:11212")

	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))

	w, err := NewWatcher(newViper(t, path), provider, 2_000)
	require.NoError(t, err)

	before := w.Ring()
	assert.Equal(t, 3, before.ServerSet().Len())

	owned := 0
	for _, key := range w.samples {
		s, err := before.ServerFor(key)
		require.NoError(t, err)
		if s.Name() == "cache3.lvh.me:11212" {
			owned++
		}
	}
	require.Positive(t, owned)

	// Dropping a server only moves the keys it owned
	writeConfig(t, path, "cache1.lvh.me:11210", "cache2.lvh.me:11211")
	moved, err := w.Reload()
	require.NoError(t, err)
	assert.Equal(t, owned, moved)
	assert.Equal(t, 2, w.Ring().ServerSet().Len())
	assert.NotSame(t, before, w.Ring())

	// Invalid configuration keeps the current ring
	current := w.Ring()
	writeConfig(t, path, "cache1.lvh.me:11210:0")
	_, err = w.Reload()
	assert.ErrorIs(t, err, serverset.ErrInvalidWeight)
	assert.Same(t, current, w.Ring())

	writeConfig(t, path, "cache1.lvh.me:11210", "cache2.lvh.me:11211")
	moved, err = w.Reload()
	require.NoError(t, err)
	assert.Zero(t, moved)

	rm := metricdata.ResourceMetrics{}
	require.NoError(t, reader.Collect(context.Background(), &rm))
	assert.Equal(t, int64(1), counterValue(t, rm, "cachering_watch_reload", "success"))
	assert.Equal(t, int64(1), counterValue(t, rm, "cachering_watch_reload", "failure"))
	assert.Equal(t, int64(1), counterValue(t, rm, "cachering_watch_reload", "unchanged"))
	assert.Equal(t, int64(owned), counterValue(t, rm, "cachering_watch_moved_keys", ""))

	// No more swaps once closed
	require.NoError(t, w.Close())
	writeConfig(t, path, "cache9.lvh.me:11219")
	moved, err = w.Reload()
	assert.NoError(t, err)
	assert.Zero(t, moved)
	assert.Equal(t, 2, w.Ring().ServerSet().Len())
}

func TestNewWatcher_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cachering.yaml")
	writeConfig(t, path, "bad-host-no-port")

	_, err := NewWatcher(newViper(t, path), metric.NewMeterProvider(), 10)
	assert.ErrorIs(t, err, serverset.ErrMalformedAddress)
}

func TestNewWatcher_InvalidSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cachering.yaml")
	writeConfig(t, path, "cache1.lvh.me:11210")

	for _, samples := range []int{0, -1} {
		t.Run(strconv.Itoa(samples), func(t *testing.T) {
			var err error
			assert.NotPanics(t, func() {
				_, err = NewWatcher(newViper(t, path), metric.NewMeterProvider(), samples)
			})
			assert.ErrorIs(t, err, ErrInvalidSamples)
		})
	}
}

func TestMoved(t *testing.T) {
	build := func(servers ...string) *ring.Ring {
		set, err := serverset.Build(servers)
		require.NoError(t, err)
		r, err := ring.New(set)
		require.NoError(t, err)
		return r
	}

	keys := []string{"api:foo", "api:foo:bar", "api:bar", "api:bar:foo", "foo:info", "foo:info/bar", "foo:info/baz"}
	a := build("cache1.lvh.me:11210", "cache2.lvh.me:11211")

	moved, err := Moved(a, a, keys)
	require.NoError(t, err)
	assert.Zero(t, moved)

	moved, err = Moved(a, build("cache9.lvh.me:11219"), keys)
	require.NoError(t, err)
	assert.Equal(t, len(keys), moved)

	_, err = Moved(a, &ring.Ring{}, keys)
	assert.ErrorIs(t, err, ring.ErrEmptyRing)
}

func TestWatchCmd_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cachering.yaml")
	writeConfig(t, path, "cache1.lvh.me:11210")

	for _, test := range []struct {
		name string
		args []string
		err  error
	}{
		{"no config file", []string{"-s", "localhost:11211"}, config.ErrNoConfigFile},
		{"negative samples", []string{"-f", path, "--samples", "-1"}, ErrInvalidSamples},
		{"zero samples", []string{"-f", path, "-n", "0"}, ErrInvalidSamples},
	} {
		t.Run(test.name, func(t *testing.T) {
			cmd := NewCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(test.args)
			assert.ErrorIs(t, cmd.Execute(), test.err)
		})
	}
}
