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
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"

	"github.com/streamnative/cachering/cmd/config"
	"github.com/streamnative/cachering/cmd/flag"
	"github.com/streamnative/cachering/common/metrics"
	"github.com/streamnative/cachering/common/process"
	"github.com/streamnative/cachering/ring"
)

const DefaultSamples = 10_000

var ErrInvalidSamples = errors.New("samples must be greater than 0")

var Cmd = NewCmd()

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the ring whenever the config file changes",
		Long: `Load the ring from the config file and rebuild it every time the file
changes, reporting how many sample keys moved to a different server. Ring
metrics are served in Prometheus format.`,
		Args: cobra.NoArgs,
		RunE: exec,
	}
	flag.Ring(cmd)
	flag.MetricsAddr(cmd)
	cmd.Flags().IntP("samples", "n", DefaultSamples, "Number of sample keys used to measure movement")
	cmd.SilenceUsage = true
	return cmd
}

func exec(cmd *cobra.Command, _ []string) error {
	v, err := config.NewViper(cmd)
	if err != nil {
		return err
	}
	if _, err := config.ConfigFile(v); err != nil {
		return err
	}

	samples, err := cmd.Flags().GetInt("samples")
	if err != nil {
		return err
	}
	if samples <= 0 {
		return ErrInvalidSamples
	}

	conf, err := config.Load(v)
	if err != nil {
		return err
	}

	process.RunProcess(func() (io.Closer, error) {
		prometheus, err := metrics.Start(conf.MetricsAddr)
		if err != nil {
			return nil, err
		}

		w, err := NewWatcher(v, prometheus.MeterProvider(), samples)
		if err != nil {
			return nil, multierr.Append(err, prometheus.Close())
		}
		w.Watch()

		return &service{watcher: w, metrics: prometheus}, nil
	})
	return nil
}

type service struct {
	watcher *Watcher
	metrics *metrics.PrometheusMetrics
}

func (s *service) Close() error {
	return multierr.Combine(
		s.watcher.Close(),
		s.metrics.Close(),
	)
}

// Watcher keeps the current ring behind an atomic pointer and swaps it when
// the configuration changes. Readers call Ring and never block.
type Watcher struct {
	sync.Mutex

	v             *viper.Viper
	current       atomic.Pointer[ring.Ring]
	samples       []string
	meterProvider metric.MeterProvider
	log           *slog.Logger
	closed        bool

	reloads    metric.Int64Counter
	movedKeys  metric.Int64Counter
	success    metric.MeasurementOption
	failure    metric.MeasurementOption
	noopReload metric.MeasurementOption
}

func NewWatcher(v *viper.Viper, meterProvider metric.MeterProvider, samples int) (*Watcher, error) {
	if samples <= 0 {
		return nil, ErrInvalidSamples
	}

	meter := meterProvider.Meter("cachering_watch")
	w := &Watcher{
		v:             v,
		samples:       make([]string, samples),
		meterProvider: meterProvider,
		log: slog.With(
			slog.String("component", "ring-watcher"),
			slog.String("config", v.ConfigFileUsed()),
		),
		reloads:    metrics.NewCounter(meter, "cachering_watch_reload", "Number of ring reloads", ""),
		movedKeys:  metrics.NewCounter(meter, "cachering_watch_moved_keys", "Number of sample keys moved by reloads", metrics.Dimensionless),
		success:    metrics.Attrs(map[string]string{"result": "success"}),
		failure:    metrics.Attrs(map[string]string{"result": "failure"}),
		noopReload: metrics.Attrs(map[string]string{"result": "unchanged"}),
	}
	for i := range w.samples {
		w.samples[i] = "sample-" + strconv.Itoa(i)
	}

	r, err := w.build()
	if err != nil {
		return nil, err
	}
	w.current.Store(r)

	w.log.Info(
		"Ring loaded",
		slog.Int("servers", r.ServerSet().Len()),
		slog.Int("points", r.Len()),
		slog.String("strategy", r.Strategy().Name()),
	)
	return w, nil
}

// Ring returns the ring currently in use.
func (w *Watcher) Ring() *ring.Ring {
	return w.current.Load()
}

// Watch reloads the ring on every change of the config file.
func (w *Watcher) Watch() {
	w.v.OnConfigChange(func(e fsnotify.Event) {
		w.log.Debug("Config file changed", slog.String("op", e.Op.String()))
		if _, err := w.Reload(); err != nil {
			w.log.Warn(
				"Failed to reload the ring, keeping the current one",
				slog.Any("error", err),
			)
		}
	})
	w.v.WatchConfig()
}

// Reload builds a ring from the current configuration and swaps it in,
// returning how many sample keys changed owner. The current ring is kept when
// the new configuration is invalid.
func (w *Watcher) Reload() (int, error) {
	w.Lock()
	defer w.Unlock()

	ctx := context.Background()
	if w.closed {
		return 0, nil
	}

	next, err := w.build()
	if err != nil {
		w.reloads.Add(ctx, 1, w.failure)
		return 0, err
	}

	moved, err := Moved(w.current.Load(), next, w.samples)
	if err != nil {
		w.reloads.Add(ctx, 1, w.failure)
		return 0, err
	}

	w.current.Store(next)
	if moved == 0 {
		w.reloads.Add(ctx, 1, w.noopReload)
	} else {
		w.reloads.Add(ctx, 1, w.success)
		w.movedKeys.Add(ctx, int64(moved))
	}

	w.log.Info(
		"Ring swapped",
		slog.Int("servers", next.ServerSet().Len()),
		slog.Int("points", next.Len()),
		slog.String("strategy", next.Strategy().Name()),
		slog.Int("moved-keys", moved),
		slog.Int("sample-keys", len(w.samples)),
	)
	return moved, nil
}

func (w *Watcher) build() (*ring.Ring, error) {
	if err := w.v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read config")
	}
	conf, err := config.Load(w.v)
	if err != nil {
		return nil, err
	}
	r, err := conf.Ring(ring.WithMeterProvider(w.meterProvider))
	return r, errors.Wrap(err, "failed to build the ring")
}

func (w *Watcher) Close() error {
	w.Lock()
	defer w.Unlock()
	w.closed = true
	return nil
}

// Moved counts the keys whose owner differs between the two rings.
func Moved(before, after *ring.Ring, keys []string) (int, error) {
	moved := 0
	for _, key := range keys {
		a, err := before.ServerFor(key)
		if err != nil {
			return 0, err
		}
		b, err := after.ServerFor(key)
		if err != nil {
			return 0, err
		}
		if a.Name() != b.Name() {
			moved++
		}
	}
	return moved, nil
}
