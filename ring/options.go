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

package ring

import (
	"log/slog"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/multierr"

	"github.com/streamnative/cachering/hashing"
)

// DefaultPointsPerServer is the number of continuum points a server of weight
// one receives. Cooperating clients must agree on it.
const DefaultPointsPerServer = 40

var (
	ErrInvalidOptionStrategy        = errors.New("Strategy cannot be nil")
	ErrInvalidOptionPointsPerServer = errors.New("PointsPerServer must be greater than zero")
	ErrInvalidOptionMeterProvider   = errors.New("MeterProvider cannot be nil")
	ErrInvalidOptionLogger          = errors.New("Logger cannot be nil")
)

type options struct {
	strategy        hashing.Strategy
	pointsPerServer int
	meterProvider   metric.MeterProvider
	logger          *slog.Logger
}

// Option configures how a Ring is built.
type Option interface {
	apply(options) (options, error)
}

type optionFunc func(options) (options, error)

func (f optionFunc) apply(o options) (options, error) {
	return f(o)
}

func newOptions(opts ...Option) (options, error) {
	o := options{
		strategy:        hashing.NewKetama(),
		pointsPerServer: DefaultPointsPerServer,
		meterProvider:   noop.NewMeterProvider(),
	}

	var errs error
	var err error
	for _, opt := range opts {
		o, err = opt.apply(o)
		if err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With(slog.String("component", "ring"))
	return o, errs
}

// WithStrategy selects the hash strategy. The default is ketama.
func WithStrategy(strategy hashing.Strategy) Option {
	return optionFunc(func(o options) (options, error) {
		if strategy == nil {
			return o, ErrInvalidOptionStrategy
		}
		o.strategy = strategy
		return o, nil
	})
}

// WithPointsPerServer sets how many points each unit of weight contributes to
// the continuum. Strategies with a fixed point budget ignore it.
func WithPointsPerServer(pointsPerServer int) Option {
	return optionFunc(func(o options) (options, error) {
		if pointsPerServer <= 0 {
			return o, ErrInvalidOptionPointsPerServer
		}
		o.pointsPerServer = pointsPerServer
		return o, nil
	})
}

func WithMeterProvider(meterProvider metric.MeterProvider) Option {
	return optionFunc(func(o options) (options, error) {
		if meterProvider == nil {
			return o, ErrInvalidOptionMeterProvider
		}
		o.meterProvider = meterProvider
		return o, nil
	})
}

func WithLogger(logger *slog.Logger) Option {
	return optionFunc(func(o options) (options, error) {
		if logger == nil {
			return o, ErrInvalidOptionLogger
		}
		o.logger = logger
		return o, nil
	})
}
