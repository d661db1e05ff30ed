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

package metrics

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Timer records durations as a sum of milliseconds plus a count, so that the
// average can be derived from the two series.
type Timer interface {
	Record(ctx context.Context, elapsed time.Duration, attrs metric.MeasurementOption)
}

type timerImpl struct {
	sum   metric.Float64Counter
	count metric.Int64Counter
}

func NewTimer(meter metric.Meter, name string, description string) Timer {
	return &timerImpl{
		sum:   newMillisCounter(meter, name, description),
		count: NewCounter(meter, name, description, ""),
	}
}

func (t *timerImpl) Record(ctx context.Context, elapsed time.Duration, attrs metric.MeasurementOption) {
	millis := float64(elapsed) / float64(time.Millisecond)
	t.sum.Add(ctx, millis, attrs)
	t.count.Add(ctx, 1, attrs)
}

func NewCounter(meter metric.Meter, name string, description string, unit Unit) metric.Int64Counter {
	counter, err := meter.Int64Counter(name,
		metric.WithUnit(string(unit)),
		metric.WithDescription(description))
	fatalOnErr(err, name)
	return counter
}

func NewCountHistogram(meter metric.Meter, name string, description string) metric.Int64Histogram {
	histogram, err := meter.Int64Histogram(name,
		metric.WithUnit(string(Dimensionless)),
		metric.WithDescription(description))
	fatalOnErr(err, name)
	return histogram
}

func newMillisCounter(meter metric.Meter, name string, description string) metric.Float64Counter {
	counter, err := meter.Float64Counter(name,
		metric.WithUnit(string(Milliseconds)),
		metric.WithDescription(description))
	fatalOnErr(err, name)
	return counter
}

func fatalOnErr(err error, name string) {
	if err != nil {
		slog.Error(
			"Failed to create metric",
			slog.String("metric-name", name),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

// Attrs converts a label map into measurement attributes.
func Attrs(labels map[string]string) metric.MeasurementOption {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.Key(k).String(v))
	}
	return metric.WithAttributes(attrs...)
}
