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
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/streamnative/cachering/common/metrics"
)

type ringMetrics struct {
	sinceFunc func(time.Time) time.Duration

	buildTime metrics.Timer
	points    metric.Int64Histogram
	lookups   metric.Int64Counter

	success metric.MeasurementOption
	failure metric.MeasurementOption
}

func newRingMetrics(provider metric.MeterProvider, strategy string) *ringMetrics {
	meter := provider.Meter("cachering_ring")
	return &ringMetrics{
		sinceFunc: time.Since,
		buildTime: metrics.NewTimer(meter, "cachering_ring_build", "Time spent building a continuum"),
		points:    metrics.NewCountHistogram(meter, "cachering_ring_points", "Number of points of a built continuum"),
		lookups:   metrics.NewCounter(meter, "cachering_ring_lookup", "Number of key lookups", ""),
		success:   attrs(strategy, nil),
		failure:   attrs(strategy, ErrEmptyRing),
	}
}

func (m *ringMetrics) recordBuild(start time.Time, points int) {
	ctx := context.Background()
	m.buildTime.Record(ctx, m.sinceFunc(start), m.success)
	m.points.Record(ctx, int64(points), m.success)
}

func (m *ringMetrics) recordLookup(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.lookups.Add(context.Background(), 1, m.failure)
		return
	}
	m.lookups.Add(context.Background(), 1, m.success)
}

func attrs(strategy string, err error) metric.MeasurementOption {
	return metric.WithAttributeSet(attribute.NewSet(
		attribute.Key("strategy").String(strategy),
		attribute.Key("result").String(result(err)),
	))
}

func result(err error) string {
	if err == nil {
		return "success"
	}
	return "failure"
}
