// Copyright 2025 Tom Barlow
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

package feed

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	apperrors "github.com/tombee/genesysfeed/pkg/errors"
)

// Metrics collects Prometheus-compatible metrics for feed cycles.
type Metrics struct {
	meter metric.Meter

	cyclesTotal  metric.Int64Counter
	eventsTotal  metric.Int64Counter
	skippedTotal metric.Int64Counter
	errorsTotal  metric.Int64Counter

	cycleLatency metric.Float64Histogram

	activeFeeds   int64
	activeFeedsMu sync.RWMutex
}

// NewMetrics creates the feed metrics collector on the given provider.
func NewMetrics(meterProvider metric.MeterProvider) (*Metrics, error) {
	meter := meterProvider.Meter("genesysfeed")

	m := &Metrics{meter: meter}
	var err error

	m.cyclesTotal, err = meter.Int64Counter(
		"genesysfeed_cycles_total",
		metric.WithDescription("Total number of feed cycles executed"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, err
	}

	m.eventsTotal, err = meter.Int64Counter(
		"genesysfeed_events_total",
		metric.WithDescription("Total number of events delivered to the sink"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	m.skippedTotal, err = meter.Int64Counter(
		"genesysfeed_records_skipped_total",
		metric.WithDescription("Total number of records dropped by filters or per-record failures"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, err
	}

	m.errorsTotal, err = meter.Int64Counter(
		"genesysfeed_cycle_errors_total",
		metric.WithDescription("Total number of failed feed cycles"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.cycleLatency, err = meter.Float64Histogram(
		"genesysfeed_cycle_latency_seconds",
		metric.WithDescription("Feed cycle duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.Int64ObservableGauge(
		"genesysfeed_active_feeds",
		metric.WithDescription("Number of scheduled feeds"),
		metric.WithUnit("{feed}"),
		metric.WithInt64Callback(func(_ context.Context, observer metric.Int64Observer) error {
			m.activeFeedsMu.RLock()
			count := m.activeFeeds
			m.activeFeedsMu.RUnlock()
			observer.Observe(count)
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ObserveCycle records one finished cycle.
func (m *Metrics) ObserveCycle(ctx context.Context, feed string, duration time.Duration, stats Stats, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("feed", feed),
		attribute.String("status", status),
	}

	m.cyclesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.cycleLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	feedAttr := metric.WithAttributes(attribute.String("feed", feed))
	if stats.Emitted > 0 {
		m.eventsTotal.Add(ctx, int64(stats.Emitted), feedAttr)
	}
	if stats.Skipped > 0 {
		m.skippedTotal.Add(ctx, int64(stats.Skipped), feedAttr)
	}
	if err != nil {
		m.errorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("feed", feed),
			attribute.String("error_type", errorType(err)),
		))
	}
}

// SetActiveFeeds sets the scheduled feed count gauge.
func (m *Metrics) SetActiveFeeds(count int) {
	m.activeFeedsMu.Lock()
	m.activeFeeds = int64(count)
	m.activeFeedsMu.Unlock()
}

func errorType(err error) string {
	switch {
	case apperrors.IsConfiguration(err):
		return "configuration"
	case apperrors.IsAuth(err):
		return "auth"
	case apperrors.IsTransient(err):
		return "transient"
	default:
		return "other"
	}
}
