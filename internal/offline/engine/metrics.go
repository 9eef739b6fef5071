package engine

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"ronda-app-go/internal/offline/queue"
)

// MeterName is the instrumentation scope of the replay counters.
const MeterName = "ronda-app-go/offline/engine"

const (
	metricReplaySucceeded    = "offline.replay.succeeded"
	metricReplayFailed       = "offline.replay.failed"
	metricReplayDeadLettered = "offline.replay.dead_lettered"
)

type replayMetrics struct {
	succeeded    metric.Int64Counter
	failed       metric.Int64Counter
	deadLettered metric.Int64Counter
}

// newReplayMetrics registers the counters on meter, or on the global meter
// provider when meter is nil. Instruments that fail to register are left nil
// and skipped by record.
func newReplayMetrics(meter metric.Meter) (replayMetrics, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}

	var m replayMetrics
	var errs []error
	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit("{operation}"))
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		return c
	}
	m.succeeded = counter(metricReplaySucceeded, "Queued operations replayed successfully")
	m.failed = counter(metricReplayFailed, "Failed replay attempts")
	m.deadLettered = counter(metricReplayDeadLettered, "Queued operations moved to the dead-letter list")
	return m, errors.Join(errs...)
}

func (m replayMetrics) record(ctx context.Context, counter metric.Int64Counter, op queue.Operation) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", op.Entity),
		attribute.String("kind", string(op.Kind)),
	))
}
