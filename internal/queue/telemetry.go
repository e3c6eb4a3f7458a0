package queue

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter         metric.Meter
	jobsQueued    metric.Int64Counter
	jobsCompleted metric.Int64Counter
	jobsFailed    metric.Int64Counter
	jobDuration   metric.Float64Histogram
	queueDepth    metric.Int64ObservableGauge
)

func init() {
	meter = otel.Meter("slidereel/internal/queue")

	var err error

	jobsQueued, err = meter.Int64Counter(
		"slidereel.queue.jobs_queued",
		metric.WithDescription("Number of submissions accepted into the queue"),
	)
	if err != nil {
		log.Fatalf("failed to create queue.jobs_queued counter: %v", err)
	}

	jobsCompleted, err = meter.Int64Counter(
		"slidereel.queue.jobs_completed",
		metric.WithDescription("Number of jobs that produced both videos"),
	)
	if err != nil {
		log.Fatalf("failed to create queue.jobs_completed counter: %v", err)
	}

	jobsFailed, err = meter.Int64Counter(
		"slidereel.queue.jobs_failed",
		metric.WithDescription("Number of jobs that failed, by failure kind"),
	)
	if err != nil {
		log.Fatalf("failed to create queue.jobs_failed counter: %v", err)
	}

	jobDuration, err = meter.Float64Histogram(
		"slidereel.queue.job_duration",
		metric.WithDescription("Wall time spent generating a job"),
		metric.WithUnit("s"),
	)
	if err != nil {
		log.Fatalf("failed to create queue.job_duration histogram: %v", err)
	}

	queueDepth, err = meter.Int64ObservableGauge(
		"slidereel.queue.depth",
		metric.WithDescription("Number of submissions waiting behind the current job"),
	)
	if err != nil {
		log.Fatalf("failed to create queue.depth gauge: %v", err)
	}
}

// registerQueueGauges attaches the depth callback for m. The returned
// registration must be released when the manager stops, otherwise the meter
// keeps m reachable.
func registerQueueGauges(m *Manager) (metric.Registration, error) {
	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		m.mu.RLock()
		depth := len(m.pending)
		m.mu.RUnlock()
		o.ObserveInt64(queueDepth, int64(depth))
		return nil
	}, queueDepth)
}

func recordQueued(ctx context.Context) {
	jobsQueued.Add(ctx, 1)
}

func recordCompleted(ctx context.Context, elapsed time.Duration, resolution string) {
	attrs := metric.WithAttributes(attribute.String("resolution", resolution))
	jobsCompleted.Add(ctx, 1, attrs)
	jobDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func recordFailed(ctx context.Context, kind string) {
	jobsFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("failure_kind", kind)))
}
