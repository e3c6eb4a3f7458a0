package storage

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"slidereel/internal/services"
)

var (
	uploadsTotal  metric.Int64Counter
	uploadedBytes metric.Int64Counter
)

func init() {
	meter := otel.Meter("slidereel/internal/storage")

	var err error

	uploadsTotal, err = meter.Int64Counter(
		"slidereel.storage.uploads",
		metric.WithDescription("Number of upload attempts by backend and outcome"),
	)
	if err != nil {
		log.Fatalf("failed to create storage.uploads counter: %v", err)
	}

	uploadedBytes, err = meter.Int64Counter(
		"slidereel.storage.uploaded_bytes",
		metric.WithDescription("Bytes written to the storage backend"),
		metric.WithUnit("By"),
	)
	if err != nil {
		log.Fatalf("failed to create storage.uploaded_bytes counter: %v", err)
	}
}

func recordUpload(ctx context.Context, backend string, err error) {
	outcome := "success"
	if err != nil {
		outcome = services.FailureKind(err)
	}
	uploadsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("outcome", outcome),
	))
}

func recordBytes(ctx context.Context, backend string, n int64) {
	if n <= 0 {
		return
	}
	uploadedBytes.Add(ctx, n, metric.WithAttributes(attribute.String("backend", backend)))
}
