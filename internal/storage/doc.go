// Package storage publishes finished videos.
//
// Uploader has four implementations selected by storage.backend: Noop, Local
// (copy into a directory), S3 (aws-sdk-go-v2 multipart manager, also for
// S3-compatible endpoints) and GCS. Every backend reports advisory percentage
// progress and records attempt and byte counters through the global
// OpenTelemetry meter.
package storage
