// Package logging assembles structured slog loggers and formatting helpers used
// across slidereel.
//
// It owns the console/JSON handlers, routes ERROR records to a dedicated file
// through a slog-multi fanout, and exposes context-aware helpers so pipeline
// code automatically tags log lines with job IDs and stage names. It also
// provides progress sampling, log retention, and a no-op logger for tests.
package logging
