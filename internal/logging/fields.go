package logging

const (
	// FieldComponent names the subsystem that emitted a log line.
	FieldComponent = "component"
	// FieldJobID carries the eight-character submission identifier.
	FieldJobID = "job_id"
	// FieldStage names the pipeline stage (ingest, render, stitch, upload, notify).
	FieldStage = "stage"
	// FieldCorrelationID carries HTTP request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType is a stable machine-readable label for the event.
	FieldEventType = "event_type"
	// FieldErrorHint tells an operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
