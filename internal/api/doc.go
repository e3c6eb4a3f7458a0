// Package api defines the JSON wire format of the slidereel HTTP surface and
// a small client the CLI uses to talk to a running daemon.
//
// Field names follow the multipart upload form used by the web clients: "to",
// "skipS3", "is720p" and "noEmail" on intake, camelCase keys on responses.
// Status strings are passed through verbatim from the queue.
package api
