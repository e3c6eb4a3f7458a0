// Package daemon coordinates the long-running slidereel process.
//
// It ties the queue manager, history log and notifier to an HTTP intake
// surface under /api and holds a flock-based lock so only one daemon runs
// against a given log directory. Upload validation happens here and in the
// queue; everything after admission is asynchronous and visible through the
// status endpoints.
//
// Keep orchestration logic here: video work belongs in the pipeline packages
// while the daemon focuses on startup, shutdown and request handling.
package daemon
