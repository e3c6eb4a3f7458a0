// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: the inspection interface render and stitch depend on
//   - Inspector: Prober backed by the ffprobe binary
//
// Helper methods on Result expose the values the pipeline needs: container
// and audio duration, video frame height, and stream counts.
package ffprobe
