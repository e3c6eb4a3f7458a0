// Package ffmpeg runs the ffmpeg binary behind a small Runner interface so
// slide rendering and transition stitching can be tested without encoding
// real media. ExecRunner streams -progress output to an optional callback.
package ffmpeg
