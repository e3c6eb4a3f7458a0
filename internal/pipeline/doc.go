// Package pipeline runs one job end to end: archive ingest, one render per
// slide, the full and short crossfade stitches, and the optional upload of
// both outputs.
//
// Generation progress climbs from 0 to 50% across renders and from 50 to 99%
// across crossfade folds, then switches to the upload phases. Every temporary
// file lives in a per-job directory under paths.work_dir and is removed before
// Run returns. Finished videos are written to paths.output_dir.
package pipeline
