// Package tempfiles tracks the intermediate files a single pipeline run
// creates (extracted slides, rendered clips, crossfade intermediates) so they
// can all be removed when the run ends, whether it succeeded or not.
package tempfiles
