// Package stitch joins an intro and rendered slide clips into one video.
//
// Clips are folded pairwise: each step overlays a fade-in of the next clip on
// a fade-out of the running result, clones the last frame for half of the
// hold, and appends the next clip's audio after a delay equal to the hold. The
// intro is treated as IntroTailSeconds longer than its probed length so its
// closing beat is not cut by the first transition.
package stitch
