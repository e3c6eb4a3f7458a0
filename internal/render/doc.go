// Package render encodes a single slide: a still image looped for the length
// of its narration plus a short pause, with the narration re-encoded to a fixed
// audio profile. Two resolution presets are supported.
package render
