// Package archive turns an uploaded zip payload into an ordered set of slide
// images and narration clips.
//
// Entries are ordered by the number that prefixes their file name (so "10.png"
// follows "9.png"), classified by extension, and written to tracked temporary
// paths. Inspect performs the same ordering and validation without touching
// the file system so intake can reject malformed archives synchronously.
//
// A valid archive has at least one image and exactly as many audio clips as
// images; anything else is reported as services.ErrValidation.
package archive
