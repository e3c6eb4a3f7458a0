// Package fileutil provides file copy and move helpers that tolerate moving
// finished videos across file systems.
package fileutil
