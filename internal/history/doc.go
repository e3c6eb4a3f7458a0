// Package history keeps the time-bounded log of completed jobs used to answer
// status queries after a job has left the queue.
//
// Three backends share the same expiry rules: a single JSON array file (the
// default), a SQLite table and a pebble key-value store. Records older than
// the retention window (72 hours by default) are dropped on every append and
// filtered from every read.
package history
