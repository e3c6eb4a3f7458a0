// Package queue admits video submissions and runs them one at a time in
// arrival order.
//
// The Manager owns the pending FIFO, the current job and its live status
// string. A single worker goroutine drives each job through the pipeline,
// appends the outcome to the history log and dispatches the notification.
// Status queries read snapshots and never observe partially updated state.
package queue
