// Package notifications emails job outcomes through Postmark.
//
// The queue calls Service once per finished job: NotifyCompleted with links
// to the uploaded videos, or NotifyFailed with the error. Delivery is retried
// once by default. When no Postmark token is configured NewService returns a
// noop implementation so the daemon runs without email.
package notifications
