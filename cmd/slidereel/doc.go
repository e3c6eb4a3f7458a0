// Package main hosts the slidereel CLI entrypoint and command graph.
//
// The Cobra command tree runs the daemon in the foreground and translates
// the remaining invocations (submit, status, status-all, busy, health,
// test-notify) into HTTP calls against it. Configuration resolution and the
// daemon address live in commandContext so subcommands only render output.
//
// Keep this package lean: new behavior belongs in the internal packages and
// is surfaced here through dedicated commands or flags.
package main
