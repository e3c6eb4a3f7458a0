// Package preflight provides readiness checks for the directories, assets,
// binaries and services slidereel depends on.
//
// The daemon runs RunAll at startup and logs failures without refusing to
// start, since an intro asset may be provisioned after launch. The CLI
// "slidereel status" command prints the same results.
//
// Each check is gated by its config section; unconfigured features are skipped.
package preflight
