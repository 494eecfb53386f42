// Package daemon runs the long-lived animeimporter process.
//
// It takes a flock-based lock in the data directory so only one instance
// serves a database, runs preflight checks once at startup and serves the
// HTTP API until its context is cancelled. The listener and the shutdown
// watcher run in one errgroup so a listener failure also stops the process.
package daemon
