// Package preflight provides readiness checks for the filesystem paths and
// the metadata provider animeimporter depends on.
//
// The daemon runs RunAll once at startup and logs failures; the HTTP status
// endpoint and "animeimporter status" render the same results so an operator
// can see why syncs are failing.
package preflight
